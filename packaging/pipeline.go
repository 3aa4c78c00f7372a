/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package packaging

import (
	"context"
	"strings"
	"sync"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/scm"
	"github.com/cowdogmoo/jdkbuild/shell"
	"github.com/cowdogmoo/jdkbuild/version"
)

// StageContext carries the build description and collaborators shared by
// all stages. Artifacts is filled by the archive stage.
type StageContext struct {
	Config config.BuildConfig
	Tag    version.Tag
	Naming Naming

	Runner   shell.Runner
	Archiver Archiver
	Signer   Signer

	// OpenJDK is the source checkout; Scripts is the build scripts
	// checkout. Either may be nil.
	OpenJDK scm.Provider
	Scripts scm.Provider

	VariantVersion *version.VariantVersion
	ConfigureArgs  string
	MakeCommand    string

	Artifacts []string

	libcOnce sync.Once
	libc     string
}

// NewStageContext returns a StageContext with the default archiver and signer
// for cfg.
func NewStageContext(cfg config.BuildConfig, tag version.Tag, runner shell.Runner) *StageContext {
	return &StageContext{
		Config:   cfg,
		Tag:      tag,
		Naming:   NewNaming(cfg, tag),
		Runner:   runner,
		Archiver: NewArchiver(cfg.ArchiveFormat, cfg.BuildTimestamp),
		Signer:   NewToolSigner(runner, cfg),
	}
}

// Targets recomputes the artifact paths.
func (sc *StageContext) Targets() (Targets, error) {
	return ComputeTargets(sc.Config, sc.Tag)
}

// Libc returns glibc or musl on Linux and "" elsewhere. The host is probed
// once with ldd --version; musl's ldd exits non-zero, so only the output
// is inspected.
func (sc *StageContext) Libc(ctx context.Context) string {
	sc.libcOnce.Do(func() {
		if !sc.Config.Platform.IsLinux() || sc.Runner == nil {
			return
		}
		out, _ := sc.Runner.Output(ctx, "ldd", "--version")
		sc.libc = "glibc"
		if strings.Contains(strings.ToLower(string(out)), "musl") {
			sc.libc = "musl"
		}
	})
	return sc.libc
}

// Stage is one idempotent packaging step.
type Stage interface {
	Name() string
	Run(ctx context.Context, sc *StageContext) error
}

type stageFunc struct {
	name string
	run  func(ctx context.Context, sc *StageContext) error
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Run(ctx context.Context, sc *StageContext) error { return s.run(ctx, sc) }

// NewStage adapts a function to a Stage.
func NewStage(name string, run func(ctx context.Context, sc *StageContext) error) Stage {
	return stageFunc{name: name, run: run}
}

// Pipeline runs stages in order and stops at the first failure.
type Pipeline struct {
	Stages []Stage
}

// NewPipeline returns the standard stage order. Extra stages run after
// metadata and before archive.
func NewPipeline(extra ...Stage) *Pipeline {
	stages := []Stage{
		RelocateStage(),
		StripDemoStage(),
		DebugSymbolsStage(),
		PostProcessStage(),
		MetadataStage(),
	}
	stages = append(stages, extra...)
	stages = append(stages, ArchiveStage())
	return &Pipeline{Stages: stages}
}

// Names lists the stage names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		names = append(names, s.Name())
	}
	return names
}

// Run executes every stage.
func (p *Pipeline) Run(ctx context.Context, sc *StageContext) error {
	for _, s := range p.Stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		logging.InfoContext(ctx, "Running packaging stage: %s", s.Name())
		if err := s.Run(ctx, sc); err != nil {
			return errors.Wrap("run packaging stage", s.Name(), err)
		}
	}
	return nil
}
