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

// Package builder drives a complete JDK build: source checkout, version
// resolution, configure argument derivation, the configure and make
// toolchain run, and packaging.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/configure"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/packaging"
	"github.com/cowdogmoo/jdkbuild/sbom"
	"github.com/cowdogmoo/jdkbuild/scm"
	"github.com/cowdogmoo/jdkbuild/shell"
	"github.com/cowdogmoo/jdkbuild/version"
)

// ProviderFunc opens the source repository of a build.
type ProviderFunc func(ctx context.Context, cfg config.BuildConfig) (scm.Provider, error)

// BuildService coordinates the pipeline stages for one BuildConfig.
type BuildService struct {
	Runner shell.Runner
	Args   *configure.Builder
	Driver *Driver
	SBOM   *sbom.Assembler

	// OpenProvider defaults to Checkout.
	OpenProvider ProviderFunc
	// ToolVersion is recorded in the SBOM.
	ToolVersion string
}

// BuildResult summarises a finished build.
type BuildResult struct {
	Tag           string   `json:"tag"`
	ConfigureArgs string   `json:"configureArgs"`
	MakeTargets   []string `json:"makeTargets"`
	BuildLog      string   `json:"buildLog,omitempty"`
	Artifacts     []string `json:"artifacts,omitempty"`
	Duration      string   `json:"duration"`
}

// NewBuildService returns a service that runs tools through runner and
// formats build times with date.
func NewBuildService(runner shell.Runner, date configure.DateFormatter) *BuildService {
	return &BuildService{
		Runner: runner,
		Args:   configure.NewBuilder(date),
		Driver: &Driver{Runner: runner, Echo: true},
		SBOM:   sbom.NewAssembler(),
	}
}

// Checkout clones the configured repository into the source directory, or
// opens an existing checkout when no repository is configured.
func Checkout(ctx context.Context, cfg config.BuildConfig) (scm.Provider, error) {
	if cfg.Repository == "" {
		p, err := scm.OpenGitProvider(cfg.SourceDir)
		if err != nil {
			return nil, errors.Wrap("open source checkout", cfg.SourceDir, err)
		}
		return p, nil
	}

	ref := cfg.Tag
	if ref == "" {
		ref = cfg.Branch
	}
	p, err := scm.Clone(ctx, scm.CloneOptions{
		URL: cfg.Repository,
		Ref: ref,
		Dir: cfg.SourceDir,
	})
	if err != nil {
		return nil, errors.Wrap("clone", logging.RedactURL(cfg.Repository), err)
	}
	return p, nil
}

func (s *BuildService) provider(ctx context.Context, cfg config.BuildConfig) (scm.Provider, error) {
	open := s.OpenProvider
	if open == nil {
		open = Checkout
	}
	return open(ctx, cfg)
}

// ResolveVersion checks out the source and resolves the tag to build.
func (s *BuildService) ResolveVersion(ctx context.Context, cfg config.BuildConfig) (version.Tag, scm.Provider, error) {
	p, err := s.provider(ctx, cfg)
	if err != nil {
		return version.Tag{}, nil, err
	}
	tag, err := version.NewResolver(p).Resolve(ctx, cfg)
	if err != nil {
		return version.Tag{}, p, err
	}
	return tag, p, nil
}

// ConfigureArgs resolves the version and derives the configure arguments.
func (s *BuildService) ConfigureArgs(ctx context.Context, cfg config.BuildConfig) (version.Tag, *configure.ArgumentSet, error) {
	tag, _, err := s.ResolveVersion(ctx, cfg)
	if err != nil {
		return version.Tag{}, nil, err
	}
	args, err := s.Args.Build(ctx, cfg, tag)
	if err != nil {
		return version.Tag{}, nil, err
	}
	return tag, args, nil
}

// ExecuteBuild runs the whole pipeline. Exploded image builds skip
// configure and recompilation, then re-sign and re-package the existing
// output tree.
func (s *BuildService) ExecuteBuild(ctx context.Context, cfg config.BuildConfig) (*BuildResult, error) {
	logging.InfoContext(ctx, "Executing %s build of JDK %d", cfg.VariantName, cfg.FeatureVersion)
	start := time.Now()

	tag, provider, err := s.ResolveVersion(ctx, cfg)
	if err != nil {
		return nil, err
	}
	args, err := s.Args.Build(ctx, cfg, tag)
	if err != nil {
		return nil, err
	}
	targets, err := MakeTargets(cfg)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Tag:           tag.Raw,
		ConfigureArgs: args.String(),
		MakeTargets:   targets,
	}
	run, err := s.Driver.Run(ctx, Request{
		Config:  cfg,
		Args:    args,
		Targets: targets,
		Naming:  packaging.NewNaming(cfg, tag),
	})
	if run != nil {
		result.BuildLog = run.BuildLog
	}
	if err != nil {
		return result, err
	}

	if cfg.ExplodedImage {
		logging.InfoContext(ctx, "Exploded image rebuilt, re-signing and re-packaging existing output")
	}
	artifacts, err := s.Package(ctx, PackageRequest{
		Config:        cfg,
		Tag:           tag,
		ConfigureArgs: args.String(),
		MakeCommand:   run.MakeCommand,
		OpenJDK:       provider,
	})
	if err != nil {
		return result, err
	}
	result.Artifacts = artifacts

	result.Duration = time.Since(start).Round(time.Second).String()
	logging.InfoContext(ctx, "Build completed successfully in %s", result.Duration)
	return result, nil
}

// PackageRequest is the input of Package.
type PackageRequest struct {
	Config        config.BuildConfig
	Tag           version.Tag
	ConfigureArgs string
	MakeCommand   string
	OpenJDK       scm.Provider
}

// Package runs the packaging pipeline over existing build output and
// returns the produced artifacts.
func (s *BuildService) Package(ctx context.Context, req PackageRequest) ([]string, error) {
	sc, err := s.stageContext(ctx, req)
	if err != nil {
		return nil, err
	}

	var extra []packaging.Stage
	if req.Config.CreateSBOM {
		extra = append(extra, sbom.Stage(s.SBOM, s.ToolVersion))
	}
	if err := packaging.NewPipeline(extra...).Run(ctx, sc); err != nil {
		return nil, err
	}
	for _, a := range sc.Artifacts {
		logging.InfoContext(ctx, "Produced %s", a)
	}
	if len(sc.Artifacts) == 0 {
		return nil, fmt.Errorf("packaging produced no artifacts")
	}
	return sc.Artifacts, nil
}

// GenerateSBOM relocates the images if needed and assembles the SBOM
// alone, returning its path. The metadata directory must already hold the
// files a packaging run writes.
func (s *BuildService) GenerateSBOM(ctx context.Context, req PackageRequest) (string, error) {
	sc, err := s.stageContext(ctx, req)
	if err != nil {
		return "", err
	}
	p := &packaging.Pipeline{Stages: []packaging.Stage{
		packaging.RelocateStage(),
		sbom.Stage(s.SBOM, s.ToolVersion),
	}}
	if err := p.Run(ctx, sc); err != nil {
		return "", err
	}
	t, err := sc.Targets()
	if err != nil {
		return "", err
	}
	return t.SBOM, nil
}

func (s *BuildService) stageContext(ctx context.Context, req PackageRequest) (*packaging.StageContext, error) {
	cfg := req.Config
	sc := packaging.NewStageContext(cfg, req.Tag, s.Runner)
	sc.ConfigureArgs = req.ConfigureArgs
	sc.MakeCommand = req.MakeCommand
	sc.OpenJDK = req.OpenJDK

	if cfg.ScriptsDir != "" {
		if p, err := scm.OpenGitProvider(cfg.ScriptsDir); err == nil {
			sc.Scripts = p
		} else {
			logging.WarnContext(ctx, "Build scripts checkout %s is not a git repository: %v", cfg.ScriptsDir, err)
		}
	}
	if vp, ok := version.OpenVariantProvider(cfg); ok {
		vv, found, err := version.ResolveVariantVersion(ctx, cfg, vp)
		if err != nil {
			return nil, errors.Wrap("resolve variant version", cfg.VariantName, err)
		}
		if found {
			sc.VariantVersion = &vv
		}
	}
	return sc, nil
}
