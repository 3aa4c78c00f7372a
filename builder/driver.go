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

package builder

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/configure"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/packaging"
	"github.com/cowdogmoo/jdkbuild/shell"
)

// Driver script exit codes.
const (
	ExitConfigure = 2
	ExitMake      = 3
)

// Workspace files written by the driver.
const (
	ScriptName   = "configure-and-build.sh"
	BuildLogName = "build.log"
	StampName    = "exploded-image.stamp"
)

const scriptTemplate = `#!/bin/bash
# Generated by jdkbuild. Do not edit.
cd {{ quote .SourceDir }} || exit 1
{{- if .Exploded }}
touch {{ quote .StampFile }}
{{- else }}
bash ./configure {{ .ConfigureArgs }} || exit 2
{{- end }}
make {{ join .Targets }} || exit 3
`

var script = template.Must(template.New(ScriptName).Funcs(template.FuncMap{
	"quote": shell.Quote,
	"join":  shell.Join,
}).Parse(scriptTemplate))

// scriptData is the template input.
type scriptData struct {
	SourceDir     string
	StampFile     string
	Exploded      bool
	ConfigureArgs string
	Targets       []string
}

// Driver renders the configure-and-build script and runs it.
type Driver struct {
	Runner shell.Runner
	// Echo tees toolchain output to the console as well as build.log.
	Echo bool
}

// Request describes one driver invocation.
type Request struct {
	Config  config.BuildConfig
	Args    *configure.ArgumentSet
	Targets []string
	Naming  packaging.Naming
}

// Invocation is the outcome of one driver run.
type Invocation struct {
	Script      string
	BuildLog    string
	MakeCommand string
	ExitCode    int
	Duration    time.Duration
	// FailureLogs is the archived failure log bundle after a make failure.
	FailureLogs string
}

// Render returns the driver script for the build.
func Render(cfg config.BuildConfig, args *configure.ArgumentSet, targets []string) (string, error) {
	data := scriptData{
		SourceDir: cfg.SourceDir,
		StampFile: filepath.Join(cfg.WorkspaceDir, StampName),
		Exploded:  cfg.ExplodedImage,
		Targets:   targets,
	}
	if args != nil {
		data.ConfigureArgs = args.String()
	}
	var buf bytes.Buffer
	if err := script.Execute(&buf, data); err != nil {
		return "", errors.Wrap("render build script", ScriptName, err)
	}
	return buf.String(), nil
}

// MakeCommand is the make invocation recorded in the metadata directory.
func MakeCommand(targets []string) string {
	return "make " + shell.Join(targets)
}

// Run writes the script to the workspace, executes it with output captured
// in build.log and maps its exit code to a typed error.
func (d *Driver) Run(ctx context.Context, req Request) (*Invocation, error) {
	cfg := req.Config
	if cfg.ExplodedImage {
		if _, err := packaging.FindBuildDir(cfg); err != nil {
			return nil, errors.New(errors.KindEnvironment, "exploded image rebuild needs an already configured build", err).
				WithRemediation("Run a full build once before requesting an exploded image")
		}
	}

	body, err := Render(cfg, req.Args, req.Targets)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.WorkspaceDir, config.DirPermReadWriteExec); err != nil {
		return nil, errors.Wrap("create workspace", cfg.WorkspaceDir, err)
	}
	run := &Invocation{
		Script:      filepath.Join(cfg.WorkspaceDir, ScriptName),
		BuildLog:    filepath.Join(cfg.WorkspaceDir, BuildLogName),
		MakeCommand: MakeCommand(req.Targets),
	}
	if err := os.WriteFile(run.Script, []byte(body), 0o755); err != nil {
		return nil, errors.Wrap("write build script", run.Script, err)
	}

	sink, err := logging.OpenSink(ctx, run.BuildLog, d.Echo)
	if err != nil {
		return nil, errors.Wrap("open build log", run.BuildLog, err)
	}

	logging.InfoContext(ctx, "Executing %s (%s)", ScriptName, run.MakeCommand)
	start := time.Now()
	code, err := d.Runner.Run(ctx, shell.Command{
		Name:   "bash",
		Args:   []string{run.Script},
		Dir:    cfg.SourceDir,
		Stdout: sink,
		Stderr: sink,
	})
	run.Duration = time.Since(start)
	run.ExitCode = code
	if cerr := sink.Close(); cerr != nil {
		logging.WarnContext(ctx, "Failed to close build log: %v", cerr)
	}
	if err != nil {
		return run, errors.Wrap("run build script", run.Script, err)
	}

	return run, d.classify(ctx, req, run)
}

func (d *Driver) classify(ctx context.Context, req Request, run *Invocation) error {
	cfg := req.Config
	switch run.ExitCode {
	case 0:
		logging.InfoContext(ctx, "Build finished in %s", run.Duration.Round(time.Second))
		return nil
	case ExitConfigure:
		boot := cfg.BootJDK
		if boot == "" {
			boot = "none configured"
		}
		return errors.New(errors.KindConfigure,
			fmt.Sprintf("configure failed (boot JDK: %s), see %s", boot, run.BuildLog), nil).
			WithRemediation(fmt.Sprintf("Check that the boot JDK is JDK %d or %d and that configure dependencies are installed",
				cfg.FeatureVersion-1, cfg.FeatureVersion))
	case ExitMake:
		archive, lerr := CollectFailureLogs(ctx, cfg, req.Naming, run.BuildLog)
		if lerr != nil {
			logging.WarnContext(ctx, "Failed to collect make failure logs: %v", lerr)
		}
		run.FailureLogs = archive
		msg := fmt.Sprintf("make failed, see %s", run.BuildLog)
		if archive != "" {
			msg += " and " + archive
		}
		return errors.New(errors.KindMake, msg, nil)
	default:
		return errors.New(errors.KindToolchain,
			fmt.Sprintf("%s exited with code %d, see %s", ScriptName, run.ExitCode, run.BuildLog), nil)
	}
}
