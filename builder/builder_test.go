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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/configure"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/packaging"
	"github.com/cowdogmoo/jdkbuild/scm"
	"github.com/cowdogmoo/jdkbuild/scm/scmtest"
	"github.com/cowdogmoo/jdkbuild/shell"
	"github.com/cowdogmoo/jdkbuild/shell/shelltest"
	"github.com/cowdogmoo/jdkbuild/version"
)

func newConfig(t *testing.T, mutate func(*config.Config)) config.BuildConfig {
	t.Helper()
	settings := config.Defaults()
	settings.Workspace.Dir = t.TempDir()
	settings.Build.Variant = "temurin"
	settings.Build.FeatureVersion = 17
	settings.Build.ArchiveFormat = config.ArchiveTarGz
	if mutate != nil {
		mutate(settings)
	}
	cfg, err := config.NewBuildConfig(settings, config.NewPlatform("Linux", "6.1.0", "x86_64"),
		time.Date(2024, 3, 5, 9, 20, 30, 0, time.UTC))
	require.NoError(t, err)
	return cfg
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestMakeTargets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{
			name:   "jdk8 images only",
			mutate: func(c *config.Config) { c.Build.FeatureVersion = 8; c.Build.CreateJREImage = true },
			want:   []string{"images"},
		},
		{
			name:   "jdk8 openj9 test and debug",
			mutate: func(c *config.Config) { c.Build.FeatureVersion = 8; c.Build.Variant = "openj9"; c.Build.CreateDebugImage = true },
			want:   []string{"images", "test-image", "debug-image"},
		},
		{
			name:   "jdk9 product images",
			mutate: func(c *config.Config) { c.Build.FeatureVersion = 9 },
			want:   []string{"product-images"},
		},
		{
			name: "jdk17 everything",
			mutate: func(c *config.Config) {
				c.Build.CreateJREImage = true
				c.Build.CreateDebugImage = true
				c.Build.CreateStaticLibsImage = true
			},
			want: []string{"product-images", "legacy-jre-image", "test-image", "debug-image", "static-libs-image"},
		},
		{
			name:   "exploded image",
			mutate: func(c *config.Config) { c.Build.ExplodedImage = true; c.Build.CreateDebugImage = true },
			want:   []string{"product-images"},
		},
		{
			name:   "make args replace derived targets",
			mutate: func(c *config.Config) { c.Build.MakeArgs = `images "LOG=debug info"` },
			want:   []string{"images", "LOG=debug info"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MakeTargets(newConfig(t, tt.mutate))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMakeTargets_BadArgs(t *testing.T) {
	_, err := MakeTargets(newConfig(t, func(c *config.Config) { c.Build.MakeArgs = `images "unterminated` }))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	cfg := newConfig(t, nil)
	args, err := configure.NewArgumentSet("--with-jobs=4")
	require.NoError(t, err)
	args.AddIfAbsent("--with-vendor-name", "Eclipse Adoptium")

	body, err := Render(cfg, args, []string{"product-images", "test-image"})
	require.NoError(t, err)
	assert.Contains(t, body, "cd "+shell.Quote(cfg.SourceDir)+" || exit 1\n")
	assert.Contains(t, body, "bash ./configure '--with-vendor-name=Eclipse Adoptium' --with-jobs=4 || exit 2\n")
	assert.Contains(t, body, "make product-images test-image || exit 3\n")
	assert.NotContains(t, body, "touch")

	cfg.ExplodedImage = true
	body, err = Render(cfg, args, []string{"product-images"})
	require.NoError(t, err)
	assert.NotContains(t, body, "./configure")
	assert.Contains(t, body, "touch "+shell.Quote(filepath.Join(cfg.WorkspaceDir, StampName)))
}

func TestDriver_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		kind errors.Kind
	}{
		{name: "success", code: 0},
		{name: "configure failure", code: ExitConfigure, kind: errors.KindConfigure},
		{name: "make failure", code: ExitMake, kind: errors.KindMake},
		{name: "other failure", code: 1, kind: errors.KindToolchain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t, func(c *config.Config) { c.Build.BootJDK = "/opt/jdk-16" })
			runner := &shelltest.Runner{Responses: map[string]shelltest.Response{
				"bash": {Output: "checking for javac... yes\n", ExitCode: tt.code},
			}}
			d := &Driver{Runner: runner}

			run, err := d.Run(context.Background(), Request{Config: cfg, Targets: []string{"product-images"}})
			require.NotNil(t, run)
			assert.Equal(t, tt.code, run.ExitCode)

			log, rerr := os.ReadFile(run.BuildLog)
			require.NoError(t, rerr)
			assert.Equal(t, "checking for javac... yes\n", string(log))
			assert.FileExists(t, run.Script)
			assert.True(t, runner.Called("bash "+run.Script))

			if tt.kind == errors.KindUnknown {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, tt.kind))
			if tt.kind == errors.KindConfigure {
				assert.Contains(t, err.Error(), "/opt/jdk-16")
			}
		})
	}
}

func TestDriver_MakeFailureCollectsLogs(t *testing.T) {
	cfg := newConfig(t, nil)
	writeFile(t, filepath.Join(cfg.SourceDir, "hs_err_pid4242.log"), "SIGSEGV")
	writeFile(t, filepath.Join(cfg.SourceDir, "build", "linux", "replay_pid4242.log"), "replay")
	naming := packaging.Naming{JDK: "OpenJDK17U-jdk_x64_linux_hotspot_2024-03-05-09-20.tar.gz"}

	runner := &shelltest.Runner{Responses: map[string]shelltest.Response{
		"bash": {Output: "make: *** [all] Error 2\n", ExitCode: ExitMake},
	}}
	run, err := (&Driver{Runner: runner}).Run(context.Background(), Request{
		Config: cfg, Targets: []string{"product-images"}, Naming: naming,
	})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMake))

	want := filepath.Join(cfg.TargetDir, "OpenJDK17U-makefailurelogs_x64_linux_hotspot_2024-03-05-09-20.tar.gz")
	assert.Equal(t, want, run.FailureLogs)
	assert.FileExists(t, want)
	assert.Contains(t, err.Error(), want)

	logs := filepath.Join(cfg.WorkspaceDir, FailureLogsDir)
	assert.FileExists(t, filepath.Join(logs, BuildLogName))
	assert.FileExists(t, filepath.Join(logs, "hs_err_pid4242.log"))
	assert.FileExists(t, filepath.Join(logs, "build", "linux", "replay_pid4242.log"))
}

func TestDriver_ExplodedNeedsConfiguredBuild(t *testing.T) {
	cfg := newConfig(t, func(c *config.Config) { c.Build.ExplodedImage = true })
	runner := &shelltest.Runner{Responses: map[string]shelltest.Response{"bash": {}}}

	_, err := (&Driver{Runner: runner}).Run(context.Background(), Request{Config: cfg, Targets: []string{"product-images"}})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindEnvironment))
	assert.False(t, runner.Called("bash"))

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.SourceDir, "build", "linux-x86_64-server-release"), 0o755))
	_, err = (&Driver{Runner: runner}).Run(context.Background(), Request{Config: cfg, Targets: []string{"product-images"}})
	require.NoError(t, err)
}

// fakeMake lays out the image tree make would produce.
func fakeMake(t *testing.T, cfg config.BuildConfig) func(shell.Command) {
	return func(shell.Command) {
		images := filepath.Join(cfg.SourceDir, "build", "linux-x86_64-server-release", "images")
		writeFile(t, filepath.Join(images, "jdk", "release"), "JAVA_VERSION=\"11.0.2\"\n")
		writeFile(t, filepath.Join(images, "jdk", "bin", "java"), "#!/bin/sh\n")
		writeFile(t, filepath.Join(images, "test", "README"), "tests")
	}
}

func newService(t *testing.T, cfg config.BuildConfig, provider scm.Provider, code int) (*BuildService, *shelltest.Runner) {
	t.Helper()
	runner := &shelltest.Runner{Responses: map[string]shelltest.Response{
		"bash":          {ExitCode: code},
		"ldd --version": {Output: "ldd (GNU libc) 2.35"},
	}}
	runner.OnRun = fakeMake(t, cfg)

	s := NewBuildService(runner, configure.FixedDate{})
	s.Driver.Echo = false
	s.OpenProvider = func(context.Context, config.BuildConfig) (scm.Provider, error) { return provider, nil }
	s.ToolVersion = "test"
	return s, runner
}

func TestBuildService_ExecuteBuild(t *testing.T) {
	cfg := newConfig(t, func(c *config.Config) {
		c.Build.Variant = "mainline"
		c.Build.FeatureVersion = 11
		c.Build.Release = true
		c.Build.CreateSBOM = true
	})
	provider := &scmtest.Provider{
		Tags:   []string{"jdk-11.0.2+9", "jdk-11.0.2+7", "jdk-11.0.1+13"},
		Commit: "abc1234",
		Remote: "https://github.com/openjdk/jdk11u.git",
	}
	s, _ := newService(t, cfg, provider, 0)

	result, err := s.ExecuteBuild(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "jdk-11.0.2+9", result.Tag)
	assert.Contains(t, result.ConfigureArgs, "--without-version-pre")
	assert.Contains(t, result.ConfigureArgs, "--without-version-opt")
	assert.NotContains(t, result.ConfigureArgs, "--with-version-opt")
	assert.Equal(t, []string{"product-images", "test-image"}, result.MakeTargets)

	jdk := filepath.Join(cfg.TargetDir, "OpenJDK11U-jdk_x64_linux_hotspot_11.0.2_9.tar.gz")
	sbomFile := filepath.Join(cfg.TargetDir, "OpenJDK11U-sbom_x64_linux_hotspot_11.0.2_9.json")
	assert.Contains(t, result.Artifacts, jdk)
	assert.Contains(t, result.Artifacts, sbomFile)
	assert.FileExists(t, jdk+packaging.ChecksumSuffix)

	makeCommand, err := os.ReadFile(filepath.Join(cfg.MetadataDir, packaging.MetaMakeCommand))
	require.NoError(t, err)
	assert.Equal(t, "make product-images test-image", string(makeCommand))
	configureTxt, err := os.ReadFile(filepath.Join(cfg.MetadataDir, packaging.MetaConfigure))
	require.NoError(t, err)
	assert.Equal(t, result.ConfigureArgs, string(configureTxt))
}

func TestBuildService_ResolutionFailureStopsBuild(t *testing.T) {
	cfg := newConfig(t, nil)
	s, runner := newService(t, cfg, &scmtest.Provider{}, 0)

	_, err := s.ExecuteBuild(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResolution))
	assert.False(t, runner.Called("bash"))
}

func TestBuildService_MakeFailure(t *testing.T) {
	cfg := newConfig(t, nil)
	s, _ := newService(t, cfg, &scmtest.Provider{Tags: []string{"jdk-17.0.10+7"}}, ExitMake)

	result, err := s.ExecuteBuild(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMake))
	require.NotNil(t, result)
	assert.Empty(t, result.Artifacts)

	entries, err := os.ReadDir(cfg.TargetDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 1)
	assert.True(t, strings.Contains(names[0], "-makefailurelogs_"))
}

func TestBuildService_Exploded(t *testing.T) {
	cfg := newConfig(t, func(c *config.Config) { c.Build.ExplodedImage = true })
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.SourceDir, "build", "linux-x86_64-server-release"), 0o755))
	s, _ := newService(t, cfg, &scmtest.Provider{Tags: []string{"jdk-17.0.10+7"}}, 0)

	result, err := s.ExecuteBuild(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"product-images"}, result.MakeTargets)
	require.Len(t, result.Artifacts, 2)
	assert.Contains(t, result.Artifacts, filepath.Join(cfg.TargetDir, "OpenJDK17U-jdk_x64_linux_hotspot_2024-03-05-09-20.tar.gz"))

	makeCommand, err := os.ReadFile(filepath.Join(cfg.MetadataDir, packaging.MetaMakeCommand))
	require.NoError(t, err)
	assert.Equal(t, "make product-images", string(makeCommand))
}

func TestBuildService_ResolveVersionLogsOnce(t *testing.T) {
	cfg := newConfig(t, nil)
	s, _ := newService(t, cfg, &scmtest.Provider{Tags: []string{"jdk-17.0.10+7"}}, 0)

	var buf bytes.Buffer
	logger := logging.NewCustomLoggerWithOptions("info", "text", false, false)
	logger.ConsoleWriter = &buf
	ctx := logging.WithLogger(context.Background(), logger)

	tag, _, err := s.ResolveVersion(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "jdk-17.0.10+7", tag.Raw)
	assert.Equal(t, 1, strings.Count(buf.String(), "Resolved "), buf.String())
}

func TestBuildService_ConfigureArgs(t *testing.T) {
	cfg := newConfig(t, nil)
	s, _ := newService(t, cfg, &scmtest.Provider{Tags: []string{"jdk-17.0.10+7", "jdk-17.0.9+9"}}, 0)

	tag, args, err := s.ConfigureArgs(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "jdk-17.0.10+7", tag.Raw)
	value, ok := args.Value("--with-version-build")
	require.True(t, ok)
	assert.Equal(t, "7", value)
}

func TestBuildService_Package(t *testing.T) {
	cfg := newConfig(t, nil)
	fakeMake(t, cfg)(shell.Command{})
	s, _ := newService(t, cfg, &scmtest.Provider{}, 0)
	tag, ok := version.Parse("jdk-17.0.10+7", version.Modern)
	require.True(t, ok)

	artifacts, err := s.Package(context.Background(), PackageRequest{Config: cfg, Tag: tag, MakeCommand: "make images"})
	require.NoError(t, err)
	assert.Len(t, artifacts, 2)
}

func TestBuildService_GenerateSBOM(t *testing.T) {
	cfg := newConfig(t, nil)
	fakeMake(t, cfg)(shell.Command{})
	s, _ := newService(t, cfg, &scmtest.Provider{}, 0)
	tag, ok := version.Parse("jdk-17.0.10+7", version.Modern)
	require.True(t, ok)
	req := PackageRequest{Config: cfg, Tag: tag, ConfigureArgs: "--with-x=y", MakeCommand: "make images"}

	_, err := s.GenerateSBOM(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMissingPropertySource))

	_, err = s.Package(context.Background(), req)
	require.NoError(t, err)

	out, err := s.GenerateSBOM(context.Background(), req)
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.Equal(t, filepath.Join(cfg.MetadataDir, "sbom.json"), out)
}
