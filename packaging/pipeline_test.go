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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/scm/scmtest"
	"github.com/cowdogmoo/jdkbuild/shell/shelltest"
	"github.com/cowdogmoo/jdkbuild/version"
)

const javaVersionOutput = `openjdk version "11.0.2" 2019-01-15
OpenJDK Runtime Environment Temurin-11.0.2+9 (build 11.0.2+9)
OpenJDK 64-Bit Server VM Temurin-11.0.2+9 (build 11.0.2+9, mixed mode)
`

type fixture struct {
	cfg    config.BuildConfig
	tag    version.Tag
	images string
	runner *shelltest.Runner
}

func newFixture(t *testing.T, mutate func(s *config.Config)) *fixture {
	t.Helper()
	settings := config.Defaults()
	settings.Workspace.Dir = t.TempDir()
	settings.Build.Variant = "temurin"
	settings.Build.FeatureVersion = 11
	settings.Build.Release = true
	settings.Build.ArchiveFormat = config.ArchiveTarGz
	if mutate != nil {
		mutate(settings)
	}

	cfg, err := config.NewBuildConfig(settings, config.NewPlatform("Linux", "6.1.0", "x86_64"),
		time.Date(2024, 3, 5, 9, 20, 30, 0, time.UTC))
	require.NoError(t, err)

	images := filepath.Join(cfg.SourceDir, "build", "linux-x86_64-server-release", "images")
	jdk := "jdk"
	if cfg.Band() == config.Band8 {
		jdk = "j2sdk-image"
	}
	writeFile(t, filepath.Join(images, jdk, "release"), "JAVA_VERSION=\"11.0.2\"\n")
	writeFile(t, filepath.Join(images, jdk, "bin", "java"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(images, jdk, "lib", "server", "libjvm.so"), "elf")
	writeFile(t, filepath.Join(images, jdk, "lib", "server", "libjvm.debuginfo"), "dwarf")
	writeFile(t, filepath.Join(images, jdk, "demo", "README"), "demo")
	writeFile(t, filepath.Join(images, "test", "hotspot", "jtreg", "native", "libtest.so"), "elf")

	raw := "jdk-11.0.2+9"
	g := version.Modern
	if cfg.Band() == config.Band8 {
		raw, g = "jdk8u292-b10", version.Legacy8
	}
	tag, ok := version.Parse(raw, g)
	require.True(t, ok)

	return &fixture{
		cfg:    cfg,
		tag:    tag,
		images: images,
		runner: &shelltest.Runner{Responses: map[string]shelltest.Response{
			"ldd --version": {Output: "ldd (GNU libc) 2.35"},
		}},
	}
}

func (f *fixture) context(t *testing.T) *StageContext {
	t.Helper()
	sc := NewStageContext(f.cfg, f.tag, f.runner)
	f.runner.Responses[filepath.Join(f.images, f.tag.Raw, "bin", "java")+" -version"] = shelltest.Response{
		Output: javaVersionOutput,
	}
	return sc
}

func TestRelocateStage_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	sc := f.context(t)
	stage := RelocateStage()

	require.NoError(t, stage.Run(context.Background(), sc))
	require.NoError(t, stage.Run(context.Background(), sc))

	targets, err := sc.Targets()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(targets.JDK, "release"))
	assert.DirExists(t, targets.TestImage)
	assert.NoDirExists(t, filepath.Join(f.images, "jdk"))
	assert.NoDirExists(t, targets.JRE)
}

func TestRelocateStage_Legacy8(t *testing.T) {
	f := newFixture(t, func(s *config.Config) { s.Build.FeatureVersion = 8 })
	sc := f.context(t)

	require.NoError(t, RelocateStage().Run(context.Background(), sc))
	assert.DirExists(t, filepath.Join(f.images, "jdk8u292-b10"))
}

func TestDebugSymbolsStage(t *testing.T) {
	tests := []struct {
		name      string
		variant   string
		debug     bool
		stripped  bool
		collected bool
	}{
		{name: "hotspot keeps symbols without debug image", variant: "temurin"},
		{name: "hotspot collects into debug image", variant: "temurin", debug: true, stripped: true, collected: true},
		{name: "openj9 always strips", variant: "openj9", stripped: true},
		{name: "openj9 with debug image collects", variant: "openj9", debug: true, stripped: true, collected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(s *config.Config) {
				s.Build.Variant = tt.variant
				s.Build.CreateDebugImage = tt.debug
			})
			sc := f.context(t)
			ctx := context.Background()
			require.NoError(t, RelocateStage().Run(ctx, sc))
			require.NoError(t, DebugSymbolsStage().Run(ctx, sc))

			targets, err := sc.Targets()
			require.NoError(t, err)
			symbol := filepath.Join("lib", "server", "libjvm.debuginfo")
			if tt.stripped {
				assert.NoFileExists(t, filepath.Join(targets.JDK, symbol))
			} else {
				assert.FileExists(t, filepath.Join(targets.JDK, symbol))
			}
			if tt.collected {
				assert.FileExists(t, filepath.Join(targets.DebugImage, symbol))
			} else {
				assert.NoFileExists(t, filepath.Join(targets.DebugImage, symbol))
			}
			assert.FileExists(t, filepath.Join(targets.JDK, "lib", "server", "libjvm.so"))
		})
	}
}

func TestPostProcessStage_StaticLibs(t *testing.T) {
	f := newFixture(t, func(s *config.Config) { s.Build.CreateStaticLibsImage = true })
	writeFile(t, filepath.Join(f.images, "static-libs", "lib", "libjava.a"), "ar")
	writeFile(t, filepath.Join(f.images, "static-libs", "lib", "server", "libjvm.a"), "ar")
	f.runner.Responses["ldd --version"] = shelltest.Response{Output: "musl libc (x86_64)", Err: assert.AnError}
	sc := f.context(t)
	ctx := context.Background()

	require.NoError(t, RelocateStage().Run(ctx, sc))
	require.NoError(t, PostProcessStage().Run(ctx, sc))
	require.NoError(t, PostProcessStage().Run(ctx, sc))

	targets, err := sc.Targets()
	require.NoError(t, err)
	dest := filepath.Join(targets.StaticLibs, "lib", "static", "linux-x64", "musl")
	assert.FileExists(t, filepath.Join(dest, "libjava.a"))
	assert.FileExists(t, filepath.Join(dest, "server", "libjvm.a"))
	assert.NoFileExists(t, filepath.Join(targets.StaticLibs, "lib", "libjava.a"))
	assert.Equal(t, "musl", sc.Libc(ctx))
}

type recordingSigner struct{ signed []string }

func (r *recordingSigner) Sign(_ context.Context, p string) error {
	r.signed = append(r.signed, filepath.Base(p))
	return nil
}

func TestPostProcessStage_Signs(t *testing.T) {
	f := newFixture(t, nil)
	f.cfg.Platform = config.NewPlatform("Darwin", "23.0", "arm64")
	writeFile(t, filepath.Join(f.images, "jdk", "lib", "libjava.dylib"), "macho")
	sc := f.context(t)
	signer := &recordingSigner{}
	sc.Signer = signer

	require.NoError(t, RelocateStage().Run(context.Background(), sc))
	require.NoError(t, PostProcessStage().Run(context.Background(), sc))
	assert.ElementsMatch(t, []string{"libjava.dylib", "java"}, signer.signed)
}

func TestToolSigner(t *testing.T) {
	runner := &shelltest.Runner{Responses: map[string]shelltest.Response{"codesign": {}}}
	cfg := config.BuildConfig{
		Platform: config.NewPlatform("Darwin", "23.0", "arm64"),
		Signing:  config.SigningConfig{Identity: "Developer ID", Entitlements: "ent.plist"},
	}

	signer := NewToolSigner(runner, cfg)
	require.NotNil(t, signer)
	require.NoError(t, signer.Sign(context.Background(), "/jdk/bin/java"))
	assert.True(t, runner.Called("codesign --force --timestamp --options runtime --sign Developer ID --entitlements ent.plist /jdk/bin/java"))

	cfg.Platform = config.NewPlatform("Linux", "6.1", "x86_64")
	assert.Nil(t, NewToolSigner(runner, cfg))
}

func TestMetadataStage(t *testing.T) {
	f := newFixture(t, func(s *config.Config) { s.Build.CreateJREImage = true })
	writeFile(t, filepath.Join(f.images, "jre", "release"), "JAVA_VERSION=\"11.0.2\"")
	sc := f.context(t)
	sc.ConfigureArgs = "--with-version-build=9"
	sc.MakeCommand = "make product-images"
	sc.Scripts = &scmtest.Provider{Commit: "abc1234", Remote: "https://github.com/adoptium/temurin-build.git"}
	sc.OpenJDK = &scmtest.Provider{Commit: "def5678", Remote: "https://github.com/openjdk/jdk11u.git"}
	ctx := context.Background()

	require.NoError(t, RelocateStage().Run(ctx, sc))
	require.NoError(t, MetadataStage().Run(ctx, sc))
	require.NoError(t, MetadataStage().Run(ctx, sc))

	targets, err := sc.Targets()
	require.NoError(t, err)
	release, err := os.ReadFile(filepath.Join(targets.JDK, ReleaseFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(release), "JAVA_VERSION=\"11.0.2\"\n"))
	assert.Equal(t, 1, strings.Count(string(release), "IMPLEMENTOR="))

	values, err := ReadRelease(filepath.Join(targets.JDK, ReleaseFile))
	require.NoError(t, err)
	assert.Equal(t, "Eclipse Adoptium", values["IMPLEMENTOR"])
	assert.Equal(t, "11.0.2+9", values["FULL_VERSION"])
	assert.Equal(t, "11.0.2+9", values["SEMANTIC_VERSION"])
	assert.Equal(t, "Hotspot", values["JVM_VARIANT"])
	assert.Equal(t, "git:abc1234", values["BUILD_SOURCE"])
	assert.Equal(t, "https://github.com/openjdk/jdk11u.git", values["SOURCE_REPO"])
	assert.Equal(t, "JDK", values["IMAGE_TYPE"])

	jre, err := ReadRelease(filepath.Join(targets.JRE, ReleaseFile))
	require.NoError(t, err)
	assert.Equal(t, "JRE", jre["IMAGE_TYPE"])
	assert.Equal(t, "11.0.2", jre["JAVA_VERSION"])

	for name, want := range map[string]string{
		MetaVendor:        "Eclipse Adoptium",
		MetaSCMRef:        "jdk-11.0.2+9",
		MetaConfigure:     "--with-version-build=9",
		MetaMakeCommand:   "make product-images",
		MetaBuildSource:   "git:abc1234",
		MetaOpenJDKSource: "git:def5678",
		MetaVersion:       javaVersionOutput,
	} {
		got, err := os.ReadFile(filepath.Join(f.cfg.MetadataDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, string(got), name)
	}
	assert.FileExists(t, filepath.Join(f.cfg.MetadataDir, MetaBuildConfig))
}

func TestMetadataStage_VariantVersion(t *testing.T) {
	f := newFixture(t, func(s *config.Config) { s.Build.Variant = "openj9" })
	sc := f.context(t)
	delete(f.runner.Responses, filepath.Join(f.images, f.tag.Raw, "bin", "java")+" -version")
	sc.VariantVersion = &version.VariantVersion{Major: 0, Minor: 43, Security: 0, Tag: "openj9-0.43.0"}
	ctx := context.Background()

	require.NoError(t, RelocateStage().Run(ctx, sc))
	require.NoError(t, MetadataStage().Run(ctx, sc))

	targets, err := sc.Targets()
	require.NoError(t, err)
	values, err := ReadRelease(filepath.Join(targets.JDK, ReleaseFile))
	require.NoError(t, err)
	assert.Equal(t, "Openj9", values["JVM_VARIANT"])
	assert.Equal(t, "0.43.0", values["JVM_VERSION"])
	assert.Equal(t, "openj9-0.43.0", values["OPENJ9_TAG"])
	assert.Equal(t, "11.0.2+9", values["FULL_VERSION"])

	tags, err := os.ReadFile(filepath.Join(f.cfg.MetadataDir, MetaVariantVersion, "tags.txt"))
	require.NoError(t, err)
	assert.Equal(t, "openj9-0.43.0", string(tags))
}

func TestAppendRelease_AppendOnly(t *testing.T) {
	p := filepath.Join(t.TempDir(), ReleaseFile)
	writeFile(t, p, "JAVA_VERSION=\"17\"\nIMPLEMENTOR=\"Upstream\"")

	r := ReleaseRecord{Implementor: "Eclipse Adoptium", FullVersion: "17.0.10+7", ImageType: "JDK"}
	require.NoError(t, AppendRelease(p, r))
	require.NoError(t, AppendRelease(p, r))

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t,
		"JAVA_VERSION=\"17\"\nIMPLEMENTOR=\"Upstream\"\nFULL_VERSION=\"17.0.10+7\"\nIMAGE_TYPE=\"JDK\"\n",
		string(got))
}

func TestParseFullVersion(t *testing.T) {
	v, ok := ParseFullVersion(javaVersionOutput)
	require.True(t, ok)
	assert.Equal(t, "11.0.2+9", v)

	_, ok = ParseFullVersion("garbage")
	assert.False(t, ok)

	assert.Equal(t, "1.8.0_292-b10", FallbackFullVersion(mustTag(t, "jdk8u292-b10")))
	assert.Equal(t, "17.0.10+7", FallbackFullVersion(mustTag(t, "jdk-17.0.10+7")))
}

func TestPipeline_Run(t *testing.T) {
	f := newFixture(t, func(s *config.Config) {
		s.Build.CreateSBOM = true
		s.Build.CreateSourceArchive = true
	})
	writeFile(t, filepath.Join(f.cfg.SourceDir, "README.md"), "openjdk")
	writeFile(t, filepath.Join(f.cfg.SourceDir, ".git", "HEAD"), "ref: refs/heads/master")
	sc := f.context(t)

	sbomStage := NewStage("sbom", func(_ context.Context, sc *StageContext) error {
		targets, err := sc.Targets()
		if err != nil {
			return err
		}
		return os.WriteFile(targets.SBOM, []byte(`{"bomFormat":"CycloneDX"}`), 0o644)
	})
	p := NewPipeline(sbomStage)
	assert.Equal(t, []string{
		StageRelocate, StageStripDemo, StageDebugSymbols, StagePostProcess, StageMetadata, "sbom", StageArchive,
	}, p.Names())

	require.NoError(t, p.Run(context.Background(), sc))

	n := sc.Naming
	want := []string{
		filepath.Join(f.cfg.TargetDir, n.JDK),
		filepath.Join(f.cfg.TargetDir, n.Sibling(KindTestImage)),
		filepath.Join(f.cfg.TargetDir, n.Sibling(KindSources)),
		filepath.Join(f.cfg.TargetDir, n.Sibling(KindSBOM)),
	}
	assert.Equal(t, want, sc.Artifacts)
	for _, a := range want {
		assert.FileExists(t, a+ChecksumSuffix)
	}
	assert.Equal(t, "OpenJDK11U-jdk_x64_linux_hotspot_11.0.2_9.tar.gz", n.JDK)

	targets, err := sc.Targets()
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(targets.JDK, "demo"))

	require.NoError(t, p.Run(context.Background(), sc), "pipeline reruns cleanly")
}

type emptyArchiver struct{}

func (emptyArchiver) Extension() string { return ".tar.gz" }

func (emptyArchiver) Archive(_ context.Context, _, dest string, _ ...string) error {
	return os.WriteFile(dest, nil, 0o644)
}

func TestArchiveStage_EmptyArtifact(t *testing.T) {
	f := newFixture(t, nil)
	sc := f.context(t)
	sc.Archiver = emptyArchiver{}

	require.NoError(t, RelocateStage().Run(context.Background(), sc))
	err := ArchiveStage().Run(context.Background(), sc)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindArchiveVerification))
	assert.Contains(t, err.Error(), sc.Naming.JDK)
}

func TestArchiveStage_MissingRequestedImage(t *testing.T) {
	f := newFixture(t, func(s *config.Config) { s.Build.CreateJREImage = true })
	sc := f.context(t)

	require.NoError(t, RelocateStage().Run(context.Background(), sc))
	err := ArchiveStage().Run(context.Background(), sc)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindArchiveVerification))
	assert.Contains(t, err.Error(), sc.Naming.Sibling(KindJRE))
}

func TestArchiveStage_CustomTargetFileName(t *testing.T) {
	f := newFixture(t, func(s *config.Config) { s.Build.TargetFileName = "custom-jdk-build.tar.gz" })
	sc := f.context(t)

	require.NoError(t, RelocateStage().Run(context.Background(), sc))
	require.NoError(t, ArchiveStage().Run(context.Background(), sc))

	want := []string{
		filepath.Join(f.cfg.TargetDir, "custom-jdk-build.tar.gz"),
		filepath.Join(f.cfg.TargetDir, "custom-testimage-build.tar.gz"),
	}
	assert.Equal(t, want, sc.Artifacts)
	for _, a := range want {
		assert.FileExists(t, a+ChecksumSuffix)
	}
}

func TestArchiveStage_NameWithoutJDKToken(t *testing.T) {
	f := newFixture(t, nil)
	sc := f.context(t)
	sc.Naming = Naming{JDK: "custom-build.tar.gz"}

	require.NoError(t, RelocateStage().Run(context.Background(), sc))
	err := ArchiveStage().Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom-build.tar.gz")
	assert.NoFileExists(t, filepath.Join(f.cfg.TargetDir, "custom-build.tar.gz"))
}

func TestComputeTargets_NoBuildOutput(t *testing.T) {
	_, err := ComputeTargets(config.BuildConfig{SourceDir: t.TempDir()}, mustTag(t, "jdk-17+35"))
	assert.Error(t, err)
}
