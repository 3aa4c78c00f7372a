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

package configure

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/shell/shelltest"
	"github.com/cowdogmoo/jdkbuild/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 5, 9, 20, 30, 0, time.UTC)

func newConfig(t *testing.T, variant string, feature int, platform config.Platform, mutate func(*config.Config)) config.BuildConfig {
	t.Helper()
	settings := config.Defaults()
	settings.Workspace.Dir = t.TempDir()
	settings.Build.Variant = variant
	settings.Build.FeatureVersion = feature
	settings.Build.ArchiveFormat = ""
	if mutate != nil {
		mutate(settings)
	}
	bc, err := config.NewBuildConfig(settings, platform, testNow)
	require.NoError(t, err)
	return bc
}

func mustTag(t *testing.T, raw string) version.Tag {
	t.Helper()
	g := version.Modern
	if len(raw) > 5 && raw[:5] == "jdk8u" {
		g = version.Legacy8
	}
	tag, ok := version.Parse(raw, g)
	require.True(t, ok, raw)
	return tag
}

var linux = config.NewPlatform("Linux", "6.1", "x86_64")

func TestBuild_ReleaseModern(t *testing.T) {
	cfg := newConfig(t, "mainline", 11, linux, func(c *config.Config) { c.Build.Release = true })

	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-11.0.2+9"))
	require.NoError(t, err)

	rendered := args.String()
	assert.Contains(t, rendered, "--without-version-opt")
	assert.Contains(t, rendered, "--without-version-pre")
	assert.NotContains(t, rendered, "--with-version-opt")
	assert.NotContains(t, rendered, "--with-version-pre")

	build, ok := args.Value("--with-version-build")
	require.True(t, ok)
	assert.Equal(t, "9", build)

	// 11 is not a reproducible feature version
	assert.False(t, args.Has("--with-source-date"))
	assert.False(t, args.Has("--with-build-user"))
}

func TestBuild_NonReleaseModern(t *testing.T) {
	cfg := newConfig(t, "temurin", 21, linux, nil)

	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-21.0.1+12"))
	require.NoError(t, err)

	pre, _ := args.Value("--with-version-pre")
	assert.Equal(t, "beta", pre)
	opt, _ := args.Value("--with-version-opt")
	assert.Equal(t, "202403050920", opt)
	assert.False(t, args.Has("--without-version-opt"))

	sourceDate, _ := args.Value("--with-source-date")
	assert.Equal(t, "current", sourceDate)
	buildTime, _ := args.Value("--with-hotspot-build-time")
	assert.Equal(t, "2024-03-05 09:20:30", buildTime)
	user, _ := args.Value("--with-build-user")
	assert.Equal(t, "admin", user)

	vendorVersion, _ := args.Value("--with-vendor-version-string")
	assert.Equal(t, "Temurin-21.0.1+12", vendorVersion)
}

func TestBuild_ReproducibleRelease(t *testing.T) {
	cfg := newConfig(t, "temurin", 17, linux, func(c *config.Config) { c.Build.Release = true })

	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-17.0.9+9"))
	require.NoError(t, err)

	sourceDate, _ := args.Value("--with-source-date")
	assert.Equal(t, "version", sourceDate)
	assert.True(t, args.Has("--disable-ccache"))
	assert.False(t, args.Has("--with-hotspot-build-time"))
}

func TestReproducible(t *testing.T) {
	for feature, want := range map[int]bool{8: false, 11: false, 16: false, 17: true, 18: false, 19: true, 21: true} {
		assert.Equal(t, want, Reproducible(feature), "feature %d", feature)
	}
}

func TestBuild_Band8(t *testing.T) {
	release := newConfig(t, "temurin", 8, linux, func(c *config.Config) { c.Build.Release = true })
	args, err := NewBuilder(FixedDate{}).Build(context.Background(), release, mustTag(t, "jdk8u292-b05"))
	require.NoError(t, err)

	milestone, _ := args.Value("--with-milestone")
	assert.Equal(t, "fcs", milestone)
	update, _ := args.Value("--with-update-version")
	assert.Equal(t, "292", update)
	buildNumber, _ := args.Value("--with-build-number")
	assert.Equal(t, "b05", buildNumber)
	assert.False(t, args.Has("--with-user-release-suffix"))
	assert.False(t, args.Has("--with-vendor-version-string"))

	nightly := newConfig(t, "temurin", 8, linux, nil)
	args, err = NewBuilder(FixedDate{}).Build(context.Background(), nightly, mustTag(t, "jdk8u292-b05"))
	require.NoError(t, err)
	milestone, _ = args.Value("--with-milestone")
	assert.Equal(t, "beta", milestone)
	suffix, _ := args.Value("--with-user-release-suffix")
	assert.Equal(t, "202403050920", suffix)
}

func TestBuild_Band9(t *testing.T) {
	cfg := newConfig(t, "temurin", 9, linux, func(c *config.Config) { c.Build.Release = true })
	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-9.0.4+11"))
	require.NoError(t, err)

	assert.True(t, args.Has("--without-version-opt"))
	assert.False(t, args.Has("--with-vendor-version-string"))
}

func TestBuild_FourPartVersion(t *testing.T) {
	cfg := newConfig(t, "temurin", 11, linux, func(c *config.Config) { c.Build.Release = true })
	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-11.0.9.1+1"))
	require.NoError(t, err)

	patch, _ := args.Value("--with-version-patch")
	assert.Equal(t, "1", patch)
	vendorVersion, _ := args.Value("--with-vendor-version-string")
	assert.Equal(t, "Temurin-11.0.9+101", vendorVersion)
}

func TestBuild_Debug(t *testing.T) {
	tests := []struct {
		name        string
		variant     string
		debugImage  bool
		wantSymbols string
		wantFlag    bool
	}{
		{name: "default strips", variant: "temurin", wantSymbols: "none", wantFlag: true},
		{name: "debug image externalises", variant: "temurin", debugImage: true, wantSymbols: "external", wantFlag: true},
		{name: "openj9 keeps symbols", variant: "openj9", wantFlag: false},
		{name: "openj9 with debug image", variant: "openj9", debugImage: true, wantSymbols: "external", wantFlag: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t, tt.variant, 17, linux, func(c *config.Config) { c.Build.CreateDebugImage = tt.debugImage })
			args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-17.0.9+9"))
			require.NoError(t, err)

			level, _ := args.Value("--with-debug-level")
			assert.Equal(t, "release", level)
			symbols, ok := args.Value("--with-native-debug-symbols")
			assert.Equal(t, tt.wantFlag, ok)
			assert.Equal(t, tt.wantSymbols, symbols)
		})
	}
}

func TestBuild_Vendor(t *testing.T) {
	tests := []struct {
		name     string
		variant  string
		vendor   config.VendorConfig
		wantName string
		wantBug  string
	}{
		{name: "temurin", variant: "temurin", wantName: "Eclipse Adoptium", wantBug: "https://github.com/adoptium/adoptium-support/issues"},
		{name: "corretto", variant: "corretto", wantName: "Amazon.com Inc.", wantBug: "https://github.com/corretto/corretto-17/issues/"},
		{name: "dragonwell", variant: "dragonwell", wantName: "Alibaba", wantBug: "mailto:dragonwell_use@googlegroups.com"},
		{name: "bisheng", variant: "bisheng", wantName: "BiSheng", wantBug: "https://gitee.com/openeuler/bishengjdk-17/issues/"},
		{name: "openj9", variant: "openj9", wantName: "Eclipse OpenJ9", wantBug: "https://github.com/eclipse-openj9/openj9/issues"},
		{name: "unmapped uses sentinel", variant: "hotspot", wantName: UnknownVendor, wantBug: NullURL},
		{name: "unmapped uses config", variant: "fast_startup", vendor: config.VendorConfig{Name: "Example", BugURL: "https://example.com/bugs"}, wantName: "Example", wantBug: "https://example.com/bugs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t, tt.variant, 17, linux, func(c *config.Config) { c.Vendor = tt.vendor })
			args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-17.0.9+9"))
			require.NoError(t, err)

			name, _ := args.Value("--with-vendor-name")
			assert.Equal(t, tt.wantName, name)
			bug, _ := args.Value("--with-vendor-bug-url")
			assert.Equal(t, tt.wantBug, bug)
			for _, flag := range []string{"--with-vendor-url", "--with-vendor-vm-bug-url"} {
				v, ok := args.Value(flag)
				assert.True(t, ok, flag)
				assert.NotEmpty(t, v, flag)
			}
		})
	}
}

func TestBuild_Freetype(t *testing.T) {
	windows := config.NewPlatform("CYGWIN_NT-10.0", "3.4", "x86_64")
	mac := config.NewPlatform("Darwin", "23.0", "arm64")
	aix := config.NewPlatform("AIX", "7.2", "ppc64")

	tests := []struct {
		name     string
		platform config.Platform
		feature  int
		override string
		flag     string
		want     string
	}{
		{name: "mac bundled", platform: mac, feature: 17, flag: "--with-freetype", want: "bundled"},
		{name: "windows bundled", platform: windows, feature: 11, flag: "--with-freetype", want: "bundled"},
		{name: "windows legacy source", platform: windows, feature: 8, flag: "--with-freetype-src", want: "libs/freetype"},
		{name: "aix", platform: aix, feature: 17, flag: "--with-freetype", want: "/opt/freeware"},
		{name: "linux none", platform: linux, feature: 17, flag: "--with-freetype"},
		{name: "override suppresses", platform: mac, feature: 17, override: "--with-freetype=custom", flag: "--with-freetype"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(t, "temurin", tt.feature, tt.platform, func(c *config.Config) { c.Build.ConfigureArgs = tt.override })
			raw := "jdk-17.0.9+9"
			switch tt.feature {
			case 8:
				raw = "jdk8u292-b10"
			case 11:
				raw = "jdk-11.0.2+9"
			}
			args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, raw))
			require.NoError(t, err)

			got, ok := args.Value(tt.flag)
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			if tt.flag == "--with-freetype-src" {
				assert.Equal(t, filepath.Join(cfg.WorkspaceDir, "libs", "freetype"), got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_OverrideSuppressesFreetypeAndIsAppended(t *testing.T) {
	mac := config.NewPlatform("Darwin", "23.0", "arm64")
	cfg := newConfig(t, "temurin", 17, mac, func(c *config.Config) { c.Build.ConfigureArgs = "--with-freetype=custom" })

	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-17.0.9+9"))
	require.NoError(t, err)

	rendered := args.String()
	assert.NotContains(t, rendered, "--with-freetype=bundled")
	assert.True(t, strings.HasSuffix(rendered, "--with-freetype=custom"), rendered)
}

func TestBuild_BootJDK(t *testing.T) {
	cfg := newConfig(t, "temurin", 17, linux, func(c *config.Config) { c.Build.BootJDK = "/opt/jdk-16" })
	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-17.0.9+9"))
	require.NoError(t, err)

	assert.Equal(t, Arg{Flag: "--with-boot-jdk", Value: "/opt/jdk-16"}, args.Args()[0])

	none := newConfig(t, "temurin", 17, linux, nil)
	args, err = NewBuilder(FixedDate{}).Build(context.Background(), none, mustTag(t, "jdk-17.0.9+9"))
	require.NoError(t, err)
	assert.False(t, args.Has("--with-boot-jdk"))
}

func TestBuild_UserOverrideWins(t *testing.T) {
	cfg := newConfig(t, "temurin", 17, linux, func(c *config.Config) {
		c.Build.ConfigureArgs = "--with-vendor-name=Custom --with-native-debug-symbols=zipped"
	})
	args, err := NewBuilder(FixedDate{}).Build(context.Background(), cfg, mustTag(t, "jdk-17.0.9+9"))
	require.NoError(t, err)

	assert.False(t, args.Has("--with-vendor-name"))
	assert.False(t, args.Has("--with-native-debug-symbols"))
	assert.Contains(t, args.String(), "--with-vendor-name=Custom --with-native-debug-symbols=zipped")
}

func TestHostDate(t *testing.T) {
	tests := []struct {
		name      string
		responses map[string]shelltest.Response
		want      string
		wantKind  errors.Kind
	}{
		{
			name: "gnu",
			responses: map[string]shelltest.Response{
				"date --version": {Output: "date (GNU coreutils) 9.1\n"},
				"date -u -d @1709630430 +%Y-%m-%d %H:%M:%S": {Output: "2024-03-05 09:20:30\n"},
			},
			want: "2024-03-05 09:20:30",
		},
		{
			name: "bsd",
			responses: map[string]shelltest.Response{
				"date --version": {Err: stderrors.New("illegal option")},
				"date -u -r 0":   {Output: "Thu Jan  1 00:00:00 UTC 1970\n"},
				"date -u -r 1709630430 +%Y-%m-%d %H:%M:%S": {Output: "2024-03-05 09:20:30\n"},
			},
			want: "2024-03-05 09:20:30",
		},
		{
			name: "neither",
			responses: map[string]shelltest.Response{
				"date --version": {Err: stderrors.New("illegal option")},
				"date -u -r 0":   {Err: stderrors.New("illegal option")},
			},
			wantKind: errors.KindEnvironment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := HostDate{Runner: &shelltest.Runner{Responses: tt.responses}}
			got, err := d.HotspotBuildTime(context.Background(), testNow.Add(400*time.Millisecond))
			if tt.wantKind != errors.KindUnknown {
				require.Error(t, err)
				assert.True(t, errors.IsKind(err, tt.wantKind))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFixedDate(t *testing.T) {
	got, err := FixedDate{}.HotspotBuildTime(context.Background(), time.Date(2024, 3, 5, 10, 20, 30, 900, time.FixedZone("CET", 3600)))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 09:20:30", got)
}

func TestBuild_DateFailureIsFatal(t *testing.T) {
	cfg := newConfig(t, "temurin", 21, linux, nil)
	d := HostDate{Runner: &shelltest.Runner{Responses: map[string]shelltest.Response{}}}

	_, err := NewBuilder(d).Build(context.Background(), cfg, mustTag(t, "jdk-21+35"))
	assert.True(t, errors.IsKind(err, errors.KindEnvironment))
}
