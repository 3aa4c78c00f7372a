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
	"path/filepath"
	"strconv"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/version"
)

// optStampFormat is the minute-precision UTC stamp used for non-release
// version-opt and user-release-suffix values.
const optStampFormat = "200601021504"

// Builder derives configure arguments.
type Builder struct {
	Date DateFormatter
}

// NewBuilder returns a Builder using d for the hotspot build time.
func NewBuilder(d DateFormatter) *Builder {
	return &Builder{Date: d}
}

// Build derives the argument set for cfg and the resolved tag.
func (b *Builder) Build(ctx context.Context, cfg config.BuildConfig, tag version.Tag) (*ArgumentSet, error) {
	args, err := NewArgumentSet(cfg.ConfigureArgs)
	if err != nil {
		return nil, errors.Wrap("parse configure overrides", cfg.ConfigureArgs, err)
	}

	addBootJDK(args, cfg)
	if err := b.addReproducible(ctx, args, cfg); err != nil {
		return nil, err
	}
	addDebug(args, cfg)
	addVersion(args, cfg, tag)
	addVendor(args, cfg)
	addFreetype(args, cfg)

	logging.DebugContext(ctx, "Configure arguments: %s", logging.RedactSensitivePatterns(args.String()))
	return args, nil
}

func addBootJDK(args *ArgumentSet, cfg config.BuildConfig) {
	if cfg.BootJDK != "" {
		args.AddIfAbsent("--with-boot-jdk", cfg.BootJDK)
	}
}

// Reproducible reports whether the feature version supports reproducible
// builds: 17 and 19 onwards.
func Reproducible(feature int) bool {
	return feature == 17 || feature >= 19
}

func (b *Builder) addReproducible(ctx context.Context, args *ArgumentSet, cfg config.BuildConfig) error {
	if !Reproducible(cfg.FeatureVersion) {
		return nil
	}

	if cfg.Release {
		args.AddIfAbsent("--with-source-date", "version")
		args.AddIfAbsent("--disable-ccache", "")
	} else {
		args.AddIfAbsent("--with-source-date", "current")
		if !args.Overridden("--with-hotspot-build-time") {
			stamp, err := b.Date.HotspotBuildTime(ctx, cfg.BuildTimestamp)
			if err != nil {
				return err
			}
			args.AddIfAbsent("--with-hotspot-build-time", stamp)
		}
	}
	args.AddIfAbsent("--with-build-user", "admin")
	return nil
}

func addDebug(args *ArgumentSet, cfg config.BuildConfig) {
	args.AddIfAbsent("--with-debug-level", "release")
	switch {
	case cfg.CreateDebugImage:
		args.AddIfAbsent("--with-native-debug-symbols", "external")
	case cfg.Variant == config.VariantOpenJ9:
		// symbols stay attached; packaging strips them
	default:
		args.AddIfAbsent("--with-native-debug-symbols", "none")
	}
}

type versionRule func(args *ArgumentSet, cfg config.BuildConfig, tag version.Tag)

var versionRules = map[config.FeatureBand]versionRule{
	config.Band8:      band8Version,
	config.Band9:      band9Version,
	config.Band10Plus: band10Version,
}

func addVersion(args *ArgumentSet, cfg config.BuildConfig, tag version.Tag) {
	versionRules[cfg.Band()](args, cfg, tag)
}

func optStamp(cfg config.BuildConfig) string {
	return cfg.BuildTimestamp.UTC().Format(optStampFormat)
}

func band8Version(args *ArgumentSet, cfg config.BuildConfig, tag version.Tag) {
	if cfg.Release {
		args.AddIfAbsent("--with-milestone", "fcs")
	} else {
		args.AddIfAbsent("--with-milestone", "beta")
		args.AddIfAbsent("--with-user-release-suffix", optStamp(cfg))
	}
	args.AddIfAbsent("--with-update-version", strconv.Itoa(tag.Security))
	args.AddIfAbsent("--with-build-number", "b"+pad2(tag.Build))
}

func modernOptPre(args *ArgumentSet, cfg config.BuildConfig, tag version.Tag) {
	if tag.Build > 0 {
		args.AddIfAbsent("--with-version-build", strconv.Itoa(tag.Build))
	}
	if cfg.Release {
		args.AddIfAbsent("--without-version-pre", "")
		args.AddIfAbsent("--without-version-opt", "")
		return
	}
	args.AddIfAbsent("--with-version-pre", "beta")
	args.AddIfAbsent("--with-version-opt", optStamp(cfg))
}

func band9Version(args *ArgumentSet, cfg config.BuildConfig, tag version.Tag) {
	modernOptPre(args, cfg, tag)
}

func band10Version(args *ArgumentSet, cfg config.BuildConfig, tag version.Tag) {
	modernOptPre(args, cfg, tag)
	if tag.Patch > 0 {
		args.AddIfAbsent("--with-version-patch", strconv.Itoa(tag.Patch))
	}
	if prefix := VendorFor(cfg).VersionPrefix; prefix != "" {
		args.AddIfAbsent("--with-vendor-version-string", prefix+"-"+tag.Semantic())
	}
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func addVendor(args *ArgumentSet, cfg config.BuildConfig) {
	v := VendorFor(cfg)
	args.AddIfAbsent("--with-vendor-name", v.Name)
	args.AddIfAbsent("--with-vendor-url", v.URL)
	args.AddIfAbsent("--with-vendor-bug-url", v.BugURL)
	args.AddIfAbsent("--with-vendor-vm-bug-url", v.VMBugURL)
}

func addFreetype(args *ArgumentSet, cfg config.BuildConfig) {
	if args.Mentions("freetype") {
		return
	}

	p := cfg.Platform
	switch {
	case (p.IsWindows() || p.IsDarwin()) && cfg.FeatureVersion >= 11:
		args.AddIfAbsent("--with-freetype", "bundled")
	case p.IsWindows():
		args.AddIfAbsent("--with-freetype-src", filepath.Join(cfg.WorkspaceDir, "libs", "freetype"))
	case p.IsAIX():
		args.AddIfAbsent("--with-freetype", "/opt/freeware")
	}
}
