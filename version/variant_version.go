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

package version

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/scm"
)

// VariantVersion is the version of the VM component for variants that
// version it separately from OpenJDK.
type VariantVersion struct {
	Major    int    `json:"major"`
	Minor    int    `json:"minor"`
	Security int    `json:"security"`
	Tag      string `json:"tag"`
}

// String returns the dotted version.
func (v VariantVersion) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Security)
}

// Files returns the metadata/variant_version file contents keyed by file name.
func (v VariantVersion) Files() map[string]string {
	return map[string]string{
		"major.txt":    strconv.Itoa(v.Major),
		"minor.txt":    strconv.Itoa(v.Minor),
		"security.txt": strconv.Itoa(v.Security),
		"tags.txt":     v.Tag,
	}
}

const openj9TagPrefix = "openj9-"

// OpenJ9Dir is the VM checkout inside the OpenJDK source tree.
func OpenJ9Dir(cfg config.BuildConfig) string {
	return filepath.Join(cfg.SourceDir, "openj9")
}

// ResolveVariantVersion returns the greatest openj9-X.Y.Z tag of the OpenJ9
// checkout. found is false for other variants or when no tag exists.
func ResolveVariantVersion(ctx context.Context, cfg config.BuildConfig, provider scm.Provider) (VariantVersion, bool, error) {
	if cfg.Variant != config.VariantOpenJ9 || provider == nil {
		return VariantVersion{}, false, nil
	}

	tags, err := provider.ListTags(ctx, openj9TagPrefix+"*")
	if err != nil {
		return VariantVersion{}, false, err
	}

	var (
		best    *semver.Version
		bestTag string
	)
	for _, tag := range tags {
		v, err := semver.StrictNewVersion(strings.TrimPrefix(tag, openj9TagPrefix))
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestTag = v, tag
		}
	}
	if best == nil {
		return VariantVersion{}, false, nil
	}

	return VariantVersion{
		Major:    int(best.Major()),
		Minor:    int(best.Minor()),
		Security: int(best.Patch()),
		Tag:      bestTag,
	}, true, nil
}

// OpenVariantProvider opens the OpenJ9 checkout when it exists.
func OpenVariantProvider(cfg config.BuildConfig) (scm.Provider, bool) {
	if cfg.Variant != config.VariantOpenJ9 {
		return nil, false
	}
	dir := OpenJ9Dir(cfg)
	if _, err := os.Stat(dir); err != nil {
		return nil, false
	}
	p, err := scm.OpenGitProvider(dir)
	if err != nil {
		return nil, false
	}
	return p, true
}
