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

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/scm"
)

// TagStrategy selects the greatest matching tag from source control.
type TagStrategy struct {
	SCM scm.Provider
}

// Name implements Strategy.
func (s *TagStrategy) Name() string { return "scm tags" }

// Resolve implements Strategy.
func (s *TagStrategy) Resolve(ctx context.Context, cfg config.BuildConfig) (Tag, bool, error) {
	if err := s.SCM.FetchTags(ctx); err != nil {
		return Tag{}, false, err
	}

	raw, err := s.SCM.ListTags(ctx, TagPattern(cfg.FeatureVersion))
	if err != nil {
		return Tag{}, false, err
	}

	grammar := grammarFor(cfg.Band())
	candidates := make([]Tag, 0, len(raw))
	for _, name := range raw {
		tag, ok := Parse(name, grammar)
		if !ok {
			logging.DebugContext(ctx, "Ignoring tag %s: does not match version grammar", name)
			continue
		}
		if grammar == Modern && tag.Major != cfg.FeatureVersion {
			continue
		}
		candidates = append(candidates, tag)
	}

	tag, found := Max(candidates)
	return tag, found, nil
}

// ManifestFile is the version manifest shipped in some vendor source trees.
const ManifestFile = "version.txt"

// ManifestStrategy reads fixed-position fields from the source tree's
// version manifest, deferring to Fallback when it does not exist.
type ManifestStrategy struct {
	Fallback Strategy
}

// Name implements Strategy.
func (s *ManifestStrategy) Name() string { return "version manifest" }

// Resolve implements Strategy.
func (s *ManifestStrategy) Resolve(ctx context.Context, cfg config.BuildConfig) (Tag, bool, error) {
	path := filepath.Join(cfg.SourceDir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && s.Fallback != nil {
			logging.DebugContext(ctx, "No %s in %s, falling back to %s", ManifestFile, cfg.SourceDir, s.Fallback.Name())
			return s.Fallback.Resolve(ctx, cfg)
		}
		if os.IsNotExist(err) {
			return Tag{}, false, nil
		}
		return Tag{}, false, err
	}

	tag, ok := ParseManifest(strings.TrimSpace(string(data)), cfg.FeatureVersion)
	if !ok {
		logging.WarnContext(ctx, "Could not parse %s content %q", path, strings.TrimSpace(string(data)))
		return Tag{}, false, nil
	}
	return tag, !tag.IsBranchMarker(), nil
}

// ParseManifest parses a dot-separated manifest such as 8.292.10.1
// (feature.update.build.revision) or 11.0.10.9.1
// (feature.minor.security.build.revision).
func ParseManifest(content string, feature int) (Tag, bool) {
	fields := strings.Split(content, ".")
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Tag{}, false
		}
		nums[i] = n
	}

	if feature <= 8 {
		if len(nums) < 3 || nums[0] != 8 {
			return Tag{}, false
		}
		raw := "jdk8u" + strconv.Itoa(nums[1]) + "-b" + pad2(nums[2])
		return Tag{Grammar: Legacy8, Major: 8, Security: nums[1], Build: nums[2], Raw: raw}, true
	}

	if len(nums) < 4 || nums[0] != feature {
		return Tag{}, false
	}
	t := Tag{Grammar: Modern, Major: nums[0], Minor: nums[1], Security: nums[2], Build: nums[3]}
	t.Raw = modernRaw(t)
	return t, true
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func modernRaw(t Tag) string {
	v := strconv.Itoa(t.Major)
	if t.Minor > 0 || t.Security > 0 || t.Patch > 0 {
		v += "." + strconv.Itoa(t.Minor) + "." + strconv.Itoa(t.Security)
	}
	if t.Patch > 0 {
		v += "." + strconv.Itoa(t.Patch)
	}
	return "jdk-" + v + "+" + strconv.Itoa(t.Build)
}
