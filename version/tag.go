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

// Package version resolves the OpenJDK version tag a build should carry.
package version

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

// Grammar identifies the tag syntax a Tag was parsed with.
type Grammar int

const (
	// Legacy8 is the jdk8uU-bB syntax.
	Legacy8 Grammar = iota
	// Modern is the jdk-V[.W[.X[.P]]]+B syntax.
	Modern
)

var (
	legacyPattern = regexp.MustCompile(`^jdk8u(\d+)-b(\d+)(.*)$`)
	modernPattern = regexp.MustCompile(`^jdk-(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?\+(\d+)(.*)$`)
)

// Tag is a parsed version tag. Missing components are zero.
type Tag struct {
	Grammar  Grammar
	Major    int
	Minor    int
	Security int
	Patch    int
	Build    int
	// Suffix is any non-numeric trailing metadata, e.g. "_openj9-0.26.0".
	Suffix string
	Raw    string
}

// Parse parses raw with exactly one grammar. A legacy tag never parses as
// modern and vice versa.
func Parse(raw string, g Grammar) (Tag, bool) {
	switch g {
	case Legacy8:
		m := legacyPattern.FindStringSubmatch(raw)
		if m == nil {
			return Tag{}, false
		}
		return Tag{
			Grammar:  Legacy8,
			Major:    8,
			Security: atoi(m[1]),
			Build:    atoi(m[2]),
			Suffix:   m[3],
			Raw:      raw,
		}, true
	case Modern:
		m := modernPattern.FindStringSubmatch(raw)
		if m == nil {
			return Tag{}, false
		}
		return Tag{
			Grammar:  Modern,
			Major:    atoi(m[1]),
			Minor:    atoi(m[2]),
			Security: atoi(m[3]),
			Patch:    atoi(m[4]),
			Build:    atoi(m[5]),
			Suffix:   m[6],
			Raw:      raw,
		}, true
	default:
		return Tag{}, false
	}
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// String returns the raw tag.
func (t Tag) String() string {
	return t.Raw
}

// IsBranchMarker reports a build-0 tag, which marks branch creation rather
// than a buildable version.
func (t Tag) IsBranchMarker() bool {
	return t.Build == 0
}

// Compare orders tags component by component, left to right. On equal
// components a tag without suffix sorts above one with a suffix.
func (t Tag) Compare(o Tag) int {
	a := [...]int{t.Major, t.Minor, t.Security, t.Patch, t.Build}
	b := [...]int{o.Major, o.Minor, o.Security, o.Patch, o.Build}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case t.Suffix == o.Suffix:
		return 0
	case t.Suffix == "":
		return 1
	case o.Suffix == "":
		return -1
	case t.Suffix < o.Suffix:
		return -1
	default:
		return 1
	}
}

// Max returns the greatest tag that is not a branch marker.
func Max(tags []Tag) (Tag, bool) {
	var (
		best  Tag
		found bool
	)
	for _, t := range tags {
		if t.IsBranchMarker() {
			continue
		}
		if !found || t.Compare(best) > 0 {
			best, found = t, true
		}
	}
	return best, found
}

// Semantic renders the tag as a semantic version, e.g. 11.0.2+9 or 8.0.292+10.
// A four-component version folds the patch into the build number.
func (t Tag) Semantic() string {
	build := t.Build
	if t.Patch > 0 {
		build = t.Patch*100 + t.Build
	}
	v := semver.New(uint64(t.Major), uint64(t.Minor), uint64(t.Security), "", strconv.Itoa(build))
	return v.String()
}

// Numeric returns the dotted numeric version without build, e.g. 11.0.2 or 8u292.
func (t Tag) Numeric() string {
	if t.Grammar == Legacy8 {
		return fmt.Sprintf("8u%d", t.Security)
	}
	if t.Patch > 0 {
		return fmt.Sprintf("%d.%d.%d.%d", t.Major, t.Minor, t.Security, t.Patch)
	}
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Security)
}

// Placeholder returns the tag used when no version can be resolved in
// relaxed mode: jdk8u000-b00 for 8 and jdk-<F>+0 otherwise.
func Placeholder(feature int) Tag {
	if feature <= 8 {
		return Tag{Grammar: Legacy8, Major: 8, Raw: "jdk8u000-b00"}
	}
	return Tag{Grammar: Modern, Major: feature, Raw: fmt.Sprintf("jdk-%d+0", feature)}
}
