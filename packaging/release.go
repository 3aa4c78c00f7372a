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
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/version"
)

// ReleaseFile is the key=value metadata file at the root of every image.
const ReleaseFile = "release"

// ReleaseRecord is the build provenance appended to an image's release file.
type ReleaseRecord struct {
	Implementor     string
	BuildSource     string
	BuildSourceRepo string
	SourceRepo      string
	FullVersion     string
	SemanticVersion string
	BuildInfo       string
	JVMVariant      string
	JVMVersion      string
	OpenJ9Tag       string
	ImageType       string
}

// Entries returns the non-empty record fields in file order.
func (r ReleaseRecord) Entries() [][2]string {
	all := [][2]string{
		{"IMPLEMENTOR", r.Implementor},
		{"BUILD_SOURCE", r.BuildSource},
		{"BUILD_SOURCE_REPO", r.BuildSourceRepo},
		{"SOURCE_REPO", r.SourceRepo},
		{"FULL_VERSION", r.FullVersion},
		{"SEMANTIC_VERSION", r.SemanticVersion},
		{"BUILD_INFO", r.BuildInfo},
		{"JVM_VARIANT", r.JVMVariant},
		{"JVM_VERSION", r.JVMVersion},
		{"OPENJ9_TAG", r.OpenJ9Tag},
		{"IMAGE_TYPE", r.ImageType},
	}
	entries := all[:0]
	for _, e := range all {
		if e[1] != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

// ReadRelease parses a release file. A missing file reads as empty.
func ReadRelease(path string) (map[string]string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, err
	}
	return f.Section(ini.DefaultSection).KeysHash(), nil
}

// AppendRelease appends the record entries missing from the release file.
// Existing lines are never rewritten.
func AppendRelease(path string, r ReleaseRecord) error {
	existing, err := ReadRelease(path)
	if err != nil {
		return err
	}
	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var lines bytes.Buffer
	for _, e := range r.Entries() {
		if _, ok := existing[e[0]]; ok {
			continue
		}
		fmt.Fprintf(&lines, "%s=%q\n", e[0], e[1])
	}
	if lines.Len() == 0 {
		return nil
	}

	var buf bytes.Buffer
	if len(current) > 0 && !bytes.HasSuffix(current, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.Write(lines.Bytes())

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.FilePermReadWrite)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ParseFullVersion extracts the runtime version from `java -version`
// output, e.g. 11.0.2+9 from "OpenJDK Runtime Environment (build 11.0.2+9)".
func ParseFullVersion(out string) (string, bool) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "Runtime Environment") {
			continue
		}
		start := strings.Index(line, "(build ")
		if start < 0 {
			continue
		}
		rest := line[start+len("(build "):]
		if end := strings.Index(rest, ")"); end >= 0 {
			return rest[:end], true
		}
	}
	return "", false
}

// FallbackFullVersion derives the runtime version from the tag, for when
// the built java cannot run on the build host.
func FallbackFullVersion(tag version.Tag) string {
	if tag.Grammar == version.Legacy8 {
		return fmt.Sprintf("1.8.0_%d-b%02d", tag.Security, tag.Build)
	}
	return strings.TrimPrefix(strings.TrimSuffix(tag.Raw, tag.Suffix), "jdk-")
}

// jvmVariantLabel is the JVM_VARIANT value, e.g. Hotspot.
func jvmVariantLabel(v config.Variant) string {
	name := JVMName(v)
	return strings.ToUpper(name[:1]) + name[1:]
}
