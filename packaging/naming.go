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

// Package packaging turns raw OpenJDK build output into versioned, archived
// artifacts through an ordered sequence of idempotent stages.
package packaging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/version"
)

// Kind is an artifact kind. Its string is the token that replaces "jdk" in
// the canonical JDK file name.
type Kind string

// Artifact kinds.
const (
	KindJDK         Kind = "jdk"
	KindJRE         Kind = "jre"
	KindTestImage   Kind = "testimage"
	KindDebugImage  Kind = "debugimage"
	KindStaticLibs  Kind = "static-libs"
	KindSources     Kind = "sources"
	KindFailureLogs Kind = "makefailurelogs"
	KindSBOM        Kind = "sbom"
)

// siblingKinds are tried longest first when parsing a sibling name.
var siblingKinds = []Kind{
	KindFailureLogs, KindStaticLibs, KindDebugImage, KindTestImage, KindSources, KindSBOM, KindJRE, KindJDK,
}

const (
	jdkToken = "-jdk"
	sbomExt  = ".json"
)

// ArchiveExtension returns the file extension of an archive format.
func ArchiveExtension(format string) string {
	switch format {
	case config.ArchiveZip:
		return ".zip"
	case config.ArchiveTarXz:
		return ".tar.xz"
	default:
		return ".tar.gz"
	}
}

// JVMName is the VM implementation named in file names and release metadata.
func JVMName(v config.Variant) string {
	if v == config.VariantOpenJ9 {
		return "openj9"
	}
	return "hotspot"
}

// CanonicalJDKFileName returns the JDK archive name, e.g.
// OpenJDK11U-jdk_x64_linux_hotspot_11.0.2_9.tar.gz. A configured target file
// name wins.
func CanonicalJDKFileName(cfg config.BuildConfig, tag version.Tag) string {
	if cfg.TargetFileName != "" {
		return cfg.TargetFileName
	}

	stamp := cfg.BuildTimestamp.UTC().Format("2006-01-02-15-04")
	if cfg.Release {
		stamp = releaseStamp(tag)
	}
	return fmt.Sprintf("OpenJDK%dU%s_%s_%s_%s_%s%s",
		cfg.FeatureVersion, jdkToken, cfg.Platform.Arch, cfg.Platform.OS,
		JVMName(cfg.Variant), stamp, ArchiveExtension(cfg.ArchiveFormat))
}

// releaseStamp renders 11.0.2_9 for jdk-11.0.2+9 and 8u292b10 for jdk8u292-b10.
func releaseStamp(tag version.Tag) string {
	raw := strings.TrimSuffix(tag.Raw, tag.Suffix)
	if tag.Grammar == version.Legacy8 {
		return strings.ReplaceAll(strings.TrimPrefix(raw, "jdk"), "-", "")
	}
	return strings.ReplaceAll(strings.TrimPrefix(raw, "jdk-"), "+", "_")
}

// Naming derives every artifact name from the JDK archive name by
// substituting the -jdk token.
type Naming struct {
	JDK string
}

// NewNaming returns the naming for a build.
func NewNaming(cfg config.BuildConfig, tag version.Tag) Naming {
	return Naming{JDK: CanonicalJDKFileName(cfg, tag)}
}

// Validate fails when the JDK name has no -jdk token, since every sibling
// would then collide with it.
func (n Naming) Validate() error {
	if !strings.Contains(n.JDK, jdkToken) {
		return errors.New(errors.KindEnvironment,
			fmt.Sprintf("archive name %q has no %s token", n.JDK, jdkToken), nil).
			WithRemediation("set target_file_name to a name containing -jdk")
	}
	return nil
}

// Sibling returns the file name for an artifact kind. SBOM names swap the
// archive extension for .json.
func (n Naming) Sibling(kind Kind) string {
	name := strings.Replace(n.JDK, jdkToken, "-"+string(kind), 1)
	if kind == KindSBOM {
		name = trimArchiveExt(name) + sbomExt
	}
	return name
}

// StaticLibsSibling returns the static-libs name, qualified by C library
// on Linux, e.g. -static-libs-glibc.
func (n Naming) StaticLibsSibling(libc string) string {
	if libc == "" {
		return n.Sibling(KindStaticLibs)
	}
	return strings.Replace(n.JDK, jdkToken, "-"+string(KindStaticLibs)+"-"+libc, 1)
}

// Parse returns the kind of a sibling name produced by this naming.
func (n Naming) Parse(name string) (Kind, bool) {
	for _, kind := range siblingKinds {
		if n.Sibling(kind) == name {
			return kind, true
		}
	}
	return "", false
}

// ToJDK maps an archive sibling name back to its JDK name. SBOM names are
// not reversible because the archive extension is gone.
func ToJDK(name string) string {
	for _, kind := range siblingKinds {
		if kind == KindJDK || kind == KindSBOM {
			continue
		}
		token := "-" + string(kind)
		i := strings.Index(name, token)
		if i < 0 {
			continue
		}
		rest := name[i+len(token):]
		if kind == KindStaticLibs {
			rest = strings.TrimPrefix(strings.TrimPrefix(rest, "-glibc"), "-musl")
		}
		return name[:i] + jdkToken + rest
	}
	return name
}

// Prefix and Suffix split the JDK name around the -jdk token.
func (n Naming) Prefix() string {
	i := strings.Index(n.JDK, jdkToken)
	if i < 0 {
		return trimArchiveExt(n.JDK)
	}
	return n.JDK[:i]
}

// Suffix returns everything after the -jdk token.
func (n Naming) Suffix() string {
	i := strings.Index(n.JDK, jdkToken)
	if i < 0 {
		return filepath.Ext(n.JDK)
	}
	return n.JDK[i+len(jdkToken):]
}

func trimArchiveExt(name string) string {
	for _, ext := range []string{".tar.gz", ".tar.xz", ".zip"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
