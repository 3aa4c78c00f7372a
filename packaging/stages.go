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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/configure"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
)

// Stage names.
const (
	StageRelocate     = "relocate"
	StageStripDemo    = "strip-demo"
	StageDebugSymbols = "debug-symbols"
	StagePostProcess  = "post-process"
	StageMetadata     = "metadata"
	StageArchive      = "archive"
)

// RelocateStage moves raw make output to the versioned target directories.
func RelocateStage() Stage {
	return NewStage(StageRelocate, func(ctx context.Context, sc *StageContext) error {
		t, err := sc.Targets()
		if err != nil {
			return err
		}
		for _, src := range rawImages(sc.Config, t) {
			if !src.want || !isDir(src.dir) || exists(src.target) {
				continue
			}
			logging.DebugContext(ctx, "Moving %s to %s", src.dir, src.target)
			if err := moveTree(src.dir, src.target); err != nil {
				return errors.Wrap("relocate image", src.dir, err)
			}
		}
		return nil
	})
}

// StripDemoStage removes demo and sample content from the runtime images.
func StripDemoStage() Stage {
	return NewStage(StageStripDemo, func(_ context.Context, sc *StageContext) error {
		t, err := sc.Targets()
		if err != nil {
			return err
		}
		for _, dir := range []string{
			filepath.Join(t.JDK, "demo"),
			filepath.Join(t.JDK, "sample"),
			filepath.Join(t.JRE, "demo"),
		} {
			if err := os.RemoveAll(dir); err != nil {
				return errors.Wrap("remove", dir, err)
			}
		}
		return nil
	})
}

// DebugSymbolPatterns returns the debug artifact patterns of a platform.
func DebugSymbolPatterns(p config.Platform) []string {
	switch {
	case p.IsWindows():
		return []string{"*.pdb", "*.map"}
	case p.IsDarwin():
		return []string{"*.dSYM"}
	default:
		return []string{"*.debuginfo", "*.diz"}
	}
}

// DebugSymbolsStage strips debug symbols from the runtime images. With a
// debug image requested they are first copied into it; openj9 images are
// always stripped.
func DebugSymbolsStage() Stage {
	return NewStage(StageDebugSymbols, func(ctx context.Context, sc *StageContext) error {
		t, err := sc.Targets()
		if err != nil {
			return err
		}
		openj9 := sc.Config.Variant == config.VariantOpenJ9
		if !openj9 && !sc.Config.CreateDebugImage {
			return nil
		}
		patterns := DebugSymbolPatterns(sc.Config.Platform)

		for _, image := range []string{t.JDK, t.JRE} {
			found, err := findMatching(image, patterns)
			if err != nil {
				return errors.Wrap("find debug symbols", image, err)
			}
			for _, p := range found {
				if sc.Config.CreateDebugImage && image == t.JDK {
					rel, err := filepath.Rel(image, p)
					if err != nil {
						return err
					}
					if err := copyTree(p, filepath.Join(t.DebugImage, rel)); err != nil && !os.IsExist(err) {
						return errors.Wrap("copy debug symbols", p, err)
					}
				}
				if err := os.RemoveAll(p); err != nil {
					return errors.Wrap("strip debug symbols", p, err)
				}
			}
			if len(found) > 0 {
				logging.DebugContext(ctx, "Stripped %d debug artifacts from %s", len(found), image)
			}
		}
		return nil
	})
}

// StaticLibsDir is where static libraries are gathered inside the
// static-libs image, e.g. lib/static/linux-x64/glibc.
func StaticLibsDir(p config.Platform, libc string) string {
	dir := filepath.Join("lib", "static", p.OS+"-"+p.Arch)
	if libc != "" {
		dir = filepath.Join(dir, libc)
	}
	return dir
}

// PostProcessStage arranges the static-libs image and re-signs binaries.
func PostProcessStage() Stage {
	return NewStage(StagePostProcess, func(ctx context.Context, sc *StageContext) error {
		t, err := sc.Targets()
		if err != nil {
			return err
		}
		if sc.Config.CreateStaticLibsImage && isDir(t.StaticLibs) {
			if err := arrangeStaticLibs(ctx, sc, t.StaticLibs); err != nil {
				return err
			}
		}
		if sc.Signer != nil {
			return signImages(ctx, sc, t)
		}
		return nil
	})
}

func arrangeStaticLibs(ctx context.Context, sc *StageContext, image string) error {
	lib := filepath.Join(image, "lib")
	dest := filepath.Join(image, StaticLibsDir(sc.Config.Platform, sc.Libc(ctx)))

	found, err := findMatching(lib, []string{"*.a", "*.lib"})
	if err != nil {
		return errors.Wrap("find static libraries", lib, err)
	}
	for _, p := range found {
		if strings.HasPrefix(p, filepath.Join(lib, "static")+string(filepath.Separator)) {
			continue
		}
		rel, err := filepath.Rel(lib, p)
		if err != nil {
			return err
		}
		if err := moveTree(p, filepath.Join(dest, rel)); err != nil {
			return errors.Wrap("move static library", p, err)
		}
	}
	return nil
}

func signImages(ctx context.Context, sc *StageContext, t Targets) error {
	patterns := signPatterns(sc.Config.Platform)
	for _, image := range []string{t.JDK, t.JRE} {
		if !isDir(image) {
			continue
		}
		found, err := findMatching(image, patterns)
		if err != nil {
			return err
		}
		if sc.Config.Platform.IsDarwin() {
			bins, _ := filepath.Glob(filepath.Join(image, "bin", "*"))
			found = append(found, bins...)
		}
		for _, p := range found {
			if err := sc.Signer.Sign(ctx, p); err != nil {
				return errors.Wrap("sign", p, err)
			}
		}
		logging.InfoContext(ctx, "Signed %d binaries in %s", len(found), filepath.Base(image))
	}
	return nil
}

// Metadata file names written under the metadata directory.
const (
	MetaVersion        = "version.txt"
	MetaVendor         = "vendor.txt"
	MetaBuildSource    = "buildSource.txt"
	MetaOpenJDKSource  = "openjdkSource.txt"
	MetaSCMRef         = "scmref.txt"
	MetaBuildConfig    = "buildConfig.json"
	MetaConfigure      = "configure.txt"
	MetaMakeCommand    = "makeCommand.txt"
	MetaVariantVersion = "variant_version"
)

// MetadataStage appends the release record to the images and writes the
// metadata directory.
func MetadataStage() Stage {
	return NewStage(StageMetadata, func(ctx context.Context, sc *StageContext) error {
		t, err := sc.Targets()
		if err != nil {
			return err
		}
		versionOut, record := buildRecord(ctx, sc, t)

		for image, kind := range map[string]string{t.JDK: "JDK", t.JRE: "JRE"} {
			if !isDir(image) {
				continue
			}
			r := record
			r.ImageType = kind
			if err := AppendRelease(filepath.Join(image, ReleaseFile), r); err != nil {
				return errors.Wrap("append release metadata", image, err)
			}
		}
		return writeMetadataDir(ctx, sc, record, versionOut)
	})
}

func buildRecord(ctx context.Context, sc *StageContext, t Targets) (string, ReleaseRecord) {
	cfg := sc.Config
	vendor := configure.VendorFor(cfg)

	versionOut := ""
	full := FallbackFullVersion(sc.Tag)
	if sc.Runner != nil {
		out, err := sc.Runner.Output(ctx, filepath.Join(t.JDK, "bin", "java"), "-version")
		if err == nil {
			versionOut = string(out)
			if v, ok := ParseFullVersion(versionOut); ok {
				full = v
			}
		} else {
			logging.WarnContext(ctx, "Could not run built java, using tag version %s: %v", full, err)
		}
	}
	if versionOut == "" {
		versionOut = full + "\n"
	}

	r := ReleaseRecord{
		Implementor:     vendor.Name,
		FullVersion:     full,
		SemanticVersion: sc.Tag.Semantic(),
		BuildInfo:       fmt.Sprintf("OS: %s Version: %s", cfg.Platform.KernelName, cfg.Platform.KernelRelease),
		JVMVariant:      jvmVariantLabel(cfg.Variant),
		JVMVersion:      full,
	}
	if sc.Scripts != nil {
		if hash, ok := sc.Scripts.CurrentCommitShortHash(ctx); ok {
			r.BuildSource = "git:" + hash
		}
		if url, ok := sc.Scripts.RemoteURL(ctx); ok {
			r.BuildSourceRepo = url
		}
	}
	if sc.OpenJDK != nil {
		if url, ok := sc.OpenJDK.RemoteURL(ctx); ok {
			r.SourceRepo = url
		}
	}
	if sc.VariantVersion != nil {
		r.JVMVersion = sc.VariantVersion.String()
		r.OpenJ9Tag = sc.VariantVersion.Tag
	}
	return versionOut, r
}

func writeMetadataDir(ctx context.Context, sc *StageContext, r ReleaseRecord, versionOut string) error {
	dir := sc.Config.MetadataDir
	if err := os.MkdirAll(dir, config.DirPermReadWriteExec); err != nil {
		return errors.Wrap("create metadata directory", dir, err)
	}

	snapshot, err := sc.Config.Snapshot()
	if err != nil {
		return errors.Wrap("snapshot build config", "", err)
	}
	files := map[string]string{
		MetaVersion:     versionOut,
		MetaVendor:      r.Implementor,
		MetaSCMRef:      sc.Tag.Raw,
		MetaBuildConfig: snapshot,
		MetaConfigure:   sc.ConfigureArgs,
		MetaMakeCommand: sc.MakeCommand,
	}
	if r.BuildSource != "" {
		files[MetaBuildSource] = r.BuildSource
	}
	if sc.OpenJDK != nil {
		if hash, ok := sc.OpenJDK.CurrentCommitShortHash(ctx); ok {
			files[MetaOpenJDKSource] = "git:" + hash
		}
	}
	if sc.VariantVersion != nil {
		for name, content := range sc.VariantVersion.Files() {
			files[filepath.Join(MetaVariantVersion, name)] = content
		}
	}

	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), config.DirPermReadWriteExec); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), config.FilePermReadWrite); err != nil {
			return errors.Wrap("write metadata", name, err)
		}
	}
	return nil
}

// artifact is one archive the archive stage must produce.
type artifact struct {
	name     string
	dir      string
	required bool
	exclude  []string
}

// ArchiveStage compresses every image, verifies the results and writes
// their checksums.
func ArchiveStage() Stage {
	return NewStage(StageArchive, func(ctx context.Context, sc *StageContext) error {
		t, err := sc.Targets()
		if err != nil {
			return err
		}
		cfg := sc.Config
		if err := os.MkdirAll(cfg.TargetDir, config.DirPermReadWriteExec); err != nil {
			return errors.Wrap("create target directory", cfg.TargetDir, err)
		}

		n := sc.Naming
		if err := n.Validate(); err != nil {
			return err
		}
		artifacts := []artifact{
			{name: n.JDK, dir: t.JDK, required: true},
			{name: n.Sibling(KindJRE), dir: t.JRE, required: cfg.CreateJREImage},
			{name: n.Sibling(KindTestImage), dir: t.TestImage},
			{name: n.Sibling(KindDebugImage), dir: t.DebugImage, required: cfg.CreateDebugImage},
			{name: n.StaticLibsSibling(sc.Libc(ctx)), dir: t.StaticLibs, required: cfg.CreateStaticLibsImage},
		}
		if cfg.CreateSourceArchive {
			artifacts = append(artifacts, artifact{
				name: n.Sibling(KindSources), dir: cfg.SourceDir, required: true,
				exclude: []string{".git", "build"},
			})
		}

		var produced []string
		for _, a := range artifacts {
			if !isDir(a.dir) {
				if a.required {
					return VerifyArtifact(filepath.Join(cfg.TargetDir, a.name))
				}
				continue
			}
			dest := filepath.Join(cfg.TargetDir, a.name)
			logging.InfoContext(ctx, "Archiving %s", a.name)
			if err := sc.Archiver.Archive(ctx, a.dir, dest, a.exclude...); err != nil {
				return err
			}
			if err := VerifyArtifact(dest); err != nil {
				return err
			}
			produced = append(produced, dest)
		}

		if cfg.CreateSBOM {
			dest := filepath.Join(cfg.TargetDir, n.Sibling(KindSBOM))
			if isFile(t.SBOM) {
				if err := CopyFile(t.SBOM, dest, config.FilePermReadWrite); err != nil {
					return errors.Wrap("copy sbom", t.SBOM, err)
				}
			}
			if err := VerifyArtifact(dest); err != nil {
				return err
			}
			produced = append(produced, dest)
		}

		if err := WriteChecksums(ctx, produced); err != nil {
			return errors.Wrap("write checksums", "", err)
		}
		sc.Artifacts = produced
		return nil
	})
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
