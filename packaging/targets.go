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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/version"
)

// Targets is where each artifact lives once relocated. Stages recompute it
// on every run because earlier stages move the image directories.
type Targets struct {
	BuildDir   string
	ImagesDir  string
	JDK        string
	JRE        string
	TestImage  string
	DebugImage string
	StaticLibs string
	SBOM       string
}

// FindBuildDir returns the single configuration directory under
// <source>/build, e.g. build/linux-x86_64-server-release.
func FindBuildDir(cfg config.BuildConfig) (string, error) {
	matches, err := filepath.Glob(filepath.Join(cfg.SourceDir, "build", "*"))
	if err != nil {
		return "", err
	}
	sort.Strings(matches)
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			return m, nil
		}
	}
	return "", fmt.Errorf("no build output directory under %s", filepath.Join(cfg.SourceDir, "build"))
}

// ComputeTargets derives the artifact paths for a build.
func ComputeTargets(cfg config.BuildConfig, tag version.Tag) (Targets, error) {
	buildDir, err := FindBuildDir(cfg)
	if err != nil {
		return Targets{}, err
	}
	images := filepath.Join(buildDir, "images")
	base := filepath.Join(images, tag.Raw)

	return Targets{
		BuildDir:   buildDir,
		ImagesDir:  images,
		JDK:        base,
		JRE:        base + "-jre",
		TestImage:  base + "-test-image",
		DebugImage: base + "-debug-image",
		StaticLibs: base + "-static-libs",
		SBOM:       filepath.Join(cfg.MetadataDir, "sbom.json"),
	}, nil
}

// source is a raw image directory produced by make.
type source struct {
	dir    string
	target string
	want   bool
}

// rawImages maps raw image directories to their targets.
func rawImages(cfg config.BuildConfig, t Targets) []source {
	jdk, jre := "jdk", "jre"
	if cfg.Band() == config.Band8 {
		jdk, jre = "j2sdk-image", "j2re-image"
	}
	return []source{
		{dir: filepath.Join(t.ImagesDir, jdk), target: t.JDK, want: true},
		{dir: filepath.Join(t.ImagesDir, jre), target: t.JRE, want: cfg.CreateJREImage},
		{dir: filepath.Join(t.ImagesDir, "test"), target: t.TestImage, want: true},
		{dir: filepath.Join(t.ImagesDir, "symbols"), target: t.DebugImage, want: cfg.CreateDebugImage},
		{dir: filepath.Join(t.ImagesDir, "static-libs"), target: t.StaticLibs, want: cfg.CreateStaticLibsImage},
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
