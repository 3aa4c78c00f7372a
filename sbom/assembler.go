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

package sbom

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/opencontainers/go-digest"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/configure"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/packaging"
	"github.com/cowdogmoo/jdkbuild/version"
)

// ToolName is recorded as the SBOM producing tool.
const ToolName = "jdkbuild"

// Input is everything the assembler records.
type Input struct {
	Config      config.BuildConfig
	Tag         version.Tag
	FullVersion string

	// ImageDir is the relocated JDK image; HashFile inside it is hashed.
	ImageDir string
	HashFile string

	ScriptsCommit string
	OpenJDKCommit string
	ToolVersion   string

	// Output is where the document is written.
	Output string
}

// Assembler drives a Generator through the fixed SBOM call sequence.
type Assembler struct {
	NewGenerator func() Generator
}

// NewAssembler returns an assembler producing CycloneDX documents.
func NewAssembler() *Assembler {
	return &Assembler{NewGenerator: func() Generator { return NewCycloneDXGenerator() }}
}

// ComponentName is the SBOM component describing the JDK itself.
func ComponentName(cfg config.BuildConfig) string {
	return configure.VendorFor(cfg).Name + " " + cfg.VariantName + " JDK"
}

// Assemble builds and writes the document.
func (a *Assembler) Assemble(ctx context.Context, in Input) error {
	cfg := in.Config
	gen := a.NewGenerator()
	semantic := in.Tag.Semantic()
	component := ComponentName(cfg)

	if err := gen.CreateDocument(); err != nil {
		return err
	}
	gen.SetDefaultMetadata(configure.VendorFor(cfg).Name, semantic, cfg.BuildTimestamp)
	gen.AddMetadataComponent(component, semantic,
		fmt.Sprintf("%s %d build of %s", cfg.VariantName, cfg.FeatureVersion, in.Tag.Raw))

	gen.AddMetadataProperty("OS", cfg.Platform.OS)
	gen.AddMetadataProperty("OS version", cfg.Platform.KernelRelease)
	gen.AddMetadataProperty("Architecture", cfg.Platform.Arch)
	gen.AddMetadataProperty("Build timestamp", cfg.BuildTimestamp.UTC().Format("2006-01-02T15:04:05Z"))
	gen.AddMetadataProperty("In container", strconv.FormatBool(cfg.SBOM.InContainer))
	var imageDigest string
	if cfg.SBOM.ContainerImageDigest != "" {
		d, err := digest.Parse(cfg.SBOM.ContainerImageDigest)
		if err != nil {
			return errors.Wrap("validate container image digest", cfg.SBOM.ContainerImageDigest, err)
		}
		imageDigest = d.String()
	}

	gen.AddComponent(component, semantic, "The JDK image produced by this build")
	properties := [][2]string{
		{"SCM Ref", in.Tag.Raw},
		{"Full Version", in.FullVersion},
		{"OpenJDK Source Commit", in.OpenJDKCommit},
		{"Build Scripts Commit", in.ScriptsCommit},
		{"Variant", cfg.VariantName},
	}
	for _, p := range properties {
		if p[1] == "" {
			continue
		}
		if err := gen.AddComponentProperty(component, p[0], p[1]); err != nil {
			return err
		}
	}

	fromFile := [][2]string{
		{"Build Config", packaging.MetaBuildConfig},
		{"full_version_output", packaging.MetaVersion},
		{"configure_arguments", packaging.MetaConfigure},
		{"make_command_args", packaging.MetaMakeCommand},
	}
	for _, p := range fromFile {
		if err := gen.AddComponentPropertyFromFile(component, p[0], filepath.Join(cfg.MetadataDir, p[1])); err != nil {
			return err
		}
	}

	if in.HashFile != "" {
		d, err := hashFile(filepath.Join(in.ImageDir, in.HashFile))
		if err != nil {
			return errors.Wrap("hash image file", in.HashFile, err)
		}
		if err := gen.AddComponentHash(component, d.Encoded()); err != nil {
			return err
		}
	}

	gen.AddTool(ToolName, in.ToolVersion)
	if cfg.BootJDK != "" {
		gen.AddTool("Boot JDK", filepath.Base(cfg.BootJDK))
	}
	for _, tool := range [][2]string{
		{"FreeType", cfg.SBOM.FreetypeVersion},
		{"HarfBuzz", cfg.SBOM.HarfbuzzVersion},
		{"Template engine", cfg.SBOM.TemplateEngineVersion},
		{"Container image digest", imageDigest},
	} {
		if tool[1] != "" {
			gen.AddTool(tool[0], tool[1])
		}
	}

	var buf bytes.Buffer
	if err := gen.Serialize(&buf); err != nil {
		return errors.Wrap("serialize sbom", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(in.Output), config.DirPermReadWriteExec); err != nil {
		return err
	}
	if err := os.WriteFile(in.Output, buf.Bytes(), config.FilePermReadWrite); err != nil {
		return errors.Wrap("write sbom", in.Output, err)
	}
	logging.InfoContext(ctx, "Wrote SBOM to %s", in.Output)
	return nil
}

func hashFile(p string) (digest.Digest, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return digest.SHA256.FromReader(f)
}
