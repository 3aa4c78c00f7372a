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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive formats accepted by build.archive_format.
const (
	ArchiveTarGz = "tar.gz"
	ArchiveTarXz = "tar.xz"
	ArchiveZip   = "zip"
)

// FeatureBand groups feature versions that share version-flag rules.
type FeatureBand int

// Feature bands.
const (
	Band8 FeatureBand = iota
	Band9
	Band10Plus
)

// String returns the band label.
func (b FeatureBand) String() string {
	switch b {
	case Band8:
		return "8"
	case Band9:
		return "9"
	default:
		return "10+"
	}
}

// BandFor returns the band of a feature version.
func BandFor(feature int) FeatureBand {
	switch {
	case feature <= 8:
		return Band8
	case feature == 9:
		return Band9
	default:
		return Band10Plus
	}
}

// BuildConfig is the resolved description of one build. It is created once
// by NewBuildConfig and passed by value; no stage modifies it.
type BuildConfig struct {
	WorkspaceDir string `json:"workspaceDir"`
	SourceDir    string `json:"sourceDir"`
	TargetDir    string `json:"targetDir"`
	MetadataDir  string `json:"metadataDir"`

	Repository string `json:"repository,omitempty"`
	Branch     string `json:"branch,omitempty"`
	Tag        string `json:"tag,omitempty"`

	Variant        Variant  `json:"-"`
	VariantName    string   `json:"variant"`
	FeatureVersion int      `json:"featureVersion"`
	Release        bool     `json:"release"`
	Platform       Platform `json:"platform"`

	BootJDK       string `json:"bootJDK,omitempty"`
	ConfigureArgs string `json:"configureArgs,omitempty"`
	MakeArgs      string `json:"makeArgs,omitempty"`

	CreateJREImage        bool `json:"createJREImage"`
	CreateDebugImage      bool `json:"createDebugImage"`
	CreateStaticLibsImage bool `json:"createStaticLibsImage"`
	CreateSBOM            bool `json:"createSBOM"`
	CreateSourceArchive   bool `json:"createSourceArchive"`
	ExplodedImage         bool `json:"explodedImage"`
	RelaxedVersion        bool `json:"relaxedVersion"`

	// BuildTimestamp is UTC with whole-second precision.
	BuildTimestamp time.Time `json:"buildTimestamp"`
	ArchiveFormat  string    `json:"archiveFormat"`
	TargetFileName string    `json:"targetFileName,omitempty"`

	ScriptsDir        string `json:"scriptsDir,omitempty"`
	ScriptsRepository string `json:"scriptsRepository,omitempty"`

	Vendor  VendorConfig  `json:"vendor"`
	Signing SigningConfig `json:"-"`
	SBOM    SBOMConfig    `json:"sbom"`
}

// NewBuildConfig validates settings and derives the BuildConfig. All
// normalisation of user input happens here.
func NewBuildConfig(settings *Config, platform Platform, now time.Time) (BuildConfig, error) {
	if settings == nil {
		settings = Defaults()
	}
	b := settings.Build

	variant, err := ParseVariant(b.Variant)
	if err != nil {
		return BuildConfig{}, err
	}
	if b.FeatureVersion < 8 {
		return BuildConfig{}, fmt.Errorf("feature version %d is not supported, 8 or newer is required", b.FeatureVersion)
	}

	format := strings.ToLower(b.ArchiveFormat)
	if format == "" {
		format = ArchiveTarGz
		if platform.IsWindows() {
			format = ArchiveZip
		}
	}
	switch format {
	case ArchiveTarGz, ArchiveTarXz, ArchiveZip:
	default:
		return BuildConfig{}, fmt.Errorf("unsupported archive format %q", b.ArchiveFormat)
	}

	if b.TargetFileName != "" && !strings.Contains(b.TargetFileName, "-jdk") {
		return BuildConfig{}, fmt.Errorf("target file name %q must contain the -jdk token so sibling artifacts can be named", b.TargetFileName)
	}

	workspace, err := filepath.Abs(settings.Workspace.Dir)
	if err != nil {
		return BuildConfig{}, err
	}

	stamp := now.UTC().Truncate(time.Second)
	if b.SourceDateEpoch > 0 {
		stamp = time.Unix(b.SourceDateEpoch, 0).UTC()
	}

	return BuildConfig{
		WorkspaceDir:          workspace,
		SourceDir:             filepath.Join(workspace, settings.Workspace.SourceDir),
		TargetDir:             filepath.Join(workspace, settings.Workspace.TargetDir),
		MetadataDir:           filepath.Join(workspace, settings.Workspace.MetadataDir),
		Repository:            b.Repository,
		Branch:                b.Branch,
		Tag:                   b.Tag,
		Variant:               variant,
		VariantName:           variant.String(),
		FeatureVersion:        b.FeatureVersion,
		Release:               b.Release,
		Platform:              platform,
		BootJDK:               resolveBootJDK(b.BootJDK, platform),
		ConfigureArgs:         strings.TrimSpace(b.ConfigureArgs),
		MakeArgs:              strings.TrimSpace(b.MakeArgs),
		CreateJREImage:        b.CreateJREImage,
		CreateDebugImage:      b.CreateDebugImage,
		CreateStaticLibsImage: b.CreateStaticLibsImage,
		CreateSBOM:            b.CreateSBOM,
		CreateSourceArchive:   b.CreateSourceArchive,
		ExplodedImage:         b.ExplodedImage,
		RelaxedVersion:        b.RelaxedVersion,
		BuildTimestamp:        stamp,
		ArchiveFormat:         format,
		TargetFileName:        b.TargetFileName,
		ScriptsDir:            b.ScriptsDir,
		ScriptsRepository:     b.ScriptsRepository,
		Vendor:                settings.Vendor,
		Signing:               settings.Signing,
		SBOM:                  settings.SBOM,
	}, nil
}

// resolveBootJDK points a macOS bundle path at its Contents/Home.
func resolveBootJDK(path string, platform Platform) string {
	if path == "" || !platform.IsDarwin() {
		return path
	}
	home := filepath.Join(path, "Contents", "Home")
	if info, err := os.Stat(home); err == nil && info.IsDir() {
		return home
	}
	return path
}

// Band returns the feature band of the build.
func (c BuildConfig) Band() FeatureBand {
	return BandFor(c.FeatureVersion)
}

// Snapshot serialises the BuildConfig for the SBOM and metadata directory.
func (c BuildConfig) Snapshot() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
