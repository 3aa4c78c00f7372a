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

// Package config loads jdkbuild settings and derives the immutable BuildConfig
// handed to every pipeline stage.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Permissions used for directories and files created by jdkbuild.
const (
	DirPermReadWriteExec os.FileMode = 0o755
	FilePermReadWrite    os.FileMode = 0o644
)

// EnvPrefix prefixes every environment variable bound to a setting.
const EnvPrefix = "JDKBUILD"

// Config represents the jdkbuild settings file.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace" json:"workspace"`
	Build     BuildSettings   `mapstructure:"build" yaml:"build" json:"build"`
	Vendor    VendorConfig    `mapstructure:"vendor" yaml:"vendor" json:"vendor"`
	Signing   SigningConfig   `mapstructure:"signing" yaml:"signing" json:"signing"`
	SBOM      SBOMConfig      `mapstructure:"sbom" yaml:"sbom" json:"sbom"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `mapstructure:"format" yaml:"format" json:"format" jsonschema:"enum=text,enum=color,enum=json"`
}

// WorkspaceConfig locates the build workspace and its subdirectories.
type WorkspaceConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir" json:"dir"`
	SourceDir   string `mapstructure:"source_dir" yaml:"source_dir" json:"source_dir"`
	TargetDir   string `mapstructure:"target_dir" yaml:"target_dir" json:"target_dir"`
	MetadataDir string `mapstructure:"metadata_dir" yaml:"metadata_dir" json:"metadata_dir"`
}

// BuildSettings holds the requested build.
type BuildSettings struct {
	Variant               string `mapstructure:"variant" yaml:"variant" json:"variant"`
	FeatureVersion        int    `mapstructure:"feature_version" yaml:"feature_version" json:"feature_version"`
	Release               bool   `mapstructure:"release" yaml:"release" json:"release"`
	Repository            string `mapstructure:"repository" yaml:"repository" json:"repository"`
	Branch                string `mapstructure:"branch" yaml:"branch" json:"branch"`
	Tag                   string `mapstructure:"tag" yaml:"tag" json:"tag"`
	BootJDK               string `mapstructure:"boot_jdk" yaml:"boot_jdk" json:"boot_jdk"`
	ConfigureArgs         string `mapstructure:"configure_args" yaml:"configure_args" json:"configure_args"`
	MakeArgs              string `mapstructure:"make_args" yaml:"make_args" json:"make_args"`
	CreateJREImage        bool   `mapstructure:"create_jre_image" yaml:"create_jre_image" json:"create_jre_image"`
	CreateDebugImage      bool   `mapstructure:"create_debug_image" yaml:"create_debug_image" json:"create_debug_image"`
	CreateStaticLibsImage bool   `mapstructure:"create_static_libs_image" yaml:"create_static_libs_image" json:"create_static_libs_image"`
	CreateSBOM            bool   `mapstructure:"create_sbom" yaml:"create_sbom" json:"create_sbom"`
	CreateSourceArchive   bool   `mapstructure:"create_source_archive" yaml:"create_source_archive" json:"create_source_archive"`
	ExplodedImage         bool   `mapstructure:"exploded_image" yaml:"exploded_image" json:"exploded_image"`
	RelaxedVersion        bool   `mapstructure:"relaxed_version" yaml:"relaxed_version" json:"relaxed_version"`
	ArchiveFormat         string `mapstructure:"archive_format" yaml:"archive_format" json:"archive_format" jsonschema:"enum=tar.gz,enum=tar.xz,enum=zip"`
	TargetFileName        string `mapstructure:"target_file_name" yaml:"target_file_name" json:"target_file_name"`
	ScriptsDir            string `mapstructure:"scripts_dir" yaml:"scripts_dir" json:"scripts_dir"`
	ScriptsRepository     string `mapstructure:"scripts_repository" yaml:"scripts_repository" json:"scripts_repository"`
	SourceDateEpoch       int64  `mapstructure:"source_date_epoch" yaml:"source_date_epoch" json:"source_date_epoch"`
}

// VendorConfig supplies vendor strings for variants without a built-in vendor.
type VendorConfig struct {
	Name          string `mapstructure:"name" yaml:"name" json:"name"`
	URL           string `mapstructure:"url" yaml:"url" json:"url"`
	BugURL        string `mapstructure:"bug_url" yaml:"bug_url" json:"bug_url"`
	VMBugURL      string `mapstructure:"vm_bug_url" yaml:"vm_bug_url" json:"vm_bug_url"`
	VersionString string `mapstructure:"version_string" yaml:"version_string" json:"version_string"`
}

// SigningConfig holds the code-signing identity used by post-processing.
type SigningConfig struct {
	Identity     string `mapstructure:"identity" yaml:"identity" json:"identity"`
	Entitlements string `mapstructure:"entitlements" yaml:"entitlements" json:"entitlements"`
}

// SBOMConfig holds values recorded in the SBOM that the build cannot discover itself.
type SBOMConfig struct {
	FreetypeVersion       string `mapstructure:"freetype_version" yaml:"freetype_version" json:"freetype_version"`
	HarfbuzzVersion       string `mapstructure:"harfbuzz_version" yaml:"harfbuzz_version" json:"harfbuzz_version"`
	TemplateEngineVersion string `mapstructure:"template_engine_version" yaml:"template_engine_version" json:"template_engine_version"`
	ContainerImageDigest  string `mapstructure:"container_image_digest" yaml:"container_image_digest" json:"container_image_digest"`
	InContainer           bool   `mapstructure:"in_container" yaml:"in_container" json:"in_container"`
}

// ErrConfigNotFound is returned by Load when no settings file exists.
var ErrConfigNotFound = errors.New("config file not found")

// IsNotFoundError reports whether err means the settings file was absent.
func IsNotFoundError(err error) bool {
	if errors.Is(err, ErrConfigNotFound) {
		return true
	}
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// Load reads config.yaml from the XDG config dirs or the working directory.
// When no file exists it returns the defaults together with ErrConfigNotFound.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range GetConfigDirs() {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	readErr := v.ReadInConfig()
	if readErr != nil && !IsNotFoundError(readErr) {
		return nil, readErr
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if readErr != nil {
		return cfg, ErrConfigNotFound
	}
	return cfg, nil
}

// LoadFromPath loads settings from a specific file.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// Defaults returns the settings used when no file or environment overrides exist.
func Defaults() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		return &Config{}
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	bindEnvVars(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")

	v.SetDefault("workspace.dir", filepath.Join(".", "workspace"))
	v.SetDefault("workspace.source_dir", "openjdk")
	v.SetDefault("workspace.target_dir", "target")
	v.SetDefault("workspace.metadata_dir", "metadata")

	v.SetDefault("build.variant", VariantTemurin.String())
	v.SetDefault("build.feature_version", 21)
	v.SetDefault("build.release", false)
	v.SetDefault("build.create_jre_image", false)
	v.SetDefault("build.create_debug_image", false)
	v.SetDefault("build.create_static_libs_image", false)
	v.SetDefault("build.create_sbom", false)
	v.SetDefault("build.create_source_archive", false)
	v.SetDefault("build.exploded_image", false)
	v.SetDefault("build.relaxed_version", false)
	v.SetDefault("build.source_date_epoch", 0)
	if runtime.GOOS == "windows" {
		v.SetDefault("build.archive_format", ArchiveZip)
	} else {
		v.SetDefault("build.archive_format", ArchiveTarGz)
	}

	v.SetDefault("sbom.in_container", false)
}

func bindEnvVars(v *viper.Viper) {
	// Build
	_ = v.BindEnv("build.variant", "JDKBUILD_BUILD_VARIANT")
	_ = v.BindEnv("build.feature_version", "JDKBUILD_BUILD_FEATURE_VERSION")
	_ = v.BindEnv("build.release", "JDKBUILD_BUILD_RELEASE")
	_ = v.BindEnv("build.repository", "JDKBUILD_BUILD_REPOSITORY")
	_ = v.BindEnv("build.tag", "JDKBUILD_BUILD_TAG")
	_ = v.BindEnv("build.boot_jdk", "JDKBUILD_BUILD_BOOT_JDK", "JDK_BOOT_DIR")
	_ = v.BindEnv("build.configure_args", "JDKBUILD_BUILD_CONFIGURE_ARGS")
	_ = v.BindEnv("build.make_args", "JDKBUILD_BUILD_MAKE_ARGS")
	_ = v.BindEnv("build.source_date_epoch", "JDKBUILD_BUILD_SOURCE_DATE_EPOCH", "SOURCE_DATE_EPOCH")

	// Workspace
	_ = v.BindEnv("workspace.dir", "JDKBUILD_WORKSPACE_DIR")

	// Signing
	_ = v.BindEnv("signing.identity", "JDKBUILD_SIGNING_IDENTITY")

	// Log
	_ = v.BindEnv("log.level", "JDKBUILD_LOG_LEVEL")
	_ = v.BindEnv("log.format", "JDKBUILD_LOG_FORMAT")
}
