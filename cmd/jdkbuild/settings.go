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

package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cowdogmoo/jdkbuild/builder"
	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/configure"
	"github.com/cowdogmoo/jdkbuild/shell"
)

// buildFlagNames lists the flags registered by addBuildFlags.
var buildFlagNames = map[string]bool{}

// newService builds the service used by every pipeline command.
var newService = func() *builder.BuildService {
	runner := shell.Exec{}
	svc := builder.NewBuildService(runner, configure.HostDate{Runner: runner})
	svc.ToolVersion = version
	return svc
}

// now is the build timestamp source.
var now = time.Now

// addBuildFlags registers the flags that override build settings.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("workspace-dir", "", "Workspace holding the source, target and metadata directories")
	f.String("variant", "", "JDK variant ("+strings.Join(config.VariantNames(), ", ")+")")
	f.Int("feature-version", 0, "JDK feature version, e.g. 21")
	f.Bool("release", false, "Build a release instead of a nightly")
	f.String("repository", "", "OpenJDK repository to clone (defaults to the existing checkout)")
	f.String("branch", "", "Branch to check out")
	f.String("tag", "", "Tag to build instead of resolving the latest")
	f.String("boot-jdk", "", "Boot JDK path")
	f.String("configure-args", "", "Extra configure arguments, these take precedence over derived ones")
	f.String("make-args", "", "Make targets replacing the derived list")
	f.Bool("create-jre-image", false, "Also build and archive a JRE image")
	f.Bool("create-debug-image", false, "Also build and archive a debug image")
	f.Bool("create-static-libs-image", false, "Also build and archive a static libs image")
	f.Bool("create-sbom", false, "Generate a CycloneDX SBOM")
	f.Bool("create-source-archive", false, "Archive the source tree")
	f.Bool("exploded-image", false, "Rebuild the exploded image of an already configured build")
	f.Bool("relaxed-version", false, "Accept tags outside the feature band grammar")
	f.String("archive-format", "", "Archive format (tar.gz, tar.xz, zip)")
	f.String("target-file-name", "", "Override the JDK archive file name")
	f.String("scripts-dir", "", "Build scripts checkout recorded in the metadata")

	f.VisitAll(func(fl *pflag.Flag) { buildFlagNames[fl.Name] = true })
}

// settingsKey maps a build flag to its settings key.
func settingsKey(name string) string {
	if !buildFlagNames[name] {
		return ""
	}
	if name == "workspace-dir" {
		return "workspace.dir"
	}
	return flagKey("build", name)
}

// settingsFromCommand overlays the changed build flags of cmd on the
// loaded settings.
func settingsFromCommand(cmd *cobra.Command) (*config.Config, error) {
	cfg := configFromContext(cmd)
	if cfg == nil {
		cfg = config.Defaults()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	BindFlagsToViper(v, cmd, settingsKey)

	var out config.Config
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &out, nil
}

// buildConfigFromCommand derives the BuildConfig for the host.
func buildConfigFromCommand(cmd *cobra.Command) (config.BuildConfig, error) {
	settings, err := settingsFromCommand(cmd)
	if err != nil {
		return config.BuildConfig{}, err
	}
	platform, err := config.DetectPlatform()
	if err != nil {
		return config.BuildConfig{}, fmt.Errorf("failed to detect platform: %w", err)
	}
	return config.NewBuildConfig(settings, platform, now())
}
