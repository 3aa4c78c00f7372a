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
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cowdogmoo/jdkbuild/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect jdkbuild configuration",
	Long: `Inspect jdkbuild's configuration.

Configuration precedence (highest to lowest):
1. CLI flags
2. Environment variables (JDKBUILD_*)
3. Configuration file ($XDG_CONFIG_HOME/jdkbuild/config.yaml or ./config.yaml)
4. Built-in defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := configFromContext(cmd)
	if cfg == nil {
		return fmt.Errorf("config not available in context")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "# Current jdkbuild Configuration")
	_, _ = fmt.Fprintln(out, "# Sources: defaults -> config file -> environment variables -> CLI flags")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, string(data))

	if used := configFileUsed(); used != "" {
		_, _ = fmt.Fprintf(out, "\n# Config file: %s\n", used)
	} else {
		_, _ = fmt.Fprintln(out, "\n# No config file found (using defaults)")
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if used := configFileUsed(); used != "" {
		_, _ = fmt.Fprintln(out, used)
		return nil
	}
	dirs := config.GetConfigDirs()
	if len(dirs) == 0 {
		return fmt.Errorf("no configuration directory available")
	}
	_, _ = fmt.Fprintf(out, "%s (not created yet)\n", filepath.Join(dirs[0], "config.yaml"))
	return nil
}

// configFileUsed returns the settings file initConfig would read, or "".
func configFileUsed() string {
	if cfgFile != "" {
		return cfgFile
	}
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range config.GetConfigDirs() {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.ConfigFileUsed()
}
