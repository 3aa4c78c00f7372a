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

// Package main implements the jdkbuild CLI, which checks out, configures,
// builds and packages OpenJDK for a chosen variant and feature version.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type configKeyType struct{}

var (
	// configKey is the context key for the loaded settings.
	configKey = configKeyType{}

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "jdkbuild",
	Short: "jdkbuild - OpenJDK build orchestrator",
	Long: `jdkbuild checks out OpenJDK sources, resolves the version to build,
derives the configure arguments, runs configure and make, and packages the
resulting images into checksummed archives with an optional SBOM.`,
	Version:           version,
	PersistentPreRunE: initConfig,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is $XDG_CONFIG_HOME/jdkbuild/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json, color)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Quiet mode - only show errors")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose mode - show debug output")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(resolveVersionCmd)
	rootCmd.AddCommand(configureArgsCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(sbomCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// configFromContext returns the settings stored by initConfig, or nil.
func configFromContext(cmd *cobra.Command) *config.Config {
	if cmd.Context() == nil {
		return nil
	}
	if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok {
		return cfg
	}
	return nil
}

// initConfig loads settings with the precedence
// CLI flags > environment variables > config file > defaults.
func initConfig(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromPath(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	var loadErr error
	switch {
	case err == nil:
	case config.IsNotFoundError(err) && cfg != nil:
	default:
		if cfgFile != "" {
			return fmt.Errorf("failed to load config %s: %w", cfgFile, err)
		}
		loadErr = err
		cfg = config.Defaults()
	}

	v := viper.New()
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	if err := v.BindPFlag("log.level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return fmt.Errorf("failed to bind log-level flag: %w", err)
	}
	if err := v.BindPFlag("log.format", cmd.Root().PersistentFlags().Lookup("log-format")); err != nil {
		return fmt.Errorf("failed to bind log-format flag: %w", err)
	}

	logLevel := v.GetString("log.level")
	logFormat := v.GetString("log.format")
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")

	logger, err := logging.Initialize(logLevel, logFormat, quiet, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Stdout = cmd.OutOrStdout()
	logger.ConsoleWriter = cmd.ErrOrStderr()
	if loadErr != nil {
		logger.Warn("failed to load config, using defaults: %v", loadErr)
	}

	cfg.Log.Level = logLevel
	cfg.Log.Format = logFormat

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = logging.WithLogger(ctx, logger)
	cmd.SetContext(ctx)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// BindFlagsToViper binds the named flags of cmd to v. keyFor maps a flag
// name to its settings key; flags it maps to "" are skipped.
func BindFlagsToViper(v *viper.Viper, cmd *cobra.Command, keyFor func(name string) string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := keyFor(f.Name)
		if key == "" {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			logging.WarnContext(cmd.Context(), "failed to bind flag %s to viper: %v", f.Name, err)
		}
	})
}

// flagKey converts a flag name to a viper key under section,
// e.g. "boot-jdk" -> "build.boot_jdk".
func flagKey(section, name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	if section == "" {
		return key
	}
	return section + "." + key
}
