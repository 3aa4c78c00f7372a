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

	"github.com/spf13/cobra"

	"github.com/cowdogmoo/jdkbuild/builder"
	"github.com/cowdogmoo/jdkbuild/logging"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and package a JDK",
	Long: `Run the whole pipeline: check out the source, resolve the version,
derive the configure arguments, run configure and make, then package the
images into the target directory.

Examples:
  jdkbuild build --variant temurin --feature-version 21
  jdkbuild build --variant mainline --feature-version 11 --release --create-sbom`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var resolveVersionCmd = &cobra.Command{
	Use:   "resolve-version",
	Short: "Print the tag a build would use",
	Args:  cobra.NoArgs,
	RunE:  runResolveVersion,
}

var configureArgsCmd = &cobra.Command{
	Use:   "configure-args",
	Short: "Print the configure arguments a build would use",
	Args:  cobra.NoArgs,
	RunE:  runConfigureArgs,
}

func init() {
	addBuildFlags(buildCmd)
	addBuildFlags(resolveVersionCmd)
	addBuildFlags(configureArgsCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := buildConfigFromCommand(cmd)
	if err != nil {
		return err
	}

	result, err := newService().ExecuteBuild(ctx, cfg)
	if err != nil {
		logging.ErrorContext(ctx, err)
		return err
	}

	if logging.FromContext(ctx).OutputType == logging.JSONOutput {
		logging.OutputContext(ctx, result)
		return nil
	}
	printBuildResult(cmd, result)
	return nil
}

func printBuildResult(cmd *cobra.Command, result *builder.BuildResult) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Tag:       %s\n", result.Tag)
	_, _ = fmt.Fprintf(out, "Duration:  %s\n", result.Duration)
	if result.BuildLog != "" {
		_, _ = fmt.Fprintf(out, "Build log: %s\n", result.BuildLog)
	}
	for _, a := range result.Artifacts {
		_, _ = fmt.Fprintf(out, "Artifact:  %s\n", a)
	}
}

func runResolveVersion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := buildConfigFromCommand(cmd)
	if err != nil {
		return err
	}
	tag, _, err := newService().ResolveVersion(ctx, cfg)
	if err != nil {
		return err
	}
	logging.OutputContext(ctx, tag.Raw)
	return nil
}

func runConfigureArgs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := buildConfigFromCommand(cmd)
	if err != nil {
		return err
	}
	_, set, err := newService().ConfigureArgs(ctx, cfg)
	if err != nil {
		return err
	}
	logging.OutputContext(ctx, set.String())
	return nil
}
