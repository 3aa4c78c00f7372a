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
	"github.com/spf13/cobra"

	"github.com/cowdogmoo/jdkbuild/builder"
	"github.com/cowdogmoo/jdkbuild/logging"
)

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Package the output of an existing build",
	Long: `Run the packaging stages over images a previous build left in the
source checkout. The repository is never cloned; the version is resolved
from the existing checkout unless --tag is given.`,
	Args: cobra.NoArgs,
	RunE: runPackage,
}

var sbomCmd = &cobra.Command{
	Use:   "sbom",
	Short: "Generate the SBOM of a packaged build",
	Long: `Assemble the CycloneDX SBOM from the images and metadata directory of a
build that has already been packaged, and print its path.`,
	Args: cobra.NoArgs,
	RunE: runSBOM,
}

func init() {
	addBuildFlags(packageCmd)
	addBuildFlags(sbomCmd)
}

// packageRequest resolves the version against the existing checkout and
// rebuilds the inputs the packaging stages record.
func packageRequest(cmd *cobra.Command, svc *builder.BuildService) (builder.PackageRequest, error) {
	ctx := cmd.Context()
	cfg, err := buildConfigFromCommand(cmd)
	if err != nil {
		return builder.PackageRequest{}, err
	}
	cfg.Repository = ""

	tag, provider, err := svc.ResolveVersion(ctx, cfg)
	if err != nil {
		return builder.PackageRequest{}, err
	}
	args, err := svc.Args.Build(ctx, cfg, tag)
	if err != nil {
		return builder.PackageRequest{}, err
	}
	targets, err := builder.MakeTargets(cfg)
	if err != nil {
		return builder.PackageRequest{}, err
	}
	return builder.PackageRequest{
		Config:        cfg,
		Tag:           tag,
		ConfigureArgs: args.String(),
		MakeCommand:   builder.MakeCommand(targets),
		OpenJDK:       provider,
	}, nil
}

func runPackage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc := newService()
	req, err := packageRequest(cmd, svc)
	if err != nil {
		return err
	}
	artifacts, err := svc.Package(ctx, req)
	if err != nil {
		logging.ErrorContext(ctx, err)
		return err
	}
	for _, a := range artifacts {
		logging.OutputContext(ctx, a)
	}
	return nil
}

func runSBOM(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc := newService()
	req, err := packageRequest(cmd, svc)
	if err != nil {
		return err
	}
	req.Config.CreateSBOM = true
	out, err := svc.GenerateSBOM(ctx, req)
	if err != nil {
		return err
	}
	logging.OutputContext(ctx, out)
	return nil
}
