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

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/shell"
)

// Signer re-signs a binary after post-processing changed the image.
type Signer interface {
	Sign(ctx context.Context, path string) error
}

// ToolSigner signs with codesign on macOS and signtool on Windows.
type ToolSigner struct {
	Runner   shell.Runner
	Platform config.Platform
	Signing  config.SigningConfig
}

// NewToolSigner returns a signer for the build platform, or nil when no
// identity is configured or the platform has no signing step.
func NewToolSigner(runner shell.Runner, cfg config.BuildConfig) Signer {
	if cfg.Signing.Identity == "" {
		return nil
	}
	if !cfg.Platform.IsDarwin() && !cfg.Platform.IsWindows() {
		return nil
	}
	return &ToolSigner{Runner: runner, Platform: cfg.Platform, Signing: cfg.Signing}
}

// Sign implements Signer.
func (s *ToolSigner) Sign(ctx context.Context, path string) error {
	name, args := s.command(path)
	_, err := s.Runner.Output(ctx, name, args...)
	return err
}

func (s *ToolSigner) command(path string) (string, []string) {
	if s.Platform.IsWindows() {
		return "signtool", []string{"sign", "/n", s.Signing.Identity, "/fd", "sha256", path}
	}
	args := []string{"--force", "--timestamp", "--options", "runtime", "--sign", s.Signing.Identity}
	if s.Signing.Entitlements != "" {
		args = append(args, "--entitlements", s.Signing.Entitlements)
	}
	return "codesign", append(args, path)
}

// signPatterns are the base names that need re-signing per platform.
func signPatterns(p config.Platform) []string {
	switch {
	case p.IsDarwin():
		return []string{"*.dylib", "*.jnilib"}
	case p.IsWindows():
		return []string{"*.dll", "*.exe"}
	}
	return nil
}
