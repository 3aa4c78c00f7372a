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

package builder

import (
	"github.com/mattn/go-shellwords"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
)

// Make targets.
const (
	TargetImages          = "images"
	TargetProductImages   = "product-images"
	TargetLegacyJREImage  = "legacy-jre-image"
	TargetTestImage       = "test-image"
	TargetDebugImage      = "debug-image"
	TargetStaticLibsImage = "static-libs-image"
)

// MakeTargets returns the make targets for a build. Configured make
// arguments replace the derived list.
func MakeTargets(cfg config.BuildConfig) ([]string, error) {
	if cfg.MakeArgs != "" {
		words, err := shellwords.Parse(cfg.MakeArgs)
		if err != nil {
			return nil, errors.Wrap("parse make arguments", cfg.MakeArgs, err)
		}
		return words, nil
	}

	base := TargetProductImages
	if cfg.Band() == config.Band8 {
		base = TargetImages
	}
	if cfg.ExplodedImage {
		return []string{base}, nil
	}

	modern := cfg.FeatureVersion >= 11
	openj9 := cfg.Variant == config.VariantOpenJ9

	targets := []string{base}
	if cfg.CreateJREImage && modern {
		targets = append(targets, TargetLegacyJREImage)
	}
	if modern || openj9 {
		targets = append(targets, TargetTestImage)
	}
	if cfg.CreateDebugImage && (modern || openj9) {
		targets = append(targets, TargetDebugImage)
	}
	if cfg.CreateStaticLibsImage && modern {
		targets = append(targets, TargetStaticLibsImage)
	}
	return targets, nil
}
