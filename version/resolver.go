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

package version

import (
	"context"
	"fmt"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/scm"
)

// Strategy produces a version tag for one (variant, band) combination.
// found is false when the strategy has no candidate.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, cfg config.BuildConfig) (tag Tag, found bool, err error)
}

type strategyKey struct {
	variant config.Variant
	band    config.FeatureBand
}

// Resolver selects a Strategy from its table and applies the relaxed-mode
// placeholder when nothing is found.
type Resolver struct {
	table map[strategyKey]Strategy
}

// NewResolver builds the default strategy table on top of the SCM provider.
func NewResolver(provider scm.Provider) *Resolver {
	tags := &TagStrategy{SCM: provider}
	manifest := &ManifestStrategy{Fallback: tags}

	r := &Resolver{table: make(map[strategyKey]Strategy)}
	for _, name := range config.VariantNames() {
		v, _ := config.ParseVariant(name)
		for _, band := range []config.FeatureBand{config.Band8, config.Band9, config.Band10Plus} {
			r.Register(v, band, tags)
		}
	}
	for _, band := range []config.FeatureBand{config.Band8, config.Band9, config.Band10Plus} {
		r.Register(config.VariantCorretto, band, manifest)
	}
	return r
}

// Register sets the strategy for a variant and band.
func (r *Resolver) Register(v config.Variant, band config.FeatureBand, s Strategy) {
	r.table[strategyKey{variant: v, band: band}] = s
}

// StrategyFor returns the registered strategy.
func (r *Resolver) StrategyFor(v config.Variant, band config.FeatureBand) (Strategy, bool) {
	s, ok := r.table[strategyKey{variant: v, band: band}]
	return s, ok
}

// Resolve returns the version tag for cfg. An explicit tag in cfg wins and
// must match the band grammar unless relaxed version is set.
func (r *Resolver) Resolve(ctx context.Context, cfg config.BuildConfig) (Tag, error) {
	if cfg.Tag != "" {
		if tag, ok := Parse(cfg.Tag, grammarFor(cfg.Band())); ok {
			logging.InfoContext(ctx, "Using explicit tag %s", cfg.Tag)
			return tag, nil
		}
		if cfg.RelaxedVersion {
			logging.WarnContext(ctx, "Tag %s does not match the %s version grammar, using it as is",
				cfg.Tag, cfg.Band())
			return Tag{Grammar: grammarFor(cfg.Band()), Major: cfg.FeatureVersion, Raw: cfg.Tag}, nil
		}
		return Tag{}, errors.New(errors.KindResolution,
			fmt.Sprintf("tag %q does not match the %s version grammar", cfg.Tag, cfg.Band()), nil).
			WithRemediation("use a tag of the form jdk8uNNN-bNN for 8 or jdk-V[.W[.X]]+B otherwise")
	}

	strategy, ok := r.StrategyFor(cfg.Variant, cfg.Band())
	if !ok {
		return Tag{}, errors.New(errors.KindResolution,
			fmt.Sprintf("no version strategy for %s on feature band %s", cfg.Variant, cfg.Band()), nil)
	}

	tag, found, err := strategy.Resolve(ctx, cfg)
	if err != nil {
		return Tag{}, errors.New(errors.KindResolution, "resolve version with "+strategy.Name(), err)
	}
	if found {
		logging.InfoContext(ctx, "Resolved %s %d to %s (%s)", cfg.Variant, cfg.FeatureVersion, tag.Raw, strategy.Name())
		return tag, nil
	}

	if cfg.RelaxedVersion {
		placeholder := Placeholder(cfg.FeatureVersion)
		logging.WarnContext(ctx, "No version tag found for %s %d, using placeholder %s",
			cfg.Variant, cfg.FeatureVersion, placeholder.Raw)
		return placeholder, nil
	}

	return Tag{}, errors.New(errors.KindResolution,
		fmt.Sprintf("no version tag found for %s %d", cfg.Variant, cfg.FeatureVersion), nil).
		WithRemediation("fetch tags into the source checkout, pass an explicit tag, or enable relaxed_version")
}

func grammarFor(band config.FeatureBand) Grammar {
	if band == config.Band8 {
		return Legacy8
	}
	return Modern
}

// TagPattern returns the glob used to list candidate tags for a feature version.
func TagPattern(feature int) string {
	if feature <= 8 {
		return "jdk8u*-b*"
	}
	return fmt.Sprintf("jdk-%d*+*", feature)
}
