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
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Variant is a downstream distribution of OpenJDK with its own tag grammar
// and vendor identity.
type Variant int

// Known build variants.
const (
	VariantHotspot Variant = iota
	VariantTemurin
	VariantOpenJ9
	VariantCorretto
	VariantDragonwell
	VariantBisheng
	VariantFastStartup
)

var variantNames = map[Variant]string{
	VariantHotspot:     "hotspot",
	VariantTemurin:     "temurin",
	VariantOpenJ9:      "openj9",
	VariantCorretto:    "corretto",
	VariantDragonwell:  "dragonwell",
	VariantBisheng:     "bisheng",
	VariantFastStartup: "fast_startup",
}

// aliases accepted on input only
var variantAliases = map[string]Variant{
	"mainline":     VariantHotspot,
	"fast-startup": VariantFastStartup,
}

// String returns the canonical variant name.
func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// VariantNames lists the canonical variant names in declaration order.
func VariantNames() []string {
	names := make([]string, 0, len(variantNames))
	for v := VariantHotspot; v <= VariantFastStartup; v++ {
		names = append(names, variantNames[v])
	}
	return names
}

// ParseVariant maps a user-supplied name to a Variant. Unknown names produce
// an error suggesting the closest known variant.
func ParseVariant(name string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if v, ok := variantAliases[key]; ok {
		return v, nil
	}
	for v, n := range variantNames {
		if n == key {
			return v, nil
		}
	}

	if suggestion := closestVariant(key); suggestion != "" {
		return 0, fmt.Errorf("unknown variant %q, did you mean %q?", name, suggestion)
	}
	return 0, fmt.Errorf("unknown variant %q (known: %s)", name, strings.Join(VariantNames(), ", "))
}

func closestVariant(key string) string {
	if key == "" {
		return ""
	}
	if ranks := fuzzy.RankFindFold(key, VariantNames()); len(ranks) > 0 {
		best := ranks[0]
		for _, r := range ranks[1:] {
			if r.Distance < best.Distance {
				best = r
			}
		}
		return best.Target
	}

	best, bestDist := "", 3
	for _, n := range VariantNames() {
		if d := fuzzy.LevenshteinDistance(key, n); d <= bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
