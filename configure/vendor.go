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

package configure

import (
	"fmt"

	"github.com/cowdogmoo/jdkbuild/config"
)

// NullURL stands in for vendor URLs nobody configured, so the built binary
// never reports an empty vendor field.
const NullURL = "https://unknown.invalid/"

// UnknownVendor is used when no vendor name is configured.
const UnknownVendor = "N/A"

// Vendor is the identity stamped into the JDK.
type Vendor struct {
	Name     string
	URL      string
	BugURL   string
	VMBugURL string
	// VersionPrefix prefixes --with-vendor-version-string, e.g. Temurin.
	VersionPrefix string
}

var vendorTable = map[config.Variant]func(feature int) Vendor{
	config.VariantTemurin: func(int) Vendor {
		return Vendor{
			Name:          "Eclipse Adoptium",
			URL:           "https://adoptium.net/",
			BugURL:        "https://github.com/adoptium/adoptium-support/issues",
			VMBugURL:      "https://github.com/adoptium/adoptium-support/issues",
			VersionPrefix: "Temurin",
		}
	},
	config.VariantOpenJ9: func(int) Vendor {
		return Vendor{
			Name:     "Eclipse OpenJ9",
			URL:      "https://www.eclipse.org/openj9/",
			BugURL:   "https://github.com/eclipse-openj9/openj9/issues",
			VMBugURL: "https://github.com/eclipse-openj9/openj9/issues",
		}
	},
	config.VariantCorretto: func(feature int) Vendor {
		bugs := fmt.Sprintf("https://github.com/corretto/corretto-%d/issues/", feature)
		if feature <= 8 {
			bugs = "https://github.com/corretto/corretto-8/issues/"
		}
		return Vendor{
			Name:          "Amazon.com Inc.",
			URL:           "https://aws.amazon.com/corretto/",
			BugURL:        bugs,
			VMBugURL:      bugs,
			VersionPrefix: "Corretto",
		}
	},
	config.VariantDragonwell: func(int) Vendor {
		return Vendor{
			Name:          "Alibaba",
			URL:           "http://www.alibabagroup.com",
			BugURL:        "mailto:dragonwell_use@googlegroups.com",
			VMBugURL:      "mailto:dragonwell_use@googlegroups.com",
			VersionPrefix: "Alibaba",
		}
	},
	config.VariantBisheng: func(feature int) Vendor {
		bugs := fmt.Sprintf("https://gitee.com/openeuler/bishengjdk-%d/issues/", feature)
		return Vendor{
			Name:          "BiSheng",
			URL:           "https://gitee.com/openeuler/bishengjdk-" + fmt.Sprint(feature),
			BugURL:        bugs,
			VMBugURL:      bugs,
			VersionPrefix: "BiSheng",
		}
	},
}

// VendorFor returns the vendor identity of a build. Variants outside the
// table use the configured vendor, with NullURL for any missing URL.
func VendorFor(cfg config.BuildConfig) Vendor {
	if fn, ok := vendorTable[cfg.Variant]; ok {
		return fn(cfg.FeatureVersion)
	}

	v := Vendor{
		Name:          cfg.Vendor.Name,
		URL:           cfg.Vendor.URL,
		BugURL:        cfg.Vendor.BugURL,
		VMBugURL:      cfg.Vendor.VMBugURL,
		VersionPrefix: cfg.Vendor.VersionString,
	}
	if v.Name == "" {
		v.Name = UnknownVendor
	}
	for _, u := range []*string{&v.URL, &v.BugURL, &v.VMBugURL} {
		if *u == "" {
			*u = NullURL
		}
	}
	return v
}
