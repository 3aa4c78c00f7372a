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
	"strings"
)

// Platform holds the facts about the build host the pipeline branches on.
type Platform struct {
	// KernelName is the raw uname -s value, e.g. Linux, Darwin, AIX.
	KernelName    string `json:"kernelName"`
	KernelRelease string `json:"kernelRelease"`
	// Machine is the raw uname -m value.
	Machine string `json:"machine"`
	// OS and Arch are the normalised names used in artifact file names.
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// NewPlatform normalises raw uname facts.
func NewPlatform(kernelName, kernelRelease, machine string) Platform {
	return Platform{
		KernelName:    kernelName,
		KernelRelease: kernelRelease,
		Machine:       machine,
		OS:            normalizeOS(kernelName),
		Arch:          normalizeArch(machine),
	}
}

// IsWindows reports a Windows (including Cygwin/MSYS) host.
func (p Platform) IsWindows() bool { return p.OS == "windows" }

// IsDarwin reports a macOS host.
func (p Platform) IsDarwin() bool { return p.OS == "mac" }

// IsLinux reports a Linux host.
func (p Platform) IsLinux() bool { return p.OS == "linux" }

// IsAIX reports an AIX host.
func (p Platform) IsAIX() bool { return p.OS == "aix" }

func normalizeOS(kernelName string) string {
	k := strings.ToLower(kernelName)
	switch {
	case k == "linux":
		return "linux"
	case k == "darwin":
		return "mac"
	case k == "windows", strings.HasPrefix(k, "cygwin"), strings.HasPrefix(k, "mingw"), strings.HasPrefix(k, "msys"):
		return "windows"
	case k == "aix":
		return "aix"
	case k == "sunos":
		return "solaris"
	default:
		return k
	}
}

func normalizeArch(machine string) string {
	switch strings.ToLower(machine) {
	case "amd64", "x86_64", "x64":
		return "x64"
	case "arm64", "aarch64":
		return "aarch64"
	case "arm", "armv7", "armv7l":
		return "arm"
	case "386", "i386", "i686", "x86":
		return "x86-32"
	default:
		return strings.ToLower(machine)
	}
}
