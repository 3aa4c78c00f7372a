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

package sbom

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cowdogmoo/jdkbuild/packaging"
)

// StageName is the packaging stage name of SBOM assembly.
const StageName = "sbom"

// hashCandidates are tried in order for the JDK component hash.
var hashCandidates = []string{filepath.Join("lib", "modules"), packaging.ReleaseFile}

// Stage returns the packaging stage that assembles the SBOM into the
// targets' SBOM path. It must run after the metadata stage.
func Stage(a *Assembler, toolVersion string) packaging.Stage {
	return packaging.NewStage(StageName, func(ctx context.Context, sc *packaging.StageContext) error {
		t, err := sc.Targets()
		if err != nil {
			return err
		}
		in := Input{
			Config:      sc.Config,
			Tag:         sc.Tag,
			FullVersion: packaging.FallbackFullVersion(sc.Tag),
			ImageDir:    t.JDK,
			ToolVersion: toolVersion,
			Output:      t.SBOM,
		}
		if values, err := packaging.ReadRelease(filepath.Join(t.JDK, packaging.ReleaseFile)); err == nil {
			if v := values["FULL_VERSION"]; v != "" {
				in.FullVersion = v
			}
		}
		for _, c := range hashCandidates {
			if _, err := os.Stat(filepath.Join(t.JDK, c)); err == nil {
				in.HashFile = c
				break
			}
		}
		if sc.Scripts != nil {
			in.ScriptsCommit, _ = sc.Scripts.CurrentCommitShortHash(ctx)
		}
		if sc.OpenJDK != nil {
			in.OpenJDKCommit, _ = sc.OpenJDK.CurrentCommitShortHash(ctx)
		}
		return a.Assemble(ctx, in)
	})
}
