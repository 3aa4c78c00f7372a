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
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/cowdogmoo/jdkbuild/packaging"
)

// FailureLogsDir collects diagnostics after a make failure.
const FailureLogsDir = "makefailurelogs"

// failureLogPatterns match crash and replay files the JVM leaves behind
// when it dies during the build.
var failureLogPatterns = []string{"hs_err_pid*.log", "replay_pid*.log", "core", "core.*", "*.dmp"}

// CollectFailureLogs copies build.log and any JVM crash files into
// <workspace>/makefailurelogs and archives the directory into the target
// directory. Individual copy failures are logged and skipped.
func CollectFailureLogs(ctx context.Context, cfg config.BuildConfig, naming packaging.Naming, buildLog string) (string, error) {
	dir := filepath.Join(cfg.WorkspaceDir, FailureLogsDir)
	if err := os.MkdirAll(dir, config.DirPermReadWriteExec); err != nil {
		return "", errors.Wrap("create failure log directory", dir, err)
	}

	files := []string{buildLog}
	found, err := findCrashFiles(cfg.SourceDir)
	if err != nil {
		logging.WarnContext(ctx, "Failed to search for crash files: %v", err)
	}
	files = append(files, found...)

	for _, f := range files {
		rel, err := filepath.Rel(cfg.SourceDir, f)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(f)
		}
		if err := packaging.CopyFile(f, filepath.Join(dir, rel), config.FilePermReadWrite); err != nil {
			logging.WarnContext(ctx, "Failed to collect %s: %v", f, err)
		}
	}

	if err := os.MkdirAll(cfg.TargetDir, config.DirPermReadWriteExec); err != nil {
		return "", errors.Wrap("create target directory", cfg.TargetDir, err)
	}
	name := naming.Sibling(packaging.KindFailureLogs)
	if naming.JDK == "" {
		name = FailureLogsDir + packaging.ArchiveExtension(cfg.ArchiveFormat)
	}
	dest := filepath.Join(cfg.TargetDir, name)
	archiver := packaging.NewArchiver(cfg.ArchiveFormat, cfg.BuildTimestamp)
	if err := archiver.Archive(ctx, dir, dest); err != nil {
		return "", err
	}
	logging.InfoContext(ctx, "Archived make failure logs to %s", dest)
	return dest, nil
}

func findCrashFiles(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		for _, pattern := range failureLogPatterns {
			if ok, _ := path.Match(pattern, d.Name()); ok {
				found = append(found, p)
				break
			}
		}
		return nil
	})
	return found, err
}
