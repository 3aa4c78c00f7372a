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
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
)

// ChecksumSuffix is appended to an artifact path for its checksum file.
const ChecksumSuffix = ".sha256.txt"

// maxChecksumWorkers bounds concurrent artifact hashing.
const maxChecksumWorkers = 4

// VerifyArtifact fails with an archive verification error naming the
// artifact when it is missing or empty.
func VerifyArtifact(p string) error {
	info, err := os.Stat(p)
	switch {
	case err != nil:
		return errors.New(errors.KindArchiveVerification,
			fmt.Sprintf("expected artifact %s was not produced", filepath.Base(p)), err)
	case info.Size() == 0:
		return errors.New(errors.KindArchiveVerification,
			fmt.Sprintf("artifact %s is empty", filepath.Base(p)), nil)
	}
	return nil
}

// WriteChecksum writes "<hex>  <name>\n" to p + ChecksumSuffix.
func WriteChecksum(p string) (digest.Digest, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", errors.Wrap("hash artifact", p, err)
	}
	line := fmt.Sprintf("%s  %s\n", d.Encoded(), filepath.Base(p))
	if err := os.WriteFile(p+ChecksumSuffix, []byte(line), config.FilePermReadWrite); err != nil {
		return "", errors.Wrap("write checksum", p, err)
	}
	return d, nil
}

// WriteChecksums hashes artifacts concurrently.
func WriteChecksums(ctx context.Context, paths []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxChecksumWorkers)
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := WriteChecksum(p)
			return err
		})
	}
	return g.Wait()
}
