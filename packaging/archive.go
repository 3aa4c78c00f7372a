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
	"archive/tar"
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"github.com/cowdogmoo/jdkbuild/config"
	"github.com/cowdogmoo/jdkbuild/errors"
)

// Archiver writes a directory tree to an archive file. Entries are named
// relative to the parent of srcDir, so the archive holds one top-level
// directory. Top-level entries matching an exclude pattern are skipped.
type Archiver interface {
	Extension() string
	Archive(ctx context.Context, srcDir, dest string, exclude ...string) error
}

// NewArchiver returns the archiver for a format. A non-zero modTime is
// stamped on every entry.
func NewArchiver(format string, modTime time.Time) Archiver {
	switch format {
	case config.ArchiveZip:
		return ZipArchiver{ModTime: modTime}
	case config.ArchiveTarXz:
		return TarArchiver{Compression: CompressionXz, ModTime: modTime}
	default:
		return TarArchiver{Compression: CompressionGzip, ModTime: modTime}
	}
}

// Tar compressions.
const (
	CompressionGzip = "gzip"
	CompressionXz   = "xz"
)

// TarArchiver writes compressed tarballs.
type TarArchiver struct {
	Compression string
	ModTime     time.Time
}

// Extension implements Archiver.
func (a TarArchiver) Extension() string {
	if a.Compression == CompressionXz {
		return ".tar.xz"
	}
	return ".tar.gz"
}

// Archive implements Archiver.
func (a TarArchiver) Archive(ctx context.Context, srcDir, dest string, exclude ...string) (err error) {
	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrap("create archive", dest, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var cw io.WriteCloser
	if a.Compression == CompressionXz {
		xw, xerr := xz.NewWriter(f)
		if xerr != nil {
			return errors.Wrap("create xz writer", dest, xerr)
		}
		cw = xw
	} else {
		cw = pgzip.NewWriter(f)
	}
	tw := tar.NewWriter(cw)

	walkErr := walkTree(ctx, srcDir, exclude, func(name, p string, info fs.FileInfo) error {
		return a.writeEntry(tw, name, p, info)
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = cw.Close()
		return errors.Wrap("archive", srcDir, walkErr)
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return cw.Close()
}

func (a TarArchiver) writeEntry(tw *tar.Writer, name, p string, info fs.FileInfo) error {
	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(p)
		if err != nil {
			return err
		}
		link = target
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	hdr.AccessTime, hdr.ChangeTime = time.Time{}, time.Time{}
	if !a.ModTime.IsZero() {
		hdr.ModTime = a.ModTime
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return copyFileTo(tw, p)
}

// ZipArchiver writes deflated zip files.
type ZipArchiver struct {
	ModTime time.Time
}

// Extension implements Archiver.
func (ZipArchiver) Extension() string { return ".zip" }

// Archive implements Archiver.
func (a ZipArchiver) Archive(ctx context.Context, srcDir, dest string, exclude ...string) (err error) {
	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrap("create archive", dest, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	walkErr := walkTree(ctx, srcDir, exclude, func(name, p string, info fs.FileInfo) error {
		return a.writeEntry(zw, name, p, info)
	})
	if walkErr != nil {
		_ = zw.Close()
		return errors.Wrap("archive", srcDir, walkErr)
	}
	return zw.Close()
}

func (a ZipArchiver) writeEntry(zw *zip.Writer, name, p string, info fs.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	if info.IsDir() {
		hdr.Name += "/"
		hdr.Method = zip.Store
	}
	if !a.ModTime.IsZero() {
		hdr.Modified = a.ModTime
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(p)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, target)
		return err
	case info.Mode().IsRegular():
		return copyFileTo(w, p)
	}
	return nil
}

// walkTree visits srcDir in lexical order, naming each entry relative to
// the parent of srcDir with forward slashes.
func walkTree(ctx context.Context, srcDir string, exclude []string, fn func(name, p string, info fs.FileInfo) error) error {
	root := filepath.Dir(srcDir)
	return filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if filepath.Dir(p) == srcDir && excluded(d.Name(), exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), p, info)
	})
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func copyFileTo(w io.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}
