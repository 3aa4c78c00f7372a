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
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cowdogmoo/jdkbuild/errors"
	"github.com/cowdogmoo/jdkbuild/shell"
)

// Dialect is the flavour of the host date(1) command.
type Dialect int

// Known date dialects.
const (
	DialectUnknown Dialect = iota
	DialectGNU
	DialectBSD
)

const hotspotTimeFormat = "+%Y-%m-%d %H:%M:%S"

// DateFormatter renders the reproducible hotspot build time.
type DateFormatter interface {
	HotspotBuildTime(ctx context.Context, t time.Time) (string, error)
}

// HostDate formats through the host date command, so the value matches what
// the toolchain's own scripts would compute on the same machine.
type HostDate struct {
	Runner shell.Runner
}

// Detect probes the date dialect: GNU answers --version, BSD accepts -r.
func (d HostDate) Detect(ctx context.Context) (Dialect, error) {
	if out, err := d.Runner.Output(ctx, "date", "--version"); err == nil && strings.Contains(string(out), "GNU") {
		return DialectGNU, nil
	}
	if _, err := d.Runner.Output(ctx, "date", "-u", "-r", "0"); err == nil {
		return DialectBSD, nil
	}
	return DialectUnknown, errors.New(errors.KindEnvironment, "date command is neither GNU nor BSD compatible", nil).
		WithRemediation("install GNU coreutils or run on a host with a BSD date")
}

// HotspotBuildTime implements DateFormatter. t is truncated to whole seconds
// and formatted in UTC.
func (d HostDate) HotspotBuildTime(ctx context.Context, t time.Time) (string, error) {
	dialect, err := d.Detect(ctx)
	if err != nil {
		return "", err
	}

	epoch := strconv.FormatInt(t.UTC().Truncate(time.Second).Unix(), 10)
	var out []byte
	switch dialect {
	case DialectGNU:
		out, err = d.Runner.Output(ctx, "date", "-u", "-d", "@"+epoch, hotspotTimeFormat)
	default:
		out, err = d.Runner.Output(ctx, "date", "-u", "-r", epoch, hotspotTimeFormat)
	}
	if err != nil {
		return "", errors.Wrap("format hotspot build time", epoch, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// FixedDate formats in-process. It produces the same text as HostDate.
type FixedDate struct{}

// HotspotBuildTime implements DateFormatter.
func (FixedDate) HotspotBuildTime(_ context.Context, t time.Time) (string, error) {
	return t.UTC().Truncate(time.Second).Format(time.DateTime), nil
}
