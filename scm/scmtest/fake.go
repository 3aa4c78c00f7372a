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

// Package scmtest provides an in-memory scm.Provider for tests.
package scmtest

import (
	"context"
	"path"
	"sort"
)

// Provider is an in-memory scm.Provider.
type Provider struct {
	Tags     []string
	Commit   string
	Remote   string
	FetchErr error
	ListErr  error
	Fetches  int
	Patterns []string
}

// FetchTags records the call and returns FetchErr.
func (p *Provider) FetchTags(context.Context) error {
	p.Fetches++
	return p.FetchErr
}

// ListTags returns the tags matching pattern, sorted.
func (p *Provider) ListTags(_ context.Context, pattern string) ([]string, error) {
	p.Patterns = append(p.Patterns, pattern)
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	var out []string
	for _, t := range p.Tags {
		if ok, _ := path.Match(pattern, t); ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

// CurrentCommitShortHash returns Commit.
func (p *Provider) CurrentCommitShortHash(context.Context) (string, bool) {
	return p.Commit, p.Commit != ""
}

// RemoteURL returns Remote.
func (p *Provider) RemoteURL(context.Context) (string, bool) {
	return p.Remote, p.Remote != ""
}
