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

// Package scm wraps the version-control operations the pipeline needs:
// tag listing for version resolution, commit and remote lookup for metadata,
// and cloning the OpenJDK sources.
package scm

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Provider is the source-control collaborator.
type Provider interface {
	// FetchTags refreshes tags from the remote. A repository with no remote
	// is not an error.
	FetchTags(ctx context.Context) error
	// ListTags returns tag names matching a glob pattern, sorted.
	ListTags(ctx context.Context, pattern string) ([]string, error)
	// CurrentCommitShortHash returns the abbreviated HEAD commit.
	CurrentCommitShortHash(ctx context.Context) (string, bool)
	// RemoteURL returns the origin URL with credentials redacted.
	RemoteURL(ctx context.Context) (string, bool)
}

const (
	shortHashLen = 7
	tagRefSpec   = "+refs/tags/*:refs/tags/*"
)

// staleLocks are left behind by an interrupted fetch and block the next one.
var staleLocks = []string{"shallow.lock", "index.lock"}

// GitProvider implements Provider on a local checkout with go-git.
type GitProvider struct {
	Dir  string
	repo *git.Repository
}

// OpenGitProvider opens the repository containing dir.
func OpenGitProvider(dir string) (*GitProvider, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	return &GitProvider{Dir: dir, repo: repo}, nil
}

// NewGitProvider wraps an already opened repository.
func NewGitProvider(dir string, repo *git.Repository) *GitProvider {
	return &GitProvider{Dir: dir, repo: repo}
}

// FetchTags implements Provider.
func (p *GitProvider) FetchTags(ctx context.Context) error {
	p.clearStaleLocks(ctx)

	err := p.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{tagRefSpec},
		Tags:       git.AllTags,
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrRemoteNotFound):
		logging.DebugContext(ctx, "No %s remote in %s, using local tags", git.DefaultRemoteName, p.Dir)
		return nil
	default:
		return err
	}
}

func (p *GitProvider) clearStaleLocks(ctx context.Context) {
	for _, name := range staleLocks {
		lock := filepath.Join(p.Dir, ".git", name)
		if _, err := os.Stat(lock); err != nil {
			continue
		}
		logging.WarnContext(ctx, "Removing stale %s left by an interrupted fetch", lock)
		if err := os.Remove(lock); err != nil {
			logging.WarnContext(ctx, "Could not remove %s: %v", lock, err)
		}
	}
}

// ListTags implements Provider.
func (p *GitProvider) ListTags(_ context.Context, pattern string) ([]string, error) {
	iter, err := p.repo.Tags()
	if err != nil {
		return nil, err
	}

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		ok, matchErr := path.Match(pattern, name)
		if matchErr != nil {
			return matchErr
		}
		if ok {
			tags = append(tags, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(tags)
	return tags, nil
}

// CurrentCommitShortHash implements Provider.
func (p *GitProvider) CurrentCommitShortHash(_ context.Context) (string, bool) {
	head, err := p.repo.Head()
	if err != nil {
		return "", false
	}
	return head.Hash().String()[:shortHashLen], true
}

// RemoteURL implements Provider.
func (p *GitProvider) RemoteURL(_ context.Context) (string, bool) {
	remote, err := p.repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return "", false
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", false
	}
	return logging.RedactURL(urls[0]), true
}
