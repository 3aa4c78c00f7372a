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

package scm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cowdogmoo/jdkbuild/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// CloneOptions describes the OpenJDK source checkout.
type CloneOptions struct {
	URL string
	// Ref is a tag or branch; tags are tried first.
	Ref      string
	Dir      string
	Token    string
	Progress io.Writer
}

// Clone clones the repository into opts.Dir, or updates an existing checkout
// and checks out opts.Ref.
func Clone(ctx context.Context, opts CloneOptions) (*GitProvider, error) {
	if _, err := os.Stat(opts.Dir); err == nil {
		if repo, openErr := git.PlainOpen(opts.Dir); openErr == nil {
			logging.InfoContext(ctx, "Updating existing checkout in %s", opts.Dir)
			provider := NewGitProvider(opts.Dir, repo)
			if err := provider.FetchTags(ctx); err != nil {
				return nil, err
			}
			if opts.Ref != "" {
				if err := checkoutRef(repo, opts.Ref); err != nil {
					return nil, err
				}
			}
			return provider, nil
		}
	}

	logging.InfoContext(ctx, "Cloning %s into %s", logging.RedactURL(opts.URL), opts.Dir)

	cloneOpts := &git.CloneOptions{
		URL:      opts.URL,
		Progress: opts.Progress,
		Auth:     tokenAuth(opts.Token),
		Tags:     git.AllTags,
	}

	var (
		repo *git.Repository
		err  error
	)
	if opts.Ref != "" {
		cloneOpts.ReferenceName = plumbing.NewTagReferenceName(opts.Ref)
		cloneOpts.SingleBranch = true
		repo, err = git.PlainCloneContext(ctx, opts.Dir, false, cloneOpts)
		if err != nil && isRefNotFound(err) {
			logging.DebugContext(ctx, "Tag %s not found, trying as branch", opts.Ref)
			_ = os.RemoveAll(opts.Dir)
			cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Ref)
			repo, err = git.PlainCloneContext(ctx, opts.Dir, false, cloneOpts)
		}
	} else {
		repo, err = git.PlainCloneContext(ctx, opts.Dir, false, cloneOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", logging.RedactURL(opts.URL), err)
	}

	provider := NewGitProvider(opts.Dir, repo)
	if hash, ok := provider.CurrentCommitShortHash(ctx); ok {
		logging.InfoContext(ctx, "Checked out %s at %s", opts.Ref, hash)
	}
	return provider, nil
}

func isRefNotFound(err error) bool {
	return errors.Is(err, plumbing.ErrReferenceNotFound) || strings.Contains(err.Error(), "reference not found")
}

func tokenAuth(token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "x-access-token", Password: token}
}

func checkoutRef(repo *git.Repository, ref string) error {
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewTagReferenceName(ref),
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewRemoteReferenceName(git.DefaultRemoteName, ref),
	} {
		resolved, err := repo.Reference(name, true)
		if err != nil {
			continue
		}
		hash := resolved.Hash()
		// annotated tags point at a tag object
		if tagObj, err := repo.TagObject(hash); err == nil {
			commit, err := tagObj.Commit()
			if err != nil {
				return err
			}
			hash = commit.Hash
		}
		return worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true})
	}

	return fmt.Errorf("could not checkout ref %s: not a tag or branch", ref)
}
