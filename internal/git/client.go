// Package git drives the acquisition of a repository working tree: clone,
// checkout, signature verification, LFS, submodules, and extra ref fetches.
package git

import (
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/lfs"
	"git.home.luguber.info/inful/pipesource/internal/logfields"
	"git.home.luguber.info/inful/pipesource/internal/protocol"
	"git.home.luguber.info/inful/pipesource/internal/verify"
	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Snapshot is the materialized working tree plus the branch that was checked
// out immediately after clone. CurrentBranch is fixed at acquisition time and
// never recomputed: checking out an arbitrary ref can detach HEAD, after
// which the branch name is unrecoverable.
type Snapshot struct {
	Path          string
	CurrentBranch string

	repo *gogit.Repository
}

// Client performs acquisitions into a single destination directory.
type Client struct {
	dest            string
	auth            transport.AuthMethod
	insecureSkipTLS bool
}

// NewClient creates a client targeting the given destination.
func NewClient(dest string, auth transport.AuthMethod, insecureSkipTLS bool) *Client {
	return &Client{dest: dest, auth: auth, insecureSkipTLS: insecureSkipTLS}
}

// Acquire runs the full acquisition pipeline for a request. It is a linear
// sequence; the first failing step aborts the whole acquisition.
func (c *Client) Acquire(req *protocol.Request) (*Snapshot, error) {
	repo, err := c.clone(req.Source)
	if err != nil {
		return nil, err
	}

	// The branch name must be captured before the requested ref is checked
	// out (checkout may detach HEAD).
	branch, err := currentBranch(repo)
	if err != nil {
		return nil, err
	}
	snapshot := &Snapshot{Path: c.dest, CurrentBranch: branch, repo: repo}
	slog.Info("Repository cloned", logfields.URL(req.Source.URI), logfields.Branch(branch), logfields.Path(c.dest))

	if err := c.checkout(repo, req.Version.Ref); err != nil {
		return nil, err
	}

	if err := c.verifySignature(repo, req); err != nil {
		return nil, err
	}

	if !req.Params.DisableGitLFS {
		if err := lfs.FetchCheckout(c.dest); err != nil {
			return nil, err
		}
	}

	if err := c.clean(repo); err != nil {
		return nil, err
	}

	subPaths, err := c.updateSubmodules(repo, req.Params.Submodules)
	if err != nil {
		return nil, err
	}
	if !req.Params.DisableGitLFS {
		for _, p := range subPaths {
			if err := lfs.FetchCheckout(p); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range req.Params.Fetch {
		if err := c.fetchBranch(repo, name); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

func (c *Client) clone(src protocol.Source) (*gogit.Repository, error) {
	opts := &gogit.CloneOptions{
		URL:             src.URI,
		Auth:            c.auth,
		SingleBranch:    true,
		Depth:           1,
		InsecureSkipTLS: c.insecureSkipTLS,
	}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
	}
	slog.Debug("Cloning repository", logfields.URL(src.URI), logfields.Branch(src.Branch), logfields.Path(c.dest))
	repo, err := gogit.PlainClone(c.dest, false, opts)
	if err != nil {
		return nil, errs.Wrap(&CloneError{URL: src.URI, Err: err}, errs.CategoryGit, "clone failed")
	}
	return repo, nil
}

// currentBranch returns the symbolic branch name at HEAD, or the empty string
// for a detached HEAD.
func currentBranch(repo *gogit.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", errs.Wrap(err, errs.CategoryGit, "failed to read HEAD")
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return "", nil
}

// checkout moves the working tree to the requested ref. "HEAD" is a no-op
// checkout of the clone's tip.
func (c *Client) checkout(repo *gogit.Repository, ref string) error {
	if ref == protocol.DefaultRef {
		return nil
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return errs.Wrap(&RefNotFoundError{Ref: ref, Err: err}, errs.CategoryGit, "checkout failed")
	}
	wt, err := repo.Worktree()
	if err != nil {
		return errs.Wrap(err, errs.CategoryGit, "failed to open worktree")
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return errs.Wrap(err, errs.CategoryGit, "checkout failed").WithContext("ref", ref)
	}
	slog.Debug("Checked out ref", logfields.Ref(ref), logfields.Commit(hash.String()))
	return nil
}

// verifySignature enforces the commit signature policy. When neither keys nor
// key ids are supplied verification is skipped entirely.
func (c *Client) verifySignature(repo *gogit.Repository, req *protocol.Request) error {
	src := req.Source
	if len(src.VerificationKeys) == 0 && len(src.VerificationKeyIDs) == 0 {
		return nil
	}
	keyring := verify.NewKeyring()
	for _, key := range src.VerificationKeys {
		if err := keyring.AddArmored(key); err != nil {
			return err
		}
	}
	for _, id := range src.VerificationKeyIDs {
		if err := keyring.FetchKeyID(src.GPGKeyserver, id); err != nil {
			return err
		}
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(req.Version.Ref))
	if err != nil {
		return errs.Wrap(&RefNotFoundError{Ref: req.Version.Ref, Err: err}, errs.CategoryGit, "cannot resolve commit for verification")
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return errs.Wrap(err, errs.CategoryGit, "cannot load commit for verification")
	}
	return keyring.VerifyCommit(commit)
}

// clean removes untracked files and directories so clone artifacts do not
// leak into the discovery stage.
func (c *Client) clean(repo *gogit.Repository) error {
	wt, err := repo.Worktree()
	if err != nil {
		return errs.Wrap(err, errs.CategoryGit, "failed to open worktree")
	}
	if err := wt.Clean(&gogit.CleanOptions{Dir: true}); err != nil {
		return errs.Wrap(err, errs.CategoryGit, "failed to clean working tree")
	}
	return nil
}

// fetchBranch fetches a named remote branch into a local branch of the same
// name pointed at the fetched tip.
func (c *Client) fetchBranch(repo *gogit.Repository, name string) error {
	ref := plumbing.NewBranchReferenceName(name).String()
	spec := gitcfg.RefSpec("+" + ref + ":" + ref)
	err := repo.Fetch(&gogit.FetchOptions{
		RefSpecs:        []gitcfg.RefSpec{spec},
		Auth:            c.auth,
		InsecureSkipTLS: c.insecureSkipTLS,
		Depth:           1,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return errs.Wrap(err, errs.CategoryGit, "failed to fetch extra ref").WithContext("ref", name)
	}
	slog.Debug("Fetched extra ref", logfields.Ref(name))
	return nil
}
