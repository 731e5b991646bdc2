package git

import (
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/logfields"
	"git.home.luguber.info/inful/pipesource/internal/protocol"
	gogit "github.com/go-git/go-git/v5"
)

// updateSubmodules initializes and updates submodules according to policy and
// returns the absolute working-tree paths of the submodules it materialized.
// Updates are always shallow (depth 1), on both the all and the named-subset
// path.
func (c *Client) updateSubmodules(repo *gogit.Repository, policy protocol.Submodules) ([]string, error) {
	if policy.None() {
		return nil, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryGit, "failed to open worktree")
	}
	subs, err := wt.Submodules()
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryGit, "failed to list submodules")
	}

	updateOpts := &gogit.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: gogit.DefaultSubmoduleRecursionDepth,
		Depth:             1,
		Auth:              c.auth,
	}

	if policy.All() {
		var paths []string
		for _, sub := range subs {
			if err := sub.Update(updateOpts); err != nil {
				return nil, errs.Wrap(err, errs.CategoryGit, "failed to update submodule").
					WithContext("submodule", sub.Config().Path)
			}
			slog.Debug("Submodule updated", logfields.Path(sub.Config().Path))
			paths = append(paths, filepath.Join(c.dest, sub.Config().Path))
		}
		return paths, nil
	}

	// Named subset, in listed order.
	byPath := make(map[string]*gogit.Submodule, len(subs))
	for _, sub := range subs {
		byPath[sub.Config().Path] = sub
		byPath[sub.Config().Name] = sub
	}
	var paths []string
	for _, name := range policy.Paths() {
		sub, ok := byPath[name]
		if !ok {
			return nil, errs.Newf(errs.CategoryGit, "submodule %q not found", name)
		}
		if err := sub.Update(updateOpts); err != nil {
			return nil, errs.Wrap(err, errs.CategoryGit, "failed to update submodule").
				WithContext("submodule", name)
		}
		slog.Debug("Submodule updated", logfields.Path(sub.Config().Path))
		paths = append(paths, filepath.Join(c.dest, sub.Config().Path))
	}
	return paths, nil
}
