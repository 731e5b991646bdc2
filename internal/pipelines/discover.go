package pipelines

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/logfields"
)

// DefaultBranchPattern matches any non-empty branch name.
const DefaultBranchPattern = "."

// Result is the outcome of a discovery run: the aggregate config and every
// repo-relative file path that must survive the destination swap, in order of
// first reference.
type Result struct {
	Aggregate *Aggregate
	Preserved []string
}

// Discover reads the discovery config at cfgPath (relative to repoRoot),
// filters its entries against the checked-out branch, merges variables, and
// collects the files each surviving entry references. Processing is strictly
// in list order; the first invalid entry aborts the run.
func Discover(repoRoot, cfgPath string, globalVars map[string]any, globalVarsFrom []string, branch string) (*Result, error) {
	cfg, err := Load(filepath.Join(repoRoot, cfgPath))
	if err != nil {
		return nil, err
	}

	result := &Result{Aggregate: &Aggregate{}}
	seen := make(map[string]bool)
	preserve := func(rel string) {
		if !seen[rel] {
			seen[rel] = true
			result.Preserved = append(result.Preserved, rel)
		}
	}

	for _, entry := range cfg.Pipelines {
		if entry.Name == "" || entry.ConfigPath == "" {
			return nil, errs.New(errs.CategoryDiscovery, "pipeline entry missing name or config").
				WithContext("pipeline", entry.Name)
		}
		if err := checkReadable(filepath.Join(repoRoot, entry.ConfigPath)); err != nil {
			return nil, errs.Wrap(err, errs.CategoryDiscovery, "unreadable pipeline config").
				WithContext("pipeline", entry.Name).
				WithContext("path", entry.ConfigPath)
		}

		pattern := entry.BranchPattern
		if pattern == "" {
			pattern = DefaultBranchPattern
		}
		matched, err := MatchBranch(pattern, branch)
		if err != nil {
			return nil, errs.Wrap(err, errs.CategoryDiscovery, "invalid branch pattern").
				WithContext("pipeline", entry.Name).
				WithContext("pattern", pattern)
		}
		if !matched {
			// Expected filtering outcome, never an error.
			slog.Info("Pipeline skipped: branch pattern does not match",
				logfields.Pipeline(entry.Name), logfields.Pattern(pattern), logfields.Branch(branch))
			continue
		}

		merged := Pipeline{
			Name:          entry.Name,
			ConfigPath:    entry.ConfigPath,
			BranchPattern: entry.BranchPattern,
			Vars:          MergeVars(globalVars, entry.Vars, map[string]any{BranchVar: branch}),
			VarsFrom:      append(append([]string{}, globalVarsFrom...), entry.VarsFrom...),
		}
		result.Aggregate.Pipelines = append(result.Aggregate.Pipelines, merged)
		preserve(entry.ConfigPath)

		for _, varsPath := range merged.VarsFrom {
			if err := checkReadable(filepath.Join(repoRoot, varsPath)); err != nil {
				return nil, errs.Wrap(err, errs.CategoryDiscovery, "missing vars file").
					WithContext("pipeline", entry.Name).
					WithContext("path", varsPath)
			}
			preserve(varsPath)
		}
		slog.Info("Pipeline discovered", logfields.Pipeline(entry.Name), logfields.Branch(branch))
	}

	return result, nil
}

// checkReadable verifies a path names a regular file that can be opened for
// reading. Directories and other non-regular entries are rejected: referenced
// config and vars paths must be files.
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
