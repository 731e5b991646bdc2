// Package lfs materializes git-lfs tracked objects by driving the external
// git-lfs binary; there is no Go-native LFS client.
package lfs

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/logfields"
)

// Available reports whether the git-lfs binary can be found.
func Available() bool {
	_, err := exec.LookPath("git-lfs")
	return err == nil
}

// FetchCheckout fetches and checks out all LFS-tracked objects for the
// working tree rooted at dir. LFS materialization is mandatory when enabled:
// a missing binary is an error, not a skip, so pointer files never
// masquerade as content.
func FetchCheckout(dir string) error {
	if !Available() {
		return errs.New(errs.CategoryGit, "git-lfs binary not found").
			WithContext("dir", dir)
	}
	for _, args := range [][]string{{"lfs", "fetch"}, {"lfs", "checkout"}} {
		if err := run(dir, args...); err != nil {
			return err
		}
	}
	slog.Debug("LFS objects materialized", logfields.Path(dir))
	return nil
}

func run(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := stderr.String()
		if output == "" {
			output = stdout.String()
		}
		wrapped := err
		if output != "" {
			wrapped = fmt.Errorf("%w: %s", err, output)
		}
		return errs.Wrap(wrapped, errs.CategoryGit, fmt.Sprintf("git %v failed", args)).
			WithContext("dir", dir)
	}
	return nil
}
