// Package stage materializes the discovery output: files are staged in a
// private scratch directory and swapped into the destination only once
// staging has fully succeeded.
package stage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/logfields"
	"github.com/google/uuid"
	"github.com/otiai10/copy"
)

// Stager owns one scratch directory for one materialization.
type Stager struct {
	scratch string
}

// New creates the scratch directory.
func New() (*Stager, error) {
	scratch := filepath.Join(os.TempDir(), fmt.Sprintf("pipesource-%s", uuid.NewString()))
	if err := os.MkdirAll(scratch, 0o750); err != nil {
		return nil, errs.Wrap(err, errs.CategoryFileSystem, "failed to create scratch directory")
	}
	slog.Debug("Created scratch directory", logfields.Path(scratch))
	return &Stager{scratch: scratch}, nil
}

// Path returns the scratch directory.
func (s *Stager) Path() string { return s.scratch }

// Close removes the scratch directory. It must run on every exit path,
// success or failure.
func (s *Stager) Close() error {
	if s.scratch == "" {
		return nil
	}
	err := os.RemoveAll(s.scratch)
	s.scratch = ""
	return err
}

// Add copies root/rel into the scratch area at the same relative location,
// creating intermediate directories so relative references inside the copied
// files keep resolving after relocation.
func (s *Stager) Add(root, rel string) error {
	dst := filepath.Join(s.scratch, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to create staging directory").
			WithContext("path", rel)
	}
	if err := copy.Copy(filepath.Join(root, rel), dst); err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to stage file").
			WithContext("path", rel)
	}
	return nil
}

// WriteFile writes synthesized content into the scratch area at rel.
func (s *Stager) WriteFile(rel string, data []byte) error {
	dst := filepath.Join(s.scratch, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to create staging directory").
			WithContext("path", rel)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to write staged file").
			WithContext("path", rel)
	}
	return nil
}

// Swap replaces the destination's entire contents (hidden entries included)
// with the scratch area's contents. Callers invoke this only after all
// staging succeeded; a failure before this point leaves the destination
// untouched.
func (s *Stager) Swap(dest string) error {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to read destination").
			WithContext("path", dest)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dest, entry.Name())); err != nil {
			return errs.Wrap(err, errs.CategoryFileSystem, "failed to clear destination").
				WithContext("path", entry.Name())
		}
	}
	if err := copy.Copy(s.scratch, dest); err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to populate destination")
	}
	slog.Info("Destination replaced with discovery output", logfields.Path(dest))
	return nil
}
