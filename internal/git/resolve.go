package git

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/protocol"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Resolve determines the version to report. The symbolic "HEAD" resolves to
// the concrete commit identifier at the snapshot's current HEAD; any other
// ref is echoed verbatim.
func (s *Snapshot) Resolve(ref string) (protocol.Version, []protocol.MetadataField, error) {
	head, err := s.repo.Head()
	if err != nil {
		return protocol.Version{}, nil, errs.Wrap(err, errs.CategoryGit, "failed to read HEAD")
	}

	resolved := ref
	if ref == protocol.DefaultRef {
		resolved = head.Hash().String()
	}

	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return protocol.Version{}, nil, errs.Wrap(err, errs.CategoryGit, "failed to load HEAD commit")
	}

	return protocol.Version{Ref: resolved}, s.metadata(commit), nil
}

// metadata packages display pairs describing the resolved commit.
func (s *Snapshot) metadata(commit *object.Commit) []protocol.MetadataField {
	fields := []protocol.MetadataField{
		{Name: "commit", Value: commit.Hash.String()},
		{Name: "author", Value: commit.Author.Name + " <" + commit.Author.Email + ">"},
		{Name: "author_date", Value: commit.Author.When.Format(time.RFC3339)},
	}
	if commit.Committer.String() != commit.Author.String() {
		fields = append(fields,
			protocol.MetadataField{Name: "committer", Value: commit.Committer.Name + " <" + commit.Committer.Email + ">"},
			protocol.MetadataField{Name: "committer_date", Value: commit.Committer.When.Format(time.RFC3339)},
		)
	}
	if s.CurrentBranch != "" {
		fields = append(fields, protocol.MetadataField{Name: "branch", Value: s.CurrentBranch})
	}
	message, _, _ := strings.Cut(strings.TrimSpace(commit.Message), "\n")
	fields = append(fields, protocol.MetadataField{Name: "message", Value: message})
	return fields
}
