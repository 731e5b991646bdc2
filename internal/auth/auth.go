// Package auth configures transport-level authentication and git
// configuration before any network operation runs.
package auth

import (
	"log/slog"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/protocol"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Method creates the transport authentication for a source, or nil when the
// source carries no key material (anonymous https access).
func Method(src protocol.Source) (transport.AuthMethod, error) {
	if src.PrivateKey == "" {
		return nil, nil
	}
	publicKeys, err := ssh.NewPublicKeys("git", []byte(src.PrivateKey), "")
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryKey, "failed to load SSH private key")
	}
	slog.Debug("SSH authentication configured")
	return publicKeys, nil
}
