// Package verify checks OpenPGP signatures on commits against a keyring
// assembled from inline armored keys and keyserver lookups.
package verify

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/logfields"
	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Keyring holds the armored public key blocks trusted for verification.
type Keyring struct {
	armored []string
}

// NewKeyring returns an empty keyring, the explicit no-policy state.
func NewKeyring() *Keyring {
	return &Keyring{}
}

// Empty reports whether no key material was supplied. An empty keyring means
// verification is skipped entirely, not vacuously passed.
func (k *Keyring) Empty() bool {
	return len(k.armored) == 0
}

// AddArmored imports an armored public key block, validating it parses.
func (k *Keyring) AddArmored(key string) error {
	if _, err := openpgp.ReadArmoredKeyRing(strings.NewReader(key)); err != nil {
		return errs.Wrap(err, errs.CategoryKey, "failed to import verification key").
			WithContext("key", key)
	}
	k.armored = append(k.armored, key)
	return nil
}

// FetchKeyID retrieves a public key from an HKP keyserver and adds it to the
// keyring. Any fetch failure is fatal to the acquisition.
func (k *Keyring) FetchKeyID(keyserver, id string) error {
	lookup, err := lookupURL(keyserver, id)
	if err != nil {
		return err
	}
	slog.Debug("Fetching verification key", logfields.KeyID(id), logfields.URL(lookup))

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(lookup)
	if err != nil {
		return errs.Wrap(err, errs.CategoryKey, "keyserver request failed").
			WithContext("key_id", id)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errs.Newf(errs.CategoryKey, "keyserver returned status %d for key %s", resp.StatusCode, id)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(err, errs.CategoryKey, "failed to read keyserver response").
			WithContext("key_id", id)
	}
	return k.AddArmored(string(body))
}

// lookupURL builds the HKP lookup URL for a key id. hkp:// and hkps:// scheme
// URIs are translated to their HTTP equivalents.
func lookupURL(keyserver, id string) (string, error) {
	u, err := url.Parse(keyserver)
	if err != nil {
		return "", errs.Wrap(err, errs.CategoryInput, "invalid keyserver uri")
	}
	switch u.Scheme {
	case "hkp":
		u.Scheme = "http"
		if u.Port() == "" {
			u.Host = u.Host + ":11371"
		}
	case "hkps":
		u.Scheme = "https"
	}
	search := id
	if !strings.HasPrefix(strings.ToLower(search), "0x") {
		search = "0x" + search
	}
	u.Path = "/pks/lookup"
	u.RawQuery = url.Values{
		"op":      {"get"},
		"options": {"mr"},
		"search":  {search},
	}.Encode()
	return u.String(), nil
}

// VerifyCommit checks the commit's signature against every key block in the
// keyring. The commit passes if any key verifies it.
func (k *Keyring) VerifyCommit(commit *object.Commit) error {
	if k.Empty() {
		return fmt.Errorf("verification requested with an empty keyring")
	}
	for _, armored := range k.armored {
		if _, err := commit.Verify(armored); err == nil {
			slog.Debug("Commit signature verified", logfields.Commit(commit.Hash.String()))
			return nil
		}
	}
	return errs.Newf(errs.CategoryVerify, "commit %s is not signed by a trusted key", commit.Hash).
		WithContext("commit", commit.Hash.String())
}
