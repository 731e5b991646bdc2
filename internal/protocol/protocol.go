// Package protocol defines the JSON request/response payloads exchanged with
// the CI system over stdin/stdout.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"git.home.luguber.info/inful/pipesource/internal/errs"
)

// Defaults applied while reading a request.
const (
	DefaultRef        = "HEAD"
	DefaultConfigPath = "concourse.json"
	DefaultKeyserver  = "https://keyserver.ubuntu.com"
)

// GitConfigPair is a single key/value pair applied to the git configuration
// scope before any network operation. Order is significant.
type GitConfigPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Source describes where and how to fetch the repository.
type Source struct {
	URI                  string          `json:"uri"`
	Branch               string          `json:"branch,omitempty"`
	PrivateKey           string          `json:"private_key,omitempty"`
	SkipSSLVerification  bool            `json:"skip_ssl_verification,omitempty"`
	GitConfig            []GitConfigPair `json:"git_config,omitempty"`
	VerificationKeyIDs   []string        `json:"commit_verification_key_ids,omitempty"`
	VerificationKeys     []string        `json:"commit_verification_keys,omitempty"`
	GPGKeyserver         string          `json:"gpg_keyserver,omitempty"`
	PipelineDiscoverConf string          `json:"config,omitempty"`
}

// Version identifies the ref to materialize.
type Version struct {
	Ref string `json:"ref"`
}

// Params carries per-invocation fetch options.
type Params struct {
	Fetch         []string       `json:"fetch,omitempty"`
	Submodules    Submodules     `json:"submodules,omitempty"`
	DisableGitLFS bool           `json:"disable_git_lfs,omitempty"`
	Vars          map[string]any `json:"vars,omitempty"`
	VarsFrom      []string       `json:"vars_from,omitempty"`
}

// Request is the full input payload.
type Request struct {
	Source  Source  `json:"source"`
	Version Version `json:"version"`
	Params  Params  `json:"params"`
}

// MetadataField is one diagnostic key/value display pair.
type MetadataField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Response is the payload reported back after acquisition.
type Response struct {
	Version  Version         `json:"version"`
	Metadata []MetadataField `json:"metadata"`
}

// Read decodes and validates a request, applying defaults. The payload is
// consumed in full so input errors can report what was actually received.
func Read(r io.Reader) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryInput, "failed to read request payload")
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errs.Wrap(err, errs.CategoryInput, "malformed request payload").
			WithContext("payload", string(data))
	}
	if err := req.Validate(); err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			e.WithContext("payload", string(data))
		}
		return nil, err
	}
	req.applyDefaults()
	return &req, nil
}

// Validate checks required fields.
func (r *Request) Validate() error {
	if r.Source.URI == "" {
		return errs.New(errs.CategoryInput, "source.uri is required")
	}
	return nil
}

func (r *Request) applyDefaults() {
	if r.Version.Ref == "" {
		r.Version.Ref = DefaultRef
	}
	if r.Source.PipelineDiscoverConf == "" {
		r.Source.PipelineDiscoverConf = DefaultConfigPath
	}
	if r.Source.GPGKeyserver == "" {
		r.Source.GPGKeyserver = DefaultKeyserver
	}
	if r.Params.Submodules.policy == "" {
		r.Params.Submodules = AllSubmodules()
	}
}

// Write encodes a response.
func Write(w io.Writer, resp *Response) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write response payload: %w", err)
	}
	return nil
}
