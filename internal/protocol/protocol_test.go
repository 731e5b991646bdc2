package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAppliesDefaults(t *testing.T) {
	req, err := Read(strings.NewReader(`{"source":{"uri":"https://example.com/repo.git"}}`))
	require.NoError(t, err)

	assert.Equal(t, "HEAD", req.Version.Ref)
	assert.Equal(t, "concourse.json", req.Source.PipelineDiscoverConf)
	assert.Equal(t, "https://keyserver.ubuntu.com", req.Source.GPGKeyserver)
	assert.True(t, req.Params.Submodules.All())
}

func TestReadRejectsMissingURI(t *testing.T) {
	_, err := Read(strings.NewReader(`{"source":{}}`))
	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryInput))
}

func TestReadRejectsMalformedPayload(t *testing.T) {
	_, err := Read(strings.NewReader(`{not json`))
	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryInput))
}

func TestReadFullRequest(t *testing.T) {
	payload := `{
		"source": {
			"uri": "git@example.com:org/repo.git",
			"branch": "main",
			"git_config": [{"name": "http.sslVerify", "value": "false"}],
			"commit_verification_key_ids": ["A1B2C3"],
			"gpg_keyserver": "hkp://keys.example.com",
			"config": "pipelines.yml"
		},
		"version": {"ref": "v1.2.3"},
		"params": {
			"fetch": ["develop", "release"],
			"submodules": ["vendor/lib"],
			"disable_git_lfs": true,
			"vars": {"region": "eu"},
			"vars_from": ["ci/common.yml"]
		}
	}`
	req, err := Read(strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, "main", req.Source.Branch)
	require.Len(t, req.Source.GitConfig, 1)
	assert.Equal(t, "http.sslVerify", req.Source.GitConfig[0].Name)
	assert.Equal(t, "hkp://keys.example.com", req.Source.GPGKeyserver)
	assert.Equal(t, "pipelines.yml", req.Source.PipelineDiscoverConf)
	assert.Equal(t, "v1.2.3", req.Version.Ref)
	assert.Equal(t, []string{"develop", "release"}, req.Params.Fetch)
	assert.Equal(t, []string{"vendor/lib"}, req.Params.Submodules.Paths())
	assert.True(t, req.Params.DisableGitLFS)
	assert.Equal(t, map[string]any{"region": "eu"}, req.Params.Vars)
}

func TestSubmodulesUnmarshal(t *testing.T) {
	cases := []struct {
		name  string
		input string
		all   bool
		none  bool
		paths []string
		err   bool
	}{
		{name: "all", input: `"all"`, all: true},
		{name: "none", input: `"none"`, none: true},
		{name: "paths", input: `["a","b"]`, paths: []string{"a", "b"}},
		{name: "empty list is none", input: `[]`, none: true},
		{name: "bogus string", input: `"some"`, err: true},
		{name: "bogus type", input: `42`, err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s Submodules
			err := json.Unmarshal([]byte(tc.input), &s)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.all, s.All())
			assert.Equal(t, tc.none, s.None())
			assert.Equal(t, tc.paths, s.Paths())
		})
	}
}

func TestWriteResponseShape(t *testing.T) {
	var buf bytes.Buffer
	resp := &Response{
		Version:  Version{Ref: "abc123"},
		Metadata: []MetadataField{{Name: "author", Value: "dev"}},
	}
	require.NoError(t, Write(&buf, resp))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	version := decoded["version"].(map[string]any)
	assert.Equal(t, "abc123", version["ref"])
	metadata := decoded["metadata"].([]any)
	require.Len(t, metadata, 1)
}
