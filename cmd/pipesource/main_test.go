package main

import (
	"io"
	"strings"
	"testing"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsMissingURI(t *testing.T) {
	err := run(t.TempDir(), strings.NewReader(`{"source":{}}`), io.Discard)
	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryInput))
	assert.Equal(t, errs.ExitFailure, errs.ExitCode(err))
}

func TestRunRejectsMalformedPayload(t *testing.T) {
	err := run(t.TempDir(), strings.NewReader(`not json`), io.Discard)
	require.Error(t, err)
	assert.True(t, errs.IsCategory(err, errs.CategoryInput))
}

func TestCleanupRegistryRunsOnce(t *testing.T) {
	calls := 0
	registerCleanup(func() { calls++ })
	runCleanups()
	runCleanups()
	assert.Equal(t, 1, calls)
}
