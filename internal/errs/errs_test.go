package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "nil", err: nil, code: ExitOK},
		{name: "key error", err: New(CategoryKey, "bad key"), code: ExitInvalidKey},
		{name: "git error", err: New(CategoryGit, "clone failed"), code: ExitFailure},
		{name: "discovery error", err: New(CategoryDiscovery, "missing config"), code: ExitFailure},
		{name: "plain error", err: errors.New("boom"), code: ExitFailure},
		{name: "wrapped key error", err: fmt.Errorf("outer: %w", New(CategoryKey, "bad")), code: ExitInvalidKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, ExitCode(tc.err))
		})
	}
}

func TestCategoryClassification(t *testing.T) {
	err := Wrap(errors.New("root"), CategoryVerify, "unsigned")
	assert.True(t, IsCategory(err, CategoryVerify))
	assert.False(t, IsCategory(err, CategoryGit))
	assert.Equal(t, CategoryVerify, GetCategory(err))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
}

func TestErrorFormatting(t *testing.T) {
	root := errors.New("root cause")
	err := Wrap(root, CategoryGit, "clone failed").WithContext("url", "https://example.com")

	assert.Contains(t, err.Error(), "git")
	assert.Contains(t, err.Error(), "clone failed")
	assert.Contains(t, err.Error(), "root cause")
	assert.Equal(t, root, errors.Unwrap(err))
	assert.Equal(t, "https://example.com", err.Context["url"])
}
