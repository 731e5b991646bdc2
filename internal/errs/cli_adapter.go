package errs

import (
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/pipesource/internal/logfields"
)

// Exit codes expected by the resource's caller. Invalid key material gets its
// own code so a pipeline can distinguish misconfiguration from a failed fetch.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitInvalidKey = 2
)

// ExitCode determines the process exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if IsCategory(err, CategoryKey) {
		return ExitInvalidKey
	}
	return ExitFailure
}

// Report logs an error with its category and structured context before exit.
func Report(err error) {
	if err == nil {
		return
	}
	var e *Error
	if !errors.As(err, &e) {
		slog.Error("operation failed", logfields.Error(err))
		return
	}
	attrs := []any{slog.String("category", string(e.Category)), logfields.Error(err)}
	for k, v := range e.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	slog.Error("operation failed", attrs...)
}
