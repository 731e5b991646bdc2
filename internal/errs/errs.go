// Package errs provides a lightweight structured error type for
// category-based classification and exit-code mapping in the CLI.
package errs

import (
	"errors"
	"fmt"
)

// Category represents the classification of a resource error.
type Category string

const (
	// User-facing input errors
	CategoryUsage Category = "usage"
	CategoryInput Category = "input"

	// External system integration errors
	CategoryGit    Category = "git"
	CategoryVerify Category = "verify"
	CategoryKey    Category = "key"

	// Discovery and output errors
	CategoryDiscovery  Category = "discovery"
	CategoryFileSystem Category = "filesystem"
)

// ContextFields carries structured context for an Error.
type ContextFields map[string]any

// Error is a structured error with category and context.
type Error struct {
	Category Category      `json:"category"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(err error, category Category, message string) *Error {
	return &Error{Category: category, Message: message, Cause: err}
}

// IsCategory checks if an error belongs to a specific category.
func IsCategory(err error, category Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == category
	}
	return false
}

// GetCategory extracts the category from an error; unknown errors report an
// empty category.
func GetCategory(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}
