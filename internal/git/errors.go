package git

import "fmt"

// Typed git errors enabling structured classification without string parsing
// upstream.
type CloneError struct {
	URL string
	Err error
}

func (e *CloneError) Error() string { return fmt.Sprintf("failed to clone %s: %v", e.URL, e.Err) }
func (e *CloneError) Unwrap() error { return e.Err }

type RefNotFoundError struct {
	Ref string
	Err error
}

func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("ref %s not found: %v", e.Ref, e.Err)
}
func (e *RefNotFoundError) Unwrap() error { return e.Err }
