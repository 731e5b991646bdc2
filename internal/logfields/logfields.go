package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepo     = "repository"
	KeyURL      = "url"
	KeyPath     = "path"
	KeyRef      = "ref"
	KeyBranch   = "branch"
	KeyCommit   = "commit"
	KeyPipeline = "pipeline"
	KeyPattern  = "pattern"
	KeyKeyID    = "key_id"
	KeyStage    = "stage"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Repository(r string) slog.Attr { return slog.String(KeyRepo, r) }
func URL(u string) slog.Attr        { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Ref(r string) slog.Attr        { return slog.String(KeyRef, r) }
func Branch(b string) slog.Attr     { return slog.String(KeyBranch, b) }
func Commit(c string) slog.Attr     { return slog.String(KeyCommit, c) }
func Pipeline(n string) slog.Attr   { return slog.String(KeyPipeline, n) }
func Pattern(p string) slog.Attr    { return slog.String(KeyPattern, p) }
func KeyID(id string) slog.Attr     { return slog.String(KeyKeyID, id) }
func Stage(s string) slog.Attr      { return slog.String(KeyStage, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
