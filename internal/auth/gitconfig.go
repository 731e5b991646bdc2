package auth

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"git.home.luguber.info/inful/pipesource/internal/protocol"
	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// globalConfigPath resolves the global git configuration file.
func globalConfigPath() string {
	if p := os.Getenv("GIT_CONFIG_GLOBAL"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".gitconfig")
}

// ApplyGitConfig writes the request's git_config pairs into the global git
// configuration scope, in the order given. Keys are dotted paths:
// "section.name" or "section.subsection.name".
//
// The clone engine (go-git) reads only a subset of git configuration from
// this scope — url.*.insteadOf rewrites, user identity, and similar — so
// pairs like http.sslVerify do not alter its transport behavior the way they
// would for CLI git. Transport-level toggles have dedicated request fields
// (skip_ssl_verification, private_key).
func ApplyGitConfig(pairs []protocol.GitConfigPair) error {
	if len(pairs) == 0 {
		return nil
	}

	path := globalConfigPath()
	cfg := format.New()
	if data, err := os.ReadFile(path); err == nil {
		d := format.NewDecoder(strings.NewReader(string(data)))
		if err := d.Decode(cfg); err != nil {
			return errs.Wrap(err, errs.CategoryInput, "failed to parse existing git configuration")
		}
	} else if !os.IsNotExist(err) {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to read git configuration")
	}

	for _, pair := range pairs {
		section, subsection, name, ok := splitKey(pair.Name)
		if !ok {
			return errs.Newf(errs.CategoryInput, "invalid git_config key %q", pair.Name)
		}
		if subsection == "" {
			cfg.Section(section).SetOption(name, pair.Value)
		} else {
			cfg.Section(section).Subsection(subsection).SetOption(name, pair.Value)
		}
		slog.Debug("Applied git config", "key", pair.Name)
	}

	var sb strings.Builder
	if err := format.NewEncoder(&sb).Encode(cfg); err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to encode git configuration")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return errs.Wrap(err, errs.CategoryFileSystem, "failed to write git configuration")
	}
	return nil
}

// splitKey splits a dotted git config key into section, optional subsection,
// and option name.
func splitKey(key string) (section, subsection, name string, ok bool) {
	parts := strings.Split(key, ".")
	switch {
	case len(parts) == 2:
		return parts[0], "", parts[1], parts[0] != "" && parts[1] != ""
	case len(parts) > 2:
		section = parts[0]
		name = parts[len(parts)-1]
		subsection = strings.Join(parts[1:len(parts)-1], ".")
		return section, subsection, name, section != "" && name != ""
	default:
		return "", "", "", false
	}
}
