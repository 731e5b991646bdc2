// Package pipelines discovers pipeline definitions in a checked-out
// repository, filters them by branch, and merges their variable sets.
package pipelines

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pipesource/internal/errs"
	"gopkg.in/yaml.v3"
)

// Pipeline is one declarative pipeline entry from the discovery config.
type Pipeline struct {
	Name          string         `json:"name" yaml:"name"`
	ConfigPath    string         `json:"config" yaml:"config"`
	BranchPattern string         `json:"branch_regex,omitempty" yaml:"branch_regex,omitempty"`
	Vars          map[string]any `json:"vars,omitempty" yaml:"vars,omitempty"`
	VarsFrom      []string       `json:"vars_from,omitempty" yaml:"vars_from,omitempty"`
}

// Config is the discovery config file's shape.
type Config struct {
	Pipelines []Pipeline `json:"pipelines" yaml:"pipelines"`
}

// Aggregate is the synthesized config written to the destination: the
// surviving entries in source order, variables merged.
type Aggregate struct {
	Pipelines []Pipeline `json:"pipelines" yaml:"pipelines"`
}

// yamlExt reports whether a path names a YAML file.
func yamlExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// Load reads and parses the discovery config. A missing or unreadable file is
// a discovery error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryDiscovery, "missing pipeline discovery config").
			WithContext("path", path)
	}
	var cfg Config
	if yamlExt(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryDiscovery, "malformed pipeline discovery config").
			WithContext("path", path)
	}
	return &cfg, nil
}

// Marshal serializes the aggregate in the same format as the discovery config
// it was built from, chosen by file extension.
func (a *Aggregate) Marshal(configPath string) ([]byte, error) {
	if yamlExt(configPath) {
		return yaml.Marshal(a)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
