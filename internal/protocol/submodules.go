package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	policyAll   = "all"
	policyNone  = "none"
	policyPaths = "paths"
)

// Submodules is the submodule materialization policy: the string "all", the
// string "none", or an explicit list of submodule paths.
type Submodules struct {
	policy string
	paths  []string
}

// AllSubmodules returns the policy that updates every submodule recursively.
func AllSubmodules() Submodules { return Submodules{policy: policyAll} }

// NoSubmodules returns the policy that skips submodules entirely.
func NoSubmodules() Submodules { return Submodules{policy: policyNone} }

// SubmodulePaths returns the policy restricted to the named paths, in order.
func SubmodulePaths(paths ...string) Submodules {
	return Submodules{policy: policyPaths, paths: paths}
}

// All reports whether every submodule should be updated.
func (s Submodules) All() bool { return s.policy == policyAll }

// None reports whether submodules should be skipped.
func (s Submodules) None() bool { return s.policy == policyNone }

// Paths returns the explicit path list, nil unless a list policy is set.
func (s Submodules) Paths() []string {
	if s.policy != policyPaths {
		return nil
	}
	return s.paths
}

// UnmarshalJSON accepts "all", "none", or a JSON array of paths.
func (s *Submodules) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		switch str {
		case policyAll:
			*s = AllSubmodules()
			return nil
		case policyNone:
			*s = NoSubmodules()
			return nil
		default:
			return fmt.Errorf("invalid submodules value %q: expected \"all\", \"none\", or a path list", str)
		}
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return fmt.Errorf("invalid submodules value: %w", err)
	}
	if len(paths) == 0 {
		*s = NoSubmodules()
		return nil
	}
	*s = SubmodulePaths(paths...)
	return nil
}

// MarshalJSON renders the wire form accepted by UnmarshalJSON.
func (s Submodules) MarshalJSON() ([]byte, error) {
	switch s.policy {
	case policyPaths:
		return json.Marshal(s.paths)
	case policyNone:
		return json.Marshal(policyNone)
	default:
		return json.Marshal(policyAll)
	}
}
