package pipelines

import "regexp"

// BranchVar is the implicit variable carrying the checked-out branch name; it
// always wins over any explicit variable of the same name.
const BranchVar = "branch"

// MatchBranch reports whether a branch pattern matches the branch name. The
// match is a case-sensitive unanchored regex match. Pure function: callers
// decide what to do with non-matches.
func MatchBranch(pattern, branch string) (bool, error) {
	return regexp.MatchString(pattern, branch)
}

// MergeVars overlays variable maps in order: later maps override earlier ones
// on key collision. Inputs are never mutated.
func MergeVars(overlays ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, overlay := range overlays {
		for k, v := range overlay {
			merged[k] = v
		}
	}
	return merged
}
