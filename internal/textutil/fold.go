package textutil

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// FoldName returns the case-folded form of a trimmed name, suitable for
// case-insensitive comparison.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// NameSet matches names case-insensitively. An empty set matches everything.
type NameSet struct {
	names map[string]string
}

// NewNameSet builds a set from names. Blank names are ignored.
func NewNameSet(names []string) *NameSet {
	set := &NameSet{names: make(map[string]string, len(names))}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		set.names[FoldName(name)] = strings.TrimSpace(name)
	}
	return set
}

// Len returns the number of distinct folded names.
func (s *NameSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Match reports whether name is in the set, or true for an empty set.
func (s *NameSet) Match(name string) bool {
	if s.Len() == 0 {
		return true
	}
	_, ok := s.names[FoldName(name)]
	return ok
}

// Missing returns the configured names (as written) that are not in seen,
// where seen holds names that were matched.
func (s *NameSet) Missing(seen []string) []string {
	if s.Len() == 0 {
		return nil
	}
	found := make(map[string]struct{}, len(seen))
	for _, name := range seen {
		found[FoldName(name)] = struct{}{}
	}
	var missing []string
	for folded, original := range s.names {
		if _, ok := found[folded]; !ok {
			missing = append(missing, original)
		}
	}
	slices.Sort(missing)
	return missing
}
