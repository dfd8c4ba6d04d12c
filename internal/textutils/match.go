package textutils

import (
	"sort"
	"strings"
)

// SubstringIndex answers "which key occurs in this text" with the longest
// matching key winning. Keys compare case-insensitively; equally long keys
// resolve by lexical order of their folded form.
type SubstringIndex struct {
	entries []indexEntry
}

type indexEntry struct {
	folded string
	key    string
	value  string
}

// NewSubstringIndex builds an index over pairs. Blank keys are skipped and
// keys that fold to the same string keep the lexically smallest original.
func NewSubstringIndex(pairs map[string]string) *SubstringIndex {
	byFolded := make(map[string]indexEntry, len(pairs))
	for k, v := range pairs {
		trimmed := strings.TrimSpace(k)
		if trimmed == "" {
			continue
		}
		f := Fold(trimmed)
		if prev, ok := byFolded[f]; ok && prev.key < k {
			continue
		}
		byFolded[f] = indexEntry{folded: f, key: k, value: v}
	}

	idx := &SubstringIndex{entries: make([]indexEntry, 0, len(byFolded))}
	for _, e := range byFolded {
		idx.entries = append(idx.entries, e)
	}
	sort.Slice(idx.entries, func(i, j int) bool {
		a, b := idx.entries[i], idx.entries[j]
		if len(a.folded) != len(b.folded) {
			return len(a.folded) > len(b.folded)
		}
		return a.folded < b.folded
	})
	return idx
}

// Match returns the key and value of the longest key contained in text.
func (s *SubstringIndex) Match(text string) (key, value string, ok bool) {
	if s == nil || len(s.entries) == 0 {
		return "", "", false
	}
	folded := Fold(text)
	for _, e := range s.entries {
		if strings.Contains(folded, e.folded) {
			return e.key, e.value, true
		}
	}
	return "", "", false
}

// Len returns the number of distinct keys.
func (s *SubstringIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
