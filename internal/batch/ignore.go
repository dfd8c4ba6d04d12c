package batch

import (
	"strings"

	"fjacquet/txmerge/internal/textutils"
)

// IgnoreList excludes transactions whose description contains any entry,
// compared case-insensitively.
type IgnoreList struct {
	entries []string
	folded  []string
}

// NewIgnoreList drops blank and repeated entries.
func NewIgnoreList(entries []string) *IgnoreList {
	l := &IgnoreList{}
	seen := make(map[string]bool)
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		f := textutils.Fold(e)
		if seen[f] {
			continue
		}
		seen[f] = true
		l.entries = append(l.entries, e)
		l.folded = append(l.folded, f)
	}
	return l
}

// Match returns the first entry contained in description.
func (l *IgnoreList) Match(description string) (string, bool) {
	if l == nil || len(l.folded) == 0 {
		return "", false
	}
	d := textutils.Fold(description)
	for i, f := range l.folded {
		if strings.Contains(d, f) {
			return l.entries[i], true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (l *IgnoreList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}
