package models

import "strings"

// Vocabulary is the ordered set of category names a run may assign.
// Uncategorized is always a member.
type Vocabulary struct {
	names []string
	index map[string]struct{}
}

// NewVocabulary builds a vocabulary from names, dropping blanks and
// duplicates and appending Uncategorized when it is missing.
func NewVocabulary(names []string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]struct{}, len(names)+1)}
	for _, n := range names {
		v.add(n)
	}
	v.add(CategoryUncategorized)
	return v
}

func (v *Vocabulary) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, ok := v.index[name]; ok {
		return
	}
	v.index[name] = struct{}{}
	v.names = append(v.names, name)
}

// Contains reports whether name may be assigned.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Names returns the categories in declaration order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

func (v *Vocabulary) Len() int { return len(v.names) }

// Extend returns a new vocabulary holding v's names followed by any new extra
// names. v is left unchanged.
func (v *Vocabulary) Extend(extra []string) *Vocabulary {
	out := NewVocabulary(v.names)
	for _, n := range extra {
		out.add(n)
	}
	return out
}
