// Package classifier assembles training data for the text classifier that
// backs the last categorization stage, trains it, and caches the trained
// model keyed by a fingerprint of its training set.
package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/textutils"
)

// fingerprintLength is the number of hex characters kept from the digest.
const fingerprintLength = 16

// Sample is one (description, category) training pair.
type Sample struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

// TrainingSet is a sorted, description-unique list of samples.
type TrainingSet struct {
	Samples []Sample
}

// Len returns the number of samples.
func (ts TrainingSet) Len() int { return len(ts.Samples) }

// Labels returns the distinct categories, sorted.
func (ts TrainingSet) Labels() []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, s := range ts.Samples {
		if _, ok := seen[s.Category]; ok {
			continue
		}
		seen[s.Category] = struct{}{}
		labels = append(labels, s.Category)
	}
	sort.Strings(labels)
	return labels
}

// BuildTrainingSet combines mapping pairs with history pairs. Mapping pairs
// take precedence; a history pair is kept only when its description (case
// folded) is new. Placeholder labels and labels outside vocab are dropped.
// A nil vocab accepts every non-placeholder label.
func BuildTrainingSet(mappings map[string]string, history []Sample, vocab *models.Vocabulary) TrainingSet {
	accept := func(s Sample) bool {
		if s.Description == "" || s.Category == "" || s.Category == models.CategoryUncategorized {
			return false
		}
		return vocab == nil || vocab.Contains(s.Category)
	}

	byFolded := make(map[string]Sample)

	keys := make([]string, 0, len(mappings))
	for k := range mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := Sample{Description: textutils.NormalizeDescription(k), Category: strings.TrimSpace(mappings[k])}
		if !accept(s) {
			continue
		}
		f := textutils.Fold(s.Description)
		if _, ok := byFolded[f]; ok {
			continue
		}
		byFolded[f] = s
	}

	for _, h := range history {
		s := Sample{Description: textutils.NormalizeDescription(h.Description), Category: strings.TrimSpace(h.Category)}
		if !accept(s) {
			continue
		}
		f := textutils.Fold(s.Description)
		if _, ok := byFolded[f]; ok {
			continue
		}
		byFolded[f] = s
	}

	samples := make([]Sample, 0, len(byFolded))
	for _, s := range byFolded {
		samples = append(samples, s)
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Description != samples[j].Description {
			return samples[i].Description < samples[j].Description
		}
		return samples[i].Category < samples[j].Category
	})
	return TrainingSet{Samples: samples}
}

// Fingerprint identifies a training set by content. Equal sets give equal
// fingerprints regardless of where the pairs came from.
func Fingerprint(ts TrainingSet) string {
	samples := ts.Samples
	if samples == nil {
		samples = []Sample{}
	}
	data, err := json.Marshal(samples)
	if err != nil {
		// []Sample of strings always marshals
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
