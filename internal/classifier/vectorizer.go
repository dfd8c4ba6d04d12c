package classifier

import (
	"sort"
	"strings"
)

// Vectorizer defaults.
const (
	DefaultNGramMin    = 3
	DefaultNGramMax    = 5
	DefaultMaxFeatures = 2000
)

// Vectorizer turns a description into lower-cased character n-grams drawn
// from a vocabulary fitted on the training descriptions.
type Vectorizer struct {
	NGramMin    int
	NGramMax    int
	MaxFeatures int
	Vocabulary  []string

	index map[string]struct{}
}

// NewVectorizer returns an unfitted vectorizer with the default settings.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		NGramMin:    DefaultNGramMin,
		NGramMax:    DefaultNGramMax,
		MaxFeatures: DefaultMaxFeatures,
	}
}

// Fit keeps the MaxFeatures n-grams that occur in the most documents.
// Ties resolve lexically so the vocabulary is a pure function of docs.
func (v *Vectorizer) Fit(docs []string) {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, g := range ngrams(d, v.NGramMin, v.NGramMax) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			df[g]++
		}
	}

	terms := make([]string, 0, len(df))
	for g := range df {
		terms = append(terms, g)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)
	v.Vocabulary = terms
	v.index = nil
}

// Tokens returns the in-vocabulary n-grams of doc, repeats included.
func (v *Vectorizer) Tokens(doc string) []string {
	if v.index == nil {
		v.index = make(map[string]struct{}, len(v.Vocabulary))
		for _, g := range v.Vocabulary {
			v.index[g] = struct{}{}
		}
	}
	var out []string
	for _, g := range ngrams(doc, v.NGramMin, v.NGramMax) {
		if _, ok := v.index[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

// NGrams returns every n-gram of doc, known or not.
func (v *Vectorizer) NGrams(doc string) []string {
	return ngrams(doc, v.NGramMin, v.NGramMax)
}

// ngrams pads the lower-cased text with spaces so word boundaries become
// features. Text shorter than min yields itself.
func ngrams(doc string, min, max int) []string {
	text := strings.Join(strings.Fields(strings.ToLower(doc)), " ")
	if text == "" {
		return nil
	}
	runes := []rune(" " + text + " ")
	if len(runes) < min {
		return []string{string(runes)}
	}
	var out []string
	for n := min; n <= max; n++ {
		for i := 0; i+n <= len(runes); i++ {
			out = append(out, string(runes[i:i+n]))
		}
	}
	return out
}
