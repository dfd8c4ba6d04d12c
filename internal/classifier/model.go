package classifier

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jbrukh/bayesian"
)

// ErrTooFewClasses is returned when a training set has fewer than two labels.
var ErrTooFewClasses = errors.New("classifier needs at least two classes")

// Prediction is the model's best guess for one description.
type Prediction struct {
	Category   string
	Confidence float64
}

// DefaultSmoothing is the Laplace pseudo-count added to every feature.
const DefaultSmoothing = 1.0

// Model is a trained naive Bayes classifier with the vectorizer it was
// trained with.
type Model struct {
	Fingerprint string
	Labels      []string
	Samples     int
	TrainedAt   time.Time

	vectorizer *Vectorizer
	nb         *bayesian.Classifier
	scorer     *scorer
}

// Train fits a multinomial naive Bayes model on set. Panics raised by the
// underlying library are returned as errors.
func Train(set TrainingSet, fingerprint string, now time.Time) (m *Model, err error) {
	labels := set.Labels()
	if len(labels) < 2 {
		return nil, ErrTooFewClasses
	}

	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("classifier training panicked: %v", r)
		}
	}()

	docs := make([]string, len(set.Samples))
	for i, s := range set.Samples {
		docs[i] = s.Description
	}
	vec := NewVectorizer()
	vec.Fit(docs)

	classes := make([]bayesian.Class, len(labels))
	for i, l := range labels {
		classes[i] = bayesian.Class(l)
	}
	nb := bayesian.NewClassifier(classes...)
	for _, s := range set.Samples {
		tokens := vec.Tokens(s.Description)
		if len(tokens) == 0 {
			continue
		}
		nb.Learn(tokens, bayesian.Class(s.Category))
	}

	return newModel(fingerprint, labels, set.Len(), now.UTC(), vec, nb), nil
}

func newModel(fingerprint string, labels []string, samples int, trainedAt time.Time, vec *Vectorizer, nb *bayesian.Classifier) *Model {
	return &Model{
		Fingerprint: fingerprint,
		Labels:      labels,
		Samples:     samples,
		TrainedAt:   trainedAt,
		vectorizer:  vec,
		nb:          nb,
		scorer:      newScorer(nb, len(vec.Vocabulary), DefaultSmoothing),
	}
}

// Predict returns the most likely label for description. ok is false when
// the description shares no feature with the training data or scoring fails.
//
// Confidence is the smoothed class posterior shrunk toward the uniform
// distribution by the share of the description's n-grams the vocabulary
// does not know, so a description that merely brushes the training data
// stays near 1/len(Labels).
func (m *Model) Predict(description string) (p Prediction, ok bool) {
	if m == nil || m.nb == nil || m.scorer == nil {
		return Prediction{}, false
	}
	all := m.vectorizer.NGrams(description)
	tokens := m.vectorizer.Tokens(description)
	if len(tokens) == 0 || len(all) == 0 {
		return Prediction{}, false
	}

	defer func() {
		if r := recover(); r != nil {
			p, ok = Prediction{}, false
		}
	}()

	probs := softmax(m.scorer.logLikelihoods(tokens))
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	coverage := float64(len(tokens)) / float64(len(all))
	uniform := 1 / float64(len(probs))
	return Prediction{
		Category:   m.scorer.labels[best],
		Confidence: coverage*probs[best] + (1-coverage)*uniform,
	}, true
}

// Classes returns the number of labels the model can emit.
func (m *Model) Classes() int { return len(m.Labels) }

// marshalClassifier serializes the library model.
func (m *Model) marshalClassifier() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.nb.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("error serializing classifier: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshalClassifier(data []byte) (nb *bayesian.Classifier, err error) {
	defer func() {
		if r := recover(); r != nil {
			nb, err = nil, fmt.Errorf("classifier decoding panicked: %v", r)
		}
	}()
	return bayesian.NewClassifierFromReader(bytes.NewReader(data))
}

// softmax turns log scores into probabilities that sum to 1.
func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	if sum == 0 || math.IsNaN(sum) {
		for i := range probs {
			probs[i] = 1 / float64(len(probs))
		}
		return probs
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// scorer computes Laplace-smoothed log likelihoods from the per-class term
// counts the library learned. The library's own scores give unseen terms a
// fixed tiny probability, which drives every posterior to 0 or 1.
type scorer struct {
	labels []string
	counts []map[string]float64
	denoms []float64
	alpha  float64
}

// newScorer uses a uniform class prior so a large class does not win
// ambiguous descriptions by weight alone.
func newScorer(nb *bayesian.Classifier, vocabSize int, alpha float64) *scorer {
	if vocabSize < 1 {
		vocabSize = 1
	}
	totals := nb.WordCount()
	s := &scorer{
		labels: make([]string, len(nb.Classes)),
		counts: make([]map[string]float64, len(nb.Classes)),
		denoms: make([]float64, len(nb.Classes)),
		alpha:  alpha,
	}
	for i, class := range nb.Classes {
		s.labels[i] = string(class)
		// WordsByClass reports count/total; scale back to counts.
		freqs := nb.WordsByClass(class)
		counts := make(map[string]float64, len(freqs))
		for term, f := range freqs {
			counts[term] = f * float64(totals[i])
		}
		s.counts[i] = counts
		s.denoms[i] = math.Log(float64(totals[i]) + alpha*float64(vocabSize))
	}
	return s
}

func (s *scorer) logLikelihoods(tokens []string) []float64 {
	scores := make([]float64, len(s.labels))
	for i := range s.labels {
		var score float64
		for _, t := range tokens {
			score += math.Log(s.counts[i][t]+s.alpha) - s.denoms[i]
		}
		scores[i] = score
	}
	return scores
}
