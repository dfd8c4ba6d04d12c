package classifier

import (
	"context"
	"errors"
	"time"

	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"
)

// DefaultMinSamples is the smallest training set worth fitting.
const DefaultMinSamples = 10

// Outcome is what Fit did. Err is informational: a failed fit leaves the
// run without a model but never fails it.
type Outcome struct {
	Model       *Model
	Status      string
	Retrained   bool
	Fingerprint string
	Samples     int
	Classes     int
	Err         error
}

// MLStatus renders the outcome for the audit document. Whether the model was
// loaded or refit is left out; TrainedAt tells the two apart across runs.
func (o Outcome) MLStatus(threshold float64) models.MLStatus {
	st := models.MLStatus{
		Status:          o.Status,
		Fingerprint:     o.Fingerprint,
		TrainingSamples: o.Samples,
		Classes:         o.Classes,
		Threshold:       threshold,
	}
	if o.Status == models.MLStatusCached || o.Status == models.MLStatusTrained {
		st.Status = models.MLStatusReady
	}
	if o.Model != nil {
		st.TrainedAt = o.Model.TrainedAt.UTC().Format(time.RFC3339)
	}
	if o.Err != nil {
		st.Error = o.Err.Error()
	}
	return st
}

// Disabled is the outcome of a run with the classifier switched off.
func Disabled() Outcome {
	return Outcome{Status: models.MLStatusDisabled}
}

// Trainer reuses a cached model when the training set is unchanged and
// retrains otherwise.
type Trainer struct {
	cache      Cache
	minSamples int
	logger     logging.Logger
	now        func() time.Time
}

// NewTrainer creates a Trainer. minSamples below 2 is raised to 2.
func NewTrainer(cache Cache, minSamples int, logger logging.Logger) *Trainer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if minSamples < 2 {
		minSamples = 2
	}
	return &Trainer{cache: cache, minSamples: minSamples, logger: logger, now: time.Now}
}

// SetClock replaces the clock stamped on newly trained models.
func (t *Trainer) SetClock(now func() time.Time) {
	if now != nil {
		t.now = now
	}
}

// Fit returns a model for set, from the cache when its fingerprint is
// already stored.
func (t *Trainer) Fit(ctx context.Context, set TrainingSet) Outcome {
	fp := Fingerprint(set)
	out := Outcome{Fingerprint: fp, Samples: set.Len(), Classes: len(set.Labels())}
	log := t.logger.WithFields(
		logging.F(logging.FieldFingerprint, fp),
		logging.F(logging.FieldCount, out.Samples))

	if out.Samples < t.minSamples || out.Classes < 2 {
		out.Status = models.MLStatusInsufficientData
		log.Info("Not enough training data for the classifier",
			logging.F("classes", out.Classes),
			logging.F("min_samples", t.minSamples))
		return out
	}

	if err := ctx.Err(); err != nil {
		out.Status = models.MLStatusFailed
		out.Err = err
		return out
	}

	if t.cache != nil {
		m, err := t.cache.Load(fp)
		switch {
		case err == nil:
			out.Model = m
			out.Status = models.MLStatusCached
			log.Info("Using cached classifier")
			return out
		case errors.Is(err, ErrCacheMiss):
			log.Debug("No cached classifier for training set")
		default:
			log.WithError(err).Warn("Discarding unusable classifier cache")
		}
	}

	started := t.now()
	m, err := Train(set, fp, started)
	if err != nil {
		out.Status = models.MLStatusFailed
		out.Err = err
		log.WithError(err).Warn("Classifier training failed, continuing without it")
		return out
	}
	out.Model = m
	out.Status = models.MLStatusTrained
	out.Retrained = true
	log.Info("Trained classifier",
		logging.F("classes", out.Classes),
		logging.F(logging.FieldDuration, t.now().Sub(started).String()))

	if t.cache != nil {
		if err := t.cache.Store(m); err != nil {
			log.WithError(err).Warn("Failed to cache classifier")
		}
	}
	return out
}
