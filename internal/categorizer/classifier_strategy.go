package categorizer

import (
	"context"

	"fjacquet/txmerge/internal/classifier"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"
)

// Predictor is a trained text classifier.
type Predictor interface {
	Predict(description string) (classifier.Prediction, bool)
}

// ClassifierStrategy accepts a prediction only when its confidence is
// strictly above the threshold.
type ClassifierStrategy struct {
	predictor Predictor
	threshold float64
	logger    logging.Logger
}

// NewClassifierStrategy creates the ML stage. A nil predictor never answers.
func NewClassifierStrategy(predictor Predictor, threshold float64, logger logging.Logger) *ClassifierStrategy {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &ClassifierStrategy{predictor: predictor, threshold: threshold, logger: logger}
}

// Name returns the name of this strategy for logging.
func (s *ClassifierStrategy) Name() string { return "Classifier" }

// Stage returns models.StageML.
func (s *ClassifierStrategy) Stage() models.Stage { return models.StageML }

// Categorize predicts a category for the description.
func (s *ClassifierStrategy) Categorize(ctx context.Context, tx models.Transaction) (models.Category, bool, error) {
	if s.predictor == nil {
		return models.Category{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return models.Category{}, false, err
	}

	p, ok := s.predictor.Predict(tx.Description)
	if !ok || p.Category == "" {
		return models.Category{}, false, nil
	}
	if p.Confidence <= s.threshold {
		s.logger.Debug("Prediction below confidence threshold",
			logging.F(logging.FieldDescription, tx.Description),
			logging.F(logging.FieldCategory, p.Category),
			logging.F(logging.FieldConfidence, p.Confidence),
			logging.F("threshold", s.threshold))
		return models.Category{}, false, nil
	}
	return models.Category{Name: p.Category, Confidence: p.Confidence}, true, nil
}
