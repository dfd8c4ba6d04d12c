package categorizer

import (
	"context"

	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/textutils"
)

// MappingStrategy categorizes from the user's description → category
// mapping. A key matches when it is contained in the description; the
// longest matching key wins.
type MappingStrategy struct {
	index  *textutils.SubstringIndex
	logger logging.Logger
}

// NewMappingStrategy builds the strategy over mappings.
func NewMappingStrategy(mappings map[string]string, logger logging.Logger) *MappingStrategy {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &MappingStrategy{index: textutils.NewSubstringIndex(mappings), logger: logger}
}

// Name returns the name of this strategy for logging.
func (s *MappingStrategy) Name() string { return "Mapping" }

// Stage returns models.StageMapping.
func (s *MappingStrategy) Stage() models.Stage { return models.StageMapping }

// Len returns the number of usable mapping keys.
func (s *MappingStrategy) Len() int { return s.index.Len() }

// Categorize looks the description up in the mapping.
func (s *MappingStrategy) Categorize(_ context.Context, tx models.Transaction) (models.Category, bool, error) {
	key, category, ok := s.index.Match(tx.Description)
	if !ok {
		return models.Category{}, false, nil
	}
	s.logger.Debug("Transaction matched mapping",
		logging.F(logging.FieldDescription, tx.Description),
		logging.F("key", key),
		logging.F(logging.FieldCategory, category))
	return models.Category{Name: category, Confidence: 1, Detail: key}, true, nil
}
