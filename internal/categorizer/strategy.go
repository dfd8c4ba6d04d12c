package categorizer

import (
	"context"

	"fjacquet/txmerge/internal/models"
)

// CategorizationStrategy is one stage of the waterfall.
type CategorizationStrategy interface {
	// Categorize attempts to categorize a transaction using this strategy.
	// Returns the category, a boolean indicating whether the strategy
	// produced an answer, and any error encountered. An error is treated
	// as "no answer" by the waterfall.
	Categorize(ctx context.Context, tx models.Transaction) (models.Category, bool, error)

	// Name returns the name of this strategy for logging.
	Name() string

	// Stage is recorded on transactions this strategy categorizes.
	Stage() models.Stage
}
