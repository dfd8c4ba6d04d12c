package categorizer

import (
	"fmt"
	"strings"

	"fjacquet/txmerge/internal/models"
)

// StrategyResult is the outcome of one strategy attempt for a transaction.
type StrategyResult struct {
	Strategy string
	Stage    models.Stage
	Category models.Category
	Found    bool
	// Rejected is set when the strategy answered with a category outside
	// the run's vocabulary.
	Rejected bool
	Error    error
}

// Accepted reports whether this attempt decides the transaction.
func (r StrategyResult) Accepted() bool {
	return r.Found && !r.Rejected && r.Error == nil
}

// StrategyResults lists the attempts made for one transaction, in order.
type StrategyResults struct {
	Results []StrategyResult
}

// Decision returns the first accepted result, or Uncategorized with stage none.
func (sr StrategyResults) Decision() (models.Category, models.Stage) {
	for _, r := range sr.Results {
		if r.Accepted() {
			return r.Category, r.Stage
		}
	}
	return models.Category{Name: models.CategoryUncategorized}, models.StageNone
}

// RejectedCount is the number of out-of-vocabulary answers.
func (sr StrategyResults) RejectedCount() int {
	n := 0
	for _, r := range sr.Results {
		if r.Rejected {
			n++
		}
	}
	return n
}

// GetErrors returns all errors encountered during strategy execution.
func (sr StrategyResults) GetErrors() []error {
	var errs []error
	for _, result := range sr.Results {
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("%s strategy: %w", result.Strategy, result.Error))
		}
	}
	return errs
}

// Summary returns a human-readable summary of all strategy attempts.
func (sr StrategyResults) Summary() string {
	var parts []string
	for _, result := range sr.Results {
		status := "no_match"
		switch {
		case result.Error != nil:
			status = "failed"
		case result.Rejected:
			status = "rejected"
		case result.Found:
			status = "success"
		}
		parts = append(parts, fmt.Sprintf("%s:%s", result.Strategy, status))
	}
	return strings.Join(parts, ", ")
}
