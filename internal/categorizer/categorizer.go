// Package categorizer assigns every transaction exactly one category and the
// stage that produced it. Stages run in order (mapping, rules, classifier)
// and the first accepted answer wins; anything left is Uncategorized.
package categorizer

import (
	"context"
	"sort"
	"strings"

	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"
)

// Categorizer runs the waterfall over a fixed list of strategies.
type Categorizer struct {
	strategies []CategorizationStrategy
	vocab      *models.Vocabulary
	logger     logging.Logger
}

// NewCategorizer creates a waterfall. Strategy order is precedence order.
// Answers outside vocab are rejected and the next strategy is tried.
func NewCategorizer(vocab *models.Vocabulary, logger logging.Logger, strategies ...CategorizationStrategy) *Categorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if vocab == nil {
		vocab = models.NewVocabulary(models.DefaultCategories())
	}
	return &Categorizer{strategies: strategies, vocab: vocab, logger: logger}
}

// Vocabulary returns the categories this waterfall may assign.
func (c *Categorizer) Vocabulary() *models.Vocabulary { return c.vocab }

// Strategies returns the stage names in order.
func (c *Categorizer) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Categorize runs the waterfall for one transaction. It reads only the
// description, so repeated runs with the same inputs agree.
func (c *Categorizer) Categorize(ctx context.Context, tx models.Transaction) StrategyResults {
	var results StrategyResults
	if strings.TrimSpace(tx.Description) == "" {
		return results
	}

	for _, strategy := range c.strategies {
		category, found, err := strategy.Categorize(ctx, tx)
		res := StrategyResult{Strategy: strategy.Name(), Stage: strategy.Stage(), Category: category, Found: found, Error: err}

		switch {
		case err != nil:
			c.logger.WithError(err).Warn("Categorization strategy failed",
				logging.F("strategy", strategy.Name()),
				logging.F(logging.FieldDescription, tx.Description))
		case found && (category.Name == models.CategoryUncategorized || category.Name == ""):
			res.Found = false
		case found && !c.vocab.Contains(category.Name):
			res.Rejected = true
			c.logger.Debug("Rejected category outside the vocabulary",
				logging.F("strategy", strategy.Name()),
				logging.F(logging.FieldDescription, tx.Description),
				logging.F(logging.FieldCategory, category.Name))
		}

		results.Results = append(results.Results, res)
		if res.Accepted() {
			break
		}
	}
	return results
}

// CategorizeAll categorizes txs in place and returns the per-stage counts.
func (c *Categorizer) CategorizeAll(ctx context.Context, txs []models.Transaction) (models.StageCounts, error) {
	var counts models.StageCounts
	for i := range txs {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		results := c.Categorize(ctx, txs[i])
		category, stage := results.Decision()
		txs[i].SetCategory(category.Name, stage, category.Confidence)
		counts.Add(stage)
		counts.OutOfVocabulary += results.RejectedCount()

		c.logger.Debug("Categorized transaction",
			logging.F(logging.FieldDescription, txs[i].Description),
			logging.F(logging.FieldCategory, category.Name),
			logging.F(logging.FieldStage, string(stage)),
			logging.F("attempts", results.Summary()))
	}
	return counts, nil
}

// EffectiveVocabulary is the declared vocabulary followed by any category
// the mapping uses that the declaration lacks, in sorted order.
func EffectiveVocabulary(declared []string, mappings map[string]string) *models.Vocabulary {
	var extra []string
	for _, category := range mappings {
		extra = append(extra, category)
	}
	sort.Strings(extra)
	return models.NewVocabulary(declared).Extend(extra)
}
