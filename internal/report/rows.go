package report

import (
	"fjacquet/txmerge/internal/models"

	"github.com/shopspring/decimal"
)

// MergedRow is one line of the merged table.
type MergedRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
}

// CombinedRow is one line of the period's combined table read by the
// reporting stage. Suggested Category carries this run's category.
type CombinedRow struct {
	Date              string `csv:"Date"`
	Description       string `csv:"Description"`
	Debit             string `csv:"Debit"`
	Credit            string `csv:"Credit"`
	Amount            string `csv:"Amount"`
	Account           string `csv:"Account"`
	Source            string `csv:"Source"`
	SuggestedCategory string `csv:"Suggested Category"`
	Stage             string `csv:"Stage"`
}

// BuildMergedRows renders txs in order.
func BuildMergedRows(txs []models.Transaction) []MergedRow {
	rows := make([]MergedRow, len(txs))
	for i, tx := range txs {
		rows[i] = MergedRow{
			Date:        tx.DateString(),
			Description: tx.Description,
			Amount:      formatMoney(tx.Amount),
			Category:    categoryOf(tx),
		}
	}
	return rows
}

// BuildCombinedRows renders txs in order. Zero debit or credit is left blank.
func BuildCombinedRows(txs []models.Transaction) []CombinedRow {
	rows := make([]CombinedRow, len(txs))
	for i, tx := range txs {
		stage := tx.Stage
		if stage == "" {
			stage = models.StageNone
		}
		rows[i] = CombinedRow{
			Date:              tx.DateString(),
			Description:       tx.Description,
			Debit:             formatOptionalMoney(tx.Debit),
			Credit:            formatOptionalMoney(tx.Credit),
			Amount:            formatMoney(tx.Amount),
			Account:           tx.Account,
			Source:            tx.Source,
			SuggestedCategory: categoryOf(tx),
			Stage:             string(stage),
		}
	}
	return rows
}

func categoryOf(tx models.Transaction) string {
	if tx.Category == "" {
		return models.CategoryUncategorized
	}
	return tx.Category
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatOptionalMoney(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.Abs().StringFixed(2)
}
