// Package models holds the data shared by every stage of a merge run.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one normalized bank row. The normalizer creates it; only the
// categorization waterfall changes it afterwards, and only Category and Stage.
type Transaction struct {
	Date        time.Time
	Description string
	// Amount is signed: negative for debits, positive for credits.
	Amount decimal.Decimal
	// Debit and Credit keep the magnitudes as exported.
	Debit  decimal.Decimal
	Credit decimal.Decimal
	// Account is the masked card number of card-account rows.
	Account string
	Source  string
	Row     int
	Layout  string

	Category   string
	Stage      Stage
	Confidence float64
}

// DateString formats the date the way output tables carry it.
func (t Transaction) DateString() string {
	return t.Date.Format(ISODate)
}

// IsCredit reports whether the transaction brings money in.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// SetCategory records the waterfall outcome.
func (t *Transaction) SetCategory(category string, stage Stage, confidence float64) {
	t.Category = category
	t.Stage = stage
	t.Confidence = confidence
}

// Category is a stage's answer for one transaction.
type Category struct {
	Name       string
	Confidence float64
	// Detail says what matched (mapping key, rule pattern, model fingerprint).
	Detail string
}
