// Package parser defines the contract every export-file normalizer fulfils.
package parser

import (
	"io"

	"fjacquet/txmerge/internal/models"
)

// Parser turns one raw export into normalized transactions. Row-level
// problems are skipped and counted in the Result; only an unreadable stream
// is returned as an error.
type Parser interface {
	Parse(r io.Reader, source string) (*Result, error)
}

// Result is the outcome of parsing one file.
type Result struct {
	Source       string
	Transactions []models.Transaction
	Stats        RowStats
}

// RowStats counts the rows a parser did not turn into transactions.
type RowStats struct {
	Rows        int
	HeaderRows  int
	BadDate     int
	Malformed   int
	ZeroAmount  int
	LayoutCount map[string]int
}

// Skipped is the number of data rows dropped. Header rows are not data.
func (s RowStats) Skipped() int {
	return s.BadDate + s.Malformed + s.ZeroAmount
}

// Add accumulates other into s.
func (s *RowStats) Add(other RowStats) {
	s.Rows += other.Rows
	s.HeaderRows += other.HeaderRows
	s.BadDate += other.BadDate
	s.Malformed += other.Malformed
	s.ZeroAmount += other.ZeroAmount
	for k, v := range other.LayoutCount {
		if s.LayoutCount == nil {
			s.LayoutCount = make(map[string]int)
		}
		s.LayoutCount[k] += v
	}
}
