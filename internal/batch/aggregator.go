// Package batch combines the per-file parse results of one period into a
// single record set: ignore-list filtering, cross-file deduplication and
// vendor alias normalization.
package batch

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/parser"
)

// DateRange is the span of transaction dates in a record set.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns "YYYY-MM-DD_YYYY-MM-DD", or "" for an empty range.
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s", dr.Start.Format(models.ISODate), dr.End.Format(models.ISODate))
}

// Include widens the range to cover t.
func (dr DateRange) Include(t time.Time) DateRange {
	if dr.Start.IsZero() || t.Before(dr.Start) {
		dr.Start = t
	}
	if dr.End.IsZero() || t.After(dr.End) {
		dr.End = t
	}
	return dr
}

// Options tunes deduplication.
type Options struct {
	// KeepSameFileRepeats keeps identical rows that repeat inside one file.
	// Copies spread over several files are still collapsed to the largest
	// number seen in any single file.
	KeepSameFileRepeats bool
}

// Result is the filtered, deduplicated record set of a period.
type Result struct {
	Transactions []models.Transaction
	Duplicates   int
	Ignored      int
	Stats        parser.RowStats
	SourceFiles  []string
	DateRange    DateRange
}

// BatchAggregator merges parse results. Input order (file order, then row
// order) is preserved and the first occurrence of a duplicate survives.
type BatchAggregator struct {
	logger logging.Logger
	opts   Options
}

// NewBatchAggregator creates a BatchAggregator.
func NewBatchAggregator(opts Options, logger logging.Logger) *BatchAggregator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &BatchAggregator{logger: logger, opts: opts}
}

// DedupKey identifies a transaction for duplicate detection: ISO date,
// normalized description and canonical signed amount.
func DedupKey(tx models.Transaction) string {
	return tx.DateString() + "\x1f" + tx.Description + "\x1f" + tx.Amount.String()
}

// Aggregate applies ignore (first) and dedup (second) across every result.
// A nil ignore list ignores nothing.
func (ba *BatchAggregator) Aggregate(results []*parser.Result, ignore *IgnoreList) *Result {
	out := &Result{}
	kept := make(map[string]int)
	perFile := make(map[string]map[string]int)

	for _, res := range results {
		if res == nil {
			continue
		}
		out.SourceFiles = append(out.SourceFiles, res.Source)
		out.Stats.Add(res.Stats)

		for _, tx := range res.Transactions {
			if entry, ok := ignore.Match(tx.Description); ok {
				out.Ignored++
				ba.logger.Debug("Ignoring transaction",
					logging.F(logging.FieldDescription, tx.Description),
					logging.F(logging.FieldReason, entry))
				continue
			}

			key := DedupKey(tx)
			if perFile[key] == nil {
				perFile[key] = make(map[string]int)
			}
			perFile[key][tx.Source]++

			limit := 1
			if ba.opts.KeepSameFileRepeats {
				limit = perFile[key][tx.Source]
			}
			if kept[key] >= limit {
				out.Duplicates++
				ba.logger.Debug("Dropping duplicate transaction",
					logging.F(logging.FieldFile, tx.Source),
					logging.F(logging.FieldRow, tx.Row),
					logging.F(logging.FieldDescription, tx.Description))
				continue
			}
			kept[key]++
			out.Transactions = append(out.Transactions, tx)
			out.DateRange = out.DateRange.Include(tx.Date)
		}
	}

	ba.logger.Info("Aggregated transactions",
		logging.F(logging.FieldCount, len(out.Transactions)),
		logging.F("duplicates", out.Duplicates),
		logging.F("ignored", out.Ignored),
		logging.F("date_range", out.DateRange.String()),
		logging.F("source_files", strings.Join(out.SourceFiles, ", ")))
	return out
}
