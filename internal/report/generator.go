// Package report renders the artifacts of a merge run: the merged table, the
// combined table for the reporting stage, and the audit summary.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"fjacquet/txmerge/internal/common"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/parser"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// mergedTableNamespace scopes the name-based identifiers of merged tables.
var mergedTableNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("txmerge:merged-table"))

// Counters are the run totals gathered before rendering.
type Counters struct {
	SourceFiles         []string
	Duplicates          int
	Ignored             int
	Rows                parser.RowStats
	Stages              models.StageCounts
	ML                  models.MLStatus
	UseMergedCategories bool
}

// Artifacts holds the rendered bytes of one run.
type Artifacts struct {
	Merged   []byte
	Combined []byte
	Audit    []byte
	Summary  models.AuditSummary
}

// ReportGenerator renders artifacts in memory.
type ReportGenerator struct {
	delimiter rune
	logger    logging.Logger
	now       func() time.Time
}

// NewReportGenerator creates a ReportGenerator writing tables with delimiter.
func NewReportGenerator(delimiter rune, logger logging.Logger) *ReportGenerator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &ReportGenerator{delimiter: delimiter, logger: logger, now: time.Now}
}

// SetClock replaces the clock stamped into generated_at.
func (g *ReportGenerator) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// GenerateReport renders every artifact for period.
func (g *ReportGenerator) GenerateReport(period string, txs []models.Transaction, counters Counters) (*Artifacts, error) {
	merged, err := common.MarshalCSV(BuildMergedRows(txs), g.delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to render merged table: %w", err)
	}
	combined, err := common.MarshalCSV(BuildCombinedRows(txs), g.delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to render combined table: %w", err)
	}

	summary := g.BuildAudit(period, txs, counters, merged)
	audit, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal audit summary")
		return nil, fmt.Errorf("failed to marshal audit summary: %w", err)
	}

	return &Artifacts{Merged: merged, Combined: combined, Audit: append(audit, '\n'), Summary: summary}, nil
}

// BuildAudit computes the reconciliation summary. merged is the rendered
// merged table the summary describes.
func (g *ReportGenerator) BuildAudit(period string, txs []models.Transaction, counters Counters, merged []byte) models.AuditSummary {
	credits, debits, net := Totals(txs)

	sources := counters.SourceFiles
	if sources == nil {
		sources = []string{}
	}

	return models.AuditSummary{
		Period:        period,
		GeneratedAt:   g.now().UTC().Format(time.RFC3339),
		MergedTableID: uuid.NewSHA1(mergedTableNamespace, merged).String(),

		TotalCredits: json.Number(credits.StringFixed(2)),
		TotalDebits:  json.Number(debits.StringFixed(2)),
		NetTotal:     json.Number(net.StringFixed(2)),

		TransactionCount: len(txs),
		FilesProcessed:   len(sources),
		SourceFiles:      sources,
		DuplicateCount:   counters.Duplicates,
		IgnoredCount:     counters.Ignored,

		SkippedRows:       counters.Rows.Skipped(),
		SkippedBadDate:    counters.Rows.BadDate,
		SkippedMalformed:  counters.Rows.Malformed,
		SkippedZeroAmount: counters.Rows.ZeroAmount,
		HeaderRows:        counters.Rows.HeaderRows,

		CategorizedViaMapping:   counters.Stages.Mapping,
		CategorizedViaRegex:     counters.Stages.Rule,
		CategorizedViaML:        counters.Stages.ML,
		Uncategorized:           counters.Stages.Uncategorized,
		OutOfVocabularyRejected: counters.Stages.OutOfVocabulary,

		UseMergedCategories: counters.UseMergedCategories,
		ML:                  counters.ML,
	}
}

// Totals returns total credits, total debits as a positive magnitude, and
// the net signed sum, each over amounts rounded to cents as the tables show
// them. credits - debits == net.
func Totals(txs []models.Transaction) (credits, debits, net decimal.Decimal) {
	for _, tx := range txs {
		amount := tx.Amount.Round(2)
		if amount.IsPositive() {
			credits = credits.Add(amount)
		} else {
			debits = debits.Add(amount.Neg())
		}
		net = net.Add(amount)
	}
	return credits, debits, net
}
