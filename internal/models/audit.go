package models

import "encoding/json"

// AuditSummary is the reconciliation document written next to the merged
// table. Money fields are JSON numbers with two decimals; TotalDebits is a
// positive magnitude so TotalCredits - TotalDebits equals NetTotal.
type AuditSummary struct {
	Period        string `json:"period"`
	GeneratedAt   string `json:"generated_at"`
	MergedTableID string `json:"merged_table_id"`

	TotalCredits json.Number `json:"total_credits"`
	TotalDebits  json.Number `json:"total_debits"`
	NetTotal     json.Number `json:"net_total"`

	TransactionCount int      `json:"transaction_count"`
	FilesProcessed   int      `json:"files_processed"`
	SourceFiles      []string `json:"source_files"`
	DuplicateCount   int      `json:"duplicate_count"`
	IgnoredCount     int      `json:"ignored_count"`

	SkippedRows       int `json:"skipped_rows"`
	SkippedBadDate    int `json:"skipped_bad_date"`
	SkippedMalformed  int `json:"skipped_malformed"`
	SkippedZeroAmount int `json:"skipped_zero_amount"`
	HeaderRows        int `json:"header_rows"`

	CategorizedViaMapping   int `json:"categorized_via_mapping"`
	CategorizedViaRegex     int `json:"categorized_via_regex"`
	CategorizedViaML        int `json:"categorized_via_ml"`
	Uncategorized           int `json:"uncategorized"`
	OutOfVocabularyRejected int `json:"out_of_vocabulary_rejected"`

	UseMergedCategories bool     `json:"use_merged_categories"`
	ML                  MLStatus `json:"ml"`
}

// ML trainer outcomes. Cached and Trained are run-level and never reach the
// audit, which reports both as Ready.
const (
	MLStatusDisabled         = "disabled"
	MLStatusInsufficientData = "insufficient_data"
	MLStatusReady            = "ready"
	MLStatusCached           = "cached"
	MLStatusTrained          = "trained"
	MLStatusFailed           = "failed"
)

// MLStatus describes the classifier a run categorized with. Every field is a
// function of the training set, so a repeat run reports the same values.
type MLStatus struct {
	Status          string  `json:"status"`
	Fingerprint     string  `json:"fingerprint,omitempty"`
	TrainedAt       string  `json:"trained_at,omitempty"`
	TrainingSamples int     `json:"training_samples"`
	Classes         int     `json:"classes"`
	Threshold       float64 `json:"threshold"`
	Error           string  `json:"error,omitempty"`
}
