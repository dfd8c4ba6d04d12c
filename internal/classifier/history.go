package classifier

import (
	"path/filepath"

	"fjacquet/txmerge/internal/common"
	"fjacquet/txmerge/internal/dateutils"
	"fjacquet/txmerge/internal/fileutils"
	"fjacquet/txmerge/internal/logging"
)

// historyRow is the part of a prior month's merged table used for training.
type historyRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Category    string `csv:"Category"`
}

// HistoryLoader reads the merged tables of the months before a period.
type HistoryLoader struct {
	AccountsDir string
	MergedFile  string
	Months      int
	Delimiter   rune
	logger      logging.Logger
}

// NewHistoryLoader creates a HistoryLoader.
func NewHistoryLoader(accountsDir, mergedFile string, months int, delimiter rune, logger logging.Logger) *HistoryLoader {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &HistoryLoader{
		AccountsDir: accountsDir,
		MergedFile:  mergedFile,
		Months:      months,
		Delimiter:   delimiter,
		logger:      logger,
	}
}

// Load returns the labelled rows of the most recent months before period,
// newest month first, and the files it read. Only folders holding a merged
// table count toward the window; unreadable tables are skipped.
func (h *HistoryLoader) Load(period string) ([]Sample, []string) {
	if h.Months <= 0 {
		return nil, nil
	}
	dirs, err := fileutils.ListSubdirectories(h.AccountsDir)
	if err != nil {
		h.logger.WithError(err).Warn("Cannot list month folders for training history",
			logging.F(logging.FieldFile, h.AccountsDir))
		return nil, nil
	}

	merged := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if fileutils.FileExists(filepath.Join(h.AccountsDir, d, h.MergedFile)) {
			merged = append(merged, d)
		}
	}

	var (
		samples []Sample
		files   []string
	)
	for _, month := range dateutils.RecentPeriods(merged, period, h.Months) {
		path := filepath.Join(h.AccountsDir, month, h.MergedFile)
		rows, err := common.ReadCSVFile[historyRow](path, h.Delimiter, h.logger)
		if err != nil {
			h.logger.WithError(err).Warn("Skipping unreadable training history",
				logging.F(logging.FieldFile, path))
			continue
		}
		for _, r := range rows {
			samples = append(samples, Sample{Description: r.Description, Category: r.Category})
		}
		files = append(files, path)
	}

	h.logger.Debug("Loaded training history",
		logging.F(logging.FieldPeriod, period),
		logging.F(logging.FieldCount, len(samples)),
		logging.F("files", len(files)))
	return samples, files
}
