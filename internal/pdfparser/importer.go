package pdfparser

import (
	"context"
	"path/filepath"

	"fjacquet/txmerge/internal/common"
	"fjacquet/txmerge/internal/fileutils"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"
)

// DefaultOutputFile is the export name written into the period folder. It
// matches the default cibc*.csv input pattern so the next merge picks it up.
const DefaultOutputFile = "cibc_pdf_export.csv"

// ImportResult describes one imported statement.
type ImportResult struct {
	Period  string
	Path    string
	Rows    int
	Skipped int
}

// Importer writes a statement as a deposit-layout export into the month
// folder its transactions belong to.
type Importer struct {
	parser      *Parser
	accountsDir string
	outputFile  string
	delimiter   rune
	logger      logging.Logger
}

// NewImporter creates an Importer writing outputFile under accountsDir.
func NewImporter(parser *Parser, accountsDir, outputFile string, delimiter rune, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if outputFile == "" {
		outputFile = DefaultOutputFile
	}
	return &Importer{
		parser:      parser,
		accountsDir: accountsDir,
		outputFile:  outputFile,
		delimiter:   delimiter,
		logger:      logger,
	}
}

// Import parses pdfPath and replaces the period folder's PDF export.
func (im *Importer) Import(ctx context.Context, pdfPath string) (*ImportResult, error) {
	st, err := im.parser.ParseFile(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	period, ok := st.Period()
	if !ok {
		return nil, &mergeerror.InputError{Path: pdfPath, Msg: "cannot detect the statement month", Err: ErrNoTransactions}
	}

	dir := filepath.Join(im.accountsDir, period)
	path := filepath.Join(dir, im.outputFile)
	data, err := common.MarshalCSV(st.Rows, im.delimiter)
	if err != nil {
		return nil, &mergeerror.WriteError{Path: path, Err: err}
	}
	if err := fileutils.EnsureDirectoryExists(dir); err != nil {
		return nil, &mergeerror.WriteError{Path: dir, Err: err}
	}
	if err := fileutils.WriteFileAtomic(path, data, models.PermissionReportFile); err != nil {
		return nil, &mergeerror.WriteError{Path: path, Err: err}
	}

	im.logger.Info("Imported PDF statement",
		logging.F(logging.FieldFile, pdfPath),
		logging.F(logging.FieldPeriod, period),
		logging.F(logging.FieldOutputFile, path),
		logging.F(logging.FieldCount, len(st.Rows)),
		logging.F("skipped", st.Skipped))
	return &ImportResult{Period: period, Path: path, Rows: len(st.Rows), Skipped: st.Skipped}, nil
}
