// Package bankparser normalizes headerless institution CSV exports whose
// column layout varies from row to row (deposit accounts, credit cards,
// signed-amount exports) into models.Transaction values.
package bankparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/txmerge/internal/dateutils"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/parser"
	"fjacquet/txmerge/internal/textutils"

	"golang.org/x/net/html/charset"
)

// Options configures how exports are read.
type Options struct {
	Delimiter   rune
	Encoding    string
	DateFormats []string
}

// Parser implements parser.Parser for bank CSV exports.
type Parser struct {
	parser.BaseParser
	opts    Options
	dates   *dateutils.Parser
	layouts *Layouts
}

// NewParser returns a Parser. Zero options mean comma-delimited UTF-8 with
// the default date priority.
func NewParser(opts Options, logger logging.Logger) *Parser {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Encoding == "" {
		opts.Encoding = "utf-8"
	}
	return &Parser{
		BaseParser: parser.NewBaseParser(logger),
		opts:       opts,
		dates:      dateutils.NewParser(opts.DateFormats),
		layouts:    NewLayouts(opts.Delimiter),
	}
}

// ParseFile opens path, decodes it from the configured encoding and parses it.
// Failure to open or decode the file is an InputError.
func (p *Parser) ParseFile(path string) (*parser.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &mergeerror.InputError{Path: path, Msg: "cannot open export file", Err: err}
	}
	defer f.Close()

	decoded, err := charset.NewReaderLabel(p.opts.Encoding, f)
	if err != nil {
		return nil, &mergeerror.InputError{Path: path, Msg: fmt.Sprintf("unsupported encoding %q", p.opts.Encoding), Err: err}
	}

	res, err := p.Parse(decoded, filepath.Base(path))
	if err != nil {
		return nil, &mergeerror.InputError{Path: path, Msg: "cannot read export file", Err: err}
	}
	return res, nil
}

// Parse reads every row of r. source is recorded on each transaction.
func (p *Parser) Parse(r io.Reader, source string) (*parser.Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	logger := p.GetLogger().WithField(logging.FieldFile, source)
	res := &parser.Result{Source: source, Stats: parser.RowStats{LayoutCount: map[string]int{}}}

	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Stats.Rows++
				res.Stats.Malformed++
				logger.Debug("Skipping unreadable row", logging.F(logging.FieldRow, row), logging.F(logging.FieldReason, err.Error()))
				continue
			}
			return nil, err
		}
		res.Stats.Rows++

		tx, rowErr := p.parseRow(fields, source, row, &res.Stats)
		if rowErr != nil {
			logger.Debug("Skipping row", logging.F(logging.FieldRow, row), logging.F(logging.FieldReason, rowErr.Error()))
			continue
		}
		if tx != nil {
			res.Transactions = append(res.Transactions, *tx)
		}
	}

	logger.Info("Parsed export file",
		logging.F(logging.FieldCount, len(res.Transactions)),
		logging.F("skipped", res.Stats.Skipped()),
		logging.F("header_rows", res.Stats.HeaderRows))
	return res, nil
}

// parseRow returns nil, nil for a header row.
func (p *Parser) parseRow(fields []string, source string, row int, stats *parser.RowStats) (*models.Transaction, error) {
	if len(fields) > 0 && isHeader(fields[0]) {
		stats.HeaderRows++
		return nil, nil
	}

	layout, ok := p.layouts.Detect(fields)
	if !ok {
		stats.Malformed++
		return nil, &mergeerror.RowError{File: source, Row: row, Reason: fmt.Sprintf("unrecognized layout with %d columns", len(fields))}
	}

	values, err := layout.Extract(fields)
	if err != nil {
		stats.Malformed++
		return nil, &mergeerror.RowError{File: source, Row: row, Reason: err.Error()}
	}

	date, _, err := p.dates.Parse(values.Date)
	if err != nil {
		stats.BadDate++
		return nil, &mergeerror.RowError{File: source, Row: row, Field: "date", Value: values.Date, Reason: "unparseable"}
	}

	if values.Amount.IsZero() {
		stats.ZeroAmount++
		return nil, &mergeerror.RowError{File: source, Row: row, Reason: "debit and credit are both zero"}
	}

	stats.LayoutCount[layout.Name()]++
	return &models.Transaction{
		Date:        date,
		Description: textutils.NormalizeDescription(values.Description),
		Amount:      values.Amount,
		Debit:       values.Debit,
		Credit:      values.Credit,
		Account:     values.Account,
		Source:      source,
		Row:         row,
		Layout:      layout.Name(),
		Category:    models.CategoryUncategorized,
		Stage:       models.StageNone,
	}, nil
}

func isHeader(first string) bool {
	return strings.EqualFold(dateutils.CleanDateString(first), "date")
}
