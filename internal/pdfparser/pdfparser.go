// Package pdfparser turns bank statement PDFs into export files the merge
// engine reads. Text comes from pdftotext -layout; the transaction table is
// found by its header and each line is split into columns by position.
package pdfparser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"fjacquet/txmerge/internal/dateutils"
	"fjacquet/txmerge/internal/fileutils"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"

	"github.com/shopspring/decimal"
)

// ErrNoTransactions means the statement text holds no transaction table rows.
var ErrNoTransactions = errors.New("no transactions found in statement")

const monthNames = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`

var (
	// leadingDate matches the date that opens a table row, with or without a year.
	leadingDate = regexp.MustCompile(`(?i)^(` + monthNames + ` \d{1,2}(?:, \d{4})?|\d{4}-\d{2}-\d{2}|\d{4}/\d{2}/\d{2}|\d{1,2}/\d{1,2}/\d{4}|\d{2}-[a-z]{3}-\d{4})(?: (.*))?$`)

	// monthDayYear finds full dates anywhere in the text, e.g. "Dec 31, 2025".
	monthDayYear = regexp.MustCompile(`(?i)\b(` + monthNames + `) (\d{1,2}), (\d{4})\b`)

	// summaryLine marks balance and total lines inside the table.
	summaryLine = regexp.MustCompile(`(?i)^(opening balance|closing balance|balance forward|total|totals)\b`)
)

// Row is one statement transaction in the deposit layout.
type Row struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Debit       string `csv:"Debit"`
	Credit      string `csv:"Credit"`
}

// Statement is what a PDF yielded.
type Statement struct {
	Rows    []Row
	Skipped int
	Closing time.Time

	dates []time.Time
}

// Period returns the month label holding the most rows. Ties go to the
// earlier month.
func (s *Statement) Period() (string, bool) {
	if len(s.dates) == 0 {
		return "", false
	}
	counts := map[time.Time]int{}
	for _, d := range s.dates {
		counts[time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)]++
	}
	months := make([]time.Time, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		if counts[months[i]] != counts[months[j]] {
			return counts[months[i]] > counts[months[j]]
		}
		return months[i].Before(months[j])
	})
	return dateutils.PeriodLabel(months[0]), true
}

// Parser reads statement text.
type Parser struct {
	extractor Extractor
	dates     *dateutils.Parser
	logger    logging.Logger
}

// NewParser creates a Parser. dateFormats are the layouts tried on dated
// rows; year-less "Jan 2" rows take their year from the statement.
func NewParser(extractor Extractor, dateFormats []string, logger logging.Logger) *Parser {
	if extractor == nil {
		extractor = NewCommandExtractor(DefaultCommand)
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Parser{extractor: extractor, dates: dateutils.NewParser(dateFormats), logger: logger}
}

// ParseFile extracts the text of pdfPath and parses it.
func (p *Parser) ParseFile(ctx context.Context, pdfPath string) (*Statement, error) {
	if !fileutils.FileExists(pdfPath) {
		return nil, &mergeerror.InputError{Path: pdfPath, Msg: "statement not found"}
	}
	text, err := p.extractor.ExtractText(ctx, pdfPath)
	if err != nil {
		return nil, &mergeerror.InputError{Path: pdfPath, Msg: "cannot extract statement text", Err: err}
	}
	st, err := p.ParseText(text)
	if err != nil {
		return nil, &mergeerror.InputError{Path: pdfPath, Msg: "cannot read transaction table", Err: err}
	}
	p.logger.Debug("Parsed PDF statement",
		logging.F(logging.FieldFile, pdfPath),
		logging.F(logging.FieldCount, len(st.Rows)),
		logging.F("skipped", st.Skipped))
	return st, nil
}

// ParseText reads the transaction table out of pdftotext -layout output.
// A line without a date continues the row above: its text extends the
// description, and its amounts fill a row that has none yet or open a new
// row on the same date.
func (p *Parser) ParseText(text string) (*Statement, error) {
	st := &Statement{Closing: closingDate(text)}
	var (
		cols       columns
		haveHeader bool
		current    = -1
		lastDate   time.Time
	)

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		// A form feed starts a new page; page headers never continue a row.
		if strings.Contains(raw, "\f") {
			current = -1
		}
		line := strings.ReplaceAll(raw, "\f", "")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if c, ok := detectHeader(line); ok {
			cols, haveHeader, current = c, true, -1
			continue
		}
		if !haveHeader {
			continue
		}

		cells := splitCells(line)
		date, rest, dated := p.rowDate(cells[0].text, st.Closing)
		var (
			desc          []string
			debit, credit string
			amounts       int
		)
		if dated {
			if rest != "" {
				desc = append(desc, rest)
			}
			cells = cells[1:]
		}
		for _, c := range cells {
			if !isAmount(c.text) {
				desc = append(desc, c.text)
				continue
			}
			amounts++
			switch cols.assign(c) {
			case columnDebit:
				debit = formatAmount(c.text)
			case columnCredit:
				credit = formatAmount(c.text)
			}
		}
		description := strings.Join(strings.Fields(strings.Join(desc, " ")), " ")

		switch {
		case summaryLine.MatchString(description):
			current = -1
		case dated:
			lastDate = date
			current = st.add(date, description, debit, credit)
		case amounts > 0 && current >= 0 && st.Rows[current].Debit == "" && st.Rows[current].Credit == "":
			r := &st.Rows[current]
			r.Debit, r.Credit = debit, credit
			r.Description = joinText(r.Description, description)
		case amounts > 0 && !lastDate.IsZero():
			current = st.add(lastDate, description, debit, credit)
		case amounts == 0 && current >= 0:
			r := &st.Rows[current]
			r.Description = joinText(r.Description, description)
		default:
			st.Skipped++
		}
	}

	if !haveHeader {
		return nil, fmt.Errorf("%w: no transaction table header", ErrNoTransactions)
	}
	st.dropEmpty()
	if len(st.Rows) == 0 {
		return nil, ErrNoTransactions
	}
	return st, nil
}

func (s *Statement) add(date time.Time, description, debit, credit string) int {
	s.Rows = append(s.Rows, Row{
		Date:        dateutils.ToISODate(date),
		Description: description,
		Debit:       debit,
		Credit:      credit,
	})
	s.dates = append(s.dates, date)
	return len(s.Rows) - 1
}

// dropEmpty removes rows that never received an amount.
func (s *Statement) dropEmpty() {
	rows, dates := s.Rows[:0], s.dates[:0]
	for i, r := range s.Rows {
		if r.Debit == "" && r.Credit == "" {
			s.Skipped++
			continue
		}
		rows = append(rows, r)
		dates = append(dates, s.dates[i])
	}
	s.Rows, s.dates = rows, dates
}

// rowDate reads the date opening a row. rest is the text after the date in
// the same column. A date-like token that does not parse is not a date.
func (p *Parser) rowDate(first string, closing time.Time) (time.Time, string, bool) {
	m := leadingDate.FindStringSubmatch(first)
	if m == nil {
		return time.Time{}, "", false
	}
	token, rest := m[1], strings.TrimSpace(m[2])
	if t, _, err := p.dates.Parse(token); err == nil {
		return t, rest, true
	}
	if t, ok := yearless(token, closing); ok {
		return t, rest, true
	}
	return time.Time{}, "", false
}

// yearless reads "Jan 2" with the closing date's year, stepping back a year
// when that would fall after the closing date.
func yearless(token string, closing time.Time) (time.Time, bool) {
	if closing.IsZero() {
		return time.Time{}, false
	}
	fields := strings.Fields(token)
	if len(fields) != 2 || len(fields[0]) < 3 {
		return time.Time{}, false
	}
	t, ok := monthDay(fields[0], fields[1], closing.Year())
	if !ok {
		return time.Time{}, false
	}
	if t.After(closing) {
		t = t.AddDate(-1, 0, 0)
	}
	return t, true
}

// monthDay builds a date from a month name of at least three letters.
func monthDay(month, day string, year int) (time.Time, bool) {
	name := strings.ToLower(month[:3])
	t, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s%s %s %d", strings.ToUpper(name[:1]), name[1:], day, year))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// closingDate is the latest full "Mon D, YYYY" date in the text.
func closingDate(text string) time.Time {
	var latest time.Time
	for _, m := range monthDayYear.FindAllStringSubmatch(text, -1) {
		var year int
		if _, err := fmt.Sscanf(m[3], "%d", &year); err != nil {
			continue
		}
		if t, ok := monthDay(m[1], m[2], year); ok && t.After(latest) {
			latest = t
		}
	}
	return latest
}

func formatAmount(raw string) string {
	s := strings.NewReplacer("$", "", ",", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))
	s = strings.TrimSuffix(strings.TrimPrefix(s, "-"), "-")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ""
	}
	return d.Abs().StringFixed(2)
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
