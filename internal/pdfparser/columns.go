package pdfparser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// cellPattern finds runs of words separated by single spaces. pdftotext
// -layout separates table columns with two or more spaces.
var cellPattern = regexp.MustCompile(`\S+(?: \S+)*`)

// amountPattern accepts 1,234.56, $45.00, (12.00) and 12.00- style values.
var amountPattern = regexp.MustCompile(`^\(?-?\$?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2}\)?-?$`)

// cell is one column value with its rune offsets on the line.
type cell struct {
	text       string
	start, end int
}

func splitCells(line string) []cell {
	idx := cellPattern.FindAllStringIndex(line, -1)
	cells := make([]cell, 0, len(idx))
	for _, m := range idx {
		start := utf8.RuneCountInString(line[:m[0]])
		text := line[m[0]:m[1]]
		cells = append(cells, cell{text: text, start: start, end: start + utf8.RuneCountInString(text)})
	}
	return cells
}

func isAmount(s string) bool {
	return amountPattern.MatchString(strings.TrimSpace(s))
}

// Amount column kinds.
const (
	columnDebit = iota
	columnCredit
	columnBalance
)

// columns holds the right edge of each amount header. Amounts are right
// aligned under their header, so a value belongs to the nearest edge.
type columns struct {
	edges map[int]int
}

// detectHeader recognizes the transaction table header: a date column, a
// description column, and withdrawal and deposit columns.
func detectHeader(line string) (columns, bool) {
	var hasDate, hasDescription bool
	cols := columns{edges: map[int]int{}}
	for _, c := range splitCells(line) {
		t := strings.ToLower(c.text)
		switch {
		case strings.Contains(t, "withdrawal") || strings.Contains(t, "debit"):
			cols.edges[columnDebit] = c.end
		case strings.Contains(t, "deposit") || strings.Contains(t, "credit"):
			cols.edges[columnCredit] = c.end
		case strings.Contains(t, "balance"):
			cols.edges[columnBalance] = c.end
		}
		if strings.Contains(t, "date") {
			hasDate = true
		}
		if strings.Contains(t, "description") || strings.Contains(t, "details") || strings.Contains(t, "transaction") {
			hasDescription = true
		}
	}
	_, debit := cols.edges[columnDebit]
	_, credit := cols.edges[columnCredit]
	return cols, hasDate && hasDescription && debit && credit
}

// assign returns the amount column closest to c.
func (cols columns) assign(c cell) int {
	best, bestDist := columnBalance, -1
	for _, kind := range []int{columnDebit, columnCredit, columnBalance} {
		edge, ok := cols.edges[kind]
		if !ok {
			continue
		}
		dist := edge - c.end
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = kind, dist
		}
	}
	return best
}
