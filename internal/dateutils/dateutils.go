// Package dateutils parses the dates found in bank exports and the period
// labels used as month folder names.
package dateutils

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Date layouts used by the institutions we ingest.
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutUS        = "01/02/2006"
	DateLayoutUSShort   = "1/2/2006"
	DateLayoutSlashISO  = "2006/01/02"
	DateLayoutWithMonth = "02-Jan-2006"
	DateLayoutLong      = "January 2, 2006"
	DateLayoutMedium    = "Jan 2, 2006"
)

// PeriodLayout is the month folder naming convention, e.g. "DECEMBER 2025".
const PeriodLayout = "January 2006"

// CommonFormats is the default priority order. A US-style slash date is
// tried before any day-first reading because the supported exports are
// North American.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutUS,
	DateLayoutUSShort,
	DateLayoutSlashISO,
	DateLayoutWithMonth,
	DateLayoutMedium,
	DateLayoutLong,
}

var whitespace = regexp.MustCompile(`\s+`)

// Parser tries a fixed, prioritized list of layouts.
type Parser struct {
	formats []string
}

// NewParser returns a Parser over formats, or CommonFormats when formats is empty.
func NewParser(formats []string) *Parser {
	if len(formats) == 0 {
		formats = CommonFormats
	}
	f := make([]string, len(formats))
	copy(f, formats)
	return &Parser{formats: f}
}

// Parse returns the date and the first layout that accepted it.
func (p *Parser) Parse(raw string) (time.Time, string, error) {
	s := CleanDateString(raw)
	if s == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}
	for _, layout := range p.formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", s)
}

// ParseDate parses with CommonFormats.
func ParseDate(raw string) (time.Time, string, error) {
	return NewParser(nil).Parse(raw)
}

// CleanDateString strips a byte-order mark, surrounding quotes and redundant whitespace.
func CleanDateString(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ToISODate formats t as YYYY-MM-DD.
func ToISODate(t time.Time) string {
	return t.Format(DateLayoutISO)
}

// ParsePeriod reads a month folder label such as "DECEMBER 2025" or "Dec 2025".
// Month names match case-insensitively.
func ParsePeriod(label string) (time.Time, bool) {
	s := whitespace.ReplaceAllString(strings.TrimSpace(label), " ")
	for _, layout := range []string{PeriodLayout, "Jan 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PeriodLabel renders t the way month folders are named.
func PeriodLabel(t time.Time) string {
	return strings.ToUpper(t.Format(PeriodLayout))
}

// RecentPeriods picks up to n labels from candidates, most recent first.
// When current parses as a period only earlier periods qualify; otherwise
// every parseable label other than current does. Unparseable labels are ignored.
func RecentPeriods(candidates []string, current string, n int) []string {
	if n <= 0 {
		return nil
	}
	type dated struct {
		label string
		at    time.Time
	}
	cur, curOK := ParsePeriod(current)

	var picked []dated
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(current)) {
			continue
		}
		at, ok := ParsePeriod(c)
		if !ok {
			continue
		}
		if curOK && !at.Before(cur) {
			continue
		}
		picked = append(picked, dated{label: c, at: at})
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].at.Equal(picked[j].at) {
			return picked[i].label < picked[j].label
		}
		return picked[i].at.After(picked[j].at)
	})

	if len(picked) > n {
		picked = picked[:n]
	}
	out := make([]string, len(picked))
	for i, d := range picked {
		out[i] = d.label
	}
	return out
}
