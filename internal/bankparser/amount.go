package bankparser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "", "CAD", "", "USD", "")

// parseAmount reads an exported money value. Blank text is zero with blank
// set. Parentheses and a trailing minus mark negatives.
func parseAmount(raw string) (value decimal.Decimal, blank bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, true, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	s = amountReplacer.Replace(s)
	if s == "" {
		return decimal.Zero, false, fmt.Errorf("no digits in amount %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, false, nil
}

// numericOrBlank reports whether raw is empty or a parseable amount.
func numericOrBlank(raw string) bool {
	_, _, err := parseAmount(raw)
	return err == nil
}

func isBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

func isNegative(raw string) bool {
	d, _, err := parseAmount(raw)
	return err == nil && d.IsNegative()
}
