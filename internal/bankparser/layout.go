package bankparser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Layout names.
const (
	LayoutDeposit = "deposit"
	LayoutCard    = "card"
	LayoutSigned  = "signed"
)

// Layout is one of the closed set of row shapes found in exports. Every
// layout keeps the date in the first column and the description in the
// columns between the date and its trailing value columns.
type Layout interface {
	Name() string
	Extract(fields []string) (rowValues, error)
}

// rowValues is what a layout pulls out of a row before date parsing.
type rowValues struct {
	Date        string
	Description string
	Amount      decimal.Decimal
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Account     string
}

// joinDescription re-joins description columns that were split on embedded delimiters.
func joinDescription(fields []string, delimiter rune) string {
	return strings.Join(fields, string(delimiter))
}

// depositLayout is date, description..., debit, credit.
type depositLayout struct{ delimiter rune }

func (depositLayout) Name() string { return LayoutDeposit }

func (l depositLayout) Extract(fields []string) (rowValues, error) {
	n := len(fields)
	if n < 4 {
		return rowValues{}, fmt.Errorf("deposit layout needs 4 columns, got %d", n)
	}
	return debitCreditValues(fields[0], joinDescription(fields[1:n-2], l.delimiter), fields[n-2], fields[n-1], "")
}

// cardLayout is date, description..., debit, credit, masked account.
type cardLayout struct{ delimiter rune }

func (cardLayout) Name() string { return LayoutCard }

func (l cardLayout) Extract(fields []string) (rowValues, error) {
	n := len(fields)
	if n < 5 {
		return rowValues{}, fmt.Errorf("card layout needs 5 columns, got %d", n)
	}
	return debitCreditValues(fields[0], joinDescription(fields[1:n-3], l.delimiter), fields[n-3], fields[n-2], strings.TrimSpace(fields[n-1]))
}

// signedLayout is date, description..., signed amount.
type signedLayout struct{ delimiter rune }

func (signedLayout) Name() string { return LayoutSigned }

func (l signedLayout) Extract(fields []string) (rowValues, error) {
	n := len(fields)
	if n < 3 {
		return rowValues{}, fmt.Errorf("signed layout needs 3 columns, got %d", n)
	}
	amount, _, err := parseAmount(fields[n-1])
	if err != nil {
		return rowValues{}, err
	}
	v := rowValues{
		Date:        fields[0],
		Description: joinDescription(fields[1:n-1], l.delimiter),
		Amount:      amount,
	}
	if amount.IsNegative() {
		v.Debit = amount.Neg()
	} else {
		v.Credit = amount
	}
	return v, nil
}

// debitCreditValues applies the sign convention: a non-zero credit is
// income, otherwise a non-zero debit is an expense.
func debitCreditValues(date, description, debitRaw, creditRaw, account string) (rowValues, error) {
	debit, _, err := parseAmount(debitRaw)
	if err != nil {
		return rowValues{}, fmt.Errorf("debit: %w", err)
	}
	credit, _, err := parseAmount(creditRaw)
	if err != nil {
		return rowValues{}, fmt.Errorf("credit: %w", err)
	}
	debit, credit = debit.Abs(), credit.Abs()

	amount := decimal.Zero
	switch {
	case !credit.IsZero():
		amount = credit
	case !debit.IsZero():
		amount = debit.Neg()
	}
	return rowValues{
		Date:        date,
		Description: description,
		Amount:      amount,
		Debit:       debit,
		Credit:      credit,
		Account:     account,
	}, nil
}

// Layouts is the discriminator over the closed layout set.
type Layouts struct {
	deposit Layout
	card    Layout
	signed  Layout
}

// NewLayouts builds the layout set for exports split on delimiter.
func NewLayouts(delimiter rune) *Layouts {
	return &Layouts{
		deposit: depositLayout{delimiter: delimiter},
		card:    cardLayout{delimiter: delimiter},
		signed:  signedLayout{delimiter: delimiter},
	}
}

// Detect picks the layout of one row from the shape of its trailing columns:
//   - trailing text that is not a number (masking characters, letters) is a card number;
//   - two trailing unsigned amounts, at least one present, are debit and credit;
//   - two blank amounts followed by a blank trailing column are a card row without account;
//   - a single trailing amount carries its own sign.
func (l *Layouts) Detect(fields []string) (Layout, bool) {
	n := len(fields)
	if n < 3 {
		return nil, false
	}
	last := fields[n-1]

	if !isBlank(last) && !numericOrBlank(last) {
		if n >= 5 {
			return l.card, true
		}
		return nil, false
	}

	if n >= 4 {
		debit, credit := fields[n-2], fields[n-1]
		if numericOrBlank(debit) && numericOrBlank(credit) &&
			!(isBlank(debit) && isBlank(credit)) &&
			!isNegative(debit) && !isNegative(credit) {
			return l.deposit, true
		}
	}

	if n >= 5 && isBlank(last) && numericOrBlank(fields[n-3]) && numericOrBlank(fields[n-2]) {
		return l.card, true
	}

	if !isBlank(last) {
		return l.signed, true
	}
	return nil, false
}
