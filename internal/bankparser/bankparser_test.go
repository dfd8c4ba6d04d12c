package bankparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(Options{}, logging.NewMockLogger())
}

func TestParse_MixedLayoutsInOneFile(t *testing.T) {
	content := strings.Join([]string{
		"Date,Description,Debit,Credit,Card",
		"2025-01-05,STARBUCKS #123,4.50,,4500********1234",
		"2025-01-06,PAYROLL ACME,,2000.00",
		`2025-01-07,"SMITH, JOHN",25.00,`,
		"2025-01-08,UNQUOTED, COMMA CORP,10.00,,4500********1234",
		"2025-01-09,  SPACED    OUT  ,1.00,",
	}, "\n")

	res, err := newTestParser().Parse(strings.NewReader(content), "cibc.csv")
	require.NoError(t, err)

	require.Len(t, res.Transactions, 5)
	assert.Equal(t, 1, res.Stats.HeaderRows)
	assert.Equal(t, 0, res.Stats.Skipped())
	assert.Equal(t, map[string]int{LayoutCard: 2, LayoutDeposit: 3}, res.Stats.LayoutCount)

	first := res.Transactions[0]
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "STARBUCKS #123", first.Description)
	assert.True(t, decimal.RequireFromString("-4.50").Equal(first.Amount))
	assert.Equal(t, "4500********1234", first.Account)
	assert.Equal(t, "cibc.csv", first.Source)
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, models.CategoryUncategorized, first.Category)
	assert.Equal(t, models.StageNone, first.Stage)

	assert.True(t, res.Transactions[1].Amount.IsPositive())
	assert.Equal(t, "SMITH, JOHN", res.Transactions[2].Description)
	assert.Equal(t, "UNQUOTED, COMMA CORP", res.Transactions[3].Description)
	assert.Equal(t, "SPACED OUT", res.Transactions[4].Description)
}

func TestParse_SkipsAndCountsBadRows(t *testing.T) {
	content := strings.Join([]string{
		"2025-13-45,BAD DATE,4.50,",
		"yesterday,BAD DATE TOO,4.50,",
		"2025-01-05,ZERO,0.00,0.00",
		"2025-01-05,ONLY",
		"2025-01-05,STARBUCKS,4.50,",
	}, "\n")

	res, err := newTestParser().Parse(strings.NewReader(content), "cibc.csv")
	require.NoError(t, err)

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, 2, res.Stats.BadDate)
	assert.Equal(t, 1, res.Stats.ZeroAmount)
	assert.Equal(t, 1, res.Stats.Malformed)
	assert.Equal(t, 4, res.Stats.Skipped())
	assert.Equal(t, 5, res.Stats.Rows)
}

func TestParse_SignedRow(t *testing.T) {
	res, err := newTestParser().Parse(strings.NewReader("2025-01-05, STARBUCKS #123, -4.50\n"), "a.csv")
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	tx := res.Transactions[0]
	assert.Equal(t, "STARBUCKS #123", tx.Description)
	assert.True(t, decimal.RequireFromString("-4.50").Equal(tx.Amount))
	assert.Equal(t, LayoutSigned, tx.Layout)
}

func TestParse_CustomDelimiterAndDates(t *testing.T) {
	p := NewParser(Options{Delimiter: ';', DateFormats: []string{"02/01/2006"}}, logging.NewMockLogger())
	res, err := p.Parse(strings.NewReader("05/02/2025;MIGROS;12.30;\n"), "bank.csv")
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, time.February, res.Transactions[0].Date.Month())
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("windows-1252 export", func(t *testing.T) {
		path := filepath.Join(dir, "cibc-latin.csv")
		// 0xC9 is É in windows-1252.
		require.NoError(t, os.WriteFile(path, []byte("2025-01-05,CAF\xc9 DEPOT,3.25,\n"), 0600))

		p := NewParser(Options{Encoding: "windows-1252"}, logging.NewMockLogger())
		res, err := p.ParseFile(path)
		require.NoError(t, err)
		require.Len(t, res.Transactions, 1)
		assert.Equal(t, "CAF\u00c9 DEPOT", res.Transactions[0].Description)
		assert.Equal(t, "cibc-latin.csv", res.Source)
	})

	t.Run("missing file is an input error", func(t *testing.T) {
		_, err := newTestParser().ParseFile(filepath.Join(dir, "absent.csv"))
		require.Error(t, err)
		assert.Equal(t, mergeerror.CodeInput, mergeerror.CodeOf(err))
	})

	t.Run("unknown encoding is an input error", func(t *testing.T) {
		path := filepath.Join(dir, "cibc.csv")
		require.NoError(t, os.WriteFile(path, []byte("2025-01-05,X,1.00,\n"), 0600))
		p := NewParser(Options{Encoding: "klingon-8"}, logging.NewMockLogger())
		_, err := p.ParseFile(path)
		require.Error(t, err)
		assert.Equal(t, mergeerror.CodeInput, mergeerror.CodeOf(err))
	})
}
