package merger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/txmerge/internal/config"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const period = "JANUARY 2025"

type fixture struct {
	cfg    *config.Config
	root   string
	dir    string
	logger *logging.MockLogger
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Accounts.Dir = root
	dir := filepath.Join(root, period)
	require.NoError(t, os.MkdirAll(dir, 0750))
	return &fixture{cfg: cfg, root: root, dir: dir, logger: logging.NewMockLogger(), clock: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) engine() *Engine {
	now := func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return NewEngine(f.cfg, store.NewCategoryStore(f.cfg, f.logger), f.logger, WithClock(now))
}

func (f *fixture) run(t *testing.T) *Result {
	t.Helper()
	res, err := f.engine().Run(context.Background(), period)
	require.NoError(t, err)
	return res
}

func TestRun_CrossFileDuplicate(t *testing.T) {
	f := newFixture(t)
	f.write(t, period+"/cibc_a.csv", "2025-01-05,STARBUCKS #123,-4.50\n")
	f.write(t, period+"/cibc_b.csv", "2025-01-05,STARBUCKS #123,-4.50\n")

	res := f.run(t)

	assert.Equal(t, 1, res.Summary.TransactionCount)
	assert.Equal(t, 1, res.Summary.DuplicateCount)
	assert.Equal(t, 2, res.Summary.FilesProcessed)
	assert.Equal(t, []string{"cibc_a.csv", "cibc_b.csv"}, res.Summary.SourceFiles)
	assert.Equal(t, "Date,Description,Amount,Category\n2025-01-05,STARBUCKS #123,-4.50,Food & Drink\n", f.read(t, "merged.csv"))
	assert.Equal(t, "Merged 1 transactions from 2 file(s). Duplicates skipped: 1. Ignored: 0.", res.Message())
	assert.True(t, f.logger.HasEntry("INFO", "Categorized 0 rows via Mapping, 1 via Regex, and 0 via ML."))
}

func TestRun_MappingOutranksRule(t *testing.T) {
	f := newFixture(t)
	f.write(t, "custom_mapping.json", `{"STARBUCKS": "Dining"}`)
	f.write(t, "category_rules.json", `{"rules": [{"pattern": "starbucks", "category": "Food & Drink"}], "categories": ["Food & Drink"]}`)
	f.write(t, period+"/cibc_card.csv", "2025-01-05,STARBUCKS #123,4.50,,4500********1234\n")

	res := f.run(t)

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "Dining", res.Transactions[0].Category)
	assert.Equal(t, models.StageMapping, res.Transactions[0].Stage)
	assert.Equal(t, 1, res.Summary.CategorizedViaMapping)
	assert.Contains(t, f.read(t, period+"_combined.csv"), "STARBUCKS #123,4.50,,-4.50,4500********1234,cibc_card.csv,Dining,mapping")
}

func TestRun_UntrainedClassifierLeavesUncategorized(t *testing.T) {
	f := newFixture(t)
	f.write(t, period+"/cibc_chq.csv", "2025-01-09,MYSTERY MERCHANT,12.00,\n")

	res := f.run(t)

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, models.CategoryUncategorized, res.Transactions[0].Category)
	assert.Equal(t, models.StageNone, res.Transactions[0].Stage)
	assert.Equal(t, 1, res.Summary.Uncategorized)
	assert.Equal(t, models.MLStatusInsufficientData, res.Summary.ML.Status)
	assert.Equal(t, "-12.00", res.Summary.NetTotal.String())
	assert.Equal(t, "12.00", res.Summary.TotalDebits.String())
}

func TestRun_IgnoreList(t *testing.T) {
	f := newFixture(t)
	f.write(t, "ignore_list.json", `["INTERNAL TRANSFER"]`)
	f.write(t, period+"/cibc_chq.csv", strings.Join([]string{
		"Date,Description,Debit,Credit",
		"2025-01-03,INTERNAL TRANSFER TO SAVINGS,500.00,",
		"2025-01-04,COSTCO WHOLESALE,80.00,",
	}, "\n")+"\n")

	res := f.run(t)

	assert.Equal(t, 1, res.Summary.IgnoredCount)
	assert.Equal(t, 1, res.Summary.TransactionCount)
	assert.Equal(t, 1, res.Summary.HeaderRows)
	assert.Equal(t, 1, res.Stages.Total(), "ignored rows are not categorized")
	assert.NotContains(t, f.read(t, "merged.csv"), "INTERNAL TRANSFER")
}

func TestRun_RowProblemsAreCounted(t *testing.T) {
	f := newFixture(t)
	f.write(t, period+"/cibc_chq.csv", strings.Join([]string{
		"2025-01-03,GOOD ROW,10.00,",
		"not-a-date,BAD DATE,10.00,",
		"2025-01-04,ZERO,0.00,0.00",
		"2025-01-05",
	}, "\n")+"\n")

	res := f.run(t)

	assert.Equal(t, 1, res.Summary.TransactionCount)
	assert.Equal(t, 1, res.Summary.SkippedBadDate)
	assert.Equal(t, 1, res.Summary.SkippedZeroAmount)
	assert.Equal(t, 1, res.Summary.SkippedMalformed)
	assert.Equal(t, 3, res.Summary.SkippedRows)
}

func TestRun_RepeatRunsAreIdentical(t *testing.T) {
	f := newFixture(t)
	f.write(t, period+"/cibc_chq.csv", "2025-01-03,PAYROLL ACME,,2000.00\n2025-01-04,UBER TRIP,15.25,\n")

	f.run(t)
	merged1, combined1, audit1 := f.read(t, "merged.csv"), f.read(t, period+"_combined.csv"), f.read(t, "audit.json")
	f.run(t)
	merged2, combined2, audit2 := f.read(t, "merged.csv"), f.read(t, period+"_combined.csv"), f.read(t, "audit.json")

	assert.Equal(t, merged1, merged2)
	assert.Equal(t, combined1, combined2)
	assert.NotEqual(t, audit1, audit2, "generated_at moves")
	assert.Equal(t, withoutTimestamp(t, audit1), withoutTimestamp(t, audit2))
}

func withoutTimestamp(t *testing.T, audit string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(audit), &doc))
	require.Contains(t, doc, "generated_at")
	delete(doc, "generated_at")
	return doc
}

// writeHistory fills the month before period with a labelled merged table.
func writeHistory(t *testing.T, f *fixture) {
	t.Helper()
	rows := []string{"Date,Description,Amount,Category"}
	labelled := map[string][]string{
		models.CategoryFoodDrink: {"BLUE DOOR BAKERY", "BLUE DOOR BAKERY 2", "CORNER CAFE KING ST", "CORNER CAFE QUEEN ST"},
		models.CategoryTravel:    {"VIA RAIL 0012", "VIA RAIL 0044", "GREYHOUND TKT 1", "GREYHOUND TKT 2"},
		models.CategoryShopping:  {"NO FRILLS 331", "NO FRILLS 874", "FRESHCO 12", "FRESHCO 77"},
	}
	for _, category := range []string{models.CategoryFoodDrink, models.CategoryShopping, models.CategoryTravel} {
		for i, desc := range labelled[category] {
			rows = append(rows, fmt.Sprintf("2024-12-%02d,%s,-1.00,%s", i+1, desc, category))
		}
	}
	rows = append(rows, "2024-12-20,UNLABELLED,-1.00,Uncategorized")
	f.write(t, "DECEMBER 2024/merged.csv", strings.Join(rows, "\n")+"\n")
}

func TestRun_ClassifierCacheFidelity(t *testing.T) {
	f := newFixture(t)
	writeHistory(t, f)
	f.write(t, period+"/cibc_chq.csv", "2025-01-06,VIA RAIL 0099,55.00,\n2025-01-07,SOMETHING ELSE,3.00,\n")

	first := f.run(t)
	assert.Equal(t, models.MLStatusTrained, first.MLStatus)
	assert.True(t, first.Retrained)
	assert.Equal(t, models.MLStatusReady, first.Summary.ML.Status)
	assert.Equal(t, 12, first.Summary.ML.TrainingSamples)
	assert.Equal(t, 3, first.Summary.ML.Classes)
	assert.Equal(t, 0.70, first.Summary.ML.Threshold)
	assert.NotEmpty(t, first.Summary.ML.TrainedAt)

	second := f.run(t)
	assert.Equal(t, models.MLStatusCached, second.MLStatus)
	assert.False(t, second.Retrained)
	assert.Equal(t, first.Summary.ML, second.Summary.ML, "the cached model carries its training time")
	assert.True(t, f.logger.HasEntry("INFO", "Categorized 0 rows via Mapping, 0 via Regex, and 1 via ML."))

	f.write(t, "custom_mapping.json", `{"LOCAL GYM": "Health"}`)
	third := f.run(t)
	assert.Equal(t, models.MLStatusTrained, third.MLStatus)
	assert.True(t, third.Retrained)
	assert.NotEqual(t, first.Summary.ML.Fingerprint, third.Summary.ML.Fingerprint)
	assert.NotEqual(t, first.Summary.ML.TrainedAt, third.Summary.ML.TrainedAt)

	cached, err := filepath.Glob(filepath.Join(f.root, ".ml_cache", "classifier-*.gob"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(f.root, ".ml_cache", "classifier-"+third.Summary.ML.Fingerprint+".gob")}, cached)
}

func TestRun_ClassifierConfidenceGate(t *testing.T) {
	f := newFixture(t)
	writeHistory(t, f)
	f.write(t, period+"/cibc_chq.csv", strings.Join([]string{
		"2025-01-06,VIA RAIL 0099,55.00,",
		"2025-01-07,CANADA REVENUE AGENCY,300.00,",
		"2025-01-08,SOMETHING ELSE,3.00,",
	}, "\n")+"\n")

	res := f.run(t)
	require.Len(t, res.Transactions, 3)
	byDesc := map[string]models.Transaction{}
	for _, tx := range res.Transactions {
		byDesc[tx.Description] = tx
	}

	rail := byDesc["VIA RAIL 0099"]
	assert.Equal(t, models.CategoryTravel, rail.Category)
	assert.Equal(t, models.StageML, rail.Stage)

	for _, desc := range []string{"CANADA REVENUE AGENCY", "SOMETHING ELSE"} {
		tx := byDesc[desc]
		assert.Equal(t, models.CategoryUncategorized, tx.Category, desc)
		assert.Equal(t, models.StageNone, tx.Stage, desc)
	}
	assert.Equal(t, 1, res.Summary.CategorizedViaML)
	assert.Equal(t, 2, res.Summary.Uncategorized)
}

func TestRun_RepeatRunsWithTrainedClassifierAreIdentical(t *testing.T) {
	f := newFixture(t)
	writeHistory(t, f)
	f.write(t, period+"/cibc_chq.csv", "2025-01-06,VIA RAIL 0099,55.00,\n2025-01-07,UBER TRIP,15.25,\n")

	first := f.run(t)
	require.True(t, first.Retrained)
	merged1, combined1, audit1 := f.read(t, "merged.csv"), f.read(t, period+"_combined.csv"), f.read(t, "audit.json")

	second := f.run(t)
	require.False(t, second.Retrained)
	merged2, combined2, audit2 := f.read(t, "merged.csv"), f.read(t, period+"_combined.csv"), f.read(t, "audit.json")

	assert.Equal(t, merged1, merged2)
	assert.Equal(t, combined1, combined2)
	assert.Equal(t, withoutTimestamp(t, audit1), withoutTimestamp(t, audit2))
	assert.Contains(t, audit1, `"trained_at"`)
	assert.NotContains(t, audit1, `"retrained"`)
}

func TestRun_CorruptCacheIsNotFatal(t *testing.T) {
	f := newFixture(t)
	writeHistory(t, f)
	f.write(t, period+"/cibc_chq.csv", "2025-01-06,VIA RAIL 0099,55.00,\n")
	first := f.run(t)

	f.write(t, ".ml_cache/classifier-"+first.Summary.ML.Fingerprint+".gob", "garbage")
	second := f.run(t)

	assert.Equal(t, models.MLStatusTrained, second.MLStatus)
	assert.True(t, second.Retrained)
	assert.Equal(t, models.MLStatusReady, second.Summary.ML.Status)
	assert.True(t, f.logger.HasEntry("WARN", "Discarding unusable classifier cache"))
}

func TestRun_MLDisabled(t *testing.T) {
	f := newFixture(t)
	writeHistory(t, f)
	f.cfg.Categorization.MLEnabled = false
	f.write(t, period+"/cibc_chq.csv", "2025-01-06,VIA RAIL 0099,55.00,\n")

	res := f.run(t)
	assert.Equal(t, models.MLStatusDisabled, res.Summary.ML.Status)
	assert.Equal(t, models.StageNone, res.Transactions[0].Stage)
	assert.NoDirExists(t, filepath.Join(f.root, ".ml_cache"))
}

func TestRun_InputErrors(t *testing.T) {
	t.Run("missing period folder", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine().Run(context.Background(), "FEBRUARY 2025")
		assert.Equal(t, mergeerror.CodeInput, mergeerror.CodeOf(err))
		assert.Equal(t, 2, mergeerror.ExitCode(err))
	})

	t.Run("no matching files", func(t *testing.T) {
		f := newFixture(t)
		f.write(t, period+"/notes.txt", "hello")
		f.write(t, period+"/merged.csv", "Date,Description,Amount,Category\n")
		_, err := f.engine().Run(context.Background(), period)
		assert.ErrorIs(t, err, mergeerror.ErrNoInputFiles)
		assert.Equal(t, mergeerror.CodeInput, mergeerror.CodeOf(err))
	})
}

func TestRun_ConfigErrorWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.write(t, "custom_mapping.json", `{"STARBUCKS": `)
	f.write(t, period+"/cibc_a.csv", "2025-01-05,STARBUCKS #123,-4.50\n")

	_, err := f.engine().Run(context.Background(), period)

	assert.Equal(t, mergeerror.CodeConfig, mergeerror.CodeOf(err))
	assert.Contains(t, err.Error(), "custom_mapping.json")
	assert.NoFileExists(t, filepath.Join(f.dir, "merged.csv"))
	assert.NoFileExists(t, filepath.Join(f.dir, "audit.json"))
}

func TestRun_RuleCategoryOutsideVocabulary(t *testing.T) {
	f := newFixture(t)
	f.write(t, "category_rules.json", `{"rules": [{"pattern": "vet", "category": "Pets"}], "categories": ["Travel"]}`)
	f.write(t, period+"/cibc_a.csv", "2025-01-05,CITY VET,-40.00\n")

	_, err := f.engine().Run(context.Background(), period)
	assert.Equal(t, mergeerror.CodeConfig, mergeerror.CodeOf(err))
	assert.Contains(t, err.Error(), "Pets")
}

func TestRun_CategoriesOnlyRulesDocument(t *testing.T) {
	f := newFixture(t)
	f.write(t, "category_rules.json", `{"categories": ["Food & Drink"]}`)
	f.write(t, period+"/cibc_a.csv", "2025-01-05,STARBUCKS #123,-4.50\n2025-01-06,UBER TRIP,-12.00\n")

	res, err := f.engine().Run(context.Background(), period)
	require.NoError(t, err)

	require.Len(t, res.Transactions, 2)
	byDesc := map[string]models.Transaction{}
	for _, tx := range res.Transactions {
		byDesc[tx.Description] = tx
	}
	assert.Equal(t, models.CategoryFoodDrink, byDesc["STARBUCKS #123"].Category)
	assert.Equal(t, models.StageRule, byDesc["STARBUCKS #123"].Stage)
	assert.Equal(t, models.CategoryUncategorized, byDesc["UBER TRIP"].Category, "travel rules fall outside the declared categories")
}

func TestRun_WithMockStore(t *testing.T) {
	f := newFixture(t)
	f.write(t, period+"/cibc_a.csv", "2025-01-05,AMZN MKTP CA*2K3,-25.00\n")

	m := new(store.MockCategoryStore)
	m.On("LoadMappings").Return(map[string]string{"AMAZON": "Online Shopping"}, nil)
	m.On("LoadIgnoreList").Return([]string{}, nil)
	m.On("LoadRules").Return(&models.RulesDocument{Rules: models.DefaultRules(), Categories: models.DefaultCategories()}, nil)
	m.On("LoadVendorAliases").Return(map[string]string{"AMZN MKTP": "AMAZON"}, nil)

	res, err := NewEngine(f.cfg, m, f.logger).Run(context.Background(), period)
	require.NoError(t, err)

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "AMAZON", res.Transactions[0].Description)
	assert.Equal(t, "Online Shopping", res.Transactions[0].Category)
	m.AssertExpectations(t)

	m2 := new(store.MockCategoryStore)
	m2.On("LoadMappings").Return(nil, &mergeerror.ConfigError{Document: "custom_mapping.json", Reason: "broken"})
	_, err = NewEngine(f.cfg, m2, f.logger).Run(context.Background(), period)
	var cfgErr *mergeerror.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestTrain(t *testing.T) {
	f := newFixture(t)
	writeHistory(t, f)

	out, err := f.engine().Train(context.Background(), period)
	require.NoError(t, err)
	assert.Equal(t, models.MLStatusTrained, out.Status)

	out, err = f.engine().Train(context.Background(), period)
	require.NoError(t, err)
	assert.Equal(t, models.MLStatusCached, out.Status)
	assert.NoFileExists(t, filepath.Join(f.dir, "merged.csv"))
}
