package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)

func sampleMappings() map[string]string {
	return map[string]string{
		"STARBUCKS #123":      models.CategoryFoodDrink,
		"STARBUCKS #456":      models.CategoryFoodDrink,
		"STARBUCKS STORE 12":  models.CategoryFoodDrink,
		"TIM HORTONS #22":     models.CategoryFoodDrink,
		"TIM HORTONS #87":     models.CategoryFoodDrink,
		"UBER TRIP HELP.UBER": models.CategoryTravel,
		"UBER TRIP TORONTO":   models.CategoryTravel,
		"LYFT RIDE MON":       models.CategoryTravel,
		"LYFT RIDE TUE":       models.CategoryTravel,
		"PRESTO FARE TTC":     models.CategoryTravel,
		"COSTCO WHOLESALE 55": models.CategoryShopping,
		"COSTCO WHOLESALE 91": models.CategoryShopping,
	}
}

func sampleSet() TrainingSet {
	return BuildTrainingSet(sampleMappings(), nil, models.NewVocabulary(models.DefaultCategories()))
}

func TestBuildTrainingSet(t *testing.T) {
	vocab := models.NewVocabulary([]string{"Dining", "Travel"})
	mappings := map[string]string{
		"STARBUCKS":   "Dining",
		"UBER":        "Travel",
		"MYSTERY":     models.CategoryUncategorized,
		"PET STORE":   "Pets",
		"  spaced  x": "Dining",
	}
	history := []Sample{
		{Description: "starbucks", Category: "Travel"},
		{Description: "AIR CANADA", Category: "Travel"},
		{Description: "AIR CANADA", Category: "Dining"},
		{Description: "UNKNOWN", Category: models.CategoryUncategorized},
		{Description: "", Category: "Dining"},
	}

	set := BuildTrainingSet(mappings, history, vocab)

	assert.Equal(t, []Sample{
		{Description: "AIR CANADA", Category: "Travel"},
		{Description: "STARBUCKS", Category: "Dining"},
		{Description: "UBER", Category: "Travel"},
		{Description: "spaced x", Category: "Dining"},
	}, set.Samples)
	assert.Equal(t, []string{"Dining", "Travel"}, set.Labels())
}

func TestFingerprint(t *testing.T) {
	a := BuildTrainingSet(map[string]string{"A": "x", "B": "y"}, nil, nil)
	b := BuildTrainingSet(map[string]string{"B": "y"}, []Sample{{Description: "A", Category: "x"}}, nil)
	c := BuildTrainingSet(map[string]string{"A": "x", "B": "z"}, nil, nil)

	assert.Len(t, Fingerprint(a), 16)
	assert.Equal(t, Fingerprint(a), Fingerprint(b), "same pairs from different sources")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
	assert.Equal(t, Fingerprint(TrainingSet{}), Fingerprint(TrainingSet{Samples: []Sample{}}))
}

func TestVectorizer(t *testing.T) {
	v := NewVectorizer()
	v.MaxFeatures = 4
	v.Fit([]string{"abc", "abcd", "ABX"})

	assert.Len(t, v.Vocabulary, 4)
	assert.Contains(t, v.Vocabulary, " ab", "most frequent n-gram is kept")
	assert.Equal(t, v.Vocabulary, func() []string {
		w := NewVectorizer()
		w.MaxFeatures = 4
		w.Fit([]string{"ABX", "abcd", "abc"})
		return w.Vocabulary
	}(), "fit does not depend on document order")
	assert.Empty(t, v.Tokens("zzz"))
	assert.Nil(t, ngrams("   ", 3, 5))
	assert.Equal(t, []string{" a "}, ngrams("a", 4, 5))
}

func TestTrainAndPredict(t *testing.T) {
	set := sampleSet()
	m, err := Train(set, Fingerprint(set), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{models.CategoryFoodDrink, models.CategoryShopping, models.CategoryTravel}, m.Labels)
	assert.Equal(t, 3, m.Classes())

	p, ok := m.Predict("STARBUCKS #789")
	require.True(t, ok)
	assert.Equal(t, models.CategoryFoodDrink, p.Category)
	assert.Greater(t, p.Confidence, 0.0)
	assert.LessOrEqual(t, p.Confidence, 1.0)

	p, ok = m.Predict("UBER TRIP OTTAWA")
	require.True(t, ok)
	assert.Equal(t, models.CategoryTravel, p.Category)

	_, ok = m.Predict("###")
	assert.False(t, ok, "no shared features")

	var nilModel *Model
	_, ok = nilModel.Predict("STARBUCKS")
	assert.False(t, ok)
}

func TestTrain_TooFewClasses(t *testing.T) {
	set := BuildTrainingSet(map[string]string{"A": "x", "B": "x"}, nil, nil)
	_, err := Train(set, Fingerprint(set), fixedNow)
	assert.ErrorIs(t, err, ErrTooFewClasses)
}

func TestSoftmax(t *testing.T) {
	p := softmax([]float64{-10, -10})
	assert.InDelta(t, 0.5, p[0], 1e-9)
	p = softmax([]float64{-1, -50})
	assert.Greater(t, p[0], 0.99)
	assert.InDelta(t, 1.0, p[0]+p[1], 1e-9)
}

func TestPredict_ConfidenceSeparatesKnownFromUnrelated(t *testing.T) {
	set := sampleSet()
	m, err := Train(set, Fingerprint(set), fixedNow)
	require.NoError(t, err)
	const threshold = 0.70

	tests := []struct {
		description string
		category    string
		accepted    bool
	}{
		{description: "TIM HORTONS #99", category: models.CategoryFoodDrink, accepted: true},
		{description: "COSTCO WHOLESALE 12", category: models.CategoryShopping, accepted: true},
		{description: "CANADA REVENUE AGENCY", accepted: false},
		{description: "MORTGAGE PAYMENT", accepted: false},
		{description: "RAILWAY MUSEUM GIFT", accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			p, ok := m.Predict(tt.description)
			require.True(t, ok, "shares at least one n-gram with the training data")
			if tt.accepted {
				assert.Equal(t, tt.category, p.Category)
				assert.Greater(t, p.Confidence, threshold)
			} else {
				assert.Less(t, p.Confidence, threshold)
				assert.Less(t, p.Confidence, 0.5, "unrelated text stays near the uniform share")
			}
		})
	}
}

func TestPredict_PartialOverlapIsNotCertain(t *testing.T) {
	set := sampleSet()
	m, err := Train(set, Fingerprint(set), fixedNow)
	require.NoError(t, err)

	full, ok := m.Predict("COSTCO WHOLESALE 55")
	require.True(t, ok)
	partial, ok := m.Predict("COSTCO PHARMACY DOWNTOWN")
	require.True(t, ok)

	assert.Equal(t, models.CategoryShopping, partial.Category)
	assert.Less(t, partial.Confidence, full.Confidence)
	assert.Less(t, partial.Confidence, 0.70, "one shared word is not enough to auto-label")
	assert.Greater(t, full.Confidence, 0.99)
}

func TestFileCache_RoundTripAndPrune(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(filepath.Join(dir, ".ml_cache"), logging.NewMockLogger())

	_, err := cache.Load("0123456789abcdef")
	assert.ErrorIs(t, err, ErrCacheMiss)

	set := sampleSet()
	m, err := Train(set, Fingerprint(set), fixedNow)
	require.NoError(t, err)
	require.NoError(t, cache.Store(m))

	loaded, err := cache.Load(m.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, m.Labels, loaded.Labels)
	assert.Equal(t, m.Samples, loaded.Samples)
	assert.True(t, m.TrainedAt.Equal(loaded.TrainedAt))
	for _, desc := range []string{"STARBUCKS #789", "LYFT RIDE WED", "COSTCO WHOLESALE 12"} {
		want, wantOK := m.Predict(desc)
		got, gotOK := loaded.Predict(desc)
		assert.Equal(t, wantOK, gotOK, desc)
		assert.Equal(t, want.Category, got.Category, desc)
		assert.InDelta(t, want.Confidence, got.Confidence, 1e-9, desc)
	}

	other := BuildTrainingSet(map[string]string{"A": "x", "B": "y"}, nil, nil)
	m2, err := Train(other, Fingerprint(other), fixedNow)
	require.NoError(t, err)
	require.NoError(t, cache.Store(m2))

	assert.NoFileExists(t, cache.Path(m.Fingerprint), "stale model pruned")
	assert.FileExists(t, cache.Path(m2.Fingerprint))
}

func TestFileCache_CorruptAndMismatched(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir, logging.NewMockLogger())

	require.NoError(t, os.WriteFile(cache.Path("aaaaaaaaaaaaaaaa"), []byte("not a gob"), 0600))
	_, err := cache.Load("aaaaaaaaaaaaaaaa")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))

	set := sampleSet()
	m, err := Train(set, Fingerprint(set), fixedNow)
	require.NoError(t, err)
	require.NoError(t, cache.Store(m))
	require.NoError(t, os.Rename(cache.Path(m.Fingerprint), cache.Path("bbbbbbbbbbbbbbbb")))
	_, err = cache.Load("bbbbbbbbbbbbbbbb")
	assert.ErrorContains(t, err, "holds fingerprint")
}

func TestTrainer_Fit(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewMockLogger()
	cache := NewFileCache(dir, logger)
	ctx := context.Background()

	trainer := NewTrainer(cache, DefaultMinSamples, logger)
	trainer.SetClock(func() time.Time { return fixedNow })

	first := trainer.Fit(ctx, sampleSet())
	require.NoError(t, first.Err)
	assert.Equal(t, models.MLStatusTrained, first.Status)
	assert.True(t, first.Retrained)
	assert.Equal(t, 12, first.Samples)
	assert.Equal(t, 3, first.Classes)
	assert.FileExists(t, cache.Path(first.Fingerprint))

	second := NewTrainer(cache, DefaultMinSamples, logger).Fit(ctx, sampleSet())
	assert.Equal(t, models.MLStatusCached, second.Status)
	assert.False(t, second.Retrained)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	require.NotNil(t, second.Model)

	audited := first.MLStatus(0.7)
	assert.Equal(t, models.MLStatusReady, audited.Status)
	assert.Equal(t, "2025-12-31T12:00:00Z", audited.TrainedAt)
	assert.Equal(t, audited, second.MLStatus(0.7), "loading from the cache reports the same audit state")

	changed := sampleMappings()
	changed["NETFLIX.COM"] = models.CategorySubscription
	third := trainer.Fit(ctx, BuildTrainingSet(changed, nil, nil))
	assert.Equal(t, models.MLStatusTrained, third.Status)
	assert.True(t, third.Retrained)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
	assert.NoFileExists(t, cache.Path(first.Fingerprint))
}

func TestTrainer_CorruptCacheRetrains(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewMockLogger()
	cache := NewFileCache(dir, logger)
	set := sampleSet()
	require.NoError(t, os.WriteFile(cache.Path(Fingerprint(set)), []byte("garbage"), 0600))

	out := NewTrainer(cache, DefaultMinSamples, logger).Fit(context.Background(), set)

	assert.Equal(t, models.MLStatusTrained, out.Status)
	assert.True(t, out.Retrained)
	assert.True(t, logger.HasEntry("WARN", "Discarding unusable classifier cache"))

	reloaded, err := cache.Load(out.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, out.Model.Labels, reloaded.Labels)
}

func TestTrainer_InsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		mappings map[string]string
	}{
		{name: "too few samples", mappings: map[string]string{"A": "x", "B": "y"}},
		{name: "single class", mappings: func() map[string]string {
			m := map[string]string{}
			for i := 0; i < 12; i++ {
				m[fmt.Sprintf("SHOP %d", i)] = "x"
			}
			return m
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := NewTrainer(NewFileCache(dir, nil), DefaultMinSamples, logging.NewMockLogger()).
				Fit(context.Background(), BuildTrainingSet(tt.mappings, nil, nil))
			assert.Equal(t, models.MLStatusInsufficientData, out.Status)
			assert.Nil(t, out.Model)
			assert.False(t, out.Retrained)
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

type failingCache struct{}

func (failingCache) Load(string) (*Model, error) { return nil, ErrCacheMiss }
func (failingCache) Store(*Model) error          { return errors.New("disk full") }

func TestTrainer_StoreFailureIsNonFatal(t *testing.T) {
	logger := logging.NewMockLogger()
	out := NewTrainer(failingCache{}, DefaultMinSamples, logger).Fit(context.Background(), sampleSet())
	assert.Equal(t, models.MLStatusTrained, out.Status)
	assert.NotNil(t, out.Model)
	assert.True(t, logger.HasEntry("WARN", "Failed to cache classifier"))

	st := out.MLStatus(0.7)
	assert.Equal(t, 0.7, st.Threshold)
	assert.Empty(t, st.Error)
}

func TestHistoryLoader_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(month, body string) {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, month), 0750))
		if body != "" {
			require.NoError(t, os.WriteFile(filepath.Join(dir, month, "merged.csv"), []byte(body), 0600))
		}
	}
	header := "Date,Description,Amount,Category\n"
	write("AUGUST 2025", header+"2025-08-01,AUGUST ROW,-1.00,Dining\n")
	write("SEPTEMBER 2025", header+"2025-09-01,SEPT ROW,-1.00,Dining\n")
	write("OCTOBER 2025", "")
	write("NOVEMBER 2025", header+"2025-11-01,NOV ROW,-1.00,Travel\n2025-11-02,NOV TWO,-2.00,Uncategorized\n")
	write("DECEMBER 2025", header+"2025-12-01,CURRENT,-1.00,Dining\n")
	write("JANUARY 2026", header+"2026-01-01,FUTURE,-1.00,Dining\n")
	write("misc", header+"2025-01-01,MISC,-1.00,Dining\n")

	loader := NewHistoryLoader(dir, "merged.csv", 3, ',', logging.NewMockLogger())
	samples, files := loader.Load("DECEMBER 2025")

	assert.Equal(t, []Sample{
		{Description: "NOV ROW", Category: "Travel"},
		{Description: "NOV TWO", Category: "Uncategorized"},
		{Description: "SEPT ROW", Category: "Dining"},
		{Description: "AUGUST ROW", Category: "Dining"},
	}, samples, "a folder without a merged table does not use up a month")
	assert.Equal(t, []string{
		filepath.Join(dir, "NOVEMBER 2025", "merged.csv"),
		filepath.Join(dir, "SEPTEMBER 2025", "merged.csv"),
		filepath.Join(dir, "AUGUST 2025", "merged.csv"),
	}, files)

	none, _ := NewHistoryLoader(dir, "merged.csv", 0, ',', nil).Load("DECEMBER 2025")
	assert.Empty(t, none)
}
