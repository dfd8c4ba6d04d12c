// Package merger is the entry point of a merge run. It reads one period's
// exports, filters and deduplicates them, categorizes every transaction and
// writes the merged table, the combined table and the audit together.
package merger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fjacquet/txmerge/internal/bankparser"
	"fjacquet/txmerge/internal/batch"
	"fjacquet/txmerge/internal/categorizer"
	"fjacquet/txmerge/internal/classifier"
	"fjacquet/txmerge/internal/config"
	"fjacquet/txmerge/internal/fileutils"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/parser"
	"fjacquet/txmerge/internal/report"
	"fjacquet/txmerge/internal/store"
)

// Result describes a completed run.
type Result struct {
	Period       string
	Dir          string
	Files        []string
	Transactions []models.Transaction
	Summary      models.AuditSummary
	Stages       models.StageCounts

	// MLStatus is what the trainer did this run (cached, trained, ...).
	MLStatus  string
	Retrained bool
}

// Message is the one-line outcome shown by the shell.
func (r *Result) Message() string {
	return fmt.Sprintf("Merged %d transactions from %d file(s). Duplicates skipped: %d. Ignored: %d.",
		r.Summary.TransactionCount, r.Summary.FilesProcessed, r.Summary.DuplicateCount, r.Summary.IgnoredCount)
}

// Engine runs merges for one configuration.
type Engine struct {
	cfg       *config.Config
	store     store.Store
	cache     classifier.Cache
	committer *fileutils.Committer
	logger    logging.Logger
	now       func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCache replaces the on-disk classifier cache.
func WithCache(cache classifier.Cache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithCommitter replaces the artifact committer.
func WithCommitter(c *fileutils.Committer) Option {
	return func(e *Engine) { e.committer = c }
}

// NewEngine creates an Engine.
func NewEngine(cfg *config.Config, st store.Store, logger logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}
	e := &Engine{
		cfg:    cfg,
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = classifier.NewFileCache(cfg.CachePath(), logger)
	}
	if e.committer == nil {
		e.committer = fileutils.NewCommitter()
	}
	return e
}

// documents holds the user documents loaded for one run.
type documents struct {
	mappings map[string]string
	ignore   *batch.IgnoreList
	rules    []categorizer.CompiledRule
	aliases  *batch.VendorAliases
	vocab    *models.Vocabulary
}

func (e *Engine) loadDocuments() (*documents, error) {
	mappings, err := e.store.LoadMappings()
	if err != nil {
		return nil, err
	}
	ignore, err := e.store.LoadIgnoreList()
	if err != nil {
		return nil, err
	}
	rulesDoc, err := e.store.LoadRules()
	if err != nil {
		return nil, err
	}
	aliases, err := e.store.LoadVendorAliases()
	if err != nil {
		return nil, err
	}

	rulesName := e.cfg.DocumentPath(e.cfg.Documents.Rules)
	rules, err := categorizer.CompileRules(rulesName, rulesDoc.Rules, models.NewVocabulary(rulesDoc.Categories))
	if err != nil {
		return nil, err
	}

	return &documents{
		mappings: mappings,
		ignore:   batch.NewIgnoreList(ignore),
		rules:    rules,
		aliases:  batch.NewVendorAliases(aliases),
		vocab:    categorizer.EffectiveVocabulary(rulesDoc.Categories, mappings),
	}, nil
}

// periodFiles lists the export files of period, never the run's own outputs.
func (e *Engine) periodFiles(period string) (string, []string, error) {
	dir := e.cfg.PeriodDir(period)
	if !fileutils.DirectoryExists(dir) {
		return dir, nil, &mergeerror.InputError{Path: dir, Msg: "period folder not found"}
	}
	files, err := fileutils.ListFilesMatching(dir, e.cfg.Input.FilePatterns,
		e.cfg.Output.MergedFile, e.cfg.Output.AuditFile, e.combinedName(period))
	if err != nil {
		return dir, nil, &mergeerror.InputError{Path: dir, Msg: "cannot list export files", Err: err}
	}
	if len(files) == 0 {
		return dir, nil, &mergeerror.InputError{
			Path: dir,
			Msg:  fmt.Sprintf("no files match %s", strings.Join(e.cfg.Input.FilePatterns, ", ")),
			Err:  mergeerror.ErrNoInputFiles,
		}
	}
	return dir, files, nil
}

func (e *Engine) combinedName(period string) string {
	return period + e.cfg.Output.CombinedSuffix
}

// train returns the classifier outcome for period. It never fails the run.
func (e *Engine) train(ctx context.Context, period string, docs *documents) classifier.Outcome {
	if !e.cfg.Categorization.MLEnabled {
		return classifier.Disabled()
	}
	history, _ := classifier.NewHistoryLoader(
		e.cfg.Accounts.Dir,
		e.cfg.Output.MergedFile,
		e.cfg.Categorization.HistoryMonths,
		e.cfg.OutputDelimiter(),
		e.logger,
	).Load(period)

	set := classifier.BuildTrainingSet(docs.mappings, history, docs.vocab)
	trainer := classifier.NewTrainer(e.cache, e.cfg.Categorization.MinTrainingSamples, e.logger)
	trainer.SetClock(e.now)
	return trainer.Fit(ctx, set)
}

// Train builds or reuses the classifier for period without merging.
func (e *Engine) Train(ctx context.Context, period string) (classifier.Outcome, error) {
	period = strings.TrimSpace(period)
	docs, err := e.loadDocuments()
	if err != nil {
		return classifier.Outcome{}, err
	}
	return e.train(ctx, period, docs), nil
}

// Run merges and categorizes period and commits its artifacts.
func (e *Engine) Run(ctx context.Context, period string) (*Result, error) {
	period = strings.TrimSpace(period)
	log := e.logger.WithField(logging.FieldPeriod, period)
	started := e.now()

	dir, files, err := e.periodFiles(period)
	if err != nil {
		return nil, err
	}
	docs, err := e.loadDocuments()
	if err != nil {
		return nil, err
	}

	p := bankparser.NewParser(bankparser.Options{
		Delimiter:   e.cfg.InputDelimiter(),
		Encoding:    e.cfg.Input.Encoding,
		DateFormats: e.cfg.Input.DateFormats,
	}, e.logger)
	results := make([]*parser.Result, 0, len(files))
	for _, f := range files {
		res, err := p.ParseFile(f)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	agg := batch.NewBatchAggregator(batch.Options{KeepSameFileRepeats: e.cfg.Dedup.KeepSameFileRepeats}, e.logger).
		Aggregate(results, docs.ignore)
	if n := docs.aliases.Apply(agg.Transactions); n > 0 {
		log.Debug("Applied vendor aliases", logging.F(logging.FieldCount, n))
	}

	outcome := e.train(ctx, period, docs)
	strategies := []categorizer.CategorizationStrategy{
		categorizer.NewMappingStrategy(docs.mappings, e.logger),
		categorizer.NewRuleStrategy(docs.rules, e.logger),
	}
	if outcome.Model != nil {
		strategies = append(strategies,
			categorizer.NewClassifierStrategy(outcome.Model, e.cfg.Categorization.ConfidenceThreshold, e.logger))
	}
	stages, err := categorizer.NewCategorizer(docs.vocab, e.logger, strategies...).
		CategorizeAll(ctx, agg.Transactions)
	if err != nil {
		return nil, err
	}

	gen := report.NewReportGenerator(e.cfg.OutputDelimiter(), e.logger)
	gen.SetClock(e.now)
	artifacts, err := gen.GenerateReport(period, agg.Transactions, report.Counters{
		SourceFiles:         agg.SourceFiles,
		Duplicates:          agg.Duplicates,
		Ignored:             agg.Ignored,
		Rows:                agg.Stats,
		Stages:              stages,
		ML:                  outcome.MLStatus(e.cfg.Categorization.ConfidenceThreshold),
		UseMergedCategories: e.cfg.Report.UseMergedCategories,
	})
	if err != nil {
		return nil, err
	}

	names := report.FileNames{
		Merged:   e.cfg.Output.MergedFile,
		Combined: e.combinedName(period),
		Audit:    e.cfg.Output.AuditFile,
	}
	if err := report.NewWriter(e.committer, e.logger).Write(dir, names, artifacts); err != nil {
		return nil, err
	}

	log.Info(stages.Summary(),
		logging.F(logging.FieldCount, len(agg.Transactions)),
		logging.F(logging.FieldMLStatus, outcome.Status),
		logging.F(logging.FieldRetrained, outcome.Retrained),
		logging.F(logging.FieldDuration, e.now().Sub(started).String()))

	return &Result{
		Period:       period,
		Dir:          dir,
		Files:        files,
		Transactions: agg.Transactions,
		Summary:      artifacts.Summary,
		Stages:       stages,
		MLStatus:     outcome.Status,
		Retrained:    outcome.Retrained,
	}, nil
}
