// Package container provides dependency injection for the txmerge application.
// It centralizes the creation and wiring of the application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"

	"fjacquet/txmerge/internal/config"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/merger"
	"fjacquet/txmerge/internal/pdfparser"
	"fjacquet/txmerge/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger logging.Logger
	config *config.Config
	store  *store.CategoryStore
	engine *merger.Engine
	pdf    *pdfparser.Importer
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	return NewContainerWithLogger(cfg, logger)
}

// NewContainerWithLogger wires the dependencies around an existing logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	categoryStore := store.NewCategoryStore(cfg, logger)
	engine := merger.NewEngine(cfg, categoryStore, logger)
	pdfParser := pdfparser.NewParser(pdfparser.NewCommandExtractor(cfg.PDF.Command), cfg.Input.DateFormats, logger)
	importer := pdfparser.NewImporter(pdfParser, cfg.Accounts.Dir, cfg.PDF.OutputFile, cfg.InputDelimiter(), logger)

	logger.Debug("Container initialized",
		logging.F("accounts_dir", cfg.Accounts.Dir),
		logging.F("ml_enabled", cfg.Categorization.MLEnabled))

	return &Container{
		logger: logger,
		config: cfg,
		store:  categoryStore,
		engine: engine,
		pdf:    importer,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the category store holding the user documents.
func (c *Container) GetStore() *store.CategoryStore {
	return c.store
}

// GetEngine returns the merge engine.
func (c *Container) GetEngine() *merger.Engine {
	return c.engine
}

// GetPDFImporter returns the statement importer.
func (c *Container) GetPDFImporter() *pdfparser.Importer {
	return c.pdf
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
