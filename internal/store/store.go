// Package store loads and saves the user documents that steer categorization:
// the description → category mapping, the ignore list, the rules and
// vocabulary override, and the vendor aliases. All of them live in the
// accounts folder and may be written as JSON or YAML.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fjacquet/txmerge/internal/config"
	"fjacquet/txmerge/internal/fileutils"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"
	"fjacquet/txmerge/internal/models"
	"fjacquet/txmerge/internal/textutils"
)

// backupTimestamp is the layout of the suffix added to backup copies.
const backupTimestamp = "20060102-150405"

// Store is what the engine needs from the document folder.
type Store interface {
	LoadMappings() (map[string]string, error)
	SaveMappings(mappings map[string]string) error
	ImportMappings(path string) (ImportStats, error)
	LoadIgnoreList() ([]string, error)
	LoadRules() (*models.RulesDocument, error)
	LoadVendorAliases() (map[string]string, error)
}

// ImportStats summarizes a mapping merge-import.
type ImportStats struct {
	Added              int `json:"added"`
	Updated            int `json:"updated"`
	Unchanged          int `json:"unchanged"`
	SkippedPlaceholder int `json:"skipped_placeholder"`
}

// CategoryStore manages the documents of one accounts folder.
type CategoryStore struct {
	MappingFile string
	IgnoreFile  string
	RulesFile   string
	AliasesFile string
	BackupDir   string

	logger logging.Logger
	now    func() time.Time
}

// NewCategoryStore resolves the configured document names against the
// accounts folder.
func NewCategoryStore(cfg *config.Config, logger logging.Logger) *CategoryStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &CategoryStore{
		MappingFile: cfg.DocumentPath(cfg.Documents.Mapping),
		IgnoreFile:  cfg.DocumentPath(cfg.Documents.IgnoreList),
		RulesFile:   cfg.DocumentPath(cfg.Documents.Rules),
		AliasesFile: cfg.DocumentPath(cfg.Documents.VendorAliases),
		BackupDir:   cfg.DocumentPath(cfg.Documents.BackupDir),
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock replaces the clock used to name backups.
func (s *CategoryStore) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// readDocument returns the raw document, or nil when it is absent or blank.
func (s *CategoryStore) readDocument(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("Document not found, using empty",
				logging.F(logging.FieldDocument, path))
			return nil, nil
		}
		return nil, &mergeerror.ConfigError{Document: path, Reason: "cannot read document", Err: err}
	}
	if isEmptyDocument(data) {
		return nil, nil
	}
	return data, nil
}

// LoadMappings returns the description → category mapping. Entries with an
// empty or placeholder category are discarded.
func (s *CategoryStore) LoadMappings() (map[string]string, error) {
	mappings, err := s.loadMappingFile(s.MappingFile)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Loaded mappings",
		logging.F(logging.FieldDocument, s.MappingFile),
		logging.F(logging.FieldCount, len(mappings)))
	return mappings, nil
}

func (s *CategoryStore) loadMappingFile(path string) (map[string]string, error) {
	data, err := s.readDocument(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]string{}
	if data != nil {
		if err := decodeDocument(path, data, &raw); err != nil {
			return nil, &mergeerror.ConfigError{Document: path, Reason: "mapping must be an object of description to category", Err: err}
		}
	}

	mappings := make(map[string]string, len(raw))
	for desc, category := range raw {
		desc = textutils.NormalizeDescription(desc)
		category = strings.TrimSpace(category)
		if desc == "" || isPlaceholder(category) {
			continue
		}
		mappings[desc] = category
	}
	return mappings, nil
}

// SaveMappings backs up the current document and atomically replaces it.
// Placeholder entries are never written.
func (s *CategoryStore) SaveMappings(mappings map[string]string) error {
	clean := make(map[string]string, len(mappings))
	for desc, category := range mappings {
		if strings.TrimSpace(desc) == "" || isPlaceholder(category) {
			continue
		}
		clean[desc] = strings.TrimSpace(category)
	}

	data, err := encodeDocument(s.MappingFile, clean)
	if err != nil {
		return &mergeerror.WriteError{Path: s.MappingFile, Err: err}
	}
	if _, err := s.Backup(s.MappingFile); err != nil {
		return &mergeerror.WriteError{Path: s.MappingFile, Err: err}
	}
	if err := fileutils.WriteFileAtomic(s.MappingFile, data, models.PermissionConfigFile); err != nil {
		return &mergeerror.WriteError{Path: s.MappingFile, Err: err}
	}

	s.logger.Info("Saved mappings",
		logging.F(logging.FieldDocument, s.MappingFile),
		logging.F(logging.FieldCount, len(clean)))
	return nil
}

// ImportMappings merges the mapping document at path into the store. An
// incoming key replaces an existing key that differs only in case.
func (s *CategoryStore) ImportMappings(path string) (ImportStats, error) {
	var stats ImportStats

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, &mergeerror.InputError{Path: path, Msg: "cannot read import document", Err: err}
	}
	incoming := map[string]string{}
	if !isEmptyDocument(data) {
		if err := decodeDocument(path, data, &incoming); err != nil {
			return stats, &mergeerror.ConfigError{Document: path, Reason: "mapping must be an object of description to category", Err: err}
		}
	}

	current, err := s.LoadMappings()
	if err != nil {
		return stats, err
	}
	byFolded := make(map[string]string, len(current))
	for desc := range current {
		byFolded[textutils.Fold(desc)] = desc
	}

	keys := make([]string, 0, len(incoming))
	for k := range incoming {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		desc := textutils.NormalizeDescription(k)
		category := strings.TrimSpace(incoming[k])
		if desc == "" || isPlaceholder(category) {
			stats.SkippedPlaceholder++
			continue
		}
		existing, ok := byFolded[textutils.Fold(desc)]
		switch {
		case !ok:
			stats.Added++
		case existing == desc && current[existing] == category:
			stats.Unchanged++
			continue
		default:
			stats.Updated++
			delete(current, existing)
		}
		current[desc] = category
		byFolded[textutils.Fold(desc)] = desc
	}

	if stats.Added+stats.Updated > 0 {
		if err := s.SaveMappings(current); err != nil {
			return stats, err
		}
	}

	s.logger.Info("Imported mappings",
		logging.F(logging.FieldDocument, path),
		logging.F("added", stats.Added),
		logging.F("updated", stats.Updated),
		logging.F("unchanged", stats.Unchanged),
		logging.F("skipped_placeholder", stats.SkippedPlaceholder))
	return stats, nil
}

// Backup copies path into the backup folder with a timestamp suffix and
// returns the copy's path, or "" when there was nothing to back up.
func (s *CategoryStore) Backup(path string) (string, error) {
	if !fileutils.FileExists(path) {
		return "", nil
	}
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)
	dst := filepath.Join(s.BackupDir, fmt.Sprintf("%s-%s%s", name, s.now().Format(backupTimestamp), ext))
	if err := fileutils.CopyFile(path, dst, models.PermissionConfigFile); err != nil {
		return "", fmt.Errorf("error backing up %s: %w", path, err)
	}
	s.logger.Debug("Backed up document",
		logging.F(logging.FieldDocument, path),
		logging.F(logging.FieldOutputFile, dst))
	return dst, nil
}

// ignoreDocument accepts either a bare list or {"descriptions": [...]}.
type ignoreDocument struct {
	Descriptions []string `json:"descriptions" yaml:"descriptions"`
}

// LoadIgnoreList returns the ignore entries in document order.
func (s *CategoryStore) LoadIgnoreList() ([]string, error) {
	data, err := s.readDocument(s.IgnoreFile)
	if err != nil || data == nil {
		return []string{}, err
	}

	var list []string
	if err := decodeDocument(s.IgnoreFile, data, &list); err != nil {
		var doc ignoreDocument
		if derr := decodeDocument(s.IgnoreFile, data, &doc); derr != nil {
			return nil, &mergeerror.ConfigError{Document: s.IgnoreFile, Reason: "ignore list must be a list of descriptions", Err: err}
		}
		list = doc.Descriptions
	}

	entries := make([]string, 0, len(list))
	for _, e := range list {
		if e = strings.TrimSpace(e); e != "" {
			entries = append(entries, e)
		}
	}
	s.logger.Debug("Loaded ignore list",
		logging.F(logging.FieldDocument, s.IgnoreFile),
		logging.F(logging.FieldCount, len(entries)))
	return entries, nil
}

// LoadRules returns the rules and vocabulary override. A missing document or
// an empty section falls back to the built-in rules and vocabulary. When only
// categories are declared, the built-in rules are narrowed to those whose
// category is declared.
func (s *CategoryStore) LoadRules() (*models.RulesDocument, error) {
	data, err := s.readDocument(s.RulesFile)
	if err != nil {
		return nil, err
	}
	doc := &models.RulesDocument{}
	if data != nil {
		if err := decodeDocument(s.RulesFile, data, doc); err != nil {
			return nil, &mergeerror.ConfigError{Document: s.RulesFile, Reason: "rules document must hold rules and categories", Err: err}
		}
	}
	if len(doc.Categories) == 0 {
		doc.Categories = models.DefaultCategories()
	}
	if len(doc.Rules) == 0 {
		doc.Rules = defaultRulesWithin(models.NewVocabulary(doc.Categories))
	}
	s.logger.Debug("Loaded rules",
		logging.F(logging.FieldDocument, s.RulesFile),
		logging.F(logging.FieldCount, len(doc.Rules)),
		logging.F("categories", len(doc.Categories)))
	return doc, nil
}

func defaultRulesWithin(vocab *models.Vocabulary) []models.CategoryRule {
	var rules []models.CategoryRule
	for _, r := range models.DefaultRules() {
		if vocab.Contains(r.Category) {
			rules = append(rules, r)
		}
	}
	return rules
}

// LoadVendorAliases returns the alias → vendor table.
func (s *CategoryStore) LoadVendorAliases() (map[string]string, error) {
	data, err := s.readDocument(s.AliasesFile)
	if err != nil || data == nil {
		return map[string]string{}, err
	}
	aliases := map[string]string{}
	if err := decodeDocument(s.AliasesFile, data, &aliases); err != nil {
		return nil, &mergeerror.ConfigError{Document: s.AliasesFile, Reason: "vendor aliases must be an object of alias to vendor", Err: err}
	}
	return aliases, nil
}

func isPlaceholder(category string) bool {
	c := strings.TrimSpace(category)
	return c == "" || strings.EqualFold(c, models.CategoryUncategorized)
}
