package classifier

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/txmerge/internal/fileutils"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/models"
)

// cacheVersion changes whenever the envelope layout does.
const cacheVersion = 2

const (
	cachePrefix = "classifier-"
	cacheExt    = ".gob"
)

// ErrCacheMiss means no model is cached for the requested fingerprint.
var ErrCacheMiss = errors.New("classifier cache miss")

// Cache persists trained models by fingerprint.
type Cache interface {
	Load(fingerprint string) (*Model, error)
	Store(m *Model) error
}

// envelope is the on-disk form of a Model.
type envelope struct {
	Version     int
	Fingerprint string
	NGramMin    int
	NGramMax    int
	MaxFeatures int
	Vocabulary  []string
	Labels      []string
	Samples     int
	TrainedAt   time.Time
	Model       []byte
}

// FileCache keeps one model file per fingerprint in Dir and prunes the rest
// whenever a new model is stored.
type FileCache struct {
	Dir    string
	logger logging.Logger
}

// NewFileCache creates a cache rooted at dir. The folder is created on first store.
func NewFileCache(dir string, logger logging.Logger) *FileCache {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &FileCache{Dir: dir, logger: logger}
}

// Path returns the cache file of fingerprint.
func (c *FileCache) Path(fingerprint string) string {
	return filepath.Join(c.Dir, cachePrefix+fingerprint+cacheExt)
}

// Load returns the cached model for fingerprint, ErrCacheMiss when there is
// none, or an error when the file is unreadable or does not match.
func (c *FileCache) Load(fingerprint string) (*Model, error) {
	path := c.Path(fingerprint)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("error reading classifier cache %s: %w", path, err)
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("corrupt classifier cache %s: %w", path, err)
	}
	if env.Version != cacheVersion {
		return nil, fmt.Errorf("classifier cache %s has version %d, want %d", path, env.Version, cacheVersion)
	}
	if env.Fingerprint != fingerprint {
		return nil, fmt.Errorf("classifier cache %s holds fingerprint %s", path, env.Fingerprint)
	}

	nb, err := unmarshalClassifier(env.Model)
	if err != nil {
		return nil, fmt.Errorf("corrupt classifier cache %s: %w", path, err)
	}
	if len(nb.Classes) != len(env.Labels) {
		return nil, fmt.Errorf("classifier cache %s: %d classes for %d labels", path, len(nb.Classes), len(env.Labels))
	}

	vec := &Vectorizer{
		NGramMin:    env.NGramMin,
		NGramMax:    env.NGramMax,
		MaxFeatures: env.MaxFeatures,
		Vocabulary:  env.Vocabulary,
	}
	return newModel(env.Fingerprint, env.Labels, env.Samples, env.TrainedAt, vec, nb), nil
}

// Store writes m atomically and removes models cached for other fingerprints.
func (c *FileCache) Store(m *Model) error {
	payload, err := m.marshalClassifier()
	if err != nil {
		return err
	}
	env := envelope{
		Version:     cacheVersion,
		Fingerprint: m.Fingerprint,
		NGramMin:    m.vectorizer.NGramMin,
		NGramMax:    m.vectorizer.NGramMax,
		MaxFeatures: m.vectorizer.MaxFeatures,
		Vocabulary:  m.vectorizer.Vocabulary,
		Labels:      m.Labels,
		Samples:     m.Samples,
		TrainedAt:   m.TrainedAt,
		Model:       payload,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&env); err != nil {
		return fmt.Errorf("error encoding classifier cache: %w", err)
	}

	path := c.Path(m.Fingerprint)
	if err := fileutils.WriteFileAtomic(path, buf.Bytes(), models.PermissionConfigFile); err != nil {
		return err
	}
	c.prune(path)
	return nil
}

func (c *FileCache) prune(keep string) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to list classifier cache", logging.F(logging.FieldFile, c.Dir))
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, cachePrefix) || !strings.HasSuffix(name, cacheExt) {
			continue
		}
		path := filepath.Join(c.Dir, name)
		if path == keep {
			continue
		}
		if err := os.Remove(path); err != nil {
			c.logger.WithError(err).Warn("Failed to prune stale classifier cache", logging.F(logging.FieldFile, path))
			continue
		}
		c.logger.Debug("Pruned stale classifier cache", logging.F(logging.FieldFile, path))
	}
}
