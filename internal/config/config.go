package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory, or its parent, into
// the process environment without overriding variables that are already set.
// It returns the file it loaded, or "" when none was found.
func LoadEnv() (string, error) {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return candidate, err
		}
		return candidate, nil
	}
	return "", nil
}

// PeriodDir returns the folder of one period under the accounts dir.
func (c *Config) PeriodDir(period string) string {
	return filepath.Join(c.Accounts.Dir, period)
}

// DocumentPath resolves a document name against the accounts dir. Absolute
// names are returned unchanged.
func (c *Config) DocumentPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Accounts.Dir, name)
}

// CachePath returns the classifier cache folder.
func (c *Config) CachePath() string {
	return c.DocumentPath(c.Categorization.CacheDir)
}
