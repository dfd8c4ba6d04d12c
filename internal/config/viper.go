// Package config builds the explicit configuration object handed to the merge
// engine. Values are layered with viper: defaults, an optional YAML file,
// TXMERGE_* environment variables and the legacy variables the application
// shell already exports.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (TXMERGE_LOG_LEVEL, ...).
const EnvPrefix = "TXMERGE"

// Legacy environment variables exported by the application shell.
const (
	LegacyAccountsDirEnv         = "EXPENSE_REPORTS_ACCOUNTS_DIR"
	LegacyConfidenceThresholdEnv = "ML_CONFIDENCE_THRESHOLD"
	LegacyUseMergedCategoriesEnv = "USE_MERGED_CATEGORIES"
)

// Config is the complete run configuration.
type Config struct {
	Log            LogConfig            `mapstructure:"log" yaml:"log"`
	Accounts       AccountsConfig       `mapstructure:"accounts" yaml:"accounts"`
	Input          InputConfig          `mapstructure:"input" yaml:"input"`
	Documents      DocumentsConfig      `mapstructure:"documents" yaml:"documents"`
	Output         OutputConfig         `mapstructure:"output" yaml:"output"`
	Categorization CategorizationConfig `mapstructure:"categorization" yaml:"categorization"`
	Dedup          DedupConfig          `mapstructure:"dedup" yaml:"dedup"`
	Report         ReportConfig         `mapstructure:"report" yaml:"report"`
	PDF            PDFConfig            `mapstructure:"pdf" yaml:"pdf"`

	// Warnings collects non-fatal problems found while loading, for logging
	// once a logger exists.
	Warnings []string `mapstructure:"-" yaml:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AccountsConfig locates the folder holding one sub-folder per month.
type AccountsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type InputConfig struct {
	FilePatterns []string `mapstructure:"file_patterns" yaml:"file_patterns"`
	Encoding     string   `mapstructure:"encoding" yaml:"encoding"`
	Delimiter    string   `mapstructure:"delimiter" yaml:"delimiter"`
	DateFormats  []string `mapstructure:"date_formats" yaml:"date_formats"`
}

// DocumentsConfig names the user documents kept in the accounts folder.
type DocumentsConfig struct {
	Mapping       string `mapstructure:"mapping" yaml:"mapping"`
	IgnoreList    string `mapstructure:"ignore_list" yaml:"ignore_list"`
	Rules         string `mapstructure:"rules" yaml:"rules"`
	VendorAliases string `mapstructure:"vendor_aliases" yaml:"vendor_aliases"`
	BackupDir     string `mapstructure:"backup_dir" yaml:"backup_dir"`
}

type OutputConfig struct {
	MergedFile     string `mapstructure:"merged_file" yaml:"merged_file"`
	AuditFile      string `mapstructure:"audit_file" yaml:"audit_file"`
	CombinedSuffix string `mapstructure:"combined_suffix" yaml:"combined_suffix"`
	Delimiter      string `mapstructure:"delimiter" yaml:"delimiter"`
}

type CategorizationConfig struct {
	MLEnabled           bool    `mapstructure:"ml_enabled" yaml:"ml_enabled"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	MinTrainingSamples  int     `mapstructure:"min_training_samples" yaml:"min_training_samples"`
	HistoryMonths       int     `mapstructure:"history_months" yaml:"history_months"`
	CacheDir            string  `mapstructure:"cache_dir" yaml:"cache_dir"`
}

type DedupConfig struct {
	// KeepSameFileRepeats preserves identical rows that occur only inside one
	// export file. Cross-file copies are always collapsed.
	KeepSameFileRepeats bool `mapstructure:"keep_same_file_repeats" yaml:"keep_same_file_repeats"`
}

type ReportConfig struct {
	UseMergedCategories bool `mapstructure:"use_merged_categories" yaml:"use_merged_categories"`
}

// PDFConfig drives statement imports: the text extraction tool and the
// export name written into the detected month folder.
type PDFConfig struct {
	Command    string `mapstructure:"command" yaml:"command"`
	OutputFile string `mapstructure:"output_file" yaml:"output_file"`
}

// InitializeConfig loads the configuration. configFile may be empty, in which
// case txmerge.yaml is searched in the working directory and $HOME/.config/txmerge.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("txmerge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/txmerge")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	if err := v.BindEnv("accounts.dir", EnvPrefix+"_ACCOUNTS_DIR", LegacyAccountsDirEnv); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", LegacyAccountsDirEnv, err)
	}
	warnings := applyLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Warnings = warnings

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default configuration does not decode: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("accounts.dir", ".")

	v.SetDefault("input.file_patterns", []string{"cibc*.csv"})
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.date_formats", []string{
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
		"2006/01/02",
		"02-Jan-2006",
		"Jan 2, 2006",
		"January 2, 2006",
	})

	v.SetDefault("documents.mapping", "custom_mapping.json")
	v.SetDefault("documents.ignore_list", "ignore_list.json")
	v.SetDefault("documents.rules", "category_rules.json")
	v.SetDefault("documents.vendor_aliases", "vendor_aliases.json")
	v.SetDefault("documents.backup_dir", ".backups")

	v.SetDefault("pdf.command", "pdftotext")
	v.SetDefault("pdf.output_file", "cibc_pdf_export.csv")

	v.SetDefault("output.merged_file", "merged.csv")
	v.SetDefault("output.audit_file", "audit.json")
	v.SetDefault("output.combined_suffix", "_combined.csv")
	v.SetDefault("output.delimiter", ",")

	v.SetDefault("categorization.ml_enabled", true)
	v.SetDefault("categorization.confidence_threshold", 0.70)
	v.SetDefault("categorization.min_training_samples", 10)
	v.SetDefault("categorization.history_months", 3)
	v.SetDefault("categorization.cache_dir", ".ml_cache")

	v.SetDefault("dedup.keep_same_file_repeats", false)
	v.SetDefault("report.use_merged_categories", false)
}

// applyLegacyEnv honours the shell's historical variables when the prefixed
// equivalent is not set. The threshold is clamped to [0,1] and a malformed
// value is ignored, matching how the shell has always passed it.
func applyLegacyEnv(v *viper.Viper) []string {
	var warnings []string

	if raw, ok := os.LookupEnv(LegacyConfidenceThresholdEnv); ok && !envSet("categorization.confidence_threshold") {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) {
			warnings = append(warnings, fmt.Sprintf("ignoring %s=%q: not a number", LegacyConfidenceThresholdEnv, raw))
		} else {
			v.Set("categorization.confidence_threshold", math.Max(0, math.Min(1, f)))
		}
	}

	if raw, ok := os.LookupEnv(LegacyUseMergedCategoriesEnv); ok && !envSet("report.use_merged_categories") {
		v.Set("report.use_merged_categories", ParseFlag(raw))
	}

	return warnings
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	return ok
}

// ParseFlag reads the truthy spellings the shell uses: 1, true, yes, on.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", c.Log.Format)
	}
	if strings.TrimSpace(c.Accounts.Dir) == "" {
		return fmt.Errorf("accounts.dir must not be empty")
	}
	if len(c.Input.FilePatterns) == 0 {
		return fmt.Errorf("input.file_patterns must list at least one pattern")
	}
	if len([]rune(c.Input.Delimiter)) != 1 {
		return fmt.Errorf("input.delimiter must be a single character, got: %q", c.Input.Delimiter)
	}
	if len([]rune(c.Output.Delimiter)) != 1 {
		return fmt.Errorf("output.delimiter must be a single character, got: %q", c.Output.Delimiter)
	}
	if len(c.Input.DateFormats) == 0 {
		return fmt.Errorf("input.date_formats must list at least one layout")
	}
	if c.Output.MergedFile == "" || c.Output.AuditFile == "" {
		return fmt.Errorf("output.merged_file and output.audit_file are required")
	}
	if strings.TrimSpace(c.PDF.OutputFile) == "" || strings.ContainsAny(c.PDF.OutputFile, `/\`) {
		return fmt.Errorf("pdf.output_file must be a plain file name, got: %q", c.PDF.OutputFile)
	}
	t := c.Categorization.ConfidenceThreshold
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("categorization.confidence_threshold must be between 0.0 and 1.0, got: %f", t)
	}
	if c.Categorization.MinTrainingSamples < 2 {
		return fmt.Errorf("categorization.min_training_samples must be at least 2, got: %d", c.Categorization.MinTrainingSamples)
	}
	if c.Categorization.HistoryMonths < 0 {
		return fmt.Errorf("categorization.history_months must not be negative, got: %d", c.Categorization.HistoryMonths)
	}
	return nil
}

// InputDelimiter returns the input delimiter as a rune.
func (c *Config) InputDelimiter() rune { return []rune(c.Input.Delimiter)[0] }

// OutputDelimiter returns the output delimiter as a rune.
func (c *Config) OutputDelimiter() rune { return []rune(c.Output.Delimiter)[0] }
