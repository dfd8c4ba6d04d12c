// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/txmerge/internal/config"
	"fjacquet/txmerge/internal/container"
	"fjacquet/txmerge/internal/logging"
	"fjacquet/txmerge/internal/mergeerror"

	"github.com/spf13/cobra"
)

// GlobalFlags represents the flags shared by every command
type GlobalFlags struct {
	ConfigFile  string
	AccountsDir string
	LogLevel    string
	LogFormat   string
}

var (
	// AppContainer is built once the configuration is loaded
	AppContainer *container.Container

	// Flags holds the persistent flag values
	Flags = GlobalFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "txmerge",
		Short: "Merge a month of bank CSV exports into one categorized table.",
		Long: `txmerge merges the bank CSV exports of one month folder into a single
deduplicated table, categorizes every transaction through the user mapping,
the category rules and a locally trained classifier, and writes an audit
summary that reconciles the totals.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: bootstrap,
	}
)

// Init initializes the root command and all flags
func Init() {
	pf := Cmd.PersistentFlags()
	pf.StringVar(&Flags.ConfigFile, "config", "", "Config file (default: ./txmerge.yaml or $HOME/.config/txmerge/txmerge.yaml)")
	pf.StringVar(&Flags.AccountsDir, "accounts-dir", "", "Folder holding one sub-folder per month")
	pf.StringVar(&Flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&Flags.LogFormat, "log-format", "", "Log format (text, json)")
}

// bootstrap loads the configuration, applies flag overrides and builds the container.
func bootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.InitializeConfig(Flags.ConfigFile)
	if err != nil {
		return &mergeerror.ConfigError{Document: configDocument(), Reason: "cannot load configuration", Err: err}
	}
	if err := ApplyFlags(cfg, Flags); err != nil {
		return &mergeerror.ConfigError{Document: configDocument(), Reason: "invalid command-line override", Err: err}
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	AppContainer = c

	for _, w := range cfg.Warnings {
		c.GetLogger().Warn(w)
	}
	return nil
}

func configDocument() string {
	if Flags.ConfigFile != "" {
		return Flags.ConfigFile
	}
	return "txmerge.yaml"
}

// ApplyFlags overrides cfg with the non-empty flag values and revalidates it.
func ApplyFlags(cfg *config.Config, flags GlobalFlags) error {
	if flags.AccountsDir != "" {
		cfg.Accounts.Dir = flags.AccountsDir
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.Log.Format = flags.LogFormat
	}
	return cfg.Validate()
}

// GetContainer returns the application container, or an error before bootstrap ran.
func GetContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("application container is not initialized")
	}
	return AppContainer, nil
}

// GetLogger returns the container logger, or a default stderr logger before bootstrap.
func GetLogger() logging.Logger {
	if AppContainer != nil {
		return AppContainer.GetLogger()
	}
	return logging.NewLogrusAdapter("info", "text")
}
