package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/config"
	"github.com/spideyz0r/hx/pkg/logging"
	"github.com/spideyz0r/hx/pkg/storage"
)

// app carries the state shared by all subcommands of one invocation
type app struct {
	dbPath     string
	configPath string

	cfg      *config.Config
	store    *storage.DB
	closeLog func() error
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hx",
		Short: "Shell history in SQLite",
		Long: `hx records every command your shell runs in a local SQLite database
and brings it back with fuzzy, prefix or substring search.

Set it up with:
  eval "$(hx init zsh)"    # or bash`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Database file path (default: ~/.local/share/hx/history.db)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default: ~/.config/hx/config.yaml)")

	root.AddCommand(
		a.historyCmd(),
		a.searchCmd(),
		a.importCmd(),
		a.initCmd(),
		a.exportCmd(),
		a.backupCmd(),
		a.statsCmd(),
		a.configCmd(),
		versionCmd(),
	)

	return root
}

// setup loads the configuration and starts file logging
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	logFile, err := a.logFile()
	if err != nil {
		logging.Discard()
		return nil
	}

	// A broken log setup must not break the shell hooks
	closeLog, err := logging.Setup(a.cfg.Log.Level, logFile)
	if err != nil {
		logging.Discard()
		return nil
	}
	a.closeLog = closeLog

	return nil
}

func (a *app) logFile() (string, error) {
	if a.cfg.Log.File != "" {
		return storage.ExpandHome(a.cfg.Log.File)
	}

	dir, err := storage.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logging.FileName), nil
}

// openStore opens the history database once per invocation
func (a *app) openStore() (*storage.DB, error) {
	if a.store != nil {
		return a.store, nil
	}

	path, err := a.databasePath()
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.store = db

	return db, nil
}

func (a *app) databasePath() (string, error) {
	if a.dbPath != "" {
		return storage.ExpandHome(a.dbPath)
	}
	return a.cfg.DatabasePath()
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
	if a.closeLog != nil {
		logging.Discard()
		_ = a.closeLog()
		a.closeLog = nil
	}
}
