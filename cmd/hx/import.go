package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/capture"
	"github.com/spideyz0r/hx/pkg/crypto"
	"github.com/spideyz0r/hx/pkg/export"
	"github.com/spideyz0r/hx/pkg/importer"
)

func (a *app) importCmd() *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "import [auto|zsh|bash|export]",
		Short: "Import an existing history file",
		Long: `Import an existing history file into the database.

  auto    detect the shell from $SHELL (default)
  zsh     $HISTFILE, ~/.zsh_history, ~/.zhistory or ~/.histfile
  bash    $HISTFILE or ~/.bash_history
  export  a file written by 'hx export' (requires --file)

Encrypted exports ask for their passphrase, or read it from $HX_PASSPHRASE.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"auto", "zsh", "bash", "export"},
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "auto"
			if len(args) == 1 {
				source = args[0]
			}

			imp, err := newImporter(source, file, format)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}

			n, err := importer.Run(imp, store, a.cfg.Import.BatchSize)
			if err != nil {
				return fmt.Errorf("%w (%d commands imported before the failure)", err, n)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d commands from %s history\n", n, imp.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "History file to read instead of the default location")
	cmd.Flags().StringVar(&format, "format", "", "Export format: text, json or csv (default: detect)")

	return cmd
}

func newImporter(source, file, format string) (importer.Importer, error) {
	if source == "auto" {
		shell, err := capture.DetectShell()
		if err != nil {
			return nil, fmt.Errorf("cannot detect shell, name one explicitly: %w", err)
		}
		source = string(shell)
	}

	switch source {
	case "zsh":
		if file != "" {
			return importer.NewZshFromFile(file), nil
		}
		return importer.NewZsh()

	case "bash":
		if file != "" {
			return importer.NewBashFromFile(file), nil
		}
		return importer.NewBash()

	case "export":
		return newRestore(file, format)

	default:
		return nil, fmt.Errorf("unknown import source: %s (supported: auto, zsh, bash, export)", source)
	}
}

func newRestore(file, format string) (*export.Restore, error) {
	if file == "" {
		return nil, fmt.Errorf("--file is required when importing an export")
	}

	var f export.Format
	if format != "" {
		var err error
		if f, err = export.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	if crypto.IsSealed(data) {
		pass, err := crypto.ReadPassphrase("Passphrase: ", false)
		if err != nil {
			return nil, err
		}
		if data, err = crypto.Decrypt(data, pass); err != nil {
			return nil, err
		}
	}

	return export.NewRestore(data, f), nil
}
