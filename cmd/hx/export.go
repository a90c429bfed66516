package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/crypto"
	"github.com/spideyz0r/hx/pkg/export"
	"github.com/spideyz0r/hx/pkg/search"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		flags   filterFlags
		format  string
		output  string
		encrypt bool
	)

	cmd := &cobra.Command{
		Use:   "export [query...]",
		Short: "Export history as text, JSON or CSV",
		Long: `Export history, most recent first.

Without a query every command is exported; the search flags narrow the
selection the same way they do for 'hx search'. With --encrypt the output
is sealed with a passphrase (AES-256-GCM) and can be read back with
'hx import export --file'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			filters, err := a.filters(cmd, &flags)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				filters.Limit = 0
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			n, err := export.Export(store, &buf, export.Options{
				Format:  f,
				Query:   search.QueryFromArgs(args, ""),
				Filters: filters,
			})
			if err != nil {
				return err
			}

			var pass string
			if encrypt {
				if pass, err = crypto.ReadPassphrase("Passphrase: ", true); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			toFile := output != "" && output != "-"
			if toFile {
				file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() {
					_ = file.Close()
				}()
				w = file
			}

			if encrypt {
				err = crypto.EncryptTo(w, buf.Bytes(), pass)
			} else {
				_, err = buf.WriteTo(w)
			}
			if err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			if toFile {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d commands to %s\n", n, output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Export format: text, json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "Encrypt the export with a passphrase")

	return cmd
}
