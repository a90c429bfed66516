package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/backup"
	"github.com/spideyz0r/hx/pkg/crypto"
)

func (a *app) backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore encrypted database backups",
	}

	cmd.AddCommand(a.backupCreateCmd(), a.backupListCmd(), a.backupRestoreCmd())
	return cmd
}

func (a *app) backupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Snapshot and encrypt the database",
		Long: `Snapshot the database, encrypt it with a passphrase and store it in the
backup directory. Old backups beyond backup.keep are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.cfg.BackupDir()
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}

			pass, err := crypto.ReadPassphrase("Passphrase: ", true)
			if err != nil {
				return err
			}

			info, err := backup.Create(store, dir, pass)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s (%s)\n", info.Path, backup.FormatSize(info.Size))

			removed, err := backup.Rotate(dir, a.cfg.Backup.Keep)
			if err != nil {
				return err
			}
			for _, b := range removed {
				fmt.Fprintf(out, "Removed old backup %s\n", b.Filename)
			}
			return nil
		},
	}
}

func (a *app) backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := a.cfg.BackupDir()
			if err != nil {
				return err
			}

			backups, err := backup.List(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", dir)
				return nil
			}

			for _, b := range backups {
				fmt.Fprintf(out, "%s  %-10s  %s\n", b.Timestamp.Format("2006-01-02 15:04:05"), backup.FormatSize(b.Size), b.Path)
			}
			return nil
		},
	}
}

func (a *app) backupRestoreCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Decrypt a backup into a new database file",
		Long: `Decrypt a backup into a new database file. The target defaults to the
configured database and must not exist yet; move the current database away
first or pass --to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := to
			if dst == "" {
				var err error
				if dst, err = a.databasePath(); err != nil {
					return err
				}
			}

			pass, err := crypto.ReadPassphrase("Passphrase: ", false)
			if err != nil {
				return err
			}

			if err := backup.Restore(args[0], dst, pass); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to %s\n", args[0], dst)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Database file to create (default: the configured database)")
	return cmd
}
