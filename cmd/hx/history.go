package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/capture"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Record commands (used by the shell hooks)",
	}

	cmd.AddCommand(a.historyStartCmd(), a.historyEndCmd(), a.historyDeleteCmd())
	return cmd
}

func (a *app) historyStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [--] <command...>",
		Short: "Record a command that is about to run and print its id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")
			if strings.TrimSpace(command) == "" || a.cfg.ShouldIgnore(command) {
				slog.Debug("not recording command", "command", command)
				return nil
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}

			id, err := capture.Start(store, args)
			if err != nil {
				return fmt.Errorf("failed to save command: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	// Everything after the first argument belongs to the recorded command
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *app) historyEndCmd() *cobra.Command {
	var exitCode int64

	cmd := &cobra.Command{
		Use:   "end --exit N [id]",
		Short: "Record the exit code of a command started with 'history start'",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
				return nil
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}

			if err := capture.Finish(store, args[0], exitCode); err != nil {
				return fmt.Errorf("failed to update command: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&exitCode, "exit", 0, "Exit code of the command")
	return cmd
}

func (a *app) historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id...>",
		Short: "Delete commands from history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid id: %s", arg)
				}
				ids = append(ids, id)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}

			for _, id := range ids {
				if err := store.Delete(id); err != nil {
					return fmt.Errorf("failed to delete %d: %w", id, err)
				}
			}
			return nil
		},
	}
}
