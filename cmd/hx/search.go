package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/capture"
	"github.com/spideyz0r/hx/pkg/search"
	"github.com/spideyz0r/hx/pkg/storage"
)

// envQuery carries the shell's current buffer into interactive search
const envQuery = "HX_QUERY"

type filterFlags struct {
	cwd   string
	here  bool
	exit  int64
	limit int
	mode  string
	rank  bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cwd, "cwd", "", "Only commands run in this directory")
	cmd.Flags().BoolVar(&f.here, "here", false, "Only commands run in the current directory")
	cmd.Flags().Int64Var(&f.exit, "exit", 0, "Only commands that exited with this code")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum results (default from config, 0 = unlimited)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Match mode: fuzzy, prefix or substring (default from config)")
	cmd.Flags().BoolVar(&f.rank, "rank", false, "Order by relevance instead of recency")
}

// filters resolves the flags against the configuration
func (a *app) filters(cmd *cobra.Command, f *filterFlags) (storage.Filters, error) {
	filters := storage.Filters{
		Cwd:   f.cwd,
		Limit: a.cfg.Search.Limit,
		Mode:  a.cfg.MatchMode(),
		Rank:  f.rank,
	}

	if f.here {
		filters.Cwd = capture.CurrentDir()
	}
	if cmd.Flags().Changed("exit") {
		exit := f.exit
		filters.ExitCode = &exit
	}
	if cmd.Flags().Changed("limit") {
		if f.limit < 0 {
			return filters, fmt.Errorf("--limit must be >= 0")
		}
		filters.Limit = f.limit
	}
	if f.mode != "" {
		mode, err := storage.ParseMatchMode(f.mode)
		if err != nil {
			return filters, err
		}
		filters.Mode = mode
	}

	return filters, nil
}

func (a *app) searchCmd() *cobra.Command {
	var (
		flags       filterFlags
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search command history",
		Long: `Search command history, most recent first.

The query falls back to $HX_QUERY when no arguments are given. Exits with
status 1 when nothing matches.

Examples:
  hx search git push
  hx search --mode prefix --here make
  hx search --exit 0 --limit 20 docker`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := a.filters(cmd, &flags)
			if err != nil {
				return err
			}

			query := search.QueryFromArgs(args, os.Getenv(envQuery))

			if interactive {
				return a.pick(cmd, query, filters)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}

			entries, err := search.Run(store, query, filters)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return &exitError{code: ExitNoMatches}
			}

			out := cmd.OutOrStdout()
			for _, e := range search.Unique(entries) {
				fmt.Fprintln(out, e.Command)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Pick a command in an interactive finder")

	return cmd
}

// pick loads the candidates and lets the user choose one. query only seeds
// the finder's prompt so that editing it can widen the match again.
func (a *app) pick(cmd *cobra.Command, query string, filters storage.Filters) error {
	if !search.IsInteractive() {
		return fmt.Errorf("interactive search requires a terminal")
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}

	entries, err := search.Run(store, "", filters)
	if err != nil {
		return err
	}

	chosen, err := search.Pick(search.Unique(entries), query)
	if errors.Is(err, search.ErrNoMatches) || errors.Is(err, search.ErrAborted) {
		return &exitError{code: ExitNoMatches}
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), chosen.Command)
	return nil
}
