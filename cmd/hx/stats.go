package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/search"
	"github.com/spideyz0r/hx/pkg/stats"
)

func (a *app) statsCmd() *cobra.Command {
	var (
		flags filterFlags
		top   int
	)

	cmd := &cobra.Command{
		Use:   "stats [query...]",
		Short: "Show history statistics",
		Long: `Show history statistics. A query or any of the search flags restricts
the statistics to the matching commands.

Examples:
  hx stats
  hx stats --here
  hx stats --mode prefix git`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}

			var s *stats.Stats
			if len(args) == 0 && !filtered(cmd) {
				s, err = stats.Collect(store)
			} else {
				filters, ferr := a.filters(cmd, &flags)
				if ferr != nil {
					return ferr
				}
				if !cmd.Flags().Changed("limit") {
					filters.Limit = 0
				}
				s, err = stats.CollectFiltered(store, search.QueryFromArgs(args, ""), filters)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), s.Format(top))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&top, "top", 10, "Number of top commands to show")
	return cmd
}

// filtered reports whether any search flag was given
func filtered(cmd *cobra.Command) bool {
	for _, name := range []string{"cwd", "here", "exit", "limit", "mode"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
