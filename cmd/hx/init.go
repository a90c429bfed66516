package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spideyz0r/hx/pkg/capture"
)

func (a *app) initCmd() *cobra.Command {
	var (
		install    bool
		keybinding string
	)

	cmd := &cobra.Command{
		Use:   "init [zsh|bash]",
		Short: "Print or install the shell hook",
		Long: `Print the shell integration script, or append it to your rc file with
--install. The shell defaults to $SHELL.

  eval "$(hx init zsh)"`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"zsh", "bash"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, err := shellArg(args)
			if err != nil {
				return err
			}

			if keybinding == "" {
				keybinding = a.cfg.Search.Keybinding
			}

			if !install {
				content, err := capture.GetHookContent(shell, keybinding)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}

			rcFile, err := capture.GetRCFile(shell)
			if err != nil {
				return err
			}

			result, err := capture.InstallHook(shell, rcFile, keybinding)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case result.Installed:
				fmt.Fprintf(out, "Installed hx hook in %s (backup: %s)\n", result.RCFile, result.BackupFile)
				fmt.Fprintf(out, "Restart your shell or run: source %s\n", result.RCFile)
			case result.KeybindingUpdate:
				fmt.Fprintf(out, "Updated hx keybinding to %s in %s\n", keybinding, result.RCFile)
			default:
				fmt.Fprintf(out, "hx hook already installed in %s\n", result.RCFile)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "Append the hook to the shell rc file")
	cmd.Flags().StringVar(&keybinding, "keybinding", "", "Key opening interactive search, e.g. ctrl-r (default from config)")

	return cmd
}

func shellArg(args []string) (capture.ShellType, error) {
	if len(args) == 1 {
		return capture.ParseShell(args[0])
	}
	return capture.DetectShell()
}
