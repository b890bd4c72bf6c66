package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run the content interactively",
	Long: `Runs the engine in the terminal. Each input line is a command (3+4), a key (w)
or a raw device event (voice {"transcript":"yes"}).

Modes:
- default: styled text with a prompt when attached to a terminal
- --headless: plain text, no prompt, for pipes and scripts
- --json: one JSON frame per line on stdout
- --tui: full screen, reading keys and mouse directly`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{Options: options(cmd)}
		dirFromArgs(cmd, args, &opts.Options)
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.TUI, _ = cmd.Flags().GetBool("tui")
		return cli.Execute(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("headless", false, "Plain text output without prompt or styling")
	runCmd.Flags().Bool("json", false, "Write JSON frames instead of text")
	runCmd.Flags().Bool("tui", false, "Full screen terminal with key and mouse input")
}
