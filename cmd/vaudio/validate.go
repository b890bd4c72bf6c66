package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the content for broken targets",
	Long:  `Crawls every program, game, scene and extra frame reachable from the initial menu and reports missing or unparsable content.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		dirFromArgs(cmd, args, &opts)
		if err := cli.Validate(cmd.Context(), opts, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Content is valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
