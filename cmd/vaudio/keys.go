package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio/internal/cli"
)

var keysCmd = &cobra.Command{
	Use:   "keys [dir]",
	Short: "Print the trigger table of every input device",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		dirFromArgs(cmd, args, &opts)
		return cli.Keys(opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
}
