package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the navigation graph visualization",
	Long:  `Crawls the content and outputs a Mermaid diagram (graph TD) of programs, games and scenes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		dirFromArgs(cmd, args, &opts)
		return cli.Graph(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
