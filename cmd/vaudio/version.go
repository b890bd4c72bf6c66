package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vaudio",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vaudio version %s\n", strings.TrimSpace(vaudio.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
