package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP control server",
	Long: `Starts the engine behind a JSON API: device events on /input/{device}, raw signals on /press,
commands on /command, state on /state, a server-sent event stream on /events and Prometheus
metrics on /metrics. The server stops when the content reaches its exit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ServeOptions{Options: options(cmd)}
		dirFromArgs(cmd, args, &opts.Options)
		port, _ := cmd.Flags().GetString("port")
		opts.Addr = ":" + port
		opts.Ready = func(addr string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting vaudio server on %s\n", addr)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving content from: %s\n", opts.Dir)
		}
		if err := cli.Serve(cmd.Context(), opts); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "vaudio server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
