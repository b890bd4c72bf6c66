package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/vaudio/internal/cli"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [dir]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP Server so agents can navigate the content with tools
(press, force_command, send_input, get_state, run_action).

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.MCPOptions{Options: options(cmd)}
		dirFromArgs(cmd, args, &opts.Options)
		opts.Transport, _ = cmd.Flags().GetString("transport")
		opts.Port, _ = cmd.Flags().GetInt("port")
		return cli.ServeMCP(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
