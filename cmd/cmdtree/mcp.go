package main

import (
	"fmt"

	"github.com/aretw0/cmdtree/internal/cli"
	"github.com/aretw0/cmdtree/internal/config"
	"github.com/aretw0/cmdtree/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the command tree to AI agents as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		app, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer app.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if err := app.RestoreView(sigCtx); err != nil {
			app.Logger.Warn("Saved view not applied", "err", err)
		}
		if app.Config.Source.Kind != config.KindMemory {
			driver, err := app.Driver(sigCtx)
			if err != nil {
				return err
			}
			go func() { _ = driver.Run(sigCtx) }()
		}

		srv := mcp.NewServer(app.Viewer, app.Sink, mcp.WithLogger(app.Logger))
		switch transport {
		case "stdio":
			app.Logger.Info("Starting cmdtree MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			app.Logger.Info("Starting cmdtree MCP Server (SSE)", "address", addr)
			return srv.ServeSSE(sigCtx, addr, "http://localhost"+addr)
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
}
