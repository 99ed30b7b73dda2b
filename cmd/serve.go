package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/docqa/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document search, question answering and listing tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appOptions{history: true})
		if err != nil {
			return err
		}
		defer a.Close()

		keys, err := a.lib.Keys()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintln(os.Stderr, "Warning: no documents indexed yet. Run `docqa ingest` first.")
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "docqa MCP server started on stdio (library=%s, documents=%d)\n", a.cfg.VectorDir, len(keys))

		srv := mcpserver.NewServer(a.lib, a.answerer)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
