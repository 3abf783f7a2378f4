package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp [name]",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server exposing corpus search to AI
assistants. The optional name sets the corpus used when a tool call does
not name one.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead, for example to test with MCP Inspector.

Examples:
  folio mcp physics
  folio mcp --port 8080

Client configuration:
  {
    "mcpServers": {
      "folio": {
        "command": "/path/to/folio",
        "args": ["mcp", "physics"]
      }
    }
  }`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	var corpus string
	if len(args) > 0 {
		corpus = args[0]
	}

	ports := &mcp.Ports{
		Search:  searchService,
		Corpora: corpusManager,
	}
	server, err := mcp.NewServer(ports, corpus)
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
