package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/presage-dev/presage/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP (Model Context Protocol) server for LLM tool integration",
	Long: `Starts an MCP server over stdio transport that exposes change-set
analysis as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "presage": {
        "command": "presage",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_diff   Risk findings and flags for a ref range or raw diff
  - cache_stats    Analysis cache statistics for a repository`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().Bool("manifest", false, "Print the server manifest (server.json) and exit")

	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	if manifest, _ := cmd.Flags().GetBool("manifest"); manifest {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return mcpserver.NewServer(version, cfg).Run(cmd.Context())
}
