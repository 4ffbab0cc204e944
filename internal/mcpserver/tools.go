package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/presage-dev/presage/internal/output"
	"github.com/presage-dev/presage/internal/service/analysis"
)

// AnalyzeDiffInput is the input for the analyze_diff tool.
type AnalyzeDiffInput struct {
	Path    string `json:"path,omitempty" jsonschema:"Repository path. Defaults to current directory."`
	Base    string `json:"base,omitempty" jsonschema:"Base ref to compare from. Default HEAD~1."`
	Head    string `json:"head,omitempty" jsonschema:"Head ref to compare to. Default HEAD."`
	Diff    string `json:"diff,omitempty" jsonschema:"Raw unified diff text to analyze instead of reading from the repository."`
	NoCache bool   `json:"no_cache,omitempty" jsonschema:"Bypass the analysis cache for this run."`
	Format  string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// CacheStatsInput is the input for the cache_stats tool.
type CacheStatsInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Repository path whose cache to inspect. Defaults to current directory."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getFormat(s string) output.Format {
	switch s {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	if format == output.FormatMarkdown {
		return "```\n" + string(out) + "\n```", nil
	}
	return string(out), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeDiff(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeDiffInput) (*mcp.CallToolResult, any, error) {
	base := input.Base
	if base == "" {
		base = "HEAD~1"
	}
	head := input.Head
	if head == "" {
		head = "HEAD"
	}

	svc := analysis.New(analysis.WithConfig(s.config))
	report, err := svc.AnalyzeChangeSet(ctx, analysis.RunOptions{
		Path:     input.Path,
		Base:     base,
		Head:     head,
		DiffText: input.Diff,
		NoCache:  input.NoCache,
	})
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(report, getFormat(input.Format))
}

func (s *Server) handleCacheStats(ctx context.Context, req *mcp.CallToolRequest, input CacheStatsInput) (*mcp.CallToolResult, any, error) {
	svc := analysis.New(analysis.WithConfig(s.config))
	store, err := svc.OpenStore(input.Path)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(store.GetStats(), getFormat(input.Format))
}
