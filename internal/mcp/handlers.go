package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docqa/internal/qa"
)

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	excerpts, err := s.answerer.Retriever().Retrieve(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(excerpts) == 0 {
		return mcp.NewToolResultText("No matching excerpts. Upload documents with `docqa ingest` first."), nil
	}
	if len(excerpts) > limit {
		excerpts = excerpts[:limit]
	}
	return mcp.NewToolResultText(formatExcerpts(excerpts)), nil
}

func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	ans, err := s.answerer.Answer(ctx, question, request.GetString("model", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(ans.Text)
	sb.WriteString("\n")
	if len(ans.Excerpts) > 0 {
		sb.WriteString("\nSources:\n")
		for _, e := range ans.Excerpts {
			fmt.Fprintf(&sb, "- %s (chunk %d, similarity %.2f)\n", e.Filename, e.Chunk, e.Score)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.lib.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents failed: %v", err)), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents indexed."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d document(s):\n", len(docs))
	for _, d := range docs {
		fmt.Fprintf(&sb, "\n- %s\n  key: %s\n  chunks: %d\n", d.Filename, d.Key, d.Chunks)
		if d.DocumentName != "" {
			fmt.Fprintf(&sb, "  name: %s\n", d.DocumentName)
		}
		if d.DocumentDescription != "" {
			fmt.Fprintf(&sb, "  description: %s\n", d.DocumentDescription)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatExcerpts renders excerpts for AI agent consumption.
func formatExcerpts(excerpts []qa.Excerpt) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d excerpt(s):\n", len(excerpts))

	for i, e := range excerpts {
		fmt.Fprintf(&sb, "\n--- Excerpt %d ---\n", i+1)
		fmt.Fprintf(&sb, "File: %s (chunk %d)\n", e.Filename, e.Chunk)
		if e.DocumentName != "" {
			fmt.Fprintf(&sb, "Document: %s\n", e.DocumentName)
		}
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n\n", e.Score*100)
		sb.WriteString(strings.TrimSpace(e.Content))
		sb.WriteString("\n")
	}
	return sb.String()
}
