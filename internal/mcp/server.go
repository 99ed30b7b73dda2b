// Package mcp exposes the document library to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/docqa/internal/library"
	"github.com/ziadkadry99/docqa/internal/qa"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server with the document tools.
type Server struct {
	lib      *library.Library
	answerer *qa.Answerer
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(lib *library.Library, answerer *qa.Answerer) *Server {
	s := &Server{
		lib:      lib,
		answerer: answerer,
	}

	s.mcp = server.NewMCPServer(
		"docqa",
		Version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(askQuestionTool, s.handleAskQuestion)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)

	return s
}

// Serve starts the MCP server on stdio. Stdout carries protocol messages,
// so all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
