// Package mcp exposes the chatbot to MCP clients over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/kompas/internal/chatbot"
	"github.com/ziadkadry99/kompas/internal/conversation"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Assistant is the part of *chatbot.Chatbot the tools call.
type Assistant interface {
	IndexCorpus(ctx context.Context) (chatbot.IndexResult, error)
	Chat(ctx context.Context, message string) (string, error)
	History() []conversation.Turn
	ResetHistory()
	Stats() chatbot.Stats
}

// Server wraps an MCP server that exposes the assistant as tools.
type Server struct {
	bot Assistant
	mcp *server.MCPServer
}

// NewServer creates a new MCP server for bot.
func NewServer(bot Assistant) *Server {
	s := &Server{bot: bot}

	s.mcp = server.NewMCPServer(
		"kompas",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(chatTool, s.handleChat)
	s.mcp.AddTool(indexDocumentsTool, s.handleIndexDocuments)
	s.mcp.AddTool(getChatHistoryTool, s.handleGetChatHistory)
	s.mcp.AddTool(resetChatHistoryTool, s.handleResetChatHistory)
	s.mcp.AddTool(corpusStatsTool, s.handleCorpusStats)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
