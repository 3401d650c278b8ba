package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/kompas/internal/chatbot"
	"github.com/ziadkadry99/kompas/internal/corpus"
)

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	reply, err := s.bot.Chat(ctx, message)
	if errors.Is(err, chatbot.ErrEmptyMessage) {
		return mcp.NewToolResultError("message must not be empty"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func (s *Server) handleIndexDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.bot.IndexCorpus(ctx)
	if errors.Is(err, corpus.ErrCorpusAccess) {
		return mcp.NewToolResultError("The document directory cannot be read. Check upload_dir in .kompas.yml."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	if res.NewFiles == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No new documents. %d chunks indexed.", res.TotalChunks)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Indexed %d new file(s) into %d new chunk(s). %d chunks indexed in total.",
		res.NewFiles, res.NewChunks, res.TotalChunks,
	)), nil
}

func (s *Server) handleGetChatHistory(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(s.bot.History(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding history: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleResetChatHistory(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.bot.ResetHistory()
	return mcp.NewToolResultText("Chat history reset successfully"), nil
}

func (s *Server) handleCorpusStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.bot.Stats()
	if !st.Indexed {
		return mcp.NewToolResultText("Nothing indexed yet. Run the index_documents tool first."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"%d file(s), %d document(s), %d chunk(s), top %d per query, built %s",
		st.IndexedFiles, st.Documents, st.Chunks, st.TopK, st.BuiltAt.Format("2006-01-02 15:04:05"),
	)), nil
}
