package mcp

import "github.com/mark3labs/mcp-go/mcp"

// chatTool defines the chat MCP tool.
var chatTool = mcp.NewTool("chat",
	mcp.WithDescription("Send a message to the career counsellor. Answers come from the indexed documents when they are relevant, otherwise from the language model. The conversation is kept between calls."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The user's message"),
	),
)

// indexDocumentsTool defines the index_documents MCP tool.
var indexDocumentsTool = mcp.NewTool("index_documents",
	mcp.WithDescription("Index documents that were added to the watched directory since the last indexing run."),
)

// getChatHistoryTool defines the get_chat_history MCP tool.
var getChatHistoryTool = mcp.NewTool("get_chat_history",
	mcp.WithDescription("Return the conversation so far as a JSON list of turns."),
)

// resetChatHistoryTool defines the reset_chat_history MCP tool.
var resetChatHistoryTool = mcp.NewTool("reset_chat_history",
	mcp.WithDescription("Discard the conversation and start again from the initial persona."),
)

// corpusStatsTool defines the corpus_stats MCP tool.
var corpusStatsTool = mcp.NewTool("corpus_stats",
	mcp.WithDescription("Report how many files and chunks are indexed."),
)
