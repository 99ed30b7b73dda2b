package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Semantic search over every indexed document. Returns the matching excerpts with their source file and similarity."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of excerpts to return (default 10)"),
	),
)

var askQuestionTool = mcp.NewTool("ask_question",
	mcp.WithDescription("Answer a question from the indexed documents using an LLM."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer"),
	),
	mcp.WithString("model",
		mcp.Description("Model choice, e.g. openai or grok (default: configured provider)"),
	),
)

var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the indexed documents with their keys, names and chunk counts."),
)
