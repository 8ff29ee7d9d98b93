package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createRetrieveTool returns the retrieve tool definition
func createRetrieveTool() mcp.Tool {
	return mcp.NewTool("retrieve",
		mcp.WithDescription("Retrieve relevant context chunks for a question using adaptive hybrid search over the Reperio store"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language question or search query"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum contexts to return (default: configured max_results)"),
		),
		mcp.WithArray("scope",
			mcp.WithStringItems(),
			mcp.Description("Restrict search to these document IDs (default: all documents)"),
		),
		mcp.WithString("strategy",
			mcp.Description("Force a strategy instead of adaptive selection: simple, multi_stage, knowledge_graph, multimodal, expert_domain"),
		),
	)
}

// createGetDocumentTool returns the get_document tool definition
func createGetDocumentTool() mcp.Tool {
	return mcp.NewTool("get_document",
		mcp.WithDescription("Retrieve all chunks of a stored document by its ID"),
		mcp.WithString("document_id",
			mcp.Required(),
			mcp.Description("Document ID as used at upload time"),
		),
	)
}

// createListDocumentsTool returns the list_documents tool definition
func createListDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List the IDs of all documents in the Reperio store"),
	)
}
