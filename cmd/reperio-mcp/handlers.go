package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// handleRetrieve implements the retrieve tool
func handleRetrieve(retrievalService interfaces.RetrievalService, confidenceService interfaces.ConfidenceEstimator, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		topK := request.GetInt("top_k", 0)
		scope := request.GetStringSlice("scope", nil)

		var result *models.RetrievalResult
		if kind := request.GetString("strategy", ""); kind != "" {
			// An unknown kind degrades to the fallback strategy inside
			// the engine rather than failing the call
			forced := &models.RetrievalStrategy{Kind: models.StrategyKind(kind)}
			result, err = retrievalService.RetrieveWithStrategy(ctx, query, forced, scope, topK)
		} else {
			result, err = retrievalService.Retrieve(ctx, query, scope, topK)
		}
		if err != nil {
			logger.Error().Err(err).Msg("Retrieval failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Retrieval error: %v", err)),
				},
			}, nil
		}

		estimate := confidenceService.Estimate(ctx, nil, "", 0, result.Contexts)

		markdown := formatRetrievalResult(query, result, estimate)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleGetDocument implements the get_document tool
func handleGetDocument(store interfaces.VectorStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docID, err := request.RequireString("document_id")
		if err != nil || docID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: document_id parameter is required"),
				},
			}, nil
		}

		chunks, err := store.GetDocument(ctx, docID)
		if err != nil {
			logger.Error().Err(err).Str("document_id", docID).Msg("GetDocument failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Document not found: %v", err)),
				},
			}, nil
		}

		meta, err := store.GetDocumentMeta(ctx, docID)
		if err != nil {
			meta = nil
		}

		markdown := formatDocument(docID, chunks, meta)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleListDocuments implements the list_documents tool
func handleListDocuments(store interfaces.VectorStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := store.ListDocuments(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("ListDocuments failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("List error: %v", err)),
				},
			}, nil
		}

		markdown := formatDocumentList(ids)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}
