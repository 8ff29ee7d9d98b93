package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/reperio/internal/models"
)

// formatRetrievalResult formats a retrieval result as markdown
func formatRetrievalResult(query string, result *models.RetrievalResult, confidence float64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Contexts for \"%s\" (%d returned, %d found)\n\n", query, len(result.Contexts), result.TotalFound))
	if result.Strategy != nil {
		sb.WriteString(fmt.Sprintf("**Strategy:** %s\n", result.Strategy.Kind))
	}
	sb.WriteString(fmt.Sprintf("**Confidence:** %.2f\n", confidence))
	sb.WriteString(fmt.Sprintf("**Search time:** %dms\n\n", result.SearchTimeMs))

	if len(result.Contexts) == 0 {
		sb.WriteString("No relevant contexts found.\n")
		return sb.String()
	}

	for i, c := range result.Contexts {
		sb.WriteString(fmt.Sprintf("### %d. %s (score %.3f)\n", i+1, c.Chunk.ID, c.Score))
		if c.Chunk.Metadata.DocumentID != "" {
			sb.WriteString(fmt.Sprintf("**Document:** %s\n", c.Chunk.Metadata.DocumentID))
		}
		if c.Chunk.Metadata.Section != "" {
			sb.WriteString(fmt.Sprintf("**Section:** %s\n", c.Chunk.Metadata.Section))
		}
		sb.WriteString("\n")
		sb.WriteString(c.Chunk.Content)
		sb.WriteString("\n\n")

		if len(c.Metadata.ExtractedEntities) > 0 {
			sb.WriteString(fmt.Sprintf("**Entities:** %s\n", strings.Join(c.Metadata.ExtractedEntities, ", ")))
		}
		if len(c.Metadata.Relationships) > 0 {
			sb.WriteString(fmt.Sprintf("**Relationships:** %s\n", strings.Join(c.Metadata.Relationships, "; ")))
		}
		sb.WriteString("\n---\n\n")
	}

	return sb.String()
}

// formatDocument formats a document's chunks as markdown
func formatDocument(docID string, chunks []models.DocumentChunk, meta *models.DocumentMeta) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Document %s (%d chunks)\n\n", docID, len(chunks)))

	if meta != nil {
		if meta.Filename != "" {
			sb.WriteString(fmt.Sprintf("**Filename:** %s\n", meta.Filename))
		}
		if !meta.UploadDate.IsZero() {
			sb.WriteString(fmt.Sprintf("**Uploaded:** %s\n", meta.UploadDate.Format(time.RFC3339)))
		}
		sb.WriteString("\n")
	}

	for i, chunk := range chunks {
		sb.WriteString(fmt.Sprintf("## %d. %s\n", i+1, chunk.ID))
		if chunk.Metadata.Section != "" {
			sb.WriteString(fmt.Sprintf("**Section:** %s\n", chunk.Metadata.Section))
		}
		sb.WriteString("\n")
		sb.WriteString(chunk.Content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// formatDocumentList formats the stored document IDs as markdown
func formatDocumentList(ids []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Stored Documents (%d)\n\n", len(ids)))

	if len(ids) == 0 {
		sb.WriteString("The store is empty.\n")
		return sb.String()
	}

	for i, id := range ids {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, id))
	}

	return sb.String()
}
