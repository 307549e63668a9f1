// Package history exports council conversations to portable formats.
// Conversations live behind the backend API; this package only shapes
// what the client fetched.
package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diogo/llmcouncil/internal/models"
	"github.com/diogo/llmcouncil/internal/render"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how conversations are exported
type ExportOptions struct {
	Format ExportFormat
	// IncludeStages includes the full stage-by-stage council
	// transcript instead of only the final verdicts.
	IncludeStages bool
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:        ExportFormatMarkdown,
		IncludeStages: true,
	}
}

// Export serializes a conversation in the requested format
func Export(conv *models.Conversation, opts ExportOptions) (string, error) {
	switch opts.Format {
	case ExportFormatJSON:
		return ToJSON(conv)
	case ExportFormatMarkdown, "":
		return ToMarkdown(conv, opts), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", opts.Format)
	}
}

// ToJSON exports a conversation as pretty-printed JSON
func ToJSON(conv *models.Conversation) (string, error) {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation: %w", err)
	}
	return string(data), nil
}

// ToMarkdown exports a conversation to Markdown format
func ToMarkdown(conv *models.Conversation, opts ExportOptions) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# ")
	if conv.Title != "" {
		sb.WriteString(conv.Title)
	} else {
		sb.WriteString("Conversation " + conv.ID)
	}
	sb.WriteString("\n\n")

	sb.WriteString("**ID:** ")
	sb.WriteString(conv.ID)
	sb.WriteString("\n")
	if conv.CreatedAt != "" {
		sb.WriteString("**Created:** ")
		sb.WriteString(conv.CreatedAt)
		sb.WriteString("\n")
	}
	sb.WriteString("**Messages:** ")
	sb.WriteString(fmt.Sprintf("%d", len(conv.Messages)))
	sb.WriteString("\n\n---\n\n")

	// Messages
	for i, msg := range conv.Messages {
		role := "User"
		if msg.Role == models.RoleAssistant {
			role = "Council"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if msg.Role == models.RoleAssistant {
			if mode := msg.ModeLabel(); mode != "" {
				fmt.Fprintf(&sb, " (%s)", mode)
			}
		}
		sb.WriteString("\n\n")

		if msg.Role == models.RoleAssistant && opts.IncludeStages {
			sb.WriteString(render.CouncilMarkdown(&msg))
		} else {
			sb.WriteString(msg.FinalText())
		}
		sb.WriteString("\n")

		if i < len(conv.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}
