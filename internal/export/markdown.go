package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/agent-chat/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", transcript.SessionID)

	if transcript.FetchedAt != "" {
		_, _ = fmt.Fprintf(w, "**Fetched:** %s  \n", transcript.FetchedAt)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range transcript.Messages {
		content := escapeMarkdown(msg.Content)

		_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", roleLabel(msg.Role), content)

		if len(msg.Steps) > 0 {
			_, _ = fmt.Fprintf(w, "<details><summary>%d steps</summary>\n\n", len(msg.Steps))
			for _, step := range msg.Steps {
				_, _ = fmt.Fprintf(w, "- `%s`: %s\n", step.Step, internal.NormalizeContent(step.Content))
			}
			_, _ = fmt.Fprintf(w, "\n</details>\n\n")
		}

		// Horizontal rule after each message (except the last one)
		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// roleLabel maps backend roles to display labels
func roleLabel(role string) string {
	switch role {
	case internal.RoleHuman:
		return "You"
	case internal.RoleAI:
		return "Assistant"
	default:
		return role
	}
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
