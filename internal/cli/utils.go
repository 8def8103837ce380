// Package cli provides output helpers for the Omoide command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/omoide/internal/models"
	"github.com/hyperjump/omoide/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat converts a flag value into an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteMemories writes a memory list to w in the given format.
func WriteMemories(w io.Writer, memories []*models.Memory, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(memories)
	}
	if len(memories) == 0 {
		fmt.Fprintln(w, "No memories found.")
		return nil
	}
	fmt.Fprintf(w, "\nFound %d memories\n\n", len(memories))
	for _, m := range memories {
		writeOneMemory(w, m)
	}
	return nil
}

func writeOneMemory(w io.Writer, m *models.Memory) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%s] %s\n", m.Type, m.Title)
	fmt.Fprintf(w, "ID: %s\n", m.ID)
	if len(m.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(m.Content, 200))
}

// WriteChatResponse writes an assistant reply with its cited memories.
func WriteChatResponse(w io.Writer, resp *models.ChatResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Fprintf(w, "\n%s\n", resp.Message)
	if len(resp.RelevantMemories) > 0 {
		fmt.Fprintln(w, "\nBased on:")
		for _, m := range resp.RelevantMemories {
			fmt.Fprintf(w, "  • %s (%s)\n", m.Title, m.Type)
		}
	}
	if !resp.Success && resp.Note != "" {
		fmt.Fprintf(w, "\nNote: %s\n", resp.Note)
	}
	return nil
}

// WriteStats writes corpus statistics.
func WriteStats(w io.Writer, stats *models.Stats, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "total:      %d\n", stats.Total)
	fmt.Fprintf(w, "ideas:      %d\n", stats.Ideas)
	fmt.Fprintf(w, "notes:      %d\n", stats.Notes)
	fmt.Fprintf(w, "learnings:  %d\n", stats.Learnings)
	fmt.Fprintf(w, "tasks:      %d\n", stats.Tasks)
	return nil
}
