// Package tools implements the MCP tool handlers exposed by deckhand.
//
// Each tool is a struct that receives its dependencies at construction
// (DIP) and exposes a Definition for registration plus a Handle matching
// mcp-go's CallToolRequest signature. One file per tool.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avigueras/deckhand/internal/graph"
)

// patternLibraryDir resolves the pattern library directory:
// DECKHAND_PATTERNS when set, else ~/.deckhand/patterns.
func patternLibraryDir() string {
	if dir := os.Getenv("DECKHAND_PATTERNS"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".deckhand", "patterns")
}

// jsonBlock renders a value as an indented JSON code fence for tool
// responses that carry a machine-readable payload.
func jsonBlock(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding response payload: %w", err)
	}
	return "```json\n" + string(data) + "\n```", nil
}

// renderValidationError formats a graph validation failure for the
// operator: stable code first, then the detail, then the cycle path
// when there is one.
func renderValidationError(err error) string {
	var verr *graph.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n%s\n", verr.Code, verr.Error())

	if len(verr.Path) > 0 {
		b.WriteString("\nCycle path:\n")
		for i, n := range verr.Path {
			title := n.Title
			if title == "" {
				title = "(no title)"
			}
			fmt.Fprintf(&b, "  %d. `%s` — %s\n", i+1, n.TaskID, title)
		}
	}
	return b.String()
}

// renderCyclePath formats one detector path as a single arrow chain.
func renderCyclePath(path []graph.CycleNode) string {
	ids := make([]string, len(path))
	for i, n := range path {
		ids[i] = n.TaskID
	}
	return strings.Join(ids, " -> ")
}
