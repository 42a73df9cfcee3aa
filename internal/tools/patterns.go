package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/pattern"
)

// PatternsTool handles the list_patterns MCP tool.
type PatternsTool struct {
	patterns pattern.Store
}

// NewPatternsTool creates a PatternsTool backed by the given library.
func NewPatternsTool(patterns pattern.Store) *PatternsTool {
	return &PatternsTool{patterns: patterns}
}

// Definition returns the MCP tool definition for registration.
func (t *PatternsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_patterns",
		mcp.WithDescription(
			"List the deployment patterns available in the local pattern library "+
				"(DECKHAND_PATTERNS, default ~/.deckhand/patterns). Use a listed name "+
				"as 'pattern_name' in plan_deployment.",
		),
	)
}

// Handle processes the list_patterns tool call.
func (t *PatternsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := patternLibraryDir()
	names, err := t.patterns.List(dir)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}

	if len(names) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No patterns in %s. Drop a <name>.json pattern file there, or pass an "+
				"inline pattern to plan_deployment.", dir,
		)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Pattern Library (%s)\n\n", dir)
	for _, name := range names {
		fmt.Fprintf(&b, "- `%s`\n", name)
	}

	return mcp.NewToolResultText(b.String()), nil
}
