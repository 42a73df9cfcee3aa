package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/taskstore"
)

// AuditTool handles the todo_audit MCP tool.
// It sweeps the whole TODO graph for cycles. A healthy graph reports
// nothing: every mutation is already gated, so a cycle here means the
// store was edited out of band.
type AuditTool struct {
	store *taskstore.Store
}

// NewAuditTool creates an AuditTool with the given task store.
func NewAuditTool(store *taskstore.Store) *AuditTool {
	return &AuditTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *AuditTool) Definition() mcp.Tool {
	return mcp.NewTool("todo_audit",
		mcp.WithDescription(
			"Scan the entire TODO task graph for circular dependencies. Each task is "+
				"probed as a traversal root, so one structural cycle is reported once per "+
				"task on it — the report count can exceed the cycle count.",
		),
	)
}

// Handle processes the todo_audit tool call.
func (t *AuditTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, err := t.store.Audit()
	if err != nil {
		return nil, fmt.Errorf("auditing task graph: %w", err)
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No cycles found. The TODO task graph is acyclic."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Cycle Audit: %d report(s)\n\n", len(results))
	b.WriteString("One structural cycle appears once per task on it.\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, renderCyclePath(r.Path))
	}
	b.WriteString("\nBreak a cycle by clearing one of its edges with `todo_set_dependencies`.")

	return mcp.NewToolResultText(b.String()), nil
}
