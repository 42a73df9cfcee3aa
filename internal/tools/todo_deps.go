package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/taskstore"
)

// TodoSetDepsTool handles the todo_set_dependencies MCP tool.
// It replaces a task's dependency list, gated by the detector:
// validate-then-commit against the current graph snapshot.
type TodoSetDepsTool struct {
	store *taskstore.Store
}

// NewTodoSetDepsTool creates a TodoSetDepsTool with the given task store.
func NewTodoSetDepsTool(store *taskstore.Store) *TodoSetDepsTool {
	return &TodoSetDepsTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TodoSetDepsTool) Definition() mcp.Tool {
	return mcp.NewTool("todo_set_dependencies",
		mcp.WithDescription(
			"Replace a TODO task's dependency list. The proposal is validated before "+
				"anything is written: every id must exist (DEPENDENCY_NOT_FOUND), the task "+
				"may not depend on itself (SELF_DEPENDENCY), and the edges may not close a "+
				"cycle (CIRCULAR_DEPENDENCY, reported with the full offending path). "+
				"Pass an empty list to clear all dependencies.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the task to update"),
		),
		mcp.WithArray("dependencies",
			mcp.Required(),
			mcp.Description("The complete replacement dependency list (task ids)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the todo_set_dependencies tool call.
func (t *TodoSetDepsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	deps := req.GetStringSlice("dependencies", []string{})

	task, err := t.store.SetDependencies(id, deps)
	if err != nil {
		return mcp.NewToolResultError(renderValidationError(err)), nil
	}

	rendered := "none"
	if len(task.Dependencies) > 0 {
		rendered = "`" + strings.Join(task.Dependencies, "`, `") + "`"
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Dependencies Updated\n\n"+
			"**Task:** `%s` — %s\n"+
			"**Dependencies:** %s\n",
		task.ID, task.Title, rendered,
	)), nil
}
