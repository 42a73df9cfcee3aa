package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/taskstore"
)

// TodoAddTool handles the todo_add MCP tool.
// It creates a TODO task; any declared dependencies are validated
// against the current graph before the task is committed.
type TodoAddTool struct {
	store *taskstore.Store
}

// NewTodoAddTool creates a TodoAddTool with the given task store.
func NewTodoAddTool(store *taskstore.Store) *TodoAddTool {
	return &TodoAddTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TodoAddTool) Definition() mcp.Tool {
	return mcp.NewTool("todo_add",
		mcp.WithDescription(
			"Create a TODO task in the dependency graph. Dependencies must reference "+
				"existing task ids, may not include the task itself, and may not create a "+
				"cycle — the mutation is rejected with a structured error otherwise.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title for the task"),
		),
		mcp.WithString("id",
			mcp.Description("Task id; generated when omitted"),
		),
		mcp.WithString("description",
			mcp.Description("Longer description of the work"),
		),
		mcp.WithArray("dependencies",
			mcp.Description("Ids of tasks that must complete before this one"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the todo_add tool call.
func (t *TodoAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	task, err := t.store.Create(taskstore.CreateParams{
		ID:           strings.TrimSpace(req.GetString("id", "")),
		Title:        title,
		Description:  req.GetString("description", ""),
		Dependencies: req.GetStringSlice("dependencies", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(renderValidationError(err)), nil
	}

	deps := "none"
	if len(task.Dependencies) > 0 {
		deps = "`" + strings.Join(task.Dependencies, "`, `") + "`"
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Task Created\n\n"+
			"**ID:** `%s`\n"+
			"**Title:** %s\n"+
			"**Status:** %s\n"+
			"**Dependencies:** %s\n",
		task.ID, task.Title, task.Status, deps,
	)), nil
}
