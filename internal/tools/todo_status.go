package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/taskstore"
)

// TodoStatusTool handles the todo_set_status MCP tool.
type TodoStatusTool struct {
	store *taskstore.Store
}

// NewTodoStatusTool creates a TodoStatusTool with the given task store.
func NewTodoStatusTool(store *taskstore.Store) *TodoStatusTool {
	return &TodoStatusTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TodoStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("todo_set_status",
		mcp.WithDescription("Update a TODO task's lifecycle status."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the task to update"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status"),
			mcp.Enum("pending", "in_progress", "completed"),
		),
	)
}

// Handle processes the todo_set_status tool call.
func (t *TodoStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	task, err := t.store.SetStatus(id, taskstore.Status(req.GetString("status", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Task `%s` (%s) is now **%s**.", task.ID, task.Title, task.Status,
	)), nil
}
