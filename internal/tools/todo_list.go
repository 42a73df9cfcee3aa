package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/taskstore"
)

// TodoListTool handles the todo_list MCP tool.
type TodoListTool struct {
	store *taskstore.Store
}

// NewTodoListTool creates a TodoListTool with the given task store.
func NewTodoListTool(store *taskstore.Store) *TodoListTool {
	return &TodoListTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *TodoListTool) Definition() mcp.Tool {
	return mcp.NewTool("todo_list",
		mcp.WithDescription(
			"List all TODO tasks with their status, dependencies (fan-out), and "+
				"the tasks that depend on them (fan-in).",
		),
	)
}

// Handle processes the todo_list tool call.
func (t *TodoListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := t.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	if len(tasks) == 0 {
		return mcp.NewToolResultText("No TODO tasks yet. Create one with `todo_add`."), nil
	}

	// Fan-in: who depends on each task.
	dependents := make(map[string][]string)
	for _, task := range tasks {
		for _, dep := range task.Dependencies {
			dependents[dep] = append(dependents[dep], task.ID)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# TODO Tasks (%d)\n\n", len(tasks))
	b.WriteString("| ID | Title | Status | Depends on | Blocks |\n")
	b.WriteString("|----|-------|--------|------------|--------|\n")
	for _, task := range tasks {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
			task.ID, task.Title, task.Status,
			joinOrDash(task.Dependencies), joinOrDash(dependents[task.ID]))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "—"
	}
	return "`" + strings.Join(ids, "`, `") + "`"
}
