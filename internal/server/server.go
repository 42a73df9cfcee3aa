// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools that depend on abstractions. No graph
// logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/avigueras/deckhand/internal/pattern"
	"github.com/avigueras/deckhand/internal/taskstore"
	"github.com/avigueras/deckhand/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the task store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil.
func New() (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	patternStore := pattern.NewFileStore()

	taskStore, err := taskstore.New(taskstore.DefaultConfig())
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening task store: %w", err)
	}
	cleanup := func() { _ = taskStore.Close() }

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"deckhand",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register planning tools ---

	planTool := tools.NewPlanTool(patternStore)
	s.AddTool(planTool.Definition(), planTool.Handle)

	patternsTool := tools.NewPatternsTool(patternStore)
	s.AddTool(patternsTool.Definition(), patternsTool.Handle)

	evaluateTool := tools.NewEvaluateTool()
	s.AddTool(evaluateTool.Definition(), evaluateTool.Handle)

	// --- Register TODO graph tools ---
	//
	// Every mutation goes through the task store, which validates
	// against its current snapshot before committing. The tools never
	// touch the database directly.

	todoAddTool := tools.NewTodoAddTool(taskStore)
	s.AddTool(todoAddTool.Definition(), todoAddTool.Handle)

	todoSetDepsTool := tools.NewTodoSetDepsTool(taskStore)
	s.AddTool(todoSetDepsTool.Definition(), todoSetDepsTool.Handle)

	todoStatusTool := tools.NewTodoStatusTool(taskStore)
	s.AddTool(todoStatusTool.Definition(), todoStatusTool.Handle)

	todoListTool := tools.NewTodoListTool(taskStore)
	s.AddTool(todoListTool.Definition(), todoListTool.Handle)

	auditTool := tools.NewAuditTool(taskStore)
	s.AddTool(auditTool.Definition(), auditTool.Handle)

	return s, cleanup, nil
}

// serverInstructions returns the system instructions sent to MCP clients.
func serverInstructions() string {
	return `Deckhand compiles declarative deployment patterns into executable task
graphs and guards a TODO task graph against circular dependencies.

Planning:
- list_patterns shows the local pattern library.
- plan_deployment compiles a pattern (inline JSON or by library name) for a
  platform into an ordered, acyclic task list. Nothing is executed — hand
  the JSON task list to your DAG runner.
- evaluate_check_output classifies captured command output for a validation
  check. Its verdict is advisory text classification, never proof.

TODO graph:
- todo_add / todo_set_dependencies / todo_set_status / todo_list manage
  tasks. Dependency mutations are validated before commit and rejected
  with DEPENDENCY_NOT_FOUND, SELF_DEPENDENCY, or CIRCULAR_DEPENDENCY
  (with the full cycle path).
- todo_audit sweeps the whole graph for cycles; it reports one cycle once
  per task on it.`
}
