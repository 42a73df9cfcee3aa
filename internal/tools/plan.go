package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/graph"
	"github.com/avigueras/deckhand/internal/pattern"
)

// PlanTool handles the plan_deployment MCP tool.
// It compiles a deployment pattern into an ordered, acyclic task list
// for an external DAG runner.
type PlanTool struct {
	patterns pattern.Store
}

// NewPlanTool creates a PlanTool backed by the given pattern library.
func NewPlanTool(patterns pattern.Store) *PlanTool {
	return &PlanTool{patterns: patterns}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_deployment",
		mcp.WithDescription(
			"Compile a deployment pattern into an executable task graph for the given platform. "+
				"Emits install/verify tasks for required dependencies, one task per command of each "+
				"infrastructure phase (with dependency edges resolved from phase prerequisites), and "+
				"barrier validation-check tasks that wait on all prior work. "+
				"The output is ordered and acyclic by construction; it is a plan only — nothing is executed.",
		),
		mcp.WithString("platform",
			mcp.Required(),
			mcp.Description("Platform namespace for generated task ids, e.g. 'openshift' or 'kubernetes'"),
		),
		mcp.WithString("pattern",
			mcp.Description("Inline pattern definition as JSON. Mutually exclusive with 'pattern_name'."),
		),
		mcp.WithString("pattern_name",
			mcp.Description("Name of a pattern in the local pattern library (DECKHAND_PATTERNS). "+
				"Mutually exclusive with 'pattern'."),
		),
	)
}

// Handle processes the plan_deployment tool call.
func (t *PlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform := strings.TrimSpace(req.GetString("platform", ""))
	inline := req.GetString("pattern", "")
	name := strings.TrimSpace(req.GetString("pattern_name", ""))

	if platform == "" {
		return mcp.NewToolResultError("'platform' is required — it namespaces every generated task id"), nil
	}
	if (inline == "") == (name == "") {
		return mcp.NewToolResultError("provide exactly one of 'pattern' (inline JSON) or 'pattern_name' (library lookup)"), nil
	}

	var p *pattern.Pattern
	var err error
	if inline != "" {
		p, err = pattern.Parse([]byte(inline))
	} else {
		p, err = t.patterns.Load(patternLibraryDir(), name)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := graph.BuildTasks(p, platform)
	if err != nil {
		return mcp.NewToolResultError(renderValidationError(err)), nil
	}

	return mcp.NewToolResultText(renderPlan(p, platform, result)), nil
}

// renderPlan formats the conversion result: a human-readable table,
// configuration warnings, and the machine-readable task list.
func renderPlan(p *pattern.Pattern, platform string, result *graph.BuildResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Deployment Plan: %s on %s\n\n", p.Name, platform)
	fmt.Fprintf(&b, "**Tasks:** %d\n\n", len(result.Tasks))

	if len(result.Tasks) == 0 {
		b.WriteString("The pattern has no infrastructure-relevant sections; nothing to run.\n")
	} else {
		b.WriteString("| # | Task | Severity | Timeout | Depends on |\n")
		b.WriteString("|---|------|----------|---------|------------|\n")
		for i, task := range result.Tasks {
			deps := "—"
			if n := len(task.DependsOn); n == 1 {
				deps = task.DependsOn[0]
			} else if n > 1 {
				deps = fmt.Sprintf("%d tasks", n)
			}
			fmt.Fprintf(&b, "| %d | `%s` | %s | %dms | %s |\n",
				i+1, task.ID, task.Severity, task.Timeout, deps)
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\n## Configuration Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- phase %q, prerequisite %q: %s\n", w.Phase, w.Prerequisite, w.Reason)
		}
	}

	payload, err := jsonBlock(result)
	if err != nil {
		// The table above is already rendered; report the payload
		// failure instead of dropping the whole response.
		payload = fmt.Sprintf("(task list unavailable: %v)", err)
	}
	b.WriteString("\n## Task List (JSON)\n\n")
	b.WriteString(payload)
	b.WriteString("\n\nValidation-check tasks carry an advisory output classifier; ")
	b.WriteString("the DAG runner must treat its verdict as a hint, not a guarantee.")

	return b.String()
}
