package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avigueras/deckhand/internal/graph"
)

// EvaluateTool handles the evaluate_check_output MCP tool.
// It runs the validation-check output classifier over captured command
// output — the same heuristic the generated check tasks carry.
type EvaluateTool struct{}

// NewEvaluateTool creates an EvaluateTool.
func NewEvaluateTool() *EvaluateTool {
	return &EvaluateTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *EvaluateTool) Definition() mcp.Tool {
	return mcp.NewTool("evaluate_check_output",
		mcp.WithDescription(
			"Classify captured command output as pass/fail for a validation check. "+
				"Heuristics apply in order: failure keywords fail the check; deployment/ready "+
				"checks require 'ready' or 'running'; endpoint/service checks require an IPv4 "+
				"address; anything else passes. ADVISORY ONLY — a text heuristic, not a "+
				"correctness guarantee.",
		),
		mcp.WithString("check_id",
			mcp.Description("The validation check's id, used to select the heuristic"),
		),
		mcp.WithString("check_name",
			mcp.Description("The validation check's display name, used to select the heuristic"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("The captured command output to classify"),
		),
	)
}

// Handle processes the evaluate_check_output tool call.
func (t *EvaluateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	checkID := req.GetString("check_id", "")
	checkName := req.GetString("check_name", "")
	output, err := req.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError("'output' is required — pass the captured command output"), nil
	}

	passed, reason := graph.DescribePredicate(checkID, checkName, output)

	verdict := "FAIL"
	if passed {
		verdict = "PASS"
	}

	label := strings.TrimSpace(checkName)
	if label == "" {
		label = checkID
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Check Output Classification\n\n"+
			"**Check:** %s\n"+
			"**Verdict:** %s\n"+
			"**Heuristic:** %s\n\n"+
			"This verdict is advisory: it classifies text, it does not prove the "+
			"deployment state. Treat it as input to a decision, not the decision.",
		label, verdict, reason,
	)), nil
}
