// Package graph is the task dependency graph engine.
//
// It has two independent halves:
//
//   - the pattern-to-DAG converter (convert.go), which compiles a
//     declarative deployment pattern into an ordered, acyclic task list
//     for an external DAG runner, and
//   - the circular-dependency detector (cycle.go), which gates mutations
//     to an externally owned TODO task graph.
//
// Both halves are pure: they operate on value snapshots passed in by the
// caller, perform no I/O, and keep no state between calls. Identical
// inputs always produce identical outputs, so callers may invoke them
// concurrently as long as each call gets its own snapshot. The
// validate-then-commit discipline (check against the current snapshot,
// then write under a single writer) is the owning store's responsibility.
package graph

import "strings"

// --- Severity enum ---

// Severity classifies how a DAG runner should treat a task failure.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// CategoryInfrastructure is the fixed category for every task this engine
// produces. Other categories belong to other engines.
const CategoryInfrastructure = "infrastructure"

// --- Task node ---

// TaskNode is one executable unit in a generated deployment DAG.
//
// DependsOn only ever references ids emitted earlier in the same
// conversion pass, so any TaskNode slice produced by BuildTasks is
// acyclic by construction.
type TaskNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	Command     string   `json:"command,omitempty"`
	CommandArgs []string `json:"command_args,omitempty"`

	ExpectedExitCode int      `json:"expected_exit_code"`
	DependsOn        []string `json:"depends_on,omitempty"`
	Category         string   `json:"category"`
	Severity         Severity `json:"severity"`
	Timeout          int64    `json:"timeout"` // milliseconds
	CanFailSafely    bool     `json:"can_fail_safely"`

	// ValidationCheck classifies captured command output as pass/fail.
	// Present only on check-derived tasks. Advisory, never serialized.
	ValidationCheck func(output string) bool `json:"-"`
}

// TodoTask is the detector's read-only view of one task in an externally
// owned TODO graph. Callers pass a snapshot map per call; the detector
// retains nothing between calls.
type TodoTask struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Dependencies []string `json:"dependencies"`
}

// --- ID derivation ---

// Slugify converts free text into a task id segment: lowercase, any run
// of non-alphanumeric characters becomes a single hyphen, leading and
// trailing hyphens trimmed.
// Example: "Install OC CLI (v4.14)" → "install-oc-cli-v4-14".
func Slugify(text string) string {
	s := strings.ToLower(text)

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevHyphen = false
		} else if !prevHyphen {
			b.WriteByte('-')
			prevHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}

// splitCommand splits a shell command string into its first
// whitespace-delimited token and the remaining tokens. An empty or
// blank string yields ("", nil).
func splitCommand(cmd string) (string, []string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return "", nil
	}
	if len(fields) == 1 {
		return fields[0], nil
	}
	return fields[0], fields[1:]
}
