package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for structural graph errors. All of them are
// deterministic: retrying with the same input cannot change the outcome.
var (
	ErrDependencyNotFound = errors.New("dependency not found")
	ErrSelfDependency     = errors.New("self dependency")
	ErrCircularDependency = errors.New("circular dependency")
	ErrDuplicateTaskID    = errors.New("duplicate task id")
)

// Error codes, stable across releases. Callers render these to users and
// match on them in tests; never rename.
const (
	CodeDependencyNotFound = "DEPENDENCY_NOT_FOUND"
	CodeSelfDependency     = "SELF_DEPENDENCY"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
	CodeDuplicateTaskID    = "DUPLICATE_TASK_ID"
)

// ValidationError is a structural graph validation failure with enough
// context to render an actionable message: the stable code, the ids
// involved, and — for cycles — the full offending path.
type ValidationError struct {
	Code         string
	TaskID       string
	DependencyID string      // set for DEPENDENCY_NOT_FOUND
	Path         []CycleNode // set for CIRCULAR_DEPENDENCY
	kind         error
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case CodeDependencyNotFound:
		return fmt.Sprintf("%s: task %q depends on %q, which does not exist", e.Code, e.TaskID, e.DependencyID)
	case CodeSelfDependency:
		return fmt.Sprintf("%s: task %q cannot depend on itself", e.Code, e.TaskID)
	case CodeCircularDependency:
		ids := make([]string, len(e.Path))
		for i, n := range e.Path {
			ids[i] = n.TaskID
		}
		return fmt.Sprintf("%s: adding these dependencies to %q would create a cycle: %s",
			e.Code, e.TaskID, strings.Join(ids, " -> "))
	case CodeDuplicateTaskID:
		return fmt.Sprintf("%s: two generated tasks collide on id %q", e.Code, e.TaskID)
	}
	return e.Code
}

func (e *ValidationError) Unwrap() error { return e.kind }

func notFoundError(taskID, depID string) error {
	return &ValidationError{Code: CodeDependencyNotFound, TaskID: taskID, DependencyID: depID, kind: ErrDependencyNotFound}
}

func selfDependencyError(taskID string) error {
	return &ValidationError{Code: CodeSelfDependency, TaskID: taskID, kind: ErrSelfDependency}
}

func cycleError(taskID string, path []CycleNode) error {
	return &ValidationError{Code: CodeCircularDependency, TaskID: taskID, Path: path, kind: ErrCircularDependency}
}

func duplicateIDError(id string) error {
	return &ValidationError{Code: CodeDuplicateTaskID, TaskID: id, kind: ErrDuplicateTaskID}
}
