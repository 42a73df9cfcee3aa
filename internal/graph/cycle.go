package graph

import "sort"

// --- Circular-dependency detector ---
//
// Gates mutations to the TODO task graph: before the owning store commits
// new dependency edges, it must pass them through ValidateDependencies
// against its current snapshot. The detector never mutates the snapshot.

// CycleNode is one task on a reported cycle path.
type CycleNode struct {
	TaskID string `json:"task_id"`
	Title  string `json:"title"`
}

// CycleResult is the outcome of one cycle probe. When Cyclic is true,
// Path starts and ends at the same task, closing the loop.
type CycleResult struct {
	Cyclic bool        `json:"cyclic"`
	Path   []CycleNode `json:"path,omitempty"`
}

// CheckCycle reports whether adding newDeps to taskID's dependency list
// would create a cycle in the graph formed by tasks.
//
// The traversal is a depth-first search from taskID following each task's
// dependency array in order, tracking a recursion stack and an explicit
// path. The reported cycle is therefore the first one discovered in
// dependency-array order, not necessarily the shortest. Dependencies on
// ids absent from the snapshot are treated as leaves here; existence is
// ValidateDependencies' concern.
func CheckCycle(taskID string, newDeps []string, tasks map[string]TodoTask) CycleResult {
	adjacency := make(map[string][]string, len(tasks))
	for id, t := range tasks {
		adjacency[id] = t.Dependencies
	}
	adjacency[taskID] = append(append([]string{}, adjacency[taskID]...), newDeps...)

	onStack := make(map[string]bool)
	visited := make(map[string]bool)
	var path []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		if onStack[id] {
			// Close the loop: the cycle is the suffix of the current path
			// from this node's first occurrence, plus the revisit.
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			return append(append([]string{}, path[start:]...), id)
		}
		if visited[id] {
			return nil
		}

		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, dep := range adjacency[id] {
			if cycle := dfs(dep); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
		return nil
	}

	cycle := dfs(taskID)
	if cycle == nil {
		return CycleResult{}
	}

	nodes := make([]CycleNode, len(cycle))
	for i, id := range cycle {
		nodes[i] = CycleNode{TaskID: id, Title: tasks[id].Title}
	}
	return CycleResult{Cyclic: true, Path: nodes}
}

// CheckAllCycles probes every task in the snapshot as a DFS root, in
// sorted id order for deterministic output.
//
// Known limitation, kept on purpose: a single structural cycle is
// reported once per task that sits on it, since each root rediscovers
// it independently. Callers that want one report per cycle must
// deduplicate themselves.
func CheckAllCycles(tasks map[string]TodoTask) []CycleResult {
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var results []CycleResult
	for _, id := range ids {
		if r := CheckCycle(id, nil, tasks); r.Cyclic {
			results = append(results, r)
		}
	}
	return results
}

// ValidateDependencies is the composite gate run before committing a
// dependency mutation. Checks run in a fixed order and stop at the first
// failure:
//
//  1. every id in deps exists in the snapshot (DEPENDENCY_NOT_FOUND)
//  2. deps does not contain taskID itself (SELF_DEPENDENCY)
//  3. the edges introduce no cycle (CIRCULAR_DEPENDENCY, with path)
//
// A nil return means the mutation is safe to commit against this
// snapshot. The caller must serialize commits so two mutations cannot
// both validate against the same stale snapshot.
func ValidateDependencies(taskID string, deps []string, tasks map[string]TodoTask) error {
	for _, dep := range deps {
		if _, ok := tasks[dep]; !ok {
			return notFoundError(taskID, dep)
		}
	}

	for _, dep := range deps {
		if dep == taskID {
			return selfDependencyError(taskID)
		}
	}

	if r := CheckCycle(taskID, deps, tasks); r.Cyclic {
		return cycleError(taskID, r.Path)
	}

	return nil
}
