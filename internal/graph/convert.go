package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/avigueras/deckhand/internal/pattern"
)

// --- Pattern-to-DAG converter ---

// Fixed timeouts, in milliseconds.
const (
	installTimeout = 120_000
	verifyTimeout  = 30_000
	checkTimeout   = 30_000
	defaultTimeout = 30_000
)

// phaseKeywords mark a deployment phase as infrastructure-relevant by name.
var phaseKeywords = []string{
	"infrastructure", "prerequisite", "setup", "namespace",
	"validation", "cluster", "environment",
}

// checkKeywords mark a validation check as infrastructure-relevant by
// id or name. A critical severity qualifies a check regardless of naming.
var checkKeywords = []string{
	"cluster", "node", "connection", "infrastructure", "connectivity",
}

// durationPattern extracts "<value> <unit>" from free-text estimates
// like "5 minutes" or "45secs".
var durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(minutes?|mins?|seconds?|secs?)`)

// Warning flags a pattern configuration smell that does not change the
// produced DAG. The only current source is a phase prerequisite that
// names no previously processed phase (misspelled, not
// infrastructure-relevant, or declared with a later order — forward
// references are unsupported and resolve to no edges).
type Warning struct {
	Phase        string `json:"phase"`
	Prerequisite string `json:"prerequisite"`
	Reason       string `json:"reason"`
}

// BuildResult is the output of one conversion pass.
type BuildResult struct {
	Tasks    []TaskNode `json:"tasks"`
	Warnings []Warning  `json:"warnings,omitempty"`
}

// BuildTasks compiles a deployment pattern into an ordered task list for
// the given platform namespace. Deterministic, pure, synchronous: the
// same pattern and platform always produce the same tasks in the same
// order. Empty pattern sections produce no tasks, never an error; the
// only error is a generated-id collision (DUPLICATE_TASK_ID).
//
// Construction runs in three passes — dependency tasks, phase tasks,
// validation-check tasks — and dependency edges only ever point at tasks
// emitted earlier, so the result is acyclic by construction.
func BuildTasks(p *pattern.Pattern, platform string) (*BuildResult, error) {
	b := &builder{
		platform: platform,
		seen:     make(map[string]int),
		byPhase:  make(map[string][]string),
	}

	if err := b.dependencyTasks(p.Dependencies); err != nil {
		return nil, err
	}
	if err := b.phaseTasks(p.DeploymentPhases); err != nil {
		return nil, err
	}
	if err := b.checkTasks(p.ValidationChecks); err != nil {
		return nil, err
	}

	return &BuildResult{Tasks: b.tasks, Warnings: b.warnings}, nil
}

// builder accumulates one conversion pass. Not reused across calls.
type builder struct {
	platform string
	tasks    []TaskNode
	warnings []Warning

	seen    map[string]int      // id → count, collision guard
	byPhase map[string][]string // lowercased phase name → task ids emitted for it
}

// emit appends a task after checking its id against everything emitted
// so far. Ids derive from free-text descriptions, so two distinct
// commands can sanitize to the same id; that is always a pattern bug
// and fails fast instead of silently overwriting.
func (b *builder) emit(t TaskNode) error {
	b.seen[t.ID]++
	if b.seen[t.ID] > 1 {
		return duplicateIDError(t.ID)
	}
	b.tasks = append(b.tasks, t)
	return nil
}

// allIDs snapshots every id emitted so far, for barrier dependencies.
func (b *builder) allIDs() []string {
	ids := make([]string, len(b.tasks))
	for i, t := range b.tasks {
		ids[i] = t.ID
	}
	return ids
}

// --- Pass 1: dependency tasks ---

// dependencyTasks emits an install task per required dependency with an
// install command, plus a verify task when a verification command is
// present. The verify task depends solely on its install task.
func (b *builder) dependencyTasks(deps []pattern.Dependency) error {
	for _, d := range deps {
		if !d.Required || d.InstallCommand == "" {
			continue
		}

		installID := fmt.Sprintf("%s-dependency-%s", b.platform, Slugify("install "+d.Name))
		cmd, args := splitCommand(d.InstallCommand)
		if err := b.emit(TaskNode{
			ID:          installID,
			Name:        "Install " + d.Name,
			Description: fmt.Sprintf("Install required %s dependency %s", d.Type, d.Name),
			Command:     cmd,
			CommandArgs: args,
			Category:    CategoryInfrastructure,
			Severity:    SeverityCritical,
			Timeout:     installTimeout,
		}); err != nil {
			return err
		}

		if d.VerificationCommand == "" {
			continue
		}

		cmd, args = splitCommand(d.VerificationCommand)
		if err := b.emit(TaskNode{
			ID:          fmt.Sprintf("%s-dependency-%s", b.platform, Slugify("verify "+d.Name)),
			Name:        "Verify " + d.Name,
			Description: fmt.Sprintf("Verify %s is installed and available", d.Name),
			Command:     cmd,
			CommandArgs: args,
			DependsOn:   []string{installID},
			Category:    CategoryInfrastructure,
			Severity:    SeverityCritical,
			Timeout:     verifyTimeout,
		}); err != nil {
			return err
		}
	}
	return nil
}

// --- Pass 2: phase tasks ---

// phaseIsInfrastructure reports whether a phase is materialized at all:
// either its name carries an infrastructure keyword or it runs early
// (order 1 or 2).
func phaseIsInfrastructure(ph pattern.DeploymentPhase) bool {
	name := strings.ToLower(ph.Name)
	for _, kw := range phaseKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return ph.Order <= 2
}

// phaseTasks emits one task per command of each infrastructure-relevant
// phase. Phases are processed in ascending declared order (stable for
// ties), so prerequisites can only resolve backward: a prerequisite
// naming a phase with a later order, a skipped phase, or no phase at all
// contributes no edges and is reported as a Warning.
func (b *builder) phaseTasks(phases []pattern.DeploymentPhase) error {
	ordered := make([]pattern.DeploymentPhase, len(phases))
	copy(ordered, phases)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, ph := range ordered {
		if !phaseIsInfrastructure(ph) {
			continue
		}

		// A phase depends on every command-task of each named
		// prerequisite phase, not just one.
		var dependsOn []string
		for _, prereq := range ph.Prerequisites {
			ids, ok := b.byPhase[strings.ToLower(prereq)]
			if !ok {
				b.warnings = append(b.warnings, Warning{
					Phase:        ph.Name,
					Prerequisite: prereq,
					Reason:       "prerequisite matches no earlier infrastructure phase; no dependency edges added",
				})
				continue
			}
			dependsOn = append(dependsOn, ids...)
		}

		severity := SeverityError
		if ph.Order == 1 {
			severity = SeverityCritical
		}
		timeout := parseDuration(ph.EstimatedDuration)
		phaseSlug := Slugify(ph.Name)

		var phaseIDs []string
		for _, c := range ph.Commands {
			cmd, args := splitCommand(c.Command)
			id := fmt.Sprintf("%s-%s-%s", b.platform, phaseSlug, Slugify(c.Description))
			if err := b.emit(TaskNode{
				ID:               id,
				Name:             c.Description,
				Description:      fmt.Sprintf("%s (phase: %s)", c.Description, ph.Name),
				Command:          cmd,
				CommandArgs:      args,
				ExpectedExitCode: exitCode(c.ExpectedExitCode),
				DependsOn:        append([]string{}, dependsOn...),
				Category:         CategoryInfrastructure,
				Severity:         severity,
				Timeout:          timeout,
				CanFailSafely:    ph.Order > 2,
			}); err != nil {
				return err
			}
			phaseIDs = append(phaseIDs, id)
		}

		b.byPhase[strings.ToLower(ph.Name)] = phaseIDs
	}
	return nil
}

// --- Pass 3: validation-check tasks ---

// checkIsInfrastructure reports whether a validation check is
// materialized: keyword match on id or name, or critical severity —
// the latter alone is sufficient regardless of naming.
func checkIsInfrastructure(c pattern.ValidationCheck) bool {
	if c.Severity == pattern.SeverityCritical {
		return true
	}
	ident := strings.ToLower(c.ID + " " + c.Name)
	for _, kw := range checkKeywords {
		if strings.Contains(ident, kw) {
			return true
		}
	}
	return false
}

// checkTasks emits one task per infrastructure-relevant check. Each
// check task is a barrier: it depends on every task emitted by the
// earlier passes, forcing all infrastructure work to complete first.
func (b *builder) checkTasks(checks []pattern.ValidationCheck) error {
	barrier := b.allIDs()

	for _, c := range checks {
		if !checkIsInfrastructure(c) {
			continue
		}

		slugSource := c.Name
		if slugSource == "" {
			slugSource = c.ID
		}
		cmd, args := splitCommand(c.Command)

		severity := Severity(c.Severity)
		if severity == "" {
			severity = SeverityError
		}

		if err := b.emit(TaskNode{
			ID:               fmt.Sprintf("%s-validation-%s", b.platform, Slugify(slugSource)),
			Name:             c.Name,
			Description:      fmt.Sprintf("Validation check: %s", c.Name),
			Command:          cmd,
			CommandArgs:      args,
			ExpectedExitCode: exitCode(c.ExpectedExitCode),
			DependsOn:        append([]string{}, barrier...),
			Category:         CategoryInfrastructure,
			Severity:         severity,
			Timeout:          checkTimeout,
			CanFailSafely:    severity == SeverityWarning,
			ValidationCheck:  BuildPredicate(c.ID, c.Name),
		}); err != nil {
			return err
		}
	}
	return nil
}

// --- Helpers ---

// parseDuration converts a free-text estimate into milliseconds.
// Unparseable or missing strings default to 30 seconds.
func parseDuration(estimated string) int64 {
	m := durationPattern.FindStringSubmatch(estimated)
	if m == nil {
		return defaultTimeout
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return defaultTimeout
	}

	if strings.HasPrefix(strings.ToLower(m[2]), "m") {
		return value * 60_000
	}
	return value * 1_000
}

func exitCode(c *int) int {
	if c == nil {
		return 0
	}
	return *c
}
