// Package pattern defines the declarative deployment pattern records
// consumed by the graph engine.
//
// A pattern describes, for a target platform family, the dependencies that
// must be installed, the ordered deployment phases to run, and the
// validation checks that confirm the result. Patterns are plain data: this
// package decodes and structurally validates them, nothing more. Compiling
// a pattern into an executable task DAG is the graph package's job.
package pattern

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --- Severity enum ---

// Severity classifies how serious a validation check failure is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// validSeverities is the set of allowed check severities.
var validSeverities = map[Severity]bool{
	SeverityCritical: true,
	SeverityError:    true,
	SeverityWarning:  true,
}

// ValidateSeverity returns an error if the severity is not recognized.
// Empty is allowed — it defaults to "error" during conversion.
func ValidateSeverity(s Severity) error {
	if s == "" {
		return nil
	}
	if !validSeverities[s] {
		return fmt.Errorf("invalid severity %q: must be one of: critical, error, warning", s)
	}
	return nil
}

// --- Core data structures ---

// Dependency is a tool or component the deployment requires before any
// phase runs. Only required dependencies with an install command produce
// tasks; optional ones are informational.
type Dependency struct {
	Name                string `json:"name"`
	Type                string `json:"type"` // cli | operator | service | ...
	Required            bool   `json:"required"`
	InstallCommand      string `json:"install_command,omitempty"`
	VerificationCommand string `json:"verification_command,omitempty"`
}

// PhaseCommand is a single shell command inside a deployment phase.
type PhaseCommand struct {
	Description      string `json:"description"`
	Command          string `json:"command"`
	ExpectedExitCode *int   `json:"expected_exit_code,omitempty"` // nil means 0
}

// DeploymentPhase is an ordered group of commands. Prerequisites name
// earlier phases whose commands must all complete first.
type DeploymentPhase struct {
	Order             int            `json:"order"`
	Name              string         `json:"name"`
	Prerequisites     []string       `json:"prerequisites,omitempty"`
	Commands          []PhaseCommand `json:"commands"`
	EstimatedDuration string         `json:"estimated_duration,omitempty"` // free text, e.g. "5 minutes"
}

// ValidationCheck is a post-deployment probe: run a command, classify its
// output as pass or fail.
type ValidationCheck struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Command          string   `json:"command"`
	Severity         Severity `json:"severity,omitempty"`
	ExpectedExitCode *int     `json:"expected_exit_code,omitempty"`
}

// Pattern is the root record, persisted as <name>.json in a pattern library.
type Pattern struct {
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Platforms        []string          `json:"platforms,omitempty"`
	Dependencies     []Dependency      `json:"dependencies,omitempty"`
	DeploymentPhases []DeploymentPhase `json:"deployment_phases,omitempty"`
	ValidationChecks []ValidationCheck `json:"validation_checks,omitempty"`
}

// --- Decoding and validation ---

// Parse decodes a pattern from JSON and validates its structure.
func Parse(data []byte) (*Pattern, error) {
	var p Pattern
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding pattern: %w", err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks structural invariants a pattern must satisfy before it
// can be compiled. It does not judge semantics (a pattern with zero phases
// is valid — it just produces no phase tasks).
func Validate(p *Pattern) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pattern name is required")
	}
	for i, d := range p.Dependencies {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("dependency %d: name is required", i)
		}
	}
	for i, ph := range p.DeploymentPhases {
		if strings.TrimSpace(ph.Name) == "" {
			return fmt.Errorf("phase %d: name is required", i)
		}
		if ph.Order < 1 {
			return fmt.Errorf("phase %q: order must be >= 1, got %d", ph.Name, ph.Order)
		}
	}
	for i, c := range p.ValidationChecks {
		if strings.TrimSpace(c.ID) == "" && strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("validation check %d: id or name is required", i)
		}
		if err := ValidateSeverity(c.Severity); err != nil {
			return fmt.Errorf("validation check %q: %w", c.ID, err)
		}
	}
	return nil
}
