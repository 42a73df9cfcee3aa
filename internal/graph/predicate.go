package graph

import (
	"fmt"
	"regexp"
	"strings"
)

// --- Validation-check evaluator ---
//
// Classifies captured command output as pass/fail for a check. This is a
// best-effort text heuristic, not a correctness contract: a DAG runner
// should treat the result as advisory. The predicate shape
// (func(string) bool) is deliberately minimal so a structured-output
// contract can replace it later without touching the converter.

// failureKeywords mark output as failed regardless of anything else.
var failureKeywords = []string{"error", "failed", "not found", "cannot", "unable", "denied"}

// ipv4Pattern matches an IPv4-shaped substring (no octet range check).
var ipv4Pattern = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)

// BuildPredicate returns the pass/fail classifier for a check, keyed off
// its id and name. Heuristics apply in order, first match wins:
//
//  1. output containing a failure keyword → fail
//  2. deployment/ready checks → pass iff output mentions ready or running
//  3. endpoint/service checks → pass iff output contains an IPv4 address
//  4. otherwise → pass (no failure keyword is treated as success)
func BuildPredicate(checkID, checkName string) func(output string) bool {
	ident := strings.ToLower(checkID + " " + checkName)

	return func(output string) bool {
		out := strings.ToLower(output)

		for _, kw := range failureKeywords {
			if strings.Contains(out, kw) {
				return false
			}
		}

		if strings.Contains(ident, "deployment") || strings.Contains(ident, "ready") {
			return strings.Contains(out, "ready") || strings.Contains(out, "running")
		}

		if strings.Contains(ident, "endpoint") || strings.Contains(ident, "service") {
			return ipv4Pattern.MatchString(out)
		}

		return true
	}
}

// DescribePredicate names the heuristic branch that would classify the
// given output, for diagnostic rendering. Mirrors BuildPredicate's order.
func DescribePredicate(checkID, checkName, output string) (bool, string) {
	ident := strings.ToLower(checkID + " " + checkName)
	out := strings.ToLower(output)

	for _, kw := range failureKeywords {
		if strings.Contains(out, kw) {
			return false, fmt.Sprintf("output contains failure keyword %q", kw)
		}
	}

	if strings.Contains(ident, "deployment") || strings.Contains(ident, "ready") {
		if strings.Contains(out, "ready") || strings.Contains(out, "running") {
			return true, "readiness check: output mentions ready/running"
		}
		return false, "readiness check: output mentions neither ready nor running"
	}

	if strings.Contains(ident, "endpoint") || strings.Contains(ident, "service") {
		if ipv4Pattern.MatchString(out) {
			return true, "endpoint check: output contains an IPv4 address"
		}
		return false, "endpoint check: no IPv4 address in output"
	}

	return true, "no failure keywords present"
}
