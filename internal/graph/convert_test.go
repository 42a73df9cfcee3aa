package graph

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/avigueras/deckhand/internal/pattern"
)

// --- Helpers ---

func intPtr(v int) *int { return &v }

func findTask(t *testing.T, tasks []TaskNode, id string) TaskNode {
	t.Helper()
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %q not found; have %v", id, taskIDs(tasks))
	return TaskNode{}
}

func taskIDs(tasks []TaskNode) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

// --- Dependency tasks ---

func TestBuildTasks_DependencyPairs(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		Dependencies: []pattern.Dependency{
			{Name: "OC CLI", Type: "cli", Required: true, InstallCommand: "brew install openshift-cli", VerificationCommand: "oc version"},
			{Name: "Helm", Type: "cli", Required: true, InstallCommand: "brew install helm", VerificationCommand: "helm version"},
		},
	}

	result, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}

	// N required deps with both commands → exactly 2N tasks.
	if len(result.Tasks) != 4 {
		t.Fatalf("expected 4 tasks (2 per dependency), got %d: %v", len(result.Tasks), taskIDs(result.Tasks))
	}

	install := findTask(t, result.Tasks, "openshift-dependency-install-oc-cli")
	verify := findTask(t, result.Tasks, "openshift-dependency-verify-oc-cli")

	if len(install.DependsOn) != 0 {
		t.Errorf("install task should have no dependencies, got %v", install.DependsOn)
	}
	if len(verify.DependsOn) != 1 || verify.DependsOn[0] != install.ID {
		t.Errorf("verify task should depend solely on %q, got %v", install.ID, verify.DependsOn)
	}

	if install.Severity != SeverityCritical || verify.Severity != SeverityCritical {
		t.Error("dependency tasks should be critical")
	}
	if install.Timeout != 120000 {
		t.Errorf("install timeout = %d, want 120000", install.Timeout)
	}
	if verify.Timeout != 30000 {
		t.Errorf("verify timeout = %d, want 30000", verify.Timeout)
	}
}

func TestBuildTasks_SkipsNonRequiredDependencies(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		Dependencies: []pattern.Dependency{
			{Name: "Optional Tool", Required: false, InstallCommand: "brew install optional"},
			{Name: "No Installer", Required: true}, // required but nothing to install
		},
	}

	result, err := BuildTasks(p, "k8s")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if len(result.Tasks) != 0 {
		t.Errorf("expected no tasks, got %v", taskIDs(result.Tasks))
	}
}

func TestBuildTasks_InstallWithoutVerification(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		Dependencies: []pattern.Dependency{
			{Name: "Kustomize", Required: true, InstallCommand: "brew install kustomize"},
		},
	}

	result, err := BuildTasks(p, "k8s")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if len(result.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(result.Tasks))
	}
	if result.Tasks[0].ID != "k8s-dependency-install-kustomize" {
		t.Errorf("unexpected id %q", result.Tasks[0].ID)
	}
}

// --- Phase tasks ---

func TestBuildTasks_PhasePrerequisiteResolution(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Bootstrap", Commands: []pattern.PhaseCommand{
				{Description: "Install X", Command: "oc apply -f x.yaml"},
			}},
			{Order: 2, Name: "Deploy", Prerequisites: []string{"Bootstrap"}, Commands: []pattern.PhaseCommand{
				{Description: "Apply Y", Command: "oc apply -f y.yaml"},
			}},
		},
	}

	result, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}

	installX := findTask(t, result.Tasks, "openshift-bootstrap-install-x")
	applyY := findTask(t, result.Tasks, "openshift-deploy-apply-y")

	if len(applyY.DependsOn) != 1 || applyY.DependsOn[0] != installX.ID {
		t.Errorf("Apply Y dependsOn = %v, want [%s]", applyY.DependsOn, installX.ID)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestBuildTasks_PhaseDependsOnEveryCommandOfPrerequisite(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Setup", Commands: []pattern.PhaseCommand{
				{Description: "Create namespace", Command: "oc create ns demo"},
				{Description: "Apply quotas", Command: "oc apply -f quota.yaml"},
			}},
			{Order: 2, Name: "Deploy", Prerequisites: []string{"Setup"}, Commands: []pattern.PhaseCommand{
				{Description: "Roll out", Command: "oc apply -f app.yaml"},
			}},
		},
	}

	result, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}

	rollOut := findTask(t, result.Tasks, "openshift-deploy-roll-out")
	if len(rollOut.DependsOn) != 2 {
		t.Fatalf("phase should depend on every command-task of its prerequisite, got %v", rollOut.DependsOn)
	}
}

func TestBuildTasks_PhaseClassification(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		DeploymentPhases: []pattern.DeploymentPhase{
			// Order 5, but the name carries an infrastructure keyword.
			{Order: 5, Name: "Cluster Tuning", Commands: []pattern.PhaseCommand{
				{Description: "Tune nodes", Command: "oc patch nodes"},
			}},
			// Order 3 with no keyword: not materialized.
			{Order: 3, Name: "Application Rollout", Commands: []pattern.PhaseCommand{
				{Description: "Deploy app", Command: "oc apply -f app.yaml"},
			}},
			// Order 2 with no keyword: materialized by order alone.
			{Order: 2, Name: "Warmup", Commands: []pattern.PhaseCommand{
				{Description: "Warm caches", Command: "run-warmup.sh"},
			}},
		},
	}

	result, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}

	if len(result.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %v", taskIDs(result.Tasks))
	}
	tune := findTask(t, result.Tasks, "openshift-cluster-tuning-tune-nodes")
	warm := findTask(t, result.Tasks, "openshift-warmup-warm-caches")

	// Severity: critical only for order-1 phases.
	if tune.Severity != SeverityError || warm.Severity != SeverityError {
		t.Error("non-first phases should be severity error")
	}
	// canFailSafely only past order 2.
	if !tune.CanFailSafely {
		t.Error("order-5 phase tasks should be able to fail safely")
	}
	if warm.CanFailSafely {
		t.Error("order-2 phase tasks should not be able to fail safely")
	}
}

func TestBuildTasks_UnresolvedPrerequisiteWarns(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		DeploymentPhases: []pattern.DeploymentPhase{
			// "Environment" has order 2 but names a later phase: forward
			// references resolve to no edges, with a warning.
			{Order: 2, Name: "Environment", Prerequisites: []string{"Cluster Checks"}, Commands: []pattern.PhaseCommand{
				{Description: "Prepare env", Command: "prepare.sh"},
			}},
			{Order: 4, Name: "Cluster Checks", Commands: []pattern.PhaseCommand{
				{Description: "Check cluster", Command: "check.sh"},
			}},
		},
	}

	result, err := BuildTasks(p, "k8s")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}

	prepare := findTask(t, result.Tasks, "k8s-environment-prepare-env")
	if len(prepare.DependsOn) != 0 {
		t.Errorf("forward prerequisite should contribute no edges, got %v", prepare.DependsOn)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
	w := result.Warnings[0]
	if w.Phase != "Environment" || w.Prerequisite != "Cluster Checks" {
		t.Errorf("unexpected warning %+v", w)
	}
}

func TestBuildTasks_PrerequisiteMatchIsCaseInsensitive(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Setup", Commands: []pattern.PhaseCommand{
				{Description: "Init", Command: "init.sh"},
			}},
			{Order: 2, Name: "Deploy", Prerequisites: []string{"SETUP"}, Commands: []pattern.PhaseCommand{
				{Description: "Ship", Command: "ship.sh"},
			}},
		},
	}

	result, err := BuildTasks(p, "k8s")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	ship := findTask(t, result.Tasks, "k8s-deploy-ship")
	if len(ship.DependsOn) != 1 {
		t.Errorf("case-insensitive prerequisite should resolve, got %v", ship.DependsOn)
	}
}

// --- Duration parsing ---

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5 minutes", 300000},
		{"1 minute", 60000},
		{"10 mins", 600000},
		{"2min", 120000},
		{"45 seconds", 45000},
		{"30secs", 30000},
		{"90 Sec", 90000},
		{"garbage", 30000},
		{"", 30000},
		{"about 3 minutes or so", 180000},
	}
	for _, c := range cases {
		if got := parseDuration(c.in); got != c.want {
			t.Errorf("parseDuration(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

// --- Validation-check tasks ---

func TestBuildTasks_CriticalCheckAlwaysQualifies(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		ValidationChecks: []pattern.ValidationCheck{
			// No keyword anywhere in id or name — severity alone qualifies it.
			{ID: "smoke-1", Name: "Smoke test", Command: "curl -s localhost", Severity: pattern.SeverityCritical},
		},
	}

	result, err := BuildTasks(p, "k8s")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if len(result.Tasks) != 1 {
		t.Fatalf("critical check must be materialized regardless of naming, got %v", taskIDs(result.Tasks))
	}
	check := result.Tasks[0]
	if check.Severity != SeverityCritical {
		t.Errorf("check severity = %s, want critical", check.Severity)
	}
	if check.Timeout != 30000 {
		t.Errorf("check timeout = %d, want 30000", check.Timeout)
	}
	if check.ValidationCheck == nil {
		t.Error("check task must carry a validation predicate")
	}
}

func TestBuildTasks_CheckClassificationByKeyword(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		ValidationChecks: []pattern.ValidationCheck{
			{ID: "node-status", Name: "All nodes ready", Command: "oc get nodes", Severity: pattern.SeverityWarning},
			{ID: "ui-theme", Name: "Theme applied", Command: "check-theme.sh", Severity: pattern.SeverityWarning},
		},
	}

	result, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if len(result.Tasks) != 1 {
		t.Fatalf("only the node check should qualify, got %v", taskIDs(result.Tasks))
	}
	check := result.Tasks[0]
	if check.ID != "openshift-validation-all-nodes-ready" {
		t.Errorf("unexpected check id %q", check.ID)
	}
	if !check.CanFailSafely {
		t.Error("warning checks should be able to fail safely")
	}
}

func TestBuildTasks_ChecksAreBarriers(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		Dependencies: []pattern.Dependency{
			{Name: "CLI", Required: true, InstallCommand: "install-cli.sh", VerificationCommand: "cli version"},
		},
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Setup", Commands: []pattern.PhaseCommand{
				{Description: "Init", Command: "init.sh"},
			}},
		},
		ValidationChecks: []pattern.ValidationCheck{
			{ID: "connectivity", Name: "Cluster connectivity", Command: "oc cluster-info"},
			{ID: "node-health", Name: "Node health", Command: "oc get nodes"},
		},
	}

	result, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if len(result.Tasks) != 5 {
		t.Fatalf("expected 5 tasks, got %v", taskIDs(result.Tasks))
	}

	// Every check waits on every task from passes 1-2 — but not on
	// other checks.
	for _, id := range []string{"openshift-validation-cluster-connectivity", "openshift-validation-node-health"} {
		check := findTask(t, result.Tasks, id)
		if len(check.DependsOn) != 3 {
			t.Errorf("check %s should depend on all 3 prior tasks, got %v", id, check.DependsOn)
		}
	}
}

func TestBuildTasks_CheckSeverityDefaultsToError(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		ValidationChecks: []pattern.ValidationCheck{
			{ID: "cluster-up", Name: "Cluster up", Command: "oc cluster-info"},
		},
	}

	result, err := BuildTasks(p, "k8s")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}
	if got := result.Tasks[0].Severity; got != SeverityError {
		t.Errorf("severity = %s, want error", got)
	}
}

// --- Commands and exit codes ---

func TestBuildTasks_CommandSplitting(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Setup", Commands: []pattern.PhaseCommand{
				{Description: "Apply manifest", Command: "oc apply -f x.yaml"},
				{Description: "Placeholder", Command: ""},
				{Description: "Bare", Command: "true", ExpectedExitCode: intPtr(1)},
			}},
		},
	}

	result, err := BuildTasks(p, "k8s")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}

	apply := findTask(t, result.Tasks, "k8s-setup-apply-manifest")
	if apply.Command != "oc" {
		t.Errorf("command = %q, want %q", apply.Command, "oc")
	}
	if len(apply.CommandArgs) != 3 || apply.CommandArgs[0] != "apply" {
		t.Errorf("commandArgs = %v", apply.CommandArgs)
	}

	placeholder := findTask(t, result.Tasks, "k8s-setup-placeholder")
	if placeholder.Command != "" || placeholder.CommandArgs != nil {
		t.Errorf("empty command string should yield no command fields, got %q %v", placeholder.Command, placeholder.CommandArgs)
	}

	bare := findTask(t, result.Tasks, "k8s-setup-bare")
	if bare.Command != "true" || bare.CommandArgs != nil {
		t.Errorf("single-token command should have no args, got %q %v", bare.Command, bare.CommandArgs)
	}
	if bare.ExpectedExitCode != 1 {
		t.Errorf("expectedExitCode = %d, want 1", bare.ExpectedExitCode)
	}
	if apply.ExpectedExitCode != 0 {
		t.Errorf("default expectedExitCode = %d, want 0", apply.ExpectedExitCode)
	}
}

// --- Duplicate id guard ---

func TestBuildTasks_DuplicateIDRejected(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Setup", Commands: []pattern.PhaseCommand{
				// Distinct commands, same sanitized description.
				{Description: "Apply config!", Command: "oc apply -f a.yaml"},
				{Description: "Apply config?", Command: "oc apply -f b.yaml"},
			}},
		},
	}

	_, err := BuildTasks(p, "k8s")
	if err == nil {
		t.Fatal("colliding ids must be rejected, not silently overwritten")
	}
	if !errors.Is(err, ErrDuplicateTaskID) {
		t.Errorf("error should wrap ErrDuplicateTaskID, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Code != CodeDuplicateTaskID {
		t.Errorf("error should carry code %s, got %v", CodeDuplicateTaskID, err)
	}
}

// --- Whole-pattern properties ---

func TestBuildTasks_EmptyPattern(t *testing.T) {
	result, err := BuildTasks(&pattern.Pattern{Name: "empty"}, "k8s")
	if err != nil {
		t.Fatalf("empty pattern must not error: %v", err)
	}
	if len(result.Tasks) != 0 || len(result.Warnings) != 0 {
		t.Errorf("empty pattern should produce nothing, got %v / %v", result.Tasks, result.Warnings)
	}
}

func TestBuildTasks_Idempotent(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		Dependencies: []pattern.Dependency{
			{Name: "CLI", Required: true, InstallCommand: "install-cli.sh", VerificationCommand: "cli version"},
		},
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Setup", Commands: []pattern.PhaseCommand{
				{Description: "Init", Command: "init.sh"},
			}},
			{Order: 2, Name: "Deploy", Prerequisites: []string{"Setup"}, Commands: []pattern.PhaseCommand{
				{Description: "Ship", Command: "ship.sh"},
			}},
		},
		ValidationChecks: []pattern.ValidationCheck{
			{ID: "cluster-up", Name: "Cluster up", Command: "oc cluster-info"},
		},
	}

	first, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	// Compare serialized form: same ids, same order, same fields.
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("BuildTasks is not deterministic:\n%s\nvs\n%s", a, b)
	}
}

func TestBuildTasks_AcyclicByConstruction(t *testing.T) {
	p := &pattern.Pattern{
		Name: "test",
		Dependencies: []pattern.Dependency{
			{Name: "CLI", Required: true, InstallCommand: "install-cli.sh", VerificationCommand: "cli version"},
		},
		DeploymentPhases: []pattern.DeploymentPhase{
			{Order: 1, Name: "Setup", Commands: []pattern.PhaseCommand{
				{Description: "Init", Command: "init.sh"},
			}},
			{Order: 2, Name: "Deploy", Prerequisites: []string{"Setup"}, Commands: []pattern.PhaseCommand{
				{Description: "Ship", Command: "ship.sh"},
			}},
		},
		ValidationChecks: []pattern.ValidationCheck{
			{ID: "cluster-up", Name: "Cluster up", Command: "oc cluster-info"},
		},
	}

	result, err := BuildTasks(p, "openshift")
	if err != nil {
		t.Fatalf("BuildTasks failed: %v", err)
	}

	// Edges only ever point at already-emitted tasks.
	emitted := make(map[string]bool)
	for _, task := range result.Tasks {
		for _, dep := range task.DependsOn {
			if !emitted[dep] {
				t.Errorf("task %s references %s, which is not emitted earlier", task.ID, dep)
			}
		}
		emitted[task.ID] = true
	}
}
