package domain

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() == "" {
		t.Fatalf("expected error string")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), nil); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(context.Context, []Change) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}

func transitionChange(from, to IssueStatus, action Action) Change {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	before := Issue{ID: "i1", Status: from, CreatedTime: created, DeadlineTime: created.Add(SLAWindow)}
	after := before
	after.Status = to
	return Change{Entity: EntityIssue, Action: action, Before: before, After: after}
}

func TestIssueTransitionRuleLegalEdges(t *testing.T) {
	legal := []struct{ from, to IssueStatus }{
		{IssueNew, IssueReceived},
		{IssueNew, IssueProcessing},
		{IssueNew, IssueResolved},
		{IssueReceived, IssueProcessing},
		{IssueProcessing, IssueResolved},
		{IssueResolved, IssueConfirmed},
		{IssueResolved, IssueRejected},
		{IssueRejected, IssueReceived},
		{IssueRejected, IssueResolved},
	}
	rule := IssueTransitionRule()
	for _, edge := range legal {
		res, err := rule.Evaluate(context.Background(), []Change{transitionChange(edge.from, edge.to, ActionUpdate)})
		if err != nil {
			t.Fatalf("evaluate %s -> %s: %v", edge.from, edge.to, err)
		}
		if res.HasBlocking() {
			t.Fatalf("expected %s -> %s to be permitted: %+v", edge.from, edge.to, res.Violations)
		}
	}
}

func TestIssueTransitionRuleIllegalEdges(t *testing.T) {
	illegal := []struct{ from, to IssueStatus }{
		{IssueNew, IssueConfirmed},
		{IssueReceived, IssueConfirmed},
		{IssueProcessing, IssueConfirmed},
		{IssueReceived, IssueNew},
		{IssueResolved, IssueProcessing},
	}
	rule := IssueTransitionRule()
	for _, edge := range illegal {
		res, err := rule.Evaluate(context.Background(), []Change{transitionChange(edge.from, edge.to, ActionUpdate)})
		if err != nil {
			t.Fatalf("evaluate %s -> %s: %v", edge.from, edge.to, err)
		}
		if !res.HasBlocking() {
			t.Fatalf("expected %s -> %s to be blocked", edge.from, edge.to)
		}
	}
}

func TestIssueTransitionRuleTerminalStates(t *testing.T) {
	rule := IssueTransitionRule()
	for _, from := range []IssueStatus{IssueConfirmed, IssueClosed} {
		res, err := rule.Evaluate(context.Background(), []Change{transitionChange(from, IssueReceived, ActionUpdate)})
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if !res.HasBlocking() {
			t.Fatalf("expected transition out of %s to be blocked", from)
		}
	}
}

func TestIssueTransitionRuleClosedFromAnyActiveState(t *testing.T) {
	rule := IssueTransitionRule()
	for _, from := range []IssueStatus{IssueNew, IssueReceived, IssueProcessing, IssueResolved, IssueRejected} {
		res, err := rule.Evaluate(context.Background(), []Change{transitionChange(from, IssueClosed, ActionUpdate)})
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if res.HasBlocking() {
			t.Fatalf("expected %s -> closed to be permitted: %+v", from, res.Violations)
		}
	}
}

func TestIssueTransitionRuleIgnoresMerges(t *testing.T) {
	rule := IssueTransitionRule()
	res, err := rule.Evaluate(context.Background(), []Change{transitionChange(IssueConfirmed, IssueNew, ActionMerge)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("merge changes must bypass transition checks: %+v", res.Violations)
	}
}

func TestDeadlineImmutableRule(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := Issue{ID: "i1", Status: IssueNew, CreatedTime: created, DeadlineTime: created.Add(SLAWindow)}
	rule := DeadlineImmutableRule()

	moved := base
	moved.DeadlineTime = moved.DeadlineTime.Add(time.Hour)
	res, err := rule.Evaluate(context.Background(), []Change{{Entity: EntityIssue, Action: ActionUpdate, Before: base, After: moved}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected deadline change to be blocked")
	}

	backdated := base
	backdated.CreatedTime = backdated.CreatedTime.Add(-time.Hour)
	res, err = rule.Evaluate(context.Background(), []Change{{Entity: EntityIssue, Action: ActionUpdate, Before: base, After: backdated}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected created-time change to be blocked")
	}

	renamed := base
	renamed.CustomName = "renamed"
	res, err = rule.Evaluate(context.Background(), []Change{{Entity: EntityIssue, Action: ActionUpdate, Before: base, After: renamed}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("unrelated field updates must pass: %+v", res.Violations)
	}
}

func TestDefaultRulesEngineBlocksIllegalTransition(t *testing.T) {
	engine := NewDefaultRulesEngine()
	res, err := engine.Evaluate(context.Background(), []Change{transitionChange(IssueNew, IssueConfirmed, ActionUpdate)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected default engine to block new -> confirmed")
	}
}
