package domain

import (
	"context"
	"fmt"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn allows commit but flags the result.
	SeverityWarn Severity = "warn"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(IssueTransitionRule())
	engine.Register(DeadlineImmutableRule())
	return engine
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}

// issueTransitions enumerates the permitted forward edges of the issue state
// machine. Closed is reachable from any non-terminal state and is handled
// separately.
var issueTransitions = map[IssueStatus]map[IssueStatus]struct{}{
	IssueNew:        {IssueReceived: {}, IssueProcessing: {}, IssueResolved: {}},
	IssueReceived:   {IssueProcessing: {}, IssueResolved: {}},
	IssueProcessing: {IssueResolved: {}},
	IssueResolved:   {IssueConfirmed: {}, IssueRejected: {}},
	IssueRejected:   {IssueReceived: {}, IssueProcessing: {}, IssueResolved: {}},
}

// IssueTransitionRule blocks illegal issue status transitions: anything out
// of a terminal state, and any edge not in the state machine.
func IssueTransitionRule() Rule {
	return issueTransitionRule{}
}

type issueTransitionRule struct{}

func (issueTransitionRule) Name() string { return "issue_status_transition" }

func (issueTransitionRule) Evaluate(_ context.Context, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityIssue || change.Action != ActionUpdate {
			continue
		}
		before, okBefore := change.Before.(Issue)
		after, okAfter := change.After.(Issue)
		if !okBefore || !okAfter || before.Status == after.Status {
			continue
		}
		if before.Status.Terminal() {
			result.Violations = append(result.Violations, Violation{
				Rule:     "issue_status_transition",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("issue %s is %s; no further transition permitted", before.ID, before.Status),
				Entity:   EntityIssue,
				EntityID: before.ID,
			})
			continue
		}
		if after.Status == IssueClosed {
			continue
		}
		if _, ok := issueTransitions[before.Status][after.Status]; !ok {
			result.Violations = append(result.Violations, Violation{
				Rule:     "issue_status_transition",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("issue %s cannot move %s -> %s", before.ID, before.Status, after.Status),
				Entity:   EntityIssue,
				EntityID: before.ID,
			})
		}
	}
	return result, nil
}

// DeadlineImmutableRule blocks any update that alters an issue's SLA deadline
// or creation time.
func DeadlineImmutableRule() Rule {
	return deadlineImmutableRule{}
}

type deadlineImmutableRule struct{}

func (deadlineImmutableRule) Name() string { return "issue_deadline_immutable" }

func (deadlineImmutableRule) Evaluate(_ context.Context, changes []Change) (Result, error) {
	var result Result
	for _, change := range changes {
		if change.Entity != EntityIssue || change.Action != ActionUpdate {
			continue
		}
		before, okBefore := change.Before.(Issue)
		after, okAfter := change.After.(Issue)
		if !okBefore || !okAfter {
			continue
		}
		if !before.DeadlineTime.Equal(after.DeadlineTime) || !before.CreatedTime.Equal(after.CreatedTime) {
			result.Violations = append(result.Violations, Violation{
				Rule:     "issue_deadline_immutable",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("issue %s deadline is fixed at creation", before.ID),
				Entity:   EntityIssue,
				EntityID: before.ID,
			})
		}
	}
	return result, nil
}
