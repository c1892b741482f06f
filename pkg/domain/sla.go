package domain

import "time"

// SLAState is the observational service-level state of an issue. It never
// blocks a transition; it only drives what callers display.
type SLAState string

const (
	// SLADone means the issue reached a terminal state; breach display is suppressed.
	SLADone SLAState = "done"
	// SLAOnTime means the deadline has not passed.
	SLAOnTime SLAState = "on_time"
	// SLAOverdue means the deadline passed before the issue reached a terminal state.
	SLAOverdue SLAState = "overdue"
)

// SLAStateAt evaluates the SLA display state for a deadline and status at the
// given instant. Confirmed and closed issues always read done, even past
// their deadline.
func SLAStateAt(deadline time.Time, status IssueStatus, now time.Time) SLAState {
	if status.Terminal() {
		return SLADone
	}
	if now.After(deadline) {
		return SLAOverdue
	}
	return SLAOnTime
}

// SLARemaining returns the time left before breach, negative once overdue and
// zero for issues whose SLA state is done.
func SLARemaining(deadline time.Time, status IssueStatus, now time.Time) time.Duration {
	if status.Terminal() {
		return 0
	}
	return deadline.Sub(now)
}
