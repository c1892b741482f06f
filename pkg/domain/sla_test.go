package domain

import (
	"testing"
	"time"
)

func TestSLAStateAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		deadline time.Time
		status   IssueStatus
		want     SLAState
	}{
		{"before deadline", now.Add(10 * time.Minute), IssueProcessing, SLAOnTime},
		{"past deadline", now.Add(-time.Second), IssueProcessing, SLAOverdue},
		{"exactly at deadline", now, IssueNew, SLAOnTime},
		{"confirmed past deadline", now.Add(-time.Hour), IssueConfirmed, SLADone},
		{"closed past deadline", now.Add(-time.Hour), IssueClosed, SLADone},
		{"rejected past deadline", now.Add(-time.Hour), IssueRejected, SLAOverdue},
	}
	for _, tc := range cases {
		if got := SLAStateAt(tc.deadline, tc.status, now); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestSLARemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := SLARemaining(now.Add(15*time.Minute), IssueNew, now); got != 15*time.Minute {
		t.Fatalf("expected 15m remaining, got %v", got)
	}
	if got := SLARemaining(now.Add(-5*time.Minute), IssueProcessing, now); got != -5*time.Minute {
		t.Fatalf("expected -5m once overdue, got %v", got)
	}
	if got := SLARemaining(now.Add(-time.Hour), IssueConfirmed, now); got != 0 {
		t.Fatalf("expected 0 for terminal issue, got %v", got)
	}
}
