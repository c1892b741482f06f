package core

import (
	"context"
	"errors"
	"testing"

	"wardwatch/pkg/domain"
)

func confirmIssueWithPoints(t *testing.T, svc *Service, wardID string, points float64) domain.Issue {
	t.Helper()
	ctx := context.Background()
	issue, err := svc.CreateIssue(ctx, adminActor(t, svc), CreateIssueInput{
		WardID:        wardID,
		ViolationCode: "VP_ATGT_01",
		PenaltyPoints: points,
		Evidence:      []domain.MediaItem{{Payload: "data:image/png;base64,AAAA"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ward := unitByID(t, svc, wardID)
	if _, err := svc.SubmitReport(ctx, ward, issue.ID, sampleReport()); err != nil {
		t.Fatalf("report: %v", err)
	}
	confirmed, err := svc.ReviewIssue(ctx, adminActor(t, svc), issue.ID, true, "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return confirmed
}

func TestWardScoreReflectsConfirmedIssues(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// u_1 is seeded at tier 1: coefficient 1, base score 1200.
	confirmIssueWithPoints(t, svc, "u_1", 60)
	score, err := svc.WardScore(ctx, "u_1")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Score != 95 {
		t.Fatalf("expected 95 after a 60-point confirmed issue, got %v", score.Score)
	}
	if score.Rank != "excellent" {
		t.Fatalf("expected excellent rank at 95, got %s", score.Rank)
	}

	var nf ErrNotFound
	if _, err := svc.WardScore(ctx, "u_none"); !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound for unknown ward, got %v", err)
	}
}

func TestStatsAndScoreboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	issue := mustCreateIssue(t, svc, "u_1")
	if _, err := svc.SubmitReport(ctx, unitByID(t, svc, "u_1"), issue.ID, sampleReport()); err != nil {
		t.Fatalf("report: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalIssues != 1 || stats.PendingConfirm != 1 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
	if len(stats.Scores) != len(domain.SeedUnits())-2 {
		t.Fatalf("expected one scoreboard row per ward, got %d", len(stats.Scores))
	}

	scores, err := svc.Scoreboard(ctx)
	if err != nil {
		t.Fatalf("scoreboard: %v", err)
	}
	for i := 1; i < len(scores); i++ {
		if scores[i-1].Score < scores[i].Score {
			t.Fatalf("scoreboard not sorted best first at %d", i)
		}
	}
}

func TestAuditLogRecordsWorkflow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	issue := mustCreateIssue(t, svc, "u_1")
	if _, err := svc.AcknowledgeIssue(ctx, unitByID(t, svc, "u_1"), issue.ID, ""); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	entries, err := svc.AuditLog(ctx)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	actions := make(map[string]int)
	for _, e := range entries {
		actions[e.Action]++
		if e.ID == "" || e.Timestamp.IsZero() {
			t.Fatalf("audit entry missing id or timestamp: %+v", e)
		}
	}
	for _, want := range []string{"seed_units", "create_issue", "acknowledge_issue"} {
		if actions[want] == 0 {
			t.Fatalf("expected %q in audit trail, got %v", want, actions)
		}
	}
}
