package core

import (
	"context"
	"testing"

	"wardwatch/internal/infra/persistence/memory"
	"wardwatch/pkg/domain"
)

// newTestService builds a service over a fresh in-memory root seeded with the
// fixed unit catalog.
func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc := NewService(memory.NewStore(nil), opts...)
	if _, err := svc.EnsureSeedData(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func unitByID(t *testing.T, svc *Service, id string) domain.Unit {
	t.Helper()
	unit, ok := svc.store.FindUnit(id)
	if !ok {
		t.Fatalf("unit %s not seeded", id)
	}
	return unit
}

func adminActor(t *testing.T, svc *Service) domain.Unit {
	return unitByID(t, svc, "u_admin")
}

func reviewerActor(t *testing.T, svc *Service) domain.Unit {
	return unitByID(t, svc, "u_reviewer")
}

func wardActor(t *testing.T, svc *Service) domain.Unit {
	return unitByID(t, svc, "u_1")
}

func mustCreateIssue(t *testing.T, svc *Service, wardID string) domain.Issue {
	t.Helper()
	issue, err := svc.CreateIssue(context.Background(), adminActor(t, svc), CreateIssueInput{
		WardID:        wardID,
		ViolationCode: "VP_ATGT_01",
		PenaltyPoints: 10,
		Evidence:      []domain.MediaItem{{Payload: "data:image/png;base64,AAAA"}},
	})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return issue
}

func sampleReport() ReportInput {
	return ReportInput{
		Content:  "cleared and restored",
		BBN:      "BBN-001",
		Evidence: []domain.MediaItem{{Payload: "data:image/png;base64,BBBB"}},
	}
}
