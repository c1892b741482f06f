package core

import (
	"context"
	"testing"
	"time"

	"wardwatch/pkg/domain"
)

func TestMergeRemoteDataRemoteWins(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	local := mustCreateIssue(t, svc, "u_1")

	remote := local
	remote.Status = domain.IssueConfirmed
	remote.Note = "confirmed centrally"

	if err := svc.MergeRemoteData(ctx, RemoteData{Issues: []domain.Issue{remote}}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	got, err := svc.IssueByID(ctx, local.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != domain.IssueConfirmed || got.Note != "confirmed centrally" {
		t.Fatalf("expected remote record to win, got %+v", got)
	}
}

func TestMergeRemoteDataPreservesLocalOnlyRecords(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	localOnly := mustCreateIssue(t, svc, "u_1")

	foreign := domain.Issue{
		ID:            "ISS-0000000000001-ffff",
		WardID:        "u_2",
		ViolationCode: "VP_ATGT_01",
		PenaltyPoints: 5,
		Status:        domain.IssueNew,
		CreatedTime:   time.Now().UTC(),
	}
	if err := svc.MergeRemoteData(ctx, RemoteData{Issues: []domain.Issue{foreign}}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if _, err := svc.IssueByID(ctx, localOnly.ID); err != nil {
		t.Fatalf("local-only record lost: %v", err)
	}
	if _, err := svc.IssueByID(ctx, foreign.ID); err != nil {
		t.Fatalf("remote record not inserted: %v", err)
	}
}

func TestMergeRemoteDataUpsertsUnits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	updated := unitByID(t, svc, "u_1")
	updated.TotalViolationPoints = 888
	newcomer := domain.Unit{ID: "u_new", Email: "p.new@pol.vn", Role: domain.RoleWard, UnitName: "New Ward", AreaCoefficient: 4, BaseScore: 50}

	if err := svc.MergeRemoteData(ctx, RemoteData{Units: []domain.Unit{updated, newcomer}}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got := unitByID(t, svc, "u_1"); got.TotalViolationPoints != 888 {
		t.Fatalf("expected remote unit fields applied, got %+v", got)
	}
	if got := unitByID(t, svc, "u_new"); got.UnitName != "New Ward" {
		t.Fatalf("expected unknown unit inserted, got %+v", got)
	}
	// Units absent from the payload stay as seeded.
	if got := unitByID(t, svc, "u_2"); got.UnitName == "" {
		t.Fatalf("expected untouched seeded unit, got %+v", got)
	}
}

func TestMergeRemoteDataBypassesTransitionRules(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	issue := mustCreateIssue(t, svc, "u_1")
	if _, err := svc.CloseIssue(ctx, adminActor(t, svc), issue.ID, ""); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := issue
	reopened.Status = domain.IssueProcessing
	if err := svc.MergeRemoteData(ctx, RemoteData{Issues: []domain.Issue{reopened}}); err != nil {
		t.Fatalf("merge must bypass transition rules: %v", err)
	}
	got, _ := svc.IssueByID(ctx, issue.ID)
	if got.Status != domain.IssueProcessing {
		t.Fatalf("expected merged status, got %s", got.Status)
	}
}

func TestLocalDataExportsRecordSet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	mustCreateIssue(t, svc, "u_1")
	if _, err := svc.SubmitRegistration(ctx, unitByID(t, svc, "u_1"), RegistrationInput{Points: 100}); err != nil {
		t.Fatalf("registration: %v", err)
	}
	if _, err := svc.SubmitBonusRequest(ctx, unitByID(t, svc, "u_1"), BonusInput{CriteriaID: "B1", RequestedPoints: 1}); err != nil {
		t.Fatalf("bonus: %v", err)
	}

	data, err := svc.LocalData(ctx)
	if err != nil {
		t.Fatalf("local data: %v", err)
	}
	if len(data.Units) != len(domain.SeedUnits()) {
		t.Fatalf("expected full unit roster, got %d", len(data.Units))
	}
	if len(data.Issues) != 1 || len(data.Registrations) != 1 || len(data.BonusRequests) != 1 {
		t.Fatalf("unexpected record counts: %d issues, %d registrations, %d bonuses",
			len(data.Issues), len(data.Registrations), len(data.BonusRequests))
	}
}
