package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"wardwatch/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := NewStore(path, domain.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.SeedUnits([]domain.Unit{{ID: "u_1", Email: "p.a@pol.vn", Role: domain.RoleWard}})
		_, e := tx.CreateIssue(domain.Issue{ID: "ISS-P", WardID: "u_1", ViolationCode: "VP_ATGT_01", PenaltyPoints: 5})
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	issue, ok := reloaded.FindIssue("ISS-P")
	if !ok || issue.WardID != "u_1" {
		t.Fatalf("expected persisted issue after reload, got %+v ok=%v", issue, ok)
	}
	if got := len(reloaded.ListUnits()); got != 1 {
		t.Fatalf("expected 1 unit, got %d", got)
	}
}

func TestSQLiteStoreCreatesStateTable(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	var tableName string
	if err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='state'").Scan(&tableName); err != nil {
		t.Fatalf("lookup state table: %v", err)
	}
	if tableName != "state" {
		t.Fatalf("expected state table, got %s", tableName)
	}
}

func TestSQLiteStoreReportsUsage(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.SeedUnits(domain.SeedUnits())
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	usage, err := store.StorageUsage()
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage <= 0 {
		t.Fatalf("expected positive on-disk size, got %d", usage)
	}
}

func TestSQLiteStoreSessionSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := NewStore(path, domain.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.PutSession(domain.Session{Token: "tok-1", UnitID: "u_1"})
		return nil
	}); err != nil {
		t.Fatalf("put session: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if _, ok := reloaded.FindSession("tok-1"); !ok {
		t.Fatalf("expected session to survive restart")
	}
}
