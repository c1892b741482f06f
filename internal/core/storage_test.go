package core

import (
	"path/filepath"
	"testing"

	"wardwatch/internal/infra/persistence/memory"
	"wardwatch/internal/infra/persistence/sqlite"
	"wardwatch/pkg/domain"
)

func TestOpenPersistentStoreSelectsMemory(t *testing.T) {
	t.Setenv("WARDWATCH_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(domain.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("WARDWATCH_STORAGE_DRIVER", "")
	t.Setenv("WARDWATCH_SQLITE_PATH", filepath.Join(t.TempDir(), "wardwatch.db"))
	store, err := OpenPersistentStore(domain.NewDefaultRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, ok := store.(*sqlite.Store); !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
}

func TestOpenPersistentStoreRejectsUnknownDriver(t *testing.T) {
	t.Setenv("WARDWATCH_STORAGE_DRIVER", "clay-tablet")
	if _, err := OpenPersistentStore(domain.NewDefaultRulesEngine()); err == nil {
		t.Fatalf("expected unknown-driver error")
	}
}
