package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriverFromEnvironment(t *testing.T) {
	ctx := context.Background()

	t.Setenv("WARDWATCH_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}

	t.Setenv("WARDWATCH_BLOB_DRIVER", "fs")
	t.Setenv("WARDWATCH_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected filesystem driver, got %s", store.Driver())
	}
}

func TestOpenDefaultsToFilesystem(t *testing.T) {
	t.Setenv("WARDWATCH_BLOB_DRIVER", "")
	t.Setenv("WARDWATCH_BLOB_FS_ROOT", t.TempDir())
	store, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected filesystem default, got %s", store.Driver())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Setenv("WARDWATCH_BLOB_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected unknown-driver error")
	}
}
