package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFilesystemStorePutGetRoundTrip(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "evidence/ISS-1/m1", strings.NewReader("payload"), PutOptions{
		ContentType: "image/png",
		Metadata:    map[string]string{"issue_id": "ISS-1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len("payload")) || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "evidence/ISS-1/m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("expected payload round trip, got %q", data)
	}
	if got.ContentType != "image/png" || got.Metadata["issue_id"] != "ISS-1" {
		t.Fatalf("metadata lost: %+v", got)
	}
}

func TestFilesystemStorePutIsCreateOnly(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), PutOptions{}); err == nil {
		t.Fatalf("expected second put to fail")
	}
}

func TestFilesystemStoreRejectsTraversalKeys(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "a/../../b", "/absolute"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestFilesystemStoreHeadDeleteList(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"evidence/ISS-1/m1", "evidence/ISS-2/m1", "other/x"} {
		if _, err := store.Put(ctx, key, strings.NewReader("data"), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	if _, err := store.Head(ctx, "evidence/ISS-1/m1"); err != nil {
		t.Fatalf("head: %v", err)
	}
	if _, err := store.Head(ctx, "evidence/ISS-9/m1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	infos, err := store.List(ctx, "evidence/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 evidence blobs, got %d", len(infos))
	}

	existed, err := store.Delete(ctx, "evidence/ISS-1/m1")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "evidence/ISS-1/m1")
	if err != nil || existed {
		t.Fatalf("repeat delete must report absence: existed=%v err=%v", existed, err)
	}
}

func TestMemoryStoreMatchesContract(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k", strings.NewReader("v"), PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("v2"), PutOptions{}); err == nil {
		t.Fatalf("expected create-only put")
	}
	info, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "v" || info.ContentType != "text/plain" {
		t.Fatalf("unexpected blob: %q %+v", data, info)
	}
	if _, _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
