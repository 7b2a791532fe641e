package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	domainErrors "github.com/sentryview/sentryview/internal/domain/errors"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	adapter, err := NewAdapter(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	t.Cleanup(func() {
		_ = adapter.Close()
	})
	return adapter
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	adapter := newTestAdapter(t)

	payload := []byte(`{"yard/motion":{"highest_seq":7}}`)
	if err := adapter.Save(ctx, "sync_state", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := adapter.Load(ctx, "sync_state")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Load = %s, want %s", got, payload)
	}
}

func TestSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	adapter := newTestAdapter(t)

	if err := adapter.Save(ctx, "sync_state", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := adapter.Save(ctx, "sync_state", []byte("new")); err != nil {
		t.Fatal(err)
	}

	got, err := adapter.Load(ctx, "sync_state")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("Load = %s, want new", got)
	}
}

func TestLoadMissingKey(t *testing.T) {
	ctx := context.Background()
	adapter := newTestAdapter(t)

	_, err := adapter.Load(ctx, "sync_state")
	if !domainErrors.Is(err, domainErrors.ErrStateNotFound) {
		t.Errorf("Load missing key error = %v, want ErrStateNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	adapter := newTestAdapter(t)

	if err := adapter.Save(ctx, "sync_state", []byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := adapter.Delete(ctx, "sync_state"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := adapter.Load(ctx, "sync_state"); !domainErrors.Is(err, domainErrors.ErrStateNotFound) {
		t.Errorf("Load after Delete error = %v, want ErrStateNotFound", err)
	}

	// Deleting a missing key is not an error.
	if err := adapter.Delete(ctx, "sync_state"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestUseAfterClose(t *testing.T) {
	ctx := context.Background()

	adapter, err := NewAdapter(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := adapter.Save(ctx, "sync_state", []byte("x")); !domainErrors.Is(err, domainErrors.ErrStoreClosed) {
		t.Errorf("Save after Close error = %v, want ErrStoreClosed", err)
	}
	if _, err := adapter.Load(ctx, "sync_state"); !domainErrors.Is(err, domainErrors.ErrStoreClosed) {
		t.Errorf("Load after Close error = %v, want ErrStoreClosed", err)
	}

	// Closing again is not an error.
	if err := adapter.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	adapter, err := NewAdapter(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := adapter.Save(ctx, "sync_state", []byte("durable")); err != nil {
		t.Fatal(err)
	}
	if err := adapter.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewAdapter(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx, "sync_state")
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if string(got) != "durable" {
		t.Errorf("Load after reopen = %s, want durable", got)
	}
}
