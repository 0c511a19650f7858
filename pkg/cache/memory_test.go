package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_SetAndGet(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	entry := NewEntry([]byte(`{"data":{"id":1}}`), 5*time.Minute)
	if err := store.Set(ctx, "k", entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != string(entry.Data) {
		t.Errorf("Data mismatch: got %s, want %s", got.Data, entry.Data)
	}
}

func TestMemoryStore_Get_CacheMiss(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryStore_ExpiredEntry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	// Set should not store expired entries
	expired := &Entry{Data: []byte(`{}`), Expires: time.Now().Add(-time.Hour)}
	if err := store.Set(ctx, "k", expired); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}

	short := NewEntry([]byte(`{}`), 20*time.Millisecond)
	if err := store.Set(ctx, "k", short); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	if err := store.Set(ctx, "k", NewEntry([]byte(`{}`), time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}

	// deleting a missing key is fine
	if err := store.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete of missing key returned %v", err)
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	_ = store.Set(ctx, "k", NewEntry([]byte(`{"v":1}`), time.Minute))
	_ = store.Set(ctx, "k", NewEntry([]byte(`{"v":2}`), time.Minute))

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != `{"v":2}` {
		t.Errorf("Data = %s, want last write", got.Data)
	}
}

func TestMemoryStore_Set_NilEntry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	if err := store.Set(context.Background(), "k", nil); err == nil {
		t.Error("Set with nil entry should return error")
	}
}

func TestMemoryStore_DoesNotShareData(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	raw := []byte(`{"id":1}`)
	if err := store.Set(ctx, "k", NewEntry(raw, time.Minute)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	copy(raw, `{"id":2}`)

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	copy(got.Data, `{"id":3}`)

	again, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(again.Data) != `{"id":1}` {
		t.Errorf("Stored data changed to %s", again.Data)
	}
}
