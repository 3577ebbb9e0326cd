package state

import (
	"context"
	"errors"
	"testing"

	"botagent/internal/domain"
)

func TestMemoryStoreContract(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	if err := store.Save(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("value = %q", got)
	}

	if err := store.Save(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = store.Load(ctx, "k")
	if string(got) != "v2" {
		t.Fatalf("value after overwrite = %q", got)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err after delete = %v, want not found", err)
	}
	// Deleting an absent key is a no-op.
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []byte("abc")
	if err := store.Save(ctx, "k", original); err != nil {
		t.Fatalf("save: %v", err)
	}
	original[0] = 'z'

	got, err := store.Load(ctx, "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller buffer: %q", got)
	}

	got[0] = 'y'
	again, _ := store.Load(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("loaded value aliased store buffer: %q", again)
	}
}
