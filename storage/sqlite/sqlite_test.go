/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/storage/storagetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, newTestStore(t))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	now := time.Now().UTC()
	g := &models.Group{Code: "KEEP01", AdminName: "Alice", Members: []string{"Alice", "Bob"}, CreatedAt: now, UpdatedAt: now}
	if err := store.Create(ctx, g); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "KEEP01")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !reflect.DeepEqual(got.Members, []string{"Alice", "Bob"}) {
		t.Errorf("members: expected [Alice Bob], got %v", got.Members)
	}
}

func TestSQLiteStore_DeleteCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := time.Now().Add(-time.Hour)
	g := &models.Group{Code: "CASC01", Members: []string{"Alice", "Bob"}, CreatedAt: old, UpdatedAt: old}
	if err := store.Create(ctx, g); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.DeleteBefore(ctx, time.Now()); err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}

	var n int
	if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM group_members WHERE group_code = ?", "CASC01").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected members removed with group, found %d", n)
	}
}
