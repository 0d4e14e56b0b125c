/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storagetest holds the behaviour every storage.Store must share.
// Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/pairing"
	"github.com/Seednode/secretsanta/storage"
)

// Run exercises store. The store must be empty.
func Run(t *testing.T, store storage.Store) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Create sets version", func(t *testing.T) {
		g := &models.Group{Code: "CREATE", AdminName: "Alice", AdminTokenID: "tok", Members: []string{"Alice"}, CreatedAt: now, UpdatedAt: now}
		if err := store.Create(ctx, g); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if g.Version != 1 {
			t.Errorf("expected version 1, got %d", g.Version)
		}

		got, err := store.Get(ctx, "CREATE")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.AdminName != "Alice" || got.AdminTokenID != "tok" || got.Version != 1 {
			t.Errorf("unexpected group: %+v", got)
		}
		if !reflect.DeepEqual(got.Members, []string{"Alice"}) {
			t.Errorf("members: expected [Alice], got %v", got.Members)
		}
		if got.Started || len(got.Pairs) != 0 {
			t.Errorf("new group should be open without pairs: %+v", got)
		}
		if !got.CreatedAt.Equal(now) {
			t.Errorf("createdAt: expected %v, got %v", now, got.CreatedAt)
		}
	})

	t.Run("Create duplicate code", func(t *testing.T) {
		g := &models.Group{Code: "DUPE01", CreatedAt: now, UpdatedAt: now}
		if err := store.Create(ctx, g); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		again := &models.Group{Code: "DUPE01", CreatedAt: now, UpdatedAt: now}
		if err := store.Create(ctx, again); !errors.Is(err, storage.ErrExists) {
			t.Errorf("expected ErrExists, got %v", err)
		}
	})

	t.Run("Get unknown", func(t *testing.T) {
		if _, err := store.Get(ctx, "NOPE00"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update round trip", func(t *testing.T) {
		g := &models.Group{Code: "UPDATE", CreatedAt: now, UpdatedAt: now}
		if err := store.Create(ctx, g); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		g.Members = []string{"Alice", "Bob", "Carol"}
		if err := store.Update(ctx, g); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if g.Version != 2 {
			t.Errorf("expected version 2, got %d", g.Version)
		}

		g.Started = true
		g.Pairs = []pairing.Pair{
			{Giver: "Bob", Receiver: "Alice"},
			{Giver: "Alice", Receiver: "Carol"},
			{Giver: "Carol", Receiver: "Bob"},
		}
		if err := store.Update(ctx, g); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := store.Get(ctx, "UPDATE")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Version != 3 || !got.Started {
			t.Errorf("unexpected state: %+v", got)
		}
		if !reflect.DeepEqual(got.Members, g.Members) {
			t.Errorf("members order lost: expected %v, got %v", g.Members, got.Members)
		}
		if !reflect.DeepEqual(got.Pairs, g.Pairs) {
			t.Errorf("pairs order lost: expected %v, got %v", g.Pairs, got.Pairs)
		}
	})

	t.Run("Update stale version", func(t *testing.T) {
		g := &models.Group{Code: "STALE0", CreatedAt: now, UpdatedAt: now}
		if err := store.Create(ctx, g); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		a, _ := store.Get(ctx, "STALE0")
		b, _ := store.Get(ctx, "STALE0")

		a.Members = []string{"Alice"}
		if err := store.Update(ctx, a); err != nil {
			t.Fatalf("first Update failed: %v", err)
		}

		b.Members = []string{"Bob"}
		if err := store.Update(ctx, b); !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}

		got, _ := store.Get(ctx, "STALE0")
		if !reflect.DeepEqual(got.Members, []string{"Alice"}) {
			t.Errorf("stale write leaked: %v", got.Members)
		}
	})

	t.Run("Update unknown", func(t *testing.T) {
		g := &models.Group{Code: "GHOST0", Version: 1}
		if err := store.Update(ctx, g); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Concurrent updates have one winner", func(t *testing.T) {
		g := &models.Group{Code: "RACE00", CreatedAt: now, UpdatedAt: now}
		if err := store.Create(ctx, g); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		const writers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0

		for i := 0; i < writers; i++ {
			snap, err := store.Get(ctx, "RACE00")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			wg.Add(1)
			go func(snap *models.Group, i int) {
				defer wg.Done()
				snap.Members = append(snap.Members, string(rune('A'+i)))
				if err := store.Update(ctx, snap); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(snap, i)
		}
		wg.Wait()

		if wins != 1 {
			t.Errorf("expected exactly one winning write, got %d", wins)
		}
	})

	t.Run("DeleteBefore", func(t *testing.T) {
		old := &models.Group{Code: "OLD000", CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now}
		if err := store.Create(ctx, old); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		removed, err := store.DeleteBefore(ctx, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("DeleteBefore failed: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 removed, got %d", removed)
		}
		if _, err := store.Get(ctx, "OLD000"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("old group still present: %v", err)
		}
		if _, err := store.Get(ctx, "UPDATE"); err != nil {
			t.Errorf("recent group removed: %v", err)
		}
	})
}
