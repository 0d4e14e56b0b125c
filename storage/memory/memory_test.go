/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package memory

import (
	"context"
	"testing"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, New())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	g := &models.Group{Code: "COPY00", Members: []string{"Alice"}}
	if err := s.Create(ctx, g); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	g.Members[0] = "Mallory"

	got, err := s.Get(ctx, "COPY00")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.Members = append(got.Members, "Eve")

	again, _ := s.Get(ctx, "COPY00")
	if len(again.Members) != 1 || again.Members[0] != "Alice" {
		t.Errorf("stored group aliased caller memory: %v", again.Members)
	}
}
