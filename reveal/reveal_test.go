/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package reveal

import (
	"errors"
	"testing"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/pairing"
)

func TestResolve(t *testing.T) {
	pairs := []pairing.Pair{
		{Giver: "Alice", Receiver: "Bob"},
		{Giver: "Bob", Receiver: "Carol"},
		{Giver: "Carol", Receiver: "Alice"},
	}

	tests := []struct {
		name string
		want string
		err  error
	}{
		{"Alice", "Bob", nil},
		{"aLiCe", "Bob", nil},
		{"  BOB ", "Carol", nil},
		{"carol", "Alice", nil},
		{"Dave", "", ErrNotAssigned},
		{"", "", ErrNotAssigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(pairs, tt.name)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected error %v, got %v", tt.err, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolve_EveryGeneratedGiver(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin"}

	pairs, err := pairing.NewSeeded(3).Generate(names)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, p := range pairs {
		got, err := Resolve(pairs, p.Giver)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", p.Giver, err)
		}
		if got != p.Receiver {
			t.Errorf("Resolve(%q): expected %q, got %q", p.Giver, p.Receiver, got)
		}
	}
}

func TestTracker_EitherOrder(t *testing.T) {
	started := &models.Group{
		Code:    "ABC123",
		Members: []string{"Alice", "Bob"},
		Started: true,
		Pairs:   []pairing.Pair{{Giver: "Alice", Receiver: "Bob"}, {Giver: "Bob", Receiver: "Alice"}},
	}

	t.Run("group first", func(t *testing.T) {
		tr := NewTracker("")
		if res := tr.SetGroup(started); res.Assigned {
			t.Fatalf("no name yet, expected unassigned: %+v", res)
		}
		res := tr.SetName("alice")
		if !res.Assigned || res.Receiver != "Bob" {
			t.Errorf("expected Bob, got %+v", res)
		}
	})

	t.Run("name first", func(t *testing.T) {
		tr := NewTracker("bob")
		open := &models.Group{Code: "ABC123", Members: []string{"Alice", "Bob"}}
		if res := tr.SetGroup(open); res.Started || res.Assigned {
			t.Fatalf("group not started, got %+v", res)
		}
		res := tr.SetGroup(started)
		if !res.Started || res.Receiver != "Alice" {
			t.Errorf("expected Alice, got %+v", res)
		}
	})

	t.Run("late joiner", func(t *testing.T) {
		tr := NewTracker("Zed")
		res := tr.SetGroup(started)
		if !res.Started || res.Assigned {
			t.Errorf("expected started and unassigned, got %+v", res)
		}
		if cur := tr.Current(); cur != res {
			t.Errorf("Current mismatch: %+v vs %+v", cur, res)
		}
	})
}
