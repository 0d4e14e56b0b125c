/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pairing

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func assertDerangement(t *testing.T, names []string, pairs []Pair) {
	t.Helper()

	if len(pairs) != len(names) {
		t.Fatalf("expected %d pairs, got %d", len(names), len(pairs))
	}

	givers := make(map[string]int)
	receivers := make(map[string]int)
	for _, p := range pairs {
		if p.Giver == p.Receiver {
			t.Fatalf("self assignment: %+v", p)
		}
		givers[p.Giver]++
		receivers[p.Receiver]++
	}

	for _, name := range names {
		if givers[name] != 1 {
			t.Errorf("%s gives %d times, expected 1", name, givers[name])
		}
		if receivers[name] != 1 {
			t.Errorf("%s receives %d times, expected 1", name, receivers[name])
		}
	}
}

func TestGenerate_Derangement(t *testing.T) {
	for n := 2; n <= 12; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("Person%d", i)
		}

		for seed := uint64(0); seed < 50; seed++ {
			pairs, err := NewSeeded(seed).Generate(names)
			if err != nil {
				t.Fatalf("n=%d seed=%d: %v", n, seed, err)
			}
			assertDerangement(t, names, pairs)
		}
	}
}

func TestGenerate_DefaultEngine(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol"}

	pairs, err := Generate(names)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	assertDerangement(t, names, pairs)
}

func TestGenerate_SeedIsDeterministic(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}

	first, err := NewSeeded(42).Generate(names)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := NewSeeded(42).Generate(names)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed produced different output:\n%v\n%v", first, second)
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol", "Dave"}
	orig := append([]string(nil), names...)

	if _, err := NewSeeded(7).Generate(names); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !reflect.DeepEqual(names, orig) {
		t.Errorf("input mutated: %v", names)
	}
}

func TestGenerate_TwoNamesSwap(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		pairs, err := NewSeeded(seed).Generate([]string{"Alice", "Bob"})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		for _, p := range pairs {
			if p.Giver == "Alice" && p.Receiver != "Bob" {
				t.Errorf("Alice must gift Bob, got %s", p.Receiver)
			}
			if p.Giver == "Bob" && p.Receiver != "Alice" {
				t.Errorf("Bob must gift Alice, got %s", p.Receiver)
			}
		}
	}
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		target error
		reason Reason
	}{
		{"nil", nil, ErrTooFewParticipants, TooFewParticipants},
		{"single", []string{"Alice"}, ErrTooFewParticipants, TooFewParticipants},
		{"exact duplicate", []string{"Alice", "Bob", "Alice"}, ErrDuplicateName, DuplicateName},
		{"case duplicate", []string{"Alice", "ALICE"}, ErrDuplicateName, DuplicateName},
		{"blank", []string{"Alice", "  "}, ErrEmptyName, EmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := NewSeeded(1).Generate(tt.input)
			if err == nil {
				t.Fatalf("expected error, got pairs %v", pairs)
			}
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Reason != tt.reason {
				t.Errorf("reason: expected %s, got %s", tt.reason, verr.Reason)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	names := []string{"Alice", "Bob", "Carol"}

	valid := []Pair{{"Alice", "Bob"}, {"Bob", "Carol"}, {"Carol", "Alice"}}
	if err := Check(names, valid); err != nil {
		t.Errorf("valid assignment rejected: %v", err)
	}

	invalid := map[string][]Pair{
		"self":          {{"Alice", "Alice"}, {"Bob", "Carol"}, {"Carol", "Bob"}},
		"short":         {{"Alice", "Bob"}, {"Bob", "Alice"}},
		"double giver":  {{"Alice", "Bob"}, {"Alice", "Carol"}, {"Carol", "Alice"}},
		"double target": {{"Alice", "Bob"}, {"Bob", "Alice"}, {"Carol", "Alice"}},
		"stranger":      {{"Alice", "Bob"}, {"Bob", "Dave"}, {"Carol", "Alice"}},
	}
	for name, pairs := range invalid {
		t.Run(name, func(t *testing.T) {
			if err := Check(names, pairs); !errors.Is(err, ErrInvalidAssignment) {
				t.Errorf("expected ErrInvalidAssignment, got %v", err)
			}
		})
	}
}

func TestParseNames(t *testing.T) {
	got := ParseNames(" Alice, Bob ,,\nCarol\r\n ,  ")
	want := []string{"Alice", "Bob", "Carol"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
