/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package pairing draws Secret Santa assignments.
//
// An assignment is a derangement of the participant list: every name gives
// exactly once, receives exactly once, and never draws itself. The draw is
// rejection sampling over two independent Fisher-Yates shuffles; only the
// receiver side is re-drawn while a fixed point remains.
package pairing

import (
	crand "crypto/rand"
	"math/rand/v2"
	"strings"
)

// Pair is one giver/receiver assignment.
type Pair struct {
	Giver    string `json:"giver" bson:"giver" dynamodbav:"giver"`
	Receiver string `json:"receiver" bson:"receiver" dynamodbav:"receiver"`
}

// Engine owns a random source. It is not safe for concurrent use; callers
// wanting parallel draws should create one Engine each.
type Engine struct {
	rng *rand.Rand
}

// New returns an Engine drawing from src.
func New(src rand.Source) *Engine {
	return &Engine{rng: rand.New(src)}
}

// NewSeeded returns an Engine whose output is fully determined by seed.
func NewSeeded(seed uint64) *Engine {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Default returns an Engine seeded from crypto/rand.
func Default() *Engine {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return New(rand.NewChaCha8(seed))
}

// Generate draws a fresh assignment with a Default engine.
func Generate(names []string) ([]Pair, error) {
	return Default().Generate(names)
}

// Generate validates names and returns one pair per name, in giver shuffle
// order.
func (e *Engine) Generate(names []string) ([]Pair, error) {
	if err := Validate(names); err != nil {
		return nil, err
	}

	givers := e.shuffle(names)
	receivers := e.shuffle(names)
	for hasFixedPoint(givers, receivers) {
		receivers = e.shuffle(names)
	}

	pairs := make([]Pair, len(givers))
	for i := range givers {
		pairs[i] = Pair{Giver: givers[i], Receiver: receivers[i]}
	}

	return pairs, nil
}

func (e *Engine) shuffle(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)

	for i := len(out) - 1; i > 0; i-- {
		j := e.rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}

func hasFixedPoint(givers, receivers []string) bool {
	for i := range givers {
		if strings.EqualFold(givers[i], receivers[i]) {
			return true
		}
	}
	return false
}

// Validate checks the preconditions of Generate.
func Validate(names []string) error {
	if len(names) < 2 {
		return &ValidationError{Reason: TooFewParticipants}
	}

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Reason: EmptyName}
		}
		key := Fold(name)
		if _, ok := seen[key]; ok {
			return &ValidationError{Reason: DuplicateName, Name: name}
		}
		seen[key] = struct{}{}
	}

	return nil
}

// Check verifies that pairs is a derangement of names. It is used for
// assignments drawn elsewhere.
func Check(names []string, pairs []Pair) error {
	if err := Validate(names); err != nil {
		return err
	}
	if len(pairs) != len(names) {
		return &ValidationError{Reason: InvalidAssignment}
	}

	givers := make(map[string]int, len(names))
	receivers := make(map[string]int, len(names))
	for _, name := range names {
		givers[Fold(name)] = 0
		receivers[Fold(name)] = 0
	}

	for _, p := range pairs {
		g, r := Fold(p.Giver), Fold(p.Receiver)
		if g == r {
			return &ValidationError{Reason: InvalidAssignment, Name: p.Giver}
		}
		n, ok := givers[g]
		if !ok || n > 0 {
			return &ValidationError{Reason: InvalidAssignment, Name: p.Giver}
		}
		givers[g] = 1
		n, ok = receivers[r]
		if !ok || n > 0 {
			return &ValidationError{Reason: InvalidAssignment, Name: p.Receiver}
		}
		receivers[r] = 1
	}

	return nil
}

// Givers returns the giver side of pairs, in order.
func Givers(pairs []Pair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Giver
	}
	return out
}

// Fold is the comparison key for participant names.
func Fold(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseNames splits a comma or newline separated list, trimming entries and
// dropping empty ones.
func ParseNames(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}
