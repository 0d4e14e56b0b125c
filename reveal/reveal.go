/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package reveal answers "who do I gift" for one participant.
package reveal

import (
	"errors"
	"sync"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/pairing"
)

var ErrNotAssigned = errors.New("name not found in this game")

// Resolve returns the receiver for myName, matched case-insensitively
// against each giver.
func Resolve(pairs []pairing.Pair, myName string) (string, error) {
	key := pairing.Fold(myName)
	if key == "" {
		return "", ErrNotAssigned
	}

	for _, p := range pairs {
		if pairing.Fold(p.Giver) == key {
			return p.Receiver, nil
		}
	}

	return "", ErrNotAssigned
}

// Result is the outcome of the latest evaluation.
type Result struct {
	Started  bool   `json:"started"`
	Name     string `json:"name,omitempty"`
	Assigned bool   `json:"assigned"`
	Receiver string `json:"receiver,omitempty"`
}

// Tracker re-runs Resolve whenever the group snapshot or the claimed name
// changes. The two arrive independently, so either may come first.
type Tracker struct {
	mu    sync.Mutex
	group *models.Group
	name  string
}

func NewTracker(name string) *Tracker {
	return &Tracker{name: name}
}

func (t *Tracker) SetGroup(g *models.Group) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.group = g
	return t.evaluateLocked()
}

func (t *Tracker) SetName(name string) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.name = name
	return t.evaluateLocked()
}

func (t *Tracker) Current() Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.evaluateLocked()
}

func (t *Tracker) evaluateLocked() Result {
	res := Result{Name: t.name}
	if t.group == nil || !t.group.Started {
		return res
	}
	res.Started = true

	receiver, err := Resolve(t.group.Pairs, t.name)
	if err != nil {
		return res
	}
	res.Assigned = true
	res.Receiver = receiver

	return res
}
