/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage provides abstractions for persistent group storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Seednode/secretsanta/models"
)

var (
	ErrNotFound = errors.New("group not found")
	ErrExists   = errors.New("group code already in use")
	ErrConflict = errors.New("group was modified concurrently")
)

// Store persists group documents keyed by code.
//
// Update is a compare-and-set: it succeeds only when the stored Version
// equals g.Version, and on success both the stored document and g carry
// the incremented Version. Writers holding a stale snapshot receive
// ErrConflict and must re-read.
type Store interface {
	// Create inserts a new group with Version 1. Returns ErrExists if the
	// code is taken.
	Create(ctx context.Context, g *models.Group) error

	// Get returns a copy of the stored group, or ErrNotFound.
	Get(ctx context.Context, code string) (*models.Group, error)

	// Update replaces the stored group if its Version still matches.
	Update(ctx context.Context, g *models.Group) error

	// DeleteBefore removes groups created before cutoff and reports how
	// many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
