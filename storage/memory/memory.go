/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package memory is an in-process storage.Store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	groups map[string]*models.Group
}

func New() *Store {
	return &Store{groups: make(map[string]*models.Group)}
}

func (s *Store) Create(_ context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[g.Code]; ok {
		return storage.ErrExists
	}

	g.Version = 1
	s.groups[g.Code] = g.Clone()

	return nil
}

func (s *Store) Get(_ context.Context, code string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[code]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return g.Clone(), nil
}

func (s *Store) Update(_ context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.groups[g.Code]
	if !ok {
		return storage.ErrNotFound
	}
	if cur.Version != g.Version {
		return storage.ErrConflict
	}

	g.Version++
	s.groups[g.Code] = g.Clone()

	return nil
}

func (s *Store) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for code, g := range s.groups {
		if g.CreatedAt.Before(cutoff) {
			delete(s.groups, code)
			removed++
		}
	}

	return removed, nil
}

func (s *Store) Close() error {
	return nil
}
