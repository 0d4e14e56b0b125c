/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package groups owns the lifecycle of a gift exchange group: creation,
// joining, the one-time draw, and live snapshots for observers.
package groups

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Seednode/secretsanta/capability"
	"github.com/Seednode/secretsanta/metrics"
	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/pairing"
	"github.com/Seednode/secretsanta/storage"
)

const (
	defaultMaxAttempts = 5
	retryBackoff       = 10 * time.Millisecond
)

// Requester identifies who is asking to start a group.
type Requester struct {
	Name  string
	Token string
}

type Manager struct {
	store    storage.Store
	auth     *capability.Authority
	engine   func() *pairing.Engine
	attempts int
	metrics  *metrics.Metrics
	now      func() time.Time
	hub      *Broadcaster
}

type Option func(*Manager)

// WithEngine sets the factory used for every draw. It is called once per
// Start or Quick so that no random state is shared between calls.
func WithEngine(fn func() *pairing.Engine) Option {
	return func(m *Manager) {
		m.engine = fn
	}
}

func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.attempts = n
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithBroadcaster(b *Broadcaster) Option {
	return func(m *Manager) {
		m.hub = b
	}
}

func NewManager(store storage.Store, auth *capability.Authority, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		auth:     auth,
		engine:   pairing.Default,
		attempts: defaultMaxAttempts,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.hub == nil {
		m.hub = NewBroadcaster(m.metrics)
	}

	return m
}

// Create opens a new group. When creatorName is set the creator becomes
// admin and first member, and the returned token is their capability.
func (m *Manager) Create(ctx context.Context, creatorName string) (*models.Group, string, error) {
	var admin string

	if strings.TrimSpace(creatorName) != "" {
		name, err := NormalizeName(creatorName)
		if err != nil {
			return nil, "", err
		}
		admin = name
	}

	g, token, err := m.insert(ctx, func(g *models.Group) (string, error) {
		g.Members = []string{}

		if admin == "" {
			return "", nil
		}

		token, id, err := m.auth.Issue(g.Code, admin)
		if err != nil {
			return "", err
		}

		g.AdminName = admin
		g.AdminTokenID = id
		g.Members = []string{admin}

		return token, nil
	})
	if err != nil {
		return nil, "", err
	}

	slog.Info("group created", "code", g.Code, "admin", admin)

	return g, token, nil
}

// Join adds name to an open group.
func (m *Manager) Join(ctx context.Context, code, name string) (*models.Group, error) {
	name, err := NormalizeName(name)
	if err != nil {
		m.metrics.Join(Code(err))

		return nil, err
	}

	g, err := m.mutate(ctx, code, "join", func(g *models.Group) error {
		if g.Started {
			return ErrAlreadyStarted
		}
		if g.HasMember(name) {
			return &pairing.ValidationError{Reason: pairing.DuplicateName, Name: name}
		}

		g.Members = append(g.Members, name)

		return nil
	})

	m.metrics.Join(Code(err))

	if err != nil {
		return nil, err
	}

	slog.Debug("member joined", "code", g.Code, "name", name, "members", len(g.Members))

	return g, nil
}

// Start draws the pairs and freezes the group. It succeeds at most once per
// group; every later or concurrent call gets ErrAlreadyStarted.
func (m *Manager) Start(ctx context.Context, code string, req Requester) ([]pairing.Pair, error) {
	var pairs []pairing.Pair

	g, err := m.mutate(ctx, code, "start", func(g *models.Group) error {
		if !m.authorized(g, req) {
			return ErrForbidden
		}
		if g.Started {
			return ErrAlreadyStarted
		}
		if len(g.Members) < 2 {
			return ErrInsufficientMembers
		}

		p, err := m.engine().Generate(g.Members)
		if err != nil {
			return err
		}

		g.Pairs = p
		g.Started = true
		pairs = p

		return nil
	})

	m.metrics.Start(Code(err))

	if err != nil {
		return nil, err
	}

	slog.Info("group started", "code", g.Code, "members", len(g.Members))

	return pairs, nil
}

func (m *Manager) authorized(g *models.Group, req Requester) bool {
	if g.AdminName == "" {
		return true
	}

	if req.Name != "" && !strings.EqualFold(strings.TrimSpace(req.Name), g.AdminName) {
		return false
	}

	return m.auth != nil && m.auth.Grants(req.Token, g.Code, g.AdminName, g.AdminTokenID)
}

func (m *Manager) Get(ctx context.Context, code string) (*models.Group, error) {
	g, err := m.store.Get(ctx, NormalizeCode(code))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	return g, nil
}

// Subscribe returns a subscription to snapshots of code. Callers must Close
// it when done.
func (m *Manager) Subscribe(code string) *Subscription {
	return m.hub.Subscribe(NormalizeCode(code))
}

// Refresh publishes the stored snapshot of code if it is newer than the
// last one delivered, picking up writes made by other processes.
func (m *Manager) Refresh(ctx context.Context, code string) error {
	g, err := m.Get(ctx, code)
	if err != nil {
		return err
	}

	m.hub.Publish(g)

	return nil
}

// Import creates an already started group from externally drawn pairs.
func (m *Manager) Import(ctx context.Context, pairs []pairing.Pair) (*models.Group, error) {
	clean := make([]pairing.Pair, len(pairs))
	for i, p := range pairs {
		giver, err := NormalizeName(p.Giver)
		if err != nil {
			return nil, err
		}

		receiver, err := NormalizeName(p.Receiver)
		if err != nil {
			return nil, err
		}

		clean[i] = pairing.Pair{Giver: giver, Receiver: receiver}
	}

	names := pairing.Givers(clean)
	if err := pairing.Check(names, clean); err != nil {
		return nil, err
	}

	return m.quick(ctx, names, clean)
}

// Quick creates an already started group and draws its pairs.
func (m *Manager) Quick(ctx context.Context, names []string) (*models.Group, error) {
	clean := make([]string, len(names))
	for i, n := range names {
		name, err := NormalizeName(n)
		if err != nil {
			return nil, err
		}
		clean[i] = name
	}

	pairs, err := m.engine().Generate(clean)
	if err != nil {
		return nil, err
	}

	return m.quick(ctx, clean, pairs)
}

func (m *Manager) quick(ctx context.Context, names []string, pairs []pairing.Pair) (*models.Group, error) {
	g, _, err := m.insert(ctx, func(g *models.Group) (string, error) {
		g.Members = names
		g.Pairs = pairs
		g.Started = true

		return "", nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("quick game created", "code", g.Code, "members", len(names))

	return g, nil
}

// Purge deletes groups created more than olderThan ago.
func (m *Manager) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := m.store.DeleteBefore(ctx, m.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to purge groups: %w", err)
	}

	m.metrics.Purged(n)

	if n > 0 {
		slog.Info("purged expired groups", "count", n, "retention", olderThan)
	}

	return n, nil
}

// Reap runs Purge every interval until ctx is done.
func (m *Manager) Reap(ctx context.Context, every, retention time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Purge(ctx, retention); err != nil {
				slog.Error("reaper", "error", err)
			}
		}
	}
}

// insert stores a fresh group under a newly generated code, retrying on
// code collisions. fill populates the group once its code is known.
func (m *Manager) insert(ctx context.Context, fill func(*models.Group) (string, error)) (*models.Group, string, error) {
	for attempt := 0; attempt < m.attempts; attempt++ {
		now := m.now().UTC()

		g := &models.Group{
			Code:      NewCode(),
			CreatedAt: now,
			UpdatedAt: now,
		}

		token, err := fill(g)
		if err != nil {
			return nil, "", err
		}

		err = m.store.Create(ctx, g)
		if errors.Is(err, storage.ErrExists) {
			m.metrics.Conflict("create")

			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create group: %w", err)
		}

		m.metrics.GroupCreated()

		return g, token, nil
	}

	return nil, "", ErrContention
}

// mutate applies fn to the freshest snapshot of code and commits it with a
// compare-and-set, re-reading and re-applying on conflict.
func (m *Manager) mutate(ctx context.Context, code, op string, fn func(*models.Group) error) (*models.Group, error) {
	code = NormalizeCode(code)

	for attempt := 0; attempt < m.attempts; attempt++ {
		if attempt > 0 {
			if err := backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		g, err := m.Get(ctx, code)
		if err != nil {
			return nil, err
		}

		if err := fn(g); err != nil {
			return nil, err
		}

		g.UpdatedAt = m.now().UTC()

		err = m.store.Update(ctx, g)
		switch {
		case errors.Is(err, storage.ErrConflict):
			m.metrics.Conflict(op)
			slog.Debug("write conflict", "code", code, "operation", op, "attempt", attempt+1)

			continue
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		case err != nil:
			return nil, fmt.Errorf("failed to %s group: %w", op, err)
		}

		m.hub.Publish(g)

		return g, nil
	}

	return nil, ErrContention
}

func backoff(ctx context.Context, attempt int) error {
	d := time.Duration(attempt)*retryBackoff + rand.N(retryBackoff)

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
