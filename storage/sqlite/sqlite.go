/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package sqlite provides a SQLite-backed implementation of storage.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no cgo

	"github.com/Seednode/secretsanta/models"
	"github.com/Seednode/secretsanta/pairing"
	"github.com/Seednode/secretsanta/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps the pragmas below in effect and serializes
	// writers, so version checks never race inside SQLite itself.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, g *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (code, admin_name, admin_token_id, started, created_at, updated_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		g.Code, g.AdminName, g.AdminTokenID, g.Started, g.CreatedAt.Unix(), g.UpdatedAt.Unix(),
	)
	if err != nil {
		if isConstraint(err) {
			return storage.ErrExists
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if err := writeChildren(ctx, tx, g); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	g.Version = 1

	return nil
}

func (s *Store) Get(ctx context.Context, code string) (*models.Group, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	g := &models.Group{}
	var created, updated int64

	err = tx.QueryRowContext(ctx,
		`SELECT code, admin_name, admin_token_id, started, created_at, updated_at, version
		 FROM groups WHERE code = ?`,
		code,
	).Scan(&g.Code, &g.AdminName, &g.AdminTokenID, &g.Started, &created, &updated, &g.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	g.CreatedAt = time.Unix(created, 0).UTC()
	g.UpdatedAt = time.Unix(updated, 0).UTC()

	// Each child query is drained and closed before the next one starts;
	// the transaction pins a single connection.
	if g.Members, err = members(ctx, tx, code); err != nil {
		return nil, err
	}
	if g.Pairs, err = pairs(ctx, tx, code); err != nil {
		return nil, err
	}

	return g, nil
}

// Update rewrites the group row and its children in one transaction,
// guarded by the version column.
func (s *Store) Update(ctx context.Context, g *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE groups SET admin_name = ?, admin_token_id = ?, started = ?, updated_at = ?, version = version + 1
		 WHERE code = ? AND version = ?`,
		g.AdminName, g.AdminTokenID, g.Started, g.UpdatedAt.Unix(), g.Code, g.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE code = ?", g.Code).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check group: %w", err)
		}
		return storage.ErrConflict
	}

	for _, table := range []string{"group_members", "group_pairs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE group_code = ?", g.Code); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := writeChildren(ctx, tx, g); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	g.Version++

	return nil
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete groups: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return int(n), nil
}

func members(ctx context.Context, tx *sql.Tx, code string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT name FROM group_members WHERE group_code = ? ORDER BY position",
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return out, nil
}

func pairs(ctx context.Context, tx *sql.Tx, code string) ([]pairing.Pair, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT giver, receiver FROM group_pairs WHERE group_code = ? ORDER BY position",
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pairs: %w", err)
	}
	defer rows.Close()

	var out []pairing.Pair
	for rows.Next() {
		var p pairing.Pair
		if err := rows.Scan(&p.Giver, &p.Receiver); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pairs: %w", err)
	}

	return out, nil
}

func writeChildren(ctx context.Context, tx *sql.Tx, g *models.Group) error {
	for i, name := range g.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_code, position, name) VALUES (?, ?, ?)",
			g.Code, i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	for i, p := range g.Pairs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO group_pairs (group_code, position, giver, receiver) VALUES (?, ?, ?, ?)",
			g.Code, i, p.Giver, p.Receiver,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pair: %w", err)
		}
	}

	return nil
}

func isConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
