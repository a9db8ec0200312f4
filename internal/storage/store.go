// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package storage provides snapshot reads and serialized appends over the
// three raw tables: users, interactions and the show catalog.
//
// The backing store is deliberately boring: flat CSV files, readable
// either directly (CSVStore) or through an in-memory DuckDB instance
// (DuckDBStore). The analytics core only ever sees full snapshots; there
// is no query surface, no caching and no derived-data persistence.
//
// Appends are the single mutation point in the system and are serialized
// behind a store-level mutex, since a bare file append has no atomicity
// guarantee of its own. Every append bumps the store revision, which the
// API layer folds into its render-cache keys.
package storage

import (
	"context"

	"github.com/aiotrix/streampulse/internal/models"
)

// Store is the storage collaborator the analytics core is written against.
// Loads return full snapshots; appends are serialized and durable before
// returning.
type Store interface {
	LoadUsers(ctx context.Context) ([]models.UserProfile, error)
	LoadInteractions(ctx context.Context) ([]models.InteractionEvent, error)
	LoadShows(ctx context.Context) ([]models.Show, error)

	// RegisterUser appends a profile row. Idempotency is NOT enforced;
	// duplicate user IDs are tolerated downstream by first-match joins.
	RegisterUser(ctx context.Context, u models.UserProfile) error

	// AppendInteraction appends one event to the interaction log.
	AppendInteraction(ctx context.Context, ev models.InteractionEvent) error

	// Revision increases monotonically with every successful append.
	Revision() uint64
}

// Snapshot bundles one consistent read of all three tables.
type Snapshot struct {
	Users        []models.UserProfile
	Interactions []models.InteractionEvent
	Shows        []models.Show
}

// LoadSnapshot reads all three tables. A missing backing file surfaces as
// an error wrapping fs.ErrNotExist; reference data is a precondition, not
// something to retry around.
func LoadSnapshot(ctx context.Context, s Store) (*Snapshot, error) {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	interactions, err := s.LoadInteractions(ctx)
	if err != nil {
		return nil, err
	}
	shows, err := s.LoadShows(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Users: users, Interactions: interactions, Shows: shows}, nil
}
