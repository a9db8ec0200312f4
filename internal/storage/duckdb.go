// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/aiotrix/streampulse/internal/logging"
	"github.com/aiotrix/streampulse/internal/models"
)

// DuckDBStore reads the same flat files as CSVStore, but through an
// in-memory DuckDB instance. DuckDB's CSV reader handles quoting edge
// cases and parallel scans better than the stdlib codec on large logs;
// the decode layer and the append path are shared with CSVStore so both
// backends agree on row semantics.
type DuckDBStore struct {
	// csv handles appends and the revision counter; DuckDB reads the
	// files fresh on every load, so appends need no DB-side mirror.
	csv *CSVStore

	db *sql.DB
}

// NewDuckDBStore opens an in-memory DuckDB over the given data directory.
func NewDuckDBStore(dir string) (*DuckDBStore, error) {
	csvStore, err := NewCSVStore(dir)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging duckdb: %w", err)
	}

	logging.Debug().Str("data_dir", dir).Msg("duckdb storage backend ready")
	return &DuckDBStore{csv: csvStore, db: db}, nil
}

// Close releases the embedded DuckDB instance.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// LoadUsers reads the full user table.
func (s *DuckDBStore) LoadUsers(ctx context.Context) ([]models.UserProfile, error) {
	rows, err := s.queryTable(ctx, usersFile, userColumns)
	if err != nil {
		return nil, err
	}
	users := make([]models.UserProfile, 0, len(rows))
	for _, fields := range rows {
		u, err := decodeUser(fields)
		if err != nil {
			logging.Warn().Err(err).Str("file", usersFile).Msg("skipping unreadable row")
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// LoadInteractions reads the full interaction log.
func (s *DuckDBStore) LoadInteractions(ctx context.Context) ([]models.InteractionEvent, error) {
	rows, err := s.queryTable(ctx, interactionsFile, interactionColumns)
	if err != nil {
		return nil, err
	}
	events := make([]models.InteractionEvent, 0, len(rows))
	for _, fields := range rows {
		ev, err := decodeInteraction(fields)
		if err != nil {
			logging.Warn().Err(err).Str("file", interactionsFile).Msg("skipping unreadable row")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// LoadShows reads the show catalog in file order.
func (s *DuckDBStore) LoadShows(ctx context.Context) ([]models.Show, error) {
	rows, err := s.queryTable(ctx, showsFile, showColumns)
	if err != nil {
		return nil, err
	}
	shows := make([]models.Show, 0, len(rows))
	for _, fields := range rows {
		show, err := decodeShow(fields)
		if err != nil {
			logging.Warn().Err(err).Str("file", showsFile).Msg("skipping unreadable row")
			continue
		}
		shows = append(shows, show)
	}
	return shows, nil
}

// RegisterUser appends a profile row through the shared CSV append path.
func (s *DuckDBStore) RegisterUser(ctx context.Context, u models.UserProfile) error {
	return s.csv.RegisterUser(ctx, u)
}

// AppendInteraction appends one event through the shared CSV append path.
func (s *DuckDBStore) AppendInteraction(ctx context.Context, ev models.InteractionEvent) error {
	return s.csv.AppendInteraction(ctx, ev)
}

// Revision returns the append counter.
func (s *DuckDBStore) Revision() uint64 {
	return s.csv.Revision()
}

// queryTable scans a file through read_csv with all columns as VARCHAR,
// so the shared decoders see the same raw cells the stdlib path does.
// The file is stat'd first: read_csv reports a missing file as a generic
// IO error, and callers need fs.ErrNotExist to fail fast.
func (s *DuckDBStore) queryTable(ctx context.Context, name string, columns []string) ([][]string, error) {
	path := filepath.Join(s.csv.dir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = `"` + col + `"`
	}
	query := fmt.Sprintf(
		"SELECT %s FROM read_csv(?, header=true, all_varchar=true)",
		strings.Join(quoted, ", "),
	)

	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		targets := make([]interface{}, len(columns))
		for i := range cells {
			targets[i] = &cells[i]
		}
		if err := rows.Scan(targets...); err != nil {
			logging.Warn().Err(err).Str("file", name).Msg("skipping unreadable row")
			continue
		}
		fields := make([]string, len(columns))
		for i, cell := range cells {
			if cell.Valid {
				fields[i] = cell.String
			}
		}
		out = append(out, fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", name, err)
	}
	return out, nil
}
