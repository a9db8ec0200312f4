// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/aiotrix/streampulse/internal/logging"
	"github.com/aiotrix/streampulse/internal/models"
)

// CSVStore reads and appends the flat files directly with the stdlib CSV
// codec. It is the default backend.
type CSVStore struct {
	dir string

	// mu serializes appends; concurrent file appends interleave partial
	// rows otherwise.
	mu  sync.Mutex
	rev atomic.Uint64
}

// NewCSVStore creates a store over the given data directory. The directory
// must exist; the files inside may be created lazily by appends.
func NewCSVStore(dir string) (*CSVStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dir)
	}
	return &CSVStore{dir: dir}, nil
}

// LoadUsers reads the full user table.
func (s *CSVStore) LoadUsers(ctx context.Context) ([]models.UserProfile, error) {
	rows, err := s.readTable(ctx, usersFile, userColumns)
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
func (s *CSVStore) LoadInteractions(ctx context.Context) ([]models.InteractionEvent, error) {
	rows, err := s.readTable(ctx, interactionsFile, interactionColumns)
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

// LoadShows reads the show catalog, preserving file order; the
// recommendation engine depends on catalog order for determinism.
func (s *CSVStore) LoadShows(ctx context.Context) ([]models.Show, error) {
	rows, err := s.readTable(ctx, showsFile, showColumns)
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

// RegisterUser appends a profile row.
func (s *CSVStore) RegisterUser(ctx context.Context, u models.UserProfile) error {
	return s.appendRow(ctx, usersFile, userColumns, encodeUser(u))
}

// AppendInteraction appends one event to the log.
func (s *CSVStore) AppendInteraction(ctx context.Context, ev models.InteractionEvent) error {
	return s.appendRow(ctx, interactionsFile, interactionColumns, encodeInteraction(ev))
}

// Revision returns the append counter.
func (s *CSVStore) Revision() uint64 {
	return s.rev.Load()
}

// readTable reads every row of a file, projected onto the wanted columns
// by header name. Rows with too few cells for the projection are skipped.
func (s *CSVStore) readTable(ctx context.Context, name string, columns []string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", name, err)
	}

	indexes := make([]int, len(columns))
	for i, col := range columns {
		indexes[i] = -1
		for j, h := range header {
			if h == col {
				indexes[i] = j
				break
			}
		}
		if indexes[i] == -1 {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Warn().Err(err).Str("file", name).Msg("skipping unreadable row")
			continue
		}

		fields := make([]string, len(indexes))
		ok := true
		for i, idx := range indexes {
			if idx >= len(record) {
				ok = false
				break
			}
			fields[i] = record[idx]
		}
		if !ok {
			logging.Warn().Str("file", name).Int("cells", len(record)).Msg("skipping short row")
			continue
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

// appendRow serializes one append: create the file with its header on
// first write, then append the record and sync before returning.
func (s *CSVStore) appendRow(ctx context.Context, name string, columns, record []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	writeHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s for append: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("writing %s header: %w", name, err)
		}
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("appending to %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", name, err)
	}

	s.rev.Add(1)
	return nil
}
