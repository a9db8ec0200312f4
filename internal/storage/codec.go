// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aiotrix/streampulse/internal/models"
)

// File names under the data directory. Both backends read the same files.
const (
	usersFile        = "users.csv"
	interactionsFile = "interactions.csv"
	showsFile        = "shows.csv"
)

// Column sets, in canonical file order. Loads address columns by header
// name so reordered files still parse; appends write this order.
var (
	userColumns        = []string{"user_id", "email", "country", "registration_date", "preferred_genres", "subscription_type"}
	interactionColumns = []string{"user_id", "login_time", "content_watched", "genres_watched", "total_watch_time", "num_pauses", "buffer_events", "was_recommended"}
	showColumns        = []string{"show_id", "show_name", "genre", "duration", "ratings"}
)

// timeLayouts are accepted login/registration timestamp formats, tried in
// order. The legacy exporter wrote space-separated timestamps.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", cell)
}

// parseStringList decodes a serialized list cell.
//
// Canonical encoding is a JSON array of strings. Legacy rows carry
// Python-style lists with single quotes; those are rewritten and retried.
// A cell that still fails returns nil: malformed list fields lose their
// contribution to genre/content aggregates, but never abort the load and
// never get evaluated as code.
func parseStringList(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "[]" {
		return nil
	}

	var out []string
	if err := json.Unmarshal([]byte(cell), &out); err == nil {
		return out
	}
	// Legacy python repr: ['Drama', 'Comedy']
	rewritten := strings.ReplaceAll(cell, "'", `"`)
	if err := json.Unmarshal([]byte(rewritten), &out); err == nil {
		return out
	}
	return nil
}

// encodeStringList renders the canonical JSON array encoding for appends.
func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		// []string marshaling cannot fail; keep the row parseable anyway.
		return "[]"
	}
	return string(data)
}

// decodeUser builds a profile from cells in userColumns order. Rows
// without a user ID are unusable; noisy secondary fields degrade to zero
// values so the user still joins into the feature table.
func decodeUser(fields []string) (models.UserProfile, error) {
	if len(fields) != len(userColumns) || fields[0] == "" {
		return models.UserProfile{}, fmt.Errorf("malformed user row")
	}
	u := models.UserProfile{
		UserID:           fields[0],
		Email:            fields[1],
		Country:          fields[2],
		PreferredGenres:  parseStringList(fields[4]),
		SubscriptionType: fields[5],
	}
	if t, err := parseTime(fields[3]); err == nil {
		u.RegistrationDate = t
	}
	return u, nil
}

// decodeInteraction builds an event from cells in interactionColumns
// order. An event without a valid user ID or login time cannot be
// windowed and is rejected; malformed list cells degrade to nil.
func decodeInteraction(fields []string) (models.InteractionEvent, error) {
	if len(fields) != len(interactionColumns) || fields[0] == "" {
		return models.InteractionEvent{}, fmt.Errorf("malformed interaction row")
	}
	loginTime, err := parseTime(fields[1])
	if err != nil {
		return models.InteractionEvent{}, err
	}

	ev := models.InteractionEvent{
		UserID:         fields[0],
		LoginTime:      loginTime,
		ContentWatched: parseStringList(fields[2]),
		GenresWatched:  parseStringList(fields[3]),
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64); err == nil {
		ev.TotalWatchTime = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(fields[5])); err == nil {
		ev.NumPauses = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(fields[6])); err == nil {
		ev.BufferEvents = v
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(fields[7])); err == nil {
		ev.WasRecommended = v
	}
	return ev, nil
}

// decodeShow builds a catalog entry from cells in showColumns order.
func decodeShow(fields []string) (models.Show, error) {
	if len(fields) != len(showColumns) || fields[0] == "" {
		return models.Show{}, fmt.Errorf("malformed show row")
	}
	s := models.Show{
		ShowID:   fields[0],
		ShowName: fields[1],
		Genre:    fields[2],
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64); err == nil {
		s.Duration = int(v)
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64); err == nil {
		s.Ratings = v
	}
	return s, nil
}

// encodeUser renders a profile row in userColumns order.
func encodeUser(u models.UserProfile) []string {
	return []string{
		u.UserID,
		u.Email,
		u.Country,
		u.RegistrationDate.Format(time.RFC3339),
		encodeStringList(u.PreferredGenres),
		u.SubscriptionType,
	}
}

// encodeInteraction renders an event row in interactionColumns order.
func encodeInteraction(ev models.InteractionEvent) []string {
	return []string{
		ev.UserID,
		ev.LoginTime.Format(time.RFC3339),
		encodeStringList(ev.ContentWatched),
		encodeStringList(ev.GenresWatched),
		strconv.FormatFloat(ev.TotalWatchTime, 'f', -1, 64),
		strconv.Itoa(ev.NumPauses),
		strconv.Itoa(ev.BufferEvents),
		strconv.FormatBool(ev.WasRecommended),
	}
}
