// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package api

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/aiotrix/streampulse/internal/cache"
	"github.com/aiotrix/streampulse/internal/churn"
	"github.com/aiotrix/streampulse/internal/config"
	"github.com/aiotrix/streampulse/internal/models"
)

// mockStore is an in-memory storage.Store for handler tests.
type mockStore struct {
	users        []models.UserProfile
	interactions []models.InteractionEvent
	shows        []models.Show

	loadErr    error
	registered []models.UserProfile
	appended   []models.InteractionEvent
	rev        uint64
}

func (m *mockStore) LoadUsers(ctx context.Context) ([]models.UserProfile, error) {
	return m.users, m.loadErr
}

func (m *mockStore) LoadInteractions(ctx context.Context) ([]models.InteractionEvent, error) {
	return m.interactions, m.loadErr
}

func (m *mockStore) LoadShows(ctx context.Context) ([]models.Show, error) {
	return m.shows, m.loadErr
}

func (m *mockStore) RegisterUser(ctx context.Context, u models.UserProfile) error {
	m.registered = append(m.registered, u)
	m.rev++
	return nil
}

func (m *mockStore) AppendInteraction(ctx context.Context, ev models.InteractionEvent) error {
	m.appended = append(m.appended, ev)
	m.rev++
	return nil
}

func (m *mockStore) Revision() uint64 { return m.rev }

// stubClassifier returns one canned prediction per row and counts calls.
type stubClassifier struct {
	prediction churn.Prediction
	calls      int
}

func (s *stubClassifier) Predict(ctx context.Context, rows [][]float64) ([]churn.Prediction, error) {
	s.calls++
	predictions := make([]churn.Prediction, len(rows))
	for i := range predictions {
		predictions[i] = s.prediction
	}
	return predictions, nil
}

// orderedClassifier emits a fixed prediction sequence, for tests that need
// different verdicts per user.
type orderedClassifier struct {
	predictions []churn.Prediction
	calls       int
}

func (o *orderedClassifier) Predict(ctx context.Context, rows [][]float64) ([]churn.Prediction, error) {
	o.calls++
	if len(rows) != len(o.predictions) {
		return nil, fmt.Errorf("fixture expects %d rows, got %d", len(o.predictions), len(rows))
	}
	return o.predictions, nil
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 8686},
		Storage: config.StorageConfig{Backend: "csv", DataDir: "data"},
		Model:   config.ModelConfig{Path: "model.json"},
		Analytics: config.AnalyticsConfig{
			ReferenceTime:  "2025-06-15",
			RenderCacheTTL: time.Minute,
		},
	}
}

func newTestRouter(store *mockStore, classifier churn.Classifier, cfg *config.Config) http.Handler {
	h := NewHandler(store, churn.NewAdapter(classifier), cfg, cache.New(cfg.Analytics.RenderCacheTTL))
	return NewRouter(h, cfg)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&mockStore{rev: 3}, &stubClassifier{}, testConfig())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if env.Status != "success" {
		t.Errorf("envelope status %q, want success", env.Status)
	}

	var health HealthStatus
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatalf("decoding health payload: %v", err)
	}
	if health.Status != "healthy" || health.StoreRevision != 3 || health.Backend != "csv" {
		t.Errorf("health = %+v", health)
	}
}

func TestRegisterUser(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid",
			body:       `{"user_id": "u1", "email": "u1@example.com", "preferred_genres": ["Drama"], "registration_date": "2024-01-15"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "minimal",
			body:       `{"user_id": "u2"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid json",
			body:       `{"user_id": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "unknown field",
			body:       `{"user_id": "u1", "favourite_colour": "blue"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "missing user id",
			body:       `{"email": "u1@example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "bad email",
			body:       `{"user_id": "u1", "email": "not-an-email"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "bad registration date",
			body:       `{"user_id": "u1", "registration_date": "last tuesday"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			router := newTestRouter(store, &stubClassifier{}, testConfig())

			rec, env := doRequest(t, router, http.MethodPost, "/api/v1/users", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %q", env.Error, tt.wantCode)
				}
				if len(store.registered) != 0 {
					t.Error("rejected request must not reach storage")
				}
				return
			}
			if len(store.registered) != 1 {
				t.Fatalf("stored %d profiles, want 1", len(store.registered))
			}
		})
	}
}

func TestRegisterUser_PersistsFields(t *testing.T) {
	store := &mockStore{}
	router := newTestRouter(store, &stubClassifier{}, testConfig())

	body := `{"user_id": "u1", "email": "u1@example.com", "country": "DE", "preferred_genres": ["Drama", "Comedy"], "subscription_type": "premium", "registration_date": "2024-01-15"}`
	rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/users", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	got := store.registered[0]
	if got.UserID != "u1" || got.Country != "DE" || got.SubscriptionType != "premium" {
		t.Errorf("stored profile = %+v", got)
	}
	if !got.RegistrationDate.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("registration date = %v", got.RegistrationDate)
	}
}

func TestLogEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid",
			body:       `{"user_id": "u1", "login_time": "2025-06-14T21:30:00Z", "content_watched": ["s1"], "genres_watched": ["Drama"], "total_watch_time": 95.5, "num_pauses": 2, "buffer_events": 1, "was_recommended": true}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing login time",
			body:       `{"user_id": "u1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unparseable login time",
			body:       `{"user_id": "u1", "login_time": "around nine"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative watch time",
			body:       `{"user_id": "u1", "login_time": "2025-06-14T21:30:00Z", "total_watch_time": -5}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			router := newTestRouter(store, &stubClassifier{}, testConfig())

			rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/events", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				if len(store.appended) != 1 {
					t.Fatalf("stored %d events, want 1", len(store.appended))
				}
				if store.appended[0].TotalWatchTime != 95.5 || !store.appended[0].WasRecommended {
					t.Errorf("stored event = %+v", store.appended[0])
				}
			} else if len(store.appended) != 0 {
				t.Error("rejected request must not reach storage")
			}
		})
	}
}

func analyticsFixtureStore() *mockStore {
	ref := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return &mockStore{
		users: []models.UserProfile{
			{UserID: "u1", PreferredGenres: []string{"Comedy"}},
			{UserID: "u2", PreferredGenres: []string{"Drama"}},
		},
		interactions: []models.InteractionEvent{
			{UserID: "u1", LoginTime: ref.AddDate(0, 0, -1), TotalWatchTime: 120, ContentWatched: []string{"s1"}, GenresWatched: []string{"Drama"}},
			{UserID: "u2", LoginTime: ref.AddDate(0, 0, -2), TotalWatchTime: 30, ContentWatched: []string{"s2"}, GenresWatched: []string{"Comedy"}},
		},
		shows: []models.Show{
			{ShowID: "s1", ShowName: "Long Drama", Genre: "Drama", Duration: 120, Ratings: 4.5},
			{ShowID: "s2", ShowName: "Quick Laughs", Genre: "Comedy", Duration: 45, Ratings: 4.2},
		},
	}
}

func TestAnalyticsChurn(t *testing.T) {
	classifier := &orderedClassifier{predictions: []churn.Prediction{
		churn.LabelPrediction("no_churn"),
		churn.LabelPrediction("bad_recommendation"),
	}}
	router := newTestRouter(analyticsFixtureStore(), classifier, testConfig())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/churn", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var payload models.ChurnAnalytics
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.TotalUsers != 2 || payload.ChurnedUsers != 1 || payload.ChurnRate != 0.5 {
		t.Errorf("summary = %+v", payload)
	}
	if len(payload.Users) != 1 || payload.Users[0].UserID != "u2" {
		t.Fatalf("churned users = %+v", payload.Users)
	}
	// u2 prefers Drama; the only Drama show is Long Drama.
	if payload.Users[0].RecommendedShows != "Long Drama" {
		t.Errorf("recommendations = %q", payload.Users[0].RecommendedShows)
	}
	if len(payload.TopRecommendations) != 1 || payload.TopRecommendations[0] != "Long Drama" {
		t.Errorf("top recommendations = %v", payload.TopRecommendations)
	}
	if env.Metadata.Cached {
		t.Error("first request must not be served from cache")
	}
}

func TestAnalyticsChurn_RenderCache(t *testing.T) {
	classifier := &orderedClassifier{predictions: []churn.Prediction{
		churn.LabelPrediction("no_churn"),
		churn.LabelPrediction("no_churn"),
	}}
	router := newTestRouter(analyticsFixtureStore(), classifier, testConfig())

	doRequest(t, router, http.MethodGet, "/api/v1/analytics/churn", "")
	_, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/churn", "")

	if classifier.calls != 1 {
		t.Errorf("classifier ran %d times, want 1 (second render must hit the cache)", classifier.calls)
	}
	if !env.Metadata.Cached {
		t.Error("second request must report cached=true")
	}
}

func TestAnalyticsChurn_ReferenceTimeParam(t *testing.T) {
	classifier := &orderedClassifier{predictions: []churn.Prediction{
		churn.LabelPrediction("no_churn"),
		churn.LabelPrediction("no_churn"),
	}}
	router := newTestRouter(analyticsFixtureStore(), classifier, testConfig())

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/analytics/churn?reference_time=2025-06-20T00:00:00Z", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/churn?reference_time=whenever", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestAnalyticsChurn_NoReferenceTimeAnywhere(t *testing.T) {
	cfg := testConfig()
	cfg.Analytics.ReferenceTime = ""
	router := newTestRouter(analyticsFixtureStore(), &stubClassifier{}, cfg)

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/churn", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400 (never fall back to wall clock)", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestAnalyticsChurn_DataContractError(t *testing.T) {
	// Unknown class code: the adapter must refuse the whole batch.
	classifier := &stubClassifier{prediction: churn.CodedPrediction(9)}
	router := newTestRouter(analyticsFixtureStore(), classifier, testConfig())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/churn", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "DATA_CONTRACT_ERROR" {
		t.Errorf("error = %+v, want DATA_CONTRACT_ERROR", env.Error)
	}
}

func TestAnalytics_MissingDataFiles(t *testing.T) {
	store := analyticsFixtureStore()
	store.loadErr = fmt.Errorf("opening users.csv: %w", fs.ErrNotExist)
	router := newTestRouter(store, &stubClassifier{}, testConfig())

	for _, path := range []string{
		"/api/v1/analytics/churn",
		"/api/v1/analytics/features",
		"/api/v1/analytics/hourly-activity",
		"/api/v1/analytics/watch-time",
		"/api/v1/analytics/top-shows",
	} {
		rec, env := doRequest(t, router, http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404", path, rec.Code)
			continue
		}
		if env.Error == nil || env.Error.Code != "NOT_FOUND" {
			t.Errorf("%s: error = %+v", path, env.Error)
		}
	}
}

func TestAnalyticsFeatures(t *testing.T) {
	router := newTestRouter(analyticsFixtureStore(), &stubClassifier{}, testConfig())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/features", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var vectors []models.UserFeatureVector
	if err := json.Unmarshal(env.Data, &vectors); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d rows, want one per user", len(vectors))
	}
	if vectors[0].UserID != "u1" || vectors[0].TotalWatchTime7d != 120 {
		t.Errorf("vector 0 = %+v", vectors[0])
	}
}

func TestAnalyticsHourlyActivity(t *testing.T) {
	router := newTestRouter(analyticsFixtureStore(), &stubClassifier{}, testConfig())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/hourly-activity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var points []models.HourlyActivityPoint
	if err := json.Unmarshal(env.Data, &points); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("got %d points, want 24", len(points))
	}
	for i, p := range points {
		if p.Hour != i {
			t.Fatalf("point %d has hour %d", i, p.Hour)
		}
	}
}

func TestAnalyticsWatchTime(t *testing.T) {
	router := newTestRouter(analyticsFixtureStore(), &stubClassifier{}, testConfig())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/watch-time", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var points []models.DailyWatchTime
	if err := json.Unmarshal(env.Data, &points); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
}

func TestAnalyticsTopShows(t *testing.T) {
	router := newTestRouter(analyticsFixtureStore(), &stubClassifier{}, testConfig())

	rec, env := doRequest(t, router, http.MethodGet, "/api/v1/analytics/top-shows", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var ranked []models.TopShow
	if err := json.Unmarshal(env.Data, &ranked); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d shows, want 2", len(ranked))
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(&mockStore{}, &stubClassifier{}, testConfig())

	rec, _ := doRequest(t, router, http.MethodPost, "/api/v1/analytics/churn", `{}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status %d, want 405", rec.Code)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter(&mockStore{}, &stubClassifier{}, testConfig())

	rec, _ := doRequest(t, router, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}
