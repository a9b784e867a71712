package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readtrackapp/readtrack-server/internal/auth"
	"github.com/readtrackapp/readtrack-server/internal/clock"
	"github.com/readtrackapp/readtrack-server/internal/domain"
	"github.com/readtrackapp/readtrack-server/internal/http/response"
	"github.com/readtrackapp/readtrack-server/internal/ratelimit"
	"github.com/readtrackapp/readtrack-server/internal/service"
	"github.com/readtrackapp/readtrack-server/internal/store/sqlite"
	"github.com/readtrackapp/readtrack-server/internal/validation"
)

// testStart is a Tuesday morning in UTC.
var testStart = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

// testKey is a fixed 32-byte PASETO key for tests.
var testKey = []byte("0123456789abcdef0123456789abcdef")

// testTokenTTL outlives every clock advance in the handler tests.
const testTokenTTL = 30 * 24 * time.Hour

type testServer struct {
	server   *Server
	services *Services
	tokens   *auth.TokenService
	clock    *clock.Manual
}

// setupTestServer creates a server over a temporary sqlite store. A nil
// limiter disables rate limiting.
func setupTestServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() }) //nolint:errcheck // test cleanup

	var (
		clk = clock.NewManual(testStart)
		cal = clock.NewCalendar(time.UTC)
		v   = validation.New()
	)

	ledger := service.NewSessionLedger(st, clk, logger)
	streaks := service.NewStreakEngine(st, clk, cal, logger)
	services := &Services{
		Ledger:   ledger,
		Streaks:  streaks,
		Progress: service.NewProgressTracker(st, clk, logger),
		Activity: service.NewActivityCoordinator(st, clk, ledger, streaks, logger),
		Library:  service.NewLibraryService(st, clk, v, logger),
		Notes:    service.NewNoteService(st, clk, v, logger),
		Stats:    service.NewStatsService(st, streaks, logger),
		Users:    service.NewUserService(st, clk, v, logger),
	}

	tokens, err := auth.NewTokenService(testKey, testTokenTTL, clk)
	require.NoError(t, err)

	server := NewServer(services, st, tokens, limiter, Options{}, logger)
	return &testServer{server: server, services: services, tokens: tokens, clock: clk}
}

// createUserWithToken creates a user and returns it with an access token.
func (ts *testServer) createUserWithToken(t *testing.T, email string) (*domain.User, string) {
	t.Helper()

	user, err := ts.services.Users.Create(context.Background(), email, "")
	require.NoError(t, err)

	token, _, err := ts.tokens.Issue(user)
	require.NoError(t, err)
	return user, token
}

// shelve adds a book for the token's user through the API.
func (ts *testServer) shelve(t *testing.T, token, title string, pages int) *domain.LibraryEntry {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/books", token, map[string]any{
		"title":       title,
		"author_name": "Ursula K. Le Guin",
		"total_pages": pages,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry domain.LibraryEntry
	decode(t, rec, &entry)
	return &entry
}

// do performs a request against the router. body is JSON-encoded when set.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	decode(t, rec, &body)
	return body
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	decode(t, rec, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["store"].Status)
	assert.Equal(t, "sqlite", health.Components["store"].Message)
}

func TestAuth_MissingToken(t *testing.T) {
	ts := setupTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/books", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, http.StatusUnauthorized, body.Status)
	assert.Equal(t, "UNAUTHORIZED", body.Code)
	assert.NotEmpty(t, body.Message)
}

func TestAuth_InvalidToken(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{name: "garbage token", header: "Bearer not-a-token"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "missing token", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			ts.server.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, token := ts.createUserWithToken(t, "reader@example.com")

	ts.clock.Advance(testTokenTTL + time.Hour)

	rec := ts.do(t, http.MethodGet, "/api/v1/books", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidationErrorsUseEnvelope(t *testing.T) {
	ts := setupTestServer(t, nil)
	_, token := ts.createUserWithToken(t, "reader@example.com")

	t.Run("schema violation", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/books", token, map[string]any{"title": "The Dispossessed"})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		body := decodeError(t, rec)
		assert.Equal(t, http.StatusBadRequest, body.Status)
		assert.Equal(t, "INVALID_INPUT", body.Code)
		assert.NotNil(t, body.Details)
	})

	t.Run("domain validation", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/books", token, map[string]any{
			"title":       "The Dispossessed",
			"author_name": "Ursula K. Le Guin",
			"total_pages": 0,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		ts.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Code)
	})
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(1, 2, time.Minute)
	t.Cleanup(limiter.Stop)

	ts := setupTestServer(t, limiter)
	_, token := ts.createUserWithToken(t, "reader@example.com")

	for range 2 {
		rec := ts.do(t, http.MethodGet, "/api/v1/books", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/books", token, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)

	// Another user has its own bucket and health checks are never limited.
	_, other := ts.createUserWithToken(t, "other@example.com")
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/books", other, nil).Code)
	for range 5 {
		assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "", nil).Code)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t, nil)

	oapi := ts.server.API().OpenAPI()
	assert.Equal(t, "ReadTrack API", oapi.Info.Title)
	for _, path := range []string{"/api/v1/sessions", "/api/v1/books/{id}/page", "/api/v1/me/streak"} {
		assert.Contains(t, oapi.Paths, path)
	}
}
