package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/login-telemetry/app"
	"github.com/upb/login-telemetry/config"
	"github.com/upb/login-telemetry/middleware"
	"github.com/upb/login-telemetry/routes"
	"github.com/upb/login-telemetry/services/ingest"
	"github.com/upb/login-telemetry/services/notify"
	"github.com/upb/login-telemetry/store"
	"go.uber.org/zap"
)

// brokenStore fails every append.
type brokenStore struct{}

func (brokenStore) Append(ctx context.Context, record map[string]any) error {
	return &store.PersistenceError{Err: errors.New("disk full")}
}

func (brokenStore) Close() error { return nil }

func newTestDeps(t *testing.T, notifyCfg notify.Config) (*app.Dependencies, string) {
	t.Helper()
	logger := zap.NewNop()
	path := filepath.Join(t.TempDir(), "logins.jsonl")

	st, err := store.NewJSONLStore(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	notifier := notify.NewService(notifyCfg, nil, logger)

	return &app.Dependencies{
		Config:      &config.Config{},
		Logger:      logger,
		Store:       st,
		Notifier:    notifier,
		Ingest:      ingest.NewService(st, notifier, logger),
		RateLimiter: middleware.NewRateLimiter(100, logger),
	}, path
}

func postLogin(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:4455"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func storedRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		records = append(records, record)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("valid event is persisted and acknowledged", func(t *testing.T) {
		deps, path := newTestDeps(t, notify.Config{})
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, `{"username":"ray","device":{"screen":{"width":2560,"height":1600}}}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())

		records := storedRecords(t, path)
		require.Len(t, records, 1)
		assert.Equal(t, "ray", records[0]["username"])
		assert.Equal(t, "203.0.113.9", records[0]["ip"])
		assert.NotEmpty(t, records[0]["timestamp"])
	})

	t.Run("sensitive values never reach the store", func(t *testing.T) {
		deps, path := newTestDeps(t, notify.Config{})
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, `{"username":"a","token":"secret123"}`)

		assert.Equal(t, http.StatusCreated, w.Code)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "secret123")

		records := storedRecords(t, path)
		require.Len(t, records, 1)
		assert.Equal(t, "[REDACTED]", records[0]["token"])
	})

	t.Run("server-assigned ip and timestamp win over client values", func(t *testing.T) {
		deps, path := newTestDeps(t, notify.Config{})
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, `{"username":"ray","ip":"10.0.0.1","timestamp":"1999-01-01T00:00:00Z"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		records := storedRecords(t, path)
		require.Len(t, records, 1)
		assert.Equal(t, "203.0.113.9", records[0]["ip"])
		assert.NotEqual(t, "1999-01-01T00:00:00Z", records[0]["timestamp"])
	})

	t.Run("validation failure returns 422 and stores nothing", func(t *testing.T) {
		deps, path := newTestDeps(t, notify.Config{})
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, `{"username":"","password":"x"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Validation failed", body["error"])
		details := body["details"].([]any)
		assert.Contains(t, details, "username must be a non-empty string")

		assert.Empty(t, storedRecords(t, path))
	})

	t.Run("empty body returns 400", func(t *testing.T) {
		deps, path := newTestDeps(t, notify.Config{})
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Empty body"}`, w.Body.String())
		assert.Empty(t, storedRecords(t, path))
	})

	t.Run("malformed body returns 400 with parser details", func(t *testing.T) {
		deps, path := newTestDeps(t, notify.Config{})
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, "not json")

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Invalid JSON", body["error"])
		assert.NotEmpty(t, body["details"])

		assert.Empty(t, storedRecords(t, path))
	})

	t.Run("notification channel failure does not affect the response", func(t *testing.T) {
		// Port 1 on loopback refuses the connection immediately.
		deps, path := newTestDeps(t, notify.Config{DiscordWebhookURL: "http://127.0.0.1:1"})
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, `{"username":"ray"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, storedRecords(t, path), 1)
	})

	t.Run("persistence failure returns 500", func(t *testing.T) {
		deps, _ := newTestDeps(t, notify.Config{})
		broken := brokenStore{}
		deps.Store = broken
		deps.Ingest = ingest.NewService(broken, deps.Notifier, zap.NewNop())
		router := routes.SetupRoutes(deps)

		w := postLogin(t, router, `{"username":"ray"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to persist log"}`, w.Body.String())
	})

	t.Run("unmatched routes return 404", func(t *testing.T) {
		deps, _ := newTestDeps(t, notify.Config{})
		router := routes.SetupRoutes(deps)

		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	})

	t.Run("throttled requests return 429", func(t *testing.T) {
		deps, _ := newTestDeps(t, notify.Config{})
		deps.RateLimiter = middleware.NewRateLimiter(1, zap.NewNop())
		router := routes.SetupRoutes(deps)

		assert.Equal(t, http.StatusCreated, postLogin(t, router, `{"username":"ray"}`).Code)

		w := postLogin(t, router, `{"username":"ray"}`)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, w.Body.String())
	})
}
