package app_test

import (
	"bountyBuddy/internal/app"
	"bountyBuddy/internal/config"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(t.TempDir())
	require.NoError(t, err)
	cfg.Server.Port = "0"
	cfg.Server.Host = "127.0.0.1"
	cfg.Logging.Development = false
	cfg.Worker.Enabled = false
	return cfg
}

// TestApp_Flow тестирует сквозной сценарий на inmemory хранилище
func TestApp_Flow(t *testing.T) {
	a := app.New(testConfig(t))
	require.NoError(t, a.Init(context.Background()))
	handler := a.Handler()

	call := func(method, target, body, userID string) (*httptest.ResponseRecorder, map[string]any) {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, target, nil)
		}
		if userID != "" {
			req.Header.Set("X-User-ID", userID)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		var decoded map[string]any
		_ = json.Unmarshal(rr.Body.Bytes(), &decoded)
		return rr, decoded
	}

	rr, body := call(http.MethodPost, "/tasks", `{"title":"Study group","description":"Linear algebra","category":"study","bountyAmount":15}`, "1")
	require.Equal(t, http.StatusCreated, rr.Code)
	created := body["task"].(map[string]any)
	assert.Equal(t, "open", created["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr, body = call(http.MethodGet, "/tasks?q=algebra&lang=en", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, body["tasks"], 1)
	assert.Equal(t, "en", rr.Header().Get("Content-Language"))

	rr, _ = call(http.MethodPost, "/tasks/1/applications", `{"message":"me"}`, "1")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, body = call(http.MethodPost, "/tasks/1/applications", `{"message":"me"}`, "2")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "pending", body["application"].(map[string]any)["status"])

	rr, _ = call(http.MethodPatch, "/tasks/1/status", `{"status":"completed"}`, "1")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, body = call(http.MethodPatch, "/tasks/1/status", `{"status":"matched"}`, "1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "matched", body["task"].(map[string]any)["status"])

	rr, body = call(http.MethodGet, "/stats", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(0), body["openTasks"])

	rr, body = call(http.MethodGet, "/tasks/42", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Nil(t, body["task"])

	rr, _ = call(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

// TestApp_StartStop тестирует запуск и остановку
func TestApp_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Worker.Enabled = true

	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))
	require.NoError(t, a.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, a.Stop(ctx))
}

// TestApp_RedisDown тестирует, что недоступный Redis не задерживает запросы
func TestApp_RedisDown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	handler := a.Handler()

	req := httptest.NewRequest(http.MethodPost, "/tasks",
		strings.NewReader(`{"title":"Bike repair","description":"Flat tyre","category":"life","bountyAmount":10}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	for i := 0; i < 3; i++ {
		start := time.Now()
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tasks/1", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Less(t, time.Since(start), time.Second)
	}
}
