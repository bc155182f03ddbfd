package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/minicode/internal/domain/persistence"
	"github.com/GriffinCanCode/minicode/internal/domain/source"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/config"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/logging"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Storage.Backend = config.StorageMemory
	cfg.Sandbox.Headless = false
	cfg.Preview.Debounce = config.Duration{Duration: 20 * time.Millisecond}
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, store *persistence.Store) *Server {
	t.Helper()
	srv, err := NewServer(context.Background(), cfg, logging.NewNop(), Dependencies{Store: store})
	require.NoError(t, err)
	return srv
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(context.Background(), testConfig(), nil, Dependencies{})
	assert.Error(t, err)
}

func TestRoutesMounted(t *testing.T) {
	store := persistence.NewStore(persistence.NewMemoryBackend(), persistence.DefaultOptions(), nil)
	srv := newTestServer(t, testConfig(), store)
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/", "/health", "/api/state", "/api/preview", "/api/console", "/metrics"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "minicode_preview_runs_total 1")
}

func TestShutdownCommitsPendingEdit(t *testing.T) {
	store := persistence.NewStore(persistence.NewMemoryBackend(), persistence.DefaultOptions(), nil)
	cfg := testConfig()
	cfg.Preview.Debounce = config.Duration{Duration: time.Hour}
	srv := newTestServer(t, cfg, store)

	require.NoError(t, srv.Workspace().OnEdit(source.JS, "console.log('kept')"))
	require.NoError(t, srv.Shutdown(context.Background()))

	state, restored := store.Load(context.Background())
	require.True(t, restored)
	assert.Equal(t, "console.log('kept')", state.JS)
}

func TestSandboxConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sandbox.Timeout = config.Duration{Duration: time.Second}
	cfg.Sandbox.PoolSize = 0
	cfg.Sandbox.MaxTimers = 7
	cfg.Sandbox.MaxRepeats = 3

	sc := SandboxConfig(cfg)
	assert.Equal(t, time.Second, sc.Timeout)
	assert.Equal(t, 0, sc.PoolSize)
	assert.Equal(t, 7, sc.MaxTimers)
	assert.Equal(t, 3, sc.MaxRepeats)
	assert.True(t, sc.Headless)
}

func TestRateLimitFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RequestsPerSecond = 1
	cfg.RateLimit.Burst = 1
	store := persistence.NewStore(persistence.NewMemoryBackend(), persistence.DefaultOptions(), nil)
	srv := newTestServer(t, cfg, store)
	defer srv.Shutdown(context.Background())

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
