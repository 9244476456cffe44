package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arena-hub/arena-progress-hub/internal/application/query"
	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/metrics"
)

// stubAlertRepo returns empty listings; enough to drive read endpoints.
type stubAlertRepo struct{}

func (stubAlertRepo) Create(ctx context.Context, a *alert.Alert) error { return nil }
func (stubAlertRepo) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	return nil, shared.ErrAlertNotFound
}
func (stubAlertRepo) ListOpen(ctx context.Context, competitionID shared.CompetitionID) ([]*alert.Alert, error) {
	return nil, nil
}
func (stubAlertRepo) ListByParticipant(ctx context.Context, participantID shared.ParticipantID) ([]*alert.Alert, error) {
	return nil, nil
}
func (stubAlertRepo) ListSnoozedDue(ctx context.Context, now time.Time) ([]*alert.Alert, error) {
	return nil, nil
}
func (stubAlertRepo) Update(ctx context.Context, a *alert.Alert) error { return nil }

func newMetricsTestServer(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.EnableCORS = false

	m := metrics.New()
	deps := Dependencies{
		ListOpenAlertsHandler: query.NewListOpenAlertsHandler(stubAlertRepo{}, nil),
		Metrics:               m,
	}

	return NewServer(cfg, deps), m
}

func TestObserveHTTP_LabelsByRoutePattern(t *testing.T) {
	server, m := newMetricsTestServer(t)

	rec := httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	counter := m.HTTPRequests.WithLabelValues("GET", "GET /health", "2xx")
	assert.Equal(t, 1.0, testutil.ToFloat64(counter))
}

func TestObserveHTTP_CollapsesIDsIntoOneSeries(t *testing.T) {
	server, m := newMetricsTestServer(t)

	// Разные UUID в пути попадают в одну серию с шаблоном маршрута.
	urls := []string{
		"/api/v1/competitions/7c9e6679-7425-40de-944b-e07fc1f90ae7/alerts",
		"/api/v1/competitions/16fd2706-8baf-433b-82eb-8c7fada847da/alerts",
	}
	for _, url := range urls {
		rec := httptest.NewRecorder()
		server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	counter := m.HTTPRequests.WithLabelValues("GET", "GET /api/v1/competitions/{id}/alerts", "2xx")
	assert.Equal(t, 2.0, testutil.ToFloat64(counter))
}

func TestRateLimiter_AllowEnforcesLimit(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Лимит считается на каждый ключ отдельно.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_StopTerminatesCleanup(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)

	rl.Stop()
	rl.Stop() // повторный вызов безопасен

	select {
	case <-rl.done:
	default:
		t.Fatal("done channel must be closed after Stop")
	}
}

func TestServerShutdown_StopsRateLimiter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 60

	server := NewServer(cfg, Dependencies{})
	require.NotNil(t, server.rateLimiter)

	// Имитируем запущенный сервер без ListenAndServe.
	server.mu.Lock()
	server.running = true
	server.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case <-server.rateLimiter.done:
	default:
		t.Fatal("shutdown must stop the rate limiter cleanup goroutine")
	}
}
