package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/streamflow-etl/internal/adapter/http"
	"github.com/couchcryptid/streamflow-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockComparer struct {
	result  domain.FlowComparison
	err     error
	site    string
	refDate time.Time
}

func (m *mockComparer) Compare(_ context.Context, site string, ref time.Time) (domain.FlowComparison, error) {
	m.site, m.refDate = site, ref
	return m.result, m.err
}

func newTestServer(readyErr error, comparer *mockComparer) *httpadapter.Server {
	if comparer == nil {
		comparer = &mockComparer{}
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, comparer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(fmt.Errorf("not ready yet"), nil), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

type deadlineReadiness struct {
	deadline time.Time
	ok       bool
}

func (d *deadlineReadiness) CheckReadiness(ctx context.Context) error {
	d.deadline, d.ok = ctx.Deadline()
	return nil
}

func TestReadyzBoundsReadinessCheck(t *testing.T) {
	checker := &deadlineReadiness{}
	srv := httpadapter.NewServer(":0", checker, &mockComparer{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	before := time.Now()
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.True(t, checker.ok, "readiness check must run with a deadline")
	assert.WithinDuration(t, before.Add(2*time.Second), checker.deadline, time.Second)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestComparison_Success(t *testing.T) {
	comparer := &mockComparer{result: domain.FlowComparison{
		SiteCode:   "12510500",
		DateUsed:   "2024-06-15",
		Current:    100,
		Unit:       "ft3/s",
		Historical: []domain.HistoricalPoint{{Year: "2023", Discharge: 80}},
		Mean:       80,
		Percentile: 100,
		Condition:  "much_above_normal",
	}}
	rec := get(newTestServer(nil, comparer), "/api/v1/gauges/12510500/comparison?date=2024-06-15")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12510500", comparer.site)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), comparer.refDate)

	var body domain.FlowComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-06-15", body.DateUsed)
	assert.Equal(t, 100.0, body.Current)
	assert.Equal(t, "ft3/s", body.Unit)
	assert.Len(t, body.Historical, 1)
}

func TestComparison_DefaultsToToday(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.June, 15, 20, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	comparer := &mockComparer{}
	rec := get(newTestServer(nil, comparer), "/api/v1/gauges/12510500/comparison")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), comparer.refDate)
}

func TestComparison_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
		kind string
	}{
		{"non-numeric site", "/api/v1/gauges/columbia/comparison", domain.KindInvalidSiteCode},
		{"short site", "/api/v1/gauges/1234/comparison", domain.KindInvalidSiteCode},
		{"bad date", "/api/v1/gauges/12510500/comparison?date=June-15", "invalid_date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			comparer := &mockComparer{}
			rec := get(newTestServer(nil, comparer), tc.path)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, comparer.site, "comparer must not be called")

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.kind, body["kind"])
		})
	}
}

func TestComparison_FailureKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{fmt.Errorf("analyze: %w", domain.ErrNoRecentData), http.StatusNotFound, domain.KindNoRecentData},
		{fmt.Errorf("analyze: %w", domain.ErrNoHistoricalData), http.StatusNotFound, domain.KindNoHistoricalData},
		{fmt.Errorf("fetch: %w", domain.ErrGaugeNotFound), http.StatusNotFound, domain.KindGaugeNotFound},
		{fmt.Errorf("fetch: %w", domain.ErrMalformedSource), http.StatusBadGateway, domain.KindMalformedSource},
		{errors.New("connection reset"), http.StatusBadGateway, domain.KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			rec := get(newTestServer(nil, &mockComparer{err: tc.err}), "/api/v1/gauges/12510500/comparison?date=2024-06-15")

			assert.Equal(t, tc.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.kind, body["kind"])
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	rec := get(newTestServer(nil, nil), "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
