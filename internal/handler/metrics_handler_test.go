package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-elective-api/internal/service"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, pingerFunc(func(context.Context) error { return nil }))
	c, rec := newTestContext(http.MethodGet, "/ready")
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	handler = NewMetricsHandler(nil, pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	c, rec = newTestContext(http.MethodGet, "/ready")
	handler.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerSnapshotCountsApplies(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.IncSuggestionsApplied()
	metrics.AddSuggestionsGenerated(3)
	handler := NewMetricsHandler(metrics, nil)

	c, rec := newTestContext(http.MethodGet, "/electives/metrics")
	handler.Snapshot(c)

	require.Equal(t, http.StatusOK, rec.Code)
	body := string(decodeEnvelope(t, rec).Data)
	assert.Contains(t, body, `"suggestions_applied":1`)
	assert.Contains(t, body, `"suggestions_generated":3`)
}

func TestMetricsHandlerPrometheusWithoutMetrics(t *testing.T) {
	handler := NewMetricsHandler(nil, nil)
	c, rec := newTestContext(http.MethodGet, "/metrics")
	handler.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
