package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(resetCh chan struct{}) (*Server, *StatusCache) {
	status := NewStatusCache()
	return &Server{port: 0, status: status, resetCh: resetCh}, status
}

func TestHealthCheckHandler(t *testing.T) {
	s, _ := newTestServer(nil)
	handler := s.RegisterRoutes()

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())
}

func TestStatusHandlerBeforeFirstReading(t *testing.T) {
	s, _ := newTestServer(nil)
	handler := s.RegisterRoutes()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "version")
	assert.NotContains(t, resp, "production_w")
	assert.NotContains(t, resp, "boiler_enabled")
}

func TestStatusHandlerReportsCachedState(t *testing.T) {
	s, status := newTestServer(nil)
	handler := s.RegisterRoutes()

	prod := domain.PowerFromSample(412, 1)
	export := domain.PowerFromSample(12053, -1)
	status.PublishReading(domain.EnergyReading{
		At:          time.Now(),
		ProductionW: &prod,
		ExportW:     &export,
	})
	status.PublishBoiler(domain.BoilerSnapshot{
		Enabled:             true,
		ChargeTimeToday:     90 * time.Minute,
		ChargeTimeYesterday: time.Hour,
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.ProductionW)
	assert.Equal(t, "4120", *resp.ProductionW)
	require.NotNil(t, resp.ExportW)
	assert.Equal(t, "1205.3", *resp.ExportW)
	require.NotNil(t, resp.BoilerEnabled)
	assert.True(t, *resp.BoilerEnabled)
	require.NotNil(t, resp.ChargeTimeToday)
	assert.Equal(t, int64(5400), *resp.ChargeTimeToday)
	require.NotNil(t, resp.ChargeTimeYesterday)
	assert.Equal(t, int64(3600), *resp.ChargeTimeYesterday)
	assert.NotNil(t, resp.UpdatedAt)
}

func TestResetCounterHandlerQueuesOnce(t *testing.T) {
	resetCh := make(chan struct{}, 1)
	s, _ := newTestServer(resetCh)
	handler := s.RegisterRoutes()

	req := httptest.NewRequest(http.MethodPost, "/boiler/reset_counter", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code, "second reset while one is pending")

	<-resetCh
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
