package meteo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/weieran/solarManagement/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type srfBackend struct {
	tokenRequests    int
	geoRequests      int
	forecastRequests int

	tokenStatus int
	sunshine    []float64
}

func (b *srfBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.URL.Path == "/oauth/v1/accesstoken":
			b.tokenRequests++
			if b.tokenStatus != 0 {
				w.WriteHeader(b.tokenStatus)
				return
			}
			user, pass, ok := req.BasicAuth()
			if !ok || user != "client-id" || pass != "client-secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case req.URL.Path == "/srf-meteo/geolocationNames":
			b.geoRequests++
			if req.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode([]map[string]any{
				{"geolocation": map[string]string{"id": "46.9481,7.4474"}},
			})
		case req.URL.Path == "/srf-meteo/forecast/46.9481,7.4474":
			b.forecastRequests++
			days := make([]map[string]any, 0, len(b.sunshine))
			for i, minutes := range b.sunshine {
				days = append(days, map[string]any{
					"date_time": time.Now().AddDate(0, 0, i).Format("2006-01-02"),
					"SUNSHINE":  minutes,
				})
			}
			json.NewEncoder(w).Encode(map[string]any{
				"forecast": map[string]any{"day": days},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T, backend *srfBackend) *SRFMeteoClient {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	return NewSRFMeteoClient(config.MeteoConfig{
		ClientId:     "client-id",
		ClientSecret: "client-secret",
		Location:     "Bern",
		BaseURL:      srv.URL,
	}, zap.NewNop())
}

func TestSunHours(t *testing.T) {
	backend := &srfBackend{sunshine: []float64{510, 180, 420}}
	c := newTestClient(t, backend)

	fc, err := c.SunHours(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 8.5, fc.SunHoursToday, 1e-9)
	assert.InDelta(t, 3.0, fc.SunHoursTomorrow, 1e-9)
}

func TestTokenAndGeoLocationAreCached(t *testing.T) {
	backend := &srfBackend{sunshine: []float64{510, 180}}
	c := newTestClient(t, backend)

	_, err := c.SunHours(context.Background())
	require.NoError(t, err)
	_, err = c.SunHours(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, backend.tokenRequests)
	assert.Equal(t, 1, backend.geoRequests)
	assert.Equal(t, 2, backend.forecastRequests)
}

func TestTokenIsRefreshedAfterSevenDays(t *testing.T) {
	backend := &srfBackend{sunshine: []float64{510, 180}}
	c := newTestClient(t, backend)

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	_, err := c.SunHours(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, backend.tokenRequests)

	current = current.Add(8 * 24 * time.Hour)
	_, err = c.SunHours(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.tokenRequests)
}

func TestSunHoursFailsOnRejectedToken(t *testing.T) {
	backend := &srfBackend{tokenStatus: http.StatusForbidden}
	c := newTestClient(t, backend)

	_, err := c.SunHours(context.Background())
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSunHoursFailsOnShortForecast(t *testing.T) {
	backend := &srfBackend{sunshine: []float64{510}}
	c := newTestClient(t, backend)

	_, err := c.SunHours(context.Background())
	require.ErrorIs(t, err, ErrInvalidForecast)
}

func TestSunHoursFailsOnUnknownLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if req.URL.Path == "/oauth/v1/accesstoken" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
			return
		}
		w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)
	c := NewSRFMeteoClient(config.MeteoConfig{
		ClientId:     "client-id",
		ClientSecret: "client-secret",
		Location:     "Nowhere",
		BaseURL:      srv.URL,
	}, zap.NewNop())

	_, err := c.SunHours(context.Background())
	require.ErrorIs(t, err, ErrInvalidGeoLocation)
}
