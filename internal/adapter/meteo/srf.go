package meteo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weieran/solarManagement/internal/config"
	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.srgssr.ch"

	tokenValidity = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken       = errors.New("srf: invalid access token")
	ErrInvalidGeoLocation = errors.New("srf: invalid geolocation")
	ErrInvalidForecast    = errors.New("srf: invalid forecast")
)

// SRFMeteoClient fetches the day forecast for a fixed location from the SRF
// Meteo API. Access uses an OAuth2 client-credentials token cached for seven
// days. The whole client is advisory: callers log failures and move on.
type SRFMeteoClient struct {
	client       *resty.Client
	clientId     string
	clientSecret string
	location     string
	logger       *zap.Logger

	geoLocationId string
	token         string
	tokenIssuedAt time.Time

	now func() time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type geoLocationName struct {
	GeoLocation struct {
		Id string `json:"id"`
	} `json:"geolocation"`
}

type forecastResponse struct {
	Forecast struct {
		Day []forecastDay `json:"day"`
	} `json:"forecast"`
}

type forecastDay struct {
	DateTime        string  `json:"date_time"`
	SunshineMinutes float64 `json:"SUNSHINE"`
}

func NewSRFMeteoClient(cfg config.MeteoConfig, logger *zap.Logger) *SRFMeteoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &SRFMeteoClient{
		client:       client,
		clientId:     cfg.ClientId,
		clientSecret: cfg.ClientSecret,
		location:     cfg.Location,
		logger:       logger,
		now:          time.Now,
	}
}

// SunHours fetches the day forecast and extracts the expected sun hours for
// today and tomorrow.
func (c *SRFMeteoClient) SunHours(ctx context.Context) (domain.Forecast, error) {
	if err := c.ensureGeoLocation(ctx); err != nil {
		return domain.Forecast{}, err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return domain.Forecast{}, err
	}

	var forecast forecastResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("type", "day").
		SetResult(&forecast).
		Get(fmt.Sprintf("/srf-meteo/forecast/%s", c.geoLocationId))
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("%w: %w", ErrInvalidForecast, err)
	}
	if !resp.IsSuccess() {
		c.logger.Error("Invalid weather", zap.Int("response", resp.StatusCode()))
		return domain.Forecast{}, ErrInvalidForecast
	}
	days := forecast.Forecast.Day
	if len(days) < 2 {
		return domain.Forecast{}, fmt.Errorf("%w: expected at least 2 forecast days, got %d", ErrInvalidForecast, len(days))
	}
	return domain.Forecast{
		SunHoursToday:    days[0].SunshineMinutes / 60,
		SunHoursTomorrow: days[1].SunshineMinutes / 60,
	}, nil
}

// accessToken returns the cached token, refreshing it once it is older than
// seven days.
func (c *SRFMeteoClient) accessToken(ctx context.Context) (string, error) {
	if c.token != "" && c.now().Before(c.tokenIssuedAt.Add(tokenValidity)) {
		return c.token, nil
	}
	c.logger.Debug("Updating token, as it is older than 7 days")

	var token tokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(c.clientId, c.clientSecret).
		SetQueryParam("grant_type", "client_credentials").
		SetResult(&token).
		Post("/oauth/v1/accesstoken")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !resp.IsSuccess() || token.AccessToken == "" {
		c.logger.Error("Invalid token", zap.Int("response", resp.StatusCode()))
		return "", ErrInvalidToken
	}
	c.token = token.AccessToken
	c.tokenIssuedAt = c.now()
	return c.token, nil
}

// ensureGeoLocation resolves the configured location name to a geolocation
// id once and caches it for the lifetime of the client.
func (c *SRFMeteoClient) ensureGeoLocation(ctx context.Context) error {
	if c.geoLocationId != "" {
		return nil
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var names []geoLocationName
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("name", c.location).
		SetResult(&names).
		Get("/srf-meteo/geolocationNames")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGeoLocation, err)
	}
	if !resp.IsSuccess() || len(names) == 0 || names[0].GeoLocation.Id == "" {
		c.logger.Error("Invalid geolocation", zap.Int("response", resp.StatusCode()))
		return ErrInvalidGeoLocation
	}
	c.geoLocationId = names[0].GeoLocation.Id
	return nil
}

// ensure interface compliance
var _ port.ForecastService = (*SRFMeteoClient)(nil)
