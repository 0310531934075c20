package server

import (
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type statusResponse struct {
	Version             string     `json:"version"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
	ProductionW         *string    `json:"production_w,omitempty"`
	ExportW             *string    `json:"export_w,omitempty"`
	BoilerEnabled       *bool      `json:"boiler_enabled,omitempty"`
	ChargeTimeToday     *int64     `json:"charge_time_today_sec,omitempty"`
	ChargeTimeYesterday *int64     `json:"charge_time_yesterday_sec,omitempty"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/status", s.StatusHandler)
	e.POST("/boiler/reset_counter", s.ResetCounterHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "health_check: OK")
}

func (s *Server) StatusHandler(c echo.Context) error {
	resp := statusResponse{
		Version:   versioninfo.Short(),
		UpdatedAt: s.status.UpdatedAt(),
	}
	if reading := s.status.Reading(); reading != nil {
		if reading.ProductionW != nil {
			prod := reading.ProductionW.String()
			resp.ProductionW = &prod
		}
		if reading.ExportW != nil {
			export := reading.ExportW.String()
			resp.ExportW = &export
		}
	}
	if boiler := s.status.Boiler(); boiler != nil {
		enabled := boiler.Enabled
		today := int64(boiler.ChargeTimeToday / time.Second)
		yesterday := int64(boiler.ChargeTimeYesterday / time.Second)
		resp.BoilerEnabled = &enabled
		resp.ChargeTimeToday = &today
		resp.ChargeTimeYesterday = &yesterday
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetCounterHandler queues a counter reset. The command is picked up by
// the control loop on its next iteration, so state stays single-writer.
func (s *Server) ResetCounterHandler(c echo.Context) error {
	select {
	case s.resetCh <- struct{}{}:
		return c.String(http.StatusAccepted, "reset_counter: queued")
	default:
		return c.String(http.StatusConflict, "reset_counter: already pending")
	}
}
