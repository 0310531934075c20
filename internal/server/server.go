package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/weieran/solarManagement/internal/config"

	_ "github.com/joho/godotenv/autoload"
)

type Server struct {
	port    uint
	httpLog bool
	status  *StatusCache
	resetCh chan<- struct{}
}

func NewServer(cfg config.Config, status *StatusCache, resetCh chan<- struct{}) *http.Server {
	NewServer := &Server{
		port:    cfg.Port,
		httpLog: cfg.HttpLog,
		status:  status,
		resetCh: resetCh,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
