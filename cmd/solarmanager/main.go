package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/weieran/solarManagement/internal/adapter/meteo"
	"github.com/weieran/solarManagement/internal/adapter/recorder"
	"github.com/weieran/solarManagement/internal/adapter/relay"
	"github.com/weieran/solarManagement/internal/adapter/store"
	"github.com/weieran/solarManagement/internal/config"
	"github.com/weieran/solarManagement/internal/core/port"
	"github.com/weieran/solarManagement/internal/core/service"
	"github.com/weieran/solarManagement/internal/mqtt"
	"github.com/weieran/solarManagement/internal/server"
	"github.com/weieran/solarManagement/pkg/solaredge_modbus"

	"github.com/carlmjohnson/versioninfo"
	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	os.Exit(run())
}

func run() int {

	// bootstrap logger until the real one is configured
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.DateTime,
	})))

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return 1
	}
	safePrintConfig(*cfg)

	logger := buildLogger(cfg)
	defer logger.Sync()

	logger.Info("Start Application", zap.String("version", versioninfo.Short()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// energy reading pipeline
	energy, err := energyReader(cfg, logger)
	if err != nil {
		logger.Error("could not create modbus readers", zap.Error(err))
		return 1
	}
	if err := energy.Connect(ctx); err != nil {
		// an unusable reader degrades every cycle to an invalid reading;
		// the operator decides whether to keep the process running
		logger.Error("energy reader is not connected", zap.Error(err))
	}
	defer energy.Close()

	// boiler relay + persisted ledger
	boilerRelay := relay.NewShellyRelay(cfg.Relay.Host, logger)
	if on, err := boilerRelay.Status(ctx, cfg.Relay.Channel); err != nil {
		logger.Warn("could not read relay status", zap.Error(err))
	} else {
		logger.Info("relay status", zap.Bool("on", on))
	}

	ledgerStore := store.NewFileLedgerStore(cfg.Ledger.Path)
	boiler, err := service.NewBoilerController(boilerRelay, ledgerStore, cfg.Relay.Channel, logger)
	if err != nil {
		logger.Error("could not load charge ledger", zap.Error(err))
		return 1
	}

	// advisory weather forecast
	var forecast port.ForecastService
	if cfg.Meteo.Enabled() {
		srf := meteo.NewSRFMeteoClient(cfg.Meteo, logger)
		forecast = srf
		if fc, err := srf.SunHours(ctx); err != nil {
			logger.Error("failed to get weather forecast", zap.Error(err))
		} else {
			logger.Info("sun hours", zap.Float64("today", fc.SunHoursToday), zap.Float64("tomorrow", fc.SunHoursTomorrow))
		}
	}

	// raw reading log
	var readingRecorder port.ReadingRecorder
	if cfg.RawLog.Path != "" {
		readingRecorder = recorder.NewFileRecorder(cfg.RawLog.Path, cfg.RawLog.MaxBytes)
	}

	// state publishers
	statusCache := server.NewStatusCache()
	publishers := service.FanOutPublisher{statusCache}
	if cfg.MQTT.Enable {
		pub := mqtt.NewPublisher(cfg.MQTT, logger)
		if err := pub.Connect(); err != nil {
			logger.Error("could not connect to mqtt broker, publishing disabled", zap.Error(err))
		} else {
			publishers = append(publishers, pub)
			defer pub.Close()
		}
	}

	// status server
	resetCh := make(chan struct{}, 1)
	apiServer := server.NewServer(*cfg, statusCache, resetCh)
	go func() {
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()
	defer shutdownServer(apiServer, logger)

	loop := service.NewControlLoop(service.ControlLoopParams{
		PollInterval:         time.Duration(cfg.Control.PollIntervalSeconds) * time.Second,
		DayStartHour:         cfg.Control.DayStartHour,
		DayEndHour:           cfg.Control.DayEndHour,
		EnableProductionWatt: cfg.Control.EnableProductionWatt,
		EnableExportWatt:     cfg.Control.EnableExportWatt,
		KeepExportWatt:       cfg.Control.KeepExportWatt,
	}, energy, boiler, forecast, readingRecorder, publishers, resetCh, logger)

	if err := loop.Run(ctx); err != nil {
		return 1
	}
	return 0
}

func shutdownServer(apiServer *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}

func energyReader(cfg *config.Config, logger *zap.Logger) (*service.EnergyReader, error) {
	timeout := time.Duration(cfg.InverterModbusTcp.TimeoutSeconds) * time.Second

	inv, err := solaredge_modbus.CreateInverterModbusReader(cfg.InverterModbusTcp.Host,
		cfg.InverterModbusTcp.Port, uint8(cfg.InverterModbusTcp.InverterId), timeout, logger, nil)
	if err != nil {
		return nil, err
	}

	meter, err := solaredge_modbus.CreateMeterModbusReader(cfg.InverterModbusTcp.Host,
		cfg.InverterModbusTcp.Port, uint8(cfg.InverterModbusTcp.MeterId), timeout, logger, nil)
	if err != nil {
		return nil, err
	}

	return service.NewEnergyReader(inv, meter, service.EnergyReaderConfig{
		Attempts:       cfg.Energy.ReadAttempts,
		Backoff:        time.Duration(cfg.Energy.ReconnectBackoffSeconds) * time.Second,
		ReconnectMeter: cfg.Energy.ReconnectMeter,
	}, logger), nil
}

func initConfig() (*config.Config, error) {

	// alias PORT => SOLAR_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SOLAR_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("solar")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check bounds
	if cfg.InverterModbusTcp.Host == "" {
		return nil, errors.New("config param inverter_modbus_tcp.host is required")
	}
	if cfg.Relay.Host == "" {
		return nil, errors.New("config param relay.host is required")
	}
	if cfg.Control.PollIntervalSeconds < 1 {
		return nil, errors.New("config param control.poll_interval_seconds should be >= 1")
	}
	if cfg.Control.DayStartHour < 0 || cfg.Control.DayStartHour > 23 ||
		cfg.Control.DayEndHour < 0 || cfg.Control.DayEndHour > 23 ||
		cfg.Control.DayStartHour >= cfg.Control.DayEndHour {
		return nil, errors.New("config params control.day_start_hour/day_end_hour must be hours with day_start_hour < day_end_hour")
	}
	if cfg.Control.EnableExportWatt < cfg.Control.KeepExportWatt {
		return nil, errors.New("config param control.enable_export_watt must be >= control.keep_export_watt")
	}
	if cfg.Energy.ReadAttempts < 1 {
		return nil, errors.New("config param energy.read_attempts should be >= 1")
	}

	// check and fix mqtt base topic
	if cfg.MQTT.Enable {
		baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
		if err != nil {
			return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.BaseTopic = baseTopic
	}

	return &cfg, nil
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("inverter_modbus_tcp.port", 1502)
	viper.SetDefault("inverter_modbus_tcp.inverter_id", 1)
	viper.SetDefault("inverter_modbus_tcp.meter_id", 2)
	viper.SetDefault("inverter_modbus_tcp.timeout_seconds", 1)
	viper.SetDefault("relay.channel", 0)
	viper.SetDefault("energy.read_attempts", 10)
	viper.SetDefault("energy.reconnect_backoff_seconds", 1)
	viper.SetDefault("energy.reconnect_meter", true)
	viper.SetDefault("control.poll_interval_seconds", 2)
	viper.SetDefault("control.day_start_hour", 7)
	viper.SetDefault("control.day_end_hour", 20)
	viper.SetDefault("control.enable_production_watt", 3500)
	viper.SetDefault("control.enable_export_watt", 3500)
	viper.SetDefault("control.keep_export_watt", 500)
	viper.SetDefault("ledger.path", "/tmp/solar.json")
	viper.SetDefault("raw_log.path", "/tmp/solardata.json")
	viper.SetDefault("raw_log.max_bytes", 10*1024*1024)
	viper.SetDefault("log.file", "/tmp/solar.log")
	viper.SetDefault("log.max_size_mb", 5)
	viper.SetDefault("log.max_backups", 2)
	viper.SetDefault("meteo.base_url", meteo.DefaultBaseURL)
	viper.SetDefault("mqtt.enable", false)
	viper.SetDefault("mqtt.base_topic", "solarmanager")
	viper.SetDefault("port", 8080)
}

func buildLogger(cfg *config.Config) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), cfg.LogLevel),
	}
	if cfg.Log.File != "" {
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), fileSink, cfg.LogLevel))
	}
	return zap.New(zapcore.NewTee(cores...))
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.Meteo.ClientId = "*redacted*"
	cfg.Meteo.ClientSecret = "*redacted*"
	slog.Info("Using", "config", cfg)
}
