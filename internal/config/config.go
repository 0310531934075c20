package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel          zapcore.Level
	InverterModbusTcp InverterModbusTCPConfig `mapstructure:"inverter_modbus_tcp"`
	Relay             RelayConfig             `mapstructure:"relay"`
	Energy            EnergyConfig            `mapstructure:"energy"`
	Control           ControlConfig           `mapstructure:"control"`
	Ledger            LedgerConfig            `mapstructure:"ledger"`
	RawLog            RawLogConfig            `mapstructure:"raw_log"`
	Log               LogConfig               `mapstructure:"log"`
	Meteo             MeteoConfig             `mapstructure:"meteo"`
	MQTT              MQTTConfig              `mapstructure:"mqtt"`
	Port              uint                    `mapstructure:"port"`
	HttpLog           bool                    `mapstructure:"http_log"`
}

type InverterModbusTCPConfig struct {
	Host           string
	Port           uint
	InverterId     uint `mapstructure:"inverter_id"`
	MeterId        uint `mapstructure:"meter_id"`
	TimeoutSeconds uint `mapstructure:"timeout_seconds"`
}

type RelayConfig struct {
	Host    string
	Channel int
}

type EnergyConfig struct {
	ReadAttempts            int  `mapstructure:"read_attempts"`
	ReconnectBackoffSeconds uint `mapstructure:"reconnect_backoff_seconds"`
	ReconnectMeter          bool `mapstructure:"reconnect_meter"`
}

// ControlConfig holds the poll cadence, the day window and the hysteresis
// thresholds. Night is hour < DayStartHour or hour > DayEndHour.
type ControlConfig struct {
	PollIntervalSeconds  uint  `mapstructure:"poll_interval_seconds"`
	DayStartHour         int   `mapstructure:"day_start_hour"`
	DayEndHour           int   `mapstructure:"day_end_hour"`
	EnableProductionWatt int64 `mapstructure:"enable_production_watt"`
	EnableExportWatt     int64 `mapstructure:"enable_export_watt"`
	KeepExportWatt       int64 `mapstructure:"keep_export_watt"`
}

type LedgerConfig struct {
	Path string
}

type RawLogConfig struct {
	Path     string
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type LogConfig struct {
	File       string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
}

type MeteoConfig struct {
	ClientId     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Location     string
	BaseURL      string `mapstructure:"base_url"`
}

func (c MeteoConfig) Enabled() bool {
	return c.ClientId != "" && c.ClientSecret != ""
}

type MQTTConfig struct {
	Enable    bool
	Host      string
	Port      int
	Username  string
	Password  string
	BaseTopic string `mapstructure:"base_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
