package util

import (
	"github.com/weieran/solarManagement/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		InverterModbusTcp: config.InverterModbusTCPConfig{
			Host:           "-.-.-.-",
			Port:           1502,
			InverterId:     1,
			MeterId:        2,
			TimeoutSeconds: 1,
		},
		Relay: config.RelayConfig{
			Host:    "shelly.local",
			Channel: 0,
		},
		Energy: config.EnergyConfig{
			ReadAttempts:            10,
			ReconnectBackoffSeconds: 1,
			ReconnectMeter:          true,
		},
		Control: config.ControlConfig{
			PollIntervalSeconds:  2,
			DayStartHour:         7,
			DayEndHour:           20,
			EnableProductionWatt: 3500,
			EnableExportWatt:     3500,
			KeepExportWatt:       500,
		},
		Ledger: config.LedgerConfig{
			Path: "/tmp/solar.json",
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "solarmanager",
		},
		Port: 8080,
	}
}
