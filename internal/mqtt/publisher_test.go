package mqtt

import (
	"strings"
	"testing"

	"github.com/weieran/solarManagement/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTopics(t *testing.T) {
	cfg := util.LoadTestConfig().MQTT
	p := NewPublisher(cfg, zap.NewNop())

	assert.Equal(t, "solarmanager/bridge/state", p.BridgeStateTopic())
	assert.Equal(t, "solarmanager/sensor/production_watt/state", p.SensorStateTopic("production_watt"))
	assert.Equal(t, "solarmanager/binary_sensor/boiler/state", p.BinarySensorStateTopic("boiler"))
}

func TestOptsFromConfig(t *testing.T) {
	cfg := util.LoadTestConfig().MQTT
	cfg.Username = "user"
	cfg.Password = "pass"
	opts := OptsFromConfig(cfg)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://localhost:1883", opts.Servers[0].String())
	assert.True(t, strings.HasPrefix(opts.ClientID, "solarmanager_"))
	assert.Equal(t, "user", opts.Username)
	assert.Equal(t, "pass", opts.Password)

	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "solarmanager/bridge/state", opts.WillTopic)
	assert.Equal(t, MQTT_PAYLOAD_OFFLINE, string(opts.WillPayload))
	assert.True(t, opts.WillRetained)
}
