package mqtt

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/weieran/solarManagement/internal/config"
	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
	MQTT_PAYLOAD_ON      = "on"
	MQTT_PAYLOAD_OFF     = "off"

	publishTimeout = 2 * time.Second
)

func OptsFromConfig(cfg config.MQTTConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(fmt.Sprintf("solarmanager_%d", rand.IntN(1000)))
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.BaseTopic)
	opts.WillQos = 0

	return opts
}

// Publisher pushes readings and boiler state to an MQTT broker. All publish
// errors are logged and swallowed: MQTT is an observer, never a control
// dependency.
type Publisher struct {
	client mqtt.Client
	cfg    config.MQTTConfig
	logger *zap.Logger
}

func NewPublisher(cfg config.MQTTConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		client: mqtt.NewClient(OptsFromConfig(cfg)),
		cfg:    cfg,
		logger: logger,
	}
}

func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return err
	}
	p.publish(p.BridgeStateTopic(), MQTT_PAYLOAD_ONLINE, true)
	return nil
}

func (p *Publisher) Close() {
	p.publish(p.BridgeStateTopic(), MQTT_PAYLOAD_OFFLINE, true)
	p.client.Disconnect(250)
}

func (p *Publisher) PublishReading(reading domain.EnergyReading) {
	if reading.ProductionW != nil {
		p.publish(p.SensorStateTopic("production_watt"), reading.ProductionW.String(), false)
	}
	if reading.ExportW != nil {
		p.publish(p.SensorStateTopic("grid_export_watt"), reading.ExportW.String(), false)
	}
}

func (p *Publisher) PublishBoiler(snapshot domain.BoilerSnapshot) {
	payload := MQTT_PAYLOAD_OFF
	if snapshot.Enabled {
		payload = MQTT_PAYLOAD_ON
	}
	p.publish(p.BinarySensorStateTopic("boiler"), payload, true)
	p.publish(p.SensorStateTopic("charge_time_today_sec"),
		fmt.Sprintf("%d", int64(snapshot.ChargeTimeToday/time.Second)), true)
	p.publish(p.SensorStateTopic("charge_time_yesterday_sec"),
		fmt.Sprintf("%d", int64(snapshot.ChargeTimeYesterday/time.Second)), true)
}

func (p *Publisher) publish(topic, payload string, retained bool) {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warn("mqtt publish timeout", zap.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warn("mqtt publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (p *Publisher) baseTopic() string {
	return p.cfg.BaseTopic
}

func (p *Publisher) BridgeStateTopic() string {
	return bridgeStateTopic(p.baseTopic())
}

func (p *Publisher) SensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/sensor/%s/state", p.baseTopic(), sensorId)
}

func (p *Publisher) BinarySensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/binary_sensor/%s/state", p.baseTopic(), sensorId)
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

// ensure interface compliance
var _ port.StatePublisher = (*Publisher)(nil)
