package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ShellyRelay drives a Shelly relay over its local HTTP API
// (GET /relay/<channel>?turn=on|off). Commands are fire-and-forget: a 2xx
// response is taken as success, there is no confirmation read-back in the
// control path.
type ShellyRelay struct {
	client *resty.Client
	logger *zap.Logger
}

type relayStatus struct {
	IsOn bool `json:"ison"`
}

func NewShellyRelay(host string, logger *zap.Logger) *ShellyRelay {
	client := resty.New().
		SetBaseURL(fmt.Sprintf("http://%s", host)).
		SetTimeout(5 * time.Second)
	return &ShellyRelay{
		client: client,
		logger: logger,
	}
}

func (r *ShellyRelay) Set(ctx context.Context, channel int, on bool) error {
	turn := "off"
	if on {
		turn = "on"
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("turn", turn).
		Get(fmt.Sprintf("/relay/%d", channel))
	if err != nil {
		return &domain.ActuatorFault{Op: "relay set", Err: err}
	}
	if !resp.IsSuccess() {
		return &domain.ActuatorFault{Op: "relay set", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	r.logger.Debug("relay command", zap.Int("channel", channel), zap.String("turn", turn))
	return nil
}

// Status reads back the relay state. Used for startup logging only.
func (r *ShellyRelay) Status(ctx context.Context, channel int) (bool, error) {
	var status relayStatus
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&status).
		Get(fmt.Sprintf("/relay/%d", channel))
	if err != nil {
		return false, &domain.ActuatorFault{Op: "relay status", Err: err}
	}
	if !resp.IsSuccess() {
		return false, &domain.ActuatorFault{Op: "relay status", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return status.IsOn, nil
}

// ensure interface compliance
var _ port.RelaySwitch = (*ShellyRelay)(nil)
