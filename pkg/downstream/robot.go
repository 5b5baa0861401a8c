package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sudotouchwoman/tablet-relay/pkg/command"
)

const ManualControlPath = "/api/v2/robot/capabilities/ManualControlCapability"

// Robot sends manual control actions to the Valetudo API.
type Robot struct {
	base     string
	username string
	password string
	client   *http.Client
}

func NewRobot(base, username, password string, timeout time.Duration) *Robot {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Robot{
		base:     strings.TrimSuffix(base, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *Robot) Base() string { return r.base }

// Send issues one PUT to the manual control capability. It does not retry.
func (r *Robot) Send(ctx context.Context, action command.RobotAction) error {
	body, err := json.Marshal(action)
	if err != nil {
		return &DownstreamError{Target: TargetRobot, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.base+ManualControlPath, bytes.NewReader(body))
	if err != nil {
		return &DownstreamError{Target: TargetRobot, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.username, r.password)
	return do(r.client, req, TargetRobot)
}
