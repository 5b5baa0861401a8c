package downstream

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sudotouchwoman/tablet-relay/pkg/command"
)

// Servo sends codes to the Arduino HTTP firmware.
type Servo struct {
	base   string
	client *http.Client
}

func NewServo(base string, timeout time.Duration) *Servo {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Servo{
		base:   strings.TrimSuffix(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (s *Servo) Base() string { return s.base }

// Send issues one GET to <base>/<code>, or <base>/start for a toggle.
func (s *Servo) Send(ctx context.Context, action command.ServoAction) error {
	path := action.Path()
	if path == "" {
		return &DownstreamError{Target: TargetArduino, Err: errors.New("empty servo code")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/"+path, nil)
	if err != nil {
		return &DownstreamError{Target: TargetArduino, Err: err}
	}
	return do(s.client, req, TargetArduino)
}
