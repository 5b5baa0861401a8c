package downstream

import (
	"errors"
	"fmt"
)

// ErrDownstreamUnavailable is matched by every sender failure.
var ErrDownstreamUnavailable = errors.New("downstream unavailable")

// Target names used in error messages returned to clients.
const (
	TargetRobot   = "Robot"
	TargetArduino = "Arduino"
)

// DownstreamError describes a failed call to the robot or the servo.
// Status is zero when no response was received.
type DownstreamError struct {
	Target string
	Status int
	Msg    string
	Err    error
}

func (e *DownstreamError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Target, e.Status, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Target, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Target, e.Msg)
	}
}

func (e *DownstreamError) Is(target error) bool {
	return target == ErrDownstreamUnavailable
}

func (e *DownstreamError) Unwrap() error {
	return e.Err
}
