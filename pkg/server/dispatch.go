package server

import (
	"context"
	"errors"

	"github.com/sudotouchwoman/tablet-relay/pkg/command"
)

var ErrInvalidCommand = errors.New("invalid command")

type RobotSender interface {
	Send(context.Context, command.RobotAction) error
	Base() string
}

type ServoSender interface {
	Send(context.Context, command.ServoAction) error
	Base() string
}

// Dispatcher routes a classified command to exactly one sender.
type Dispatcher struct {
	Robot RobotSender
	Servo ServoSender
}

// Dispatch classifies cmd and performs the single downstream call it
// maps to. Rejected commands return ErrInvalidCommand without any call.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd string) (command.Kind, error) {
	out := command.Classify(cmd)
	switch out.Kind {
	case command.Robot:
		return out.Kind, d.Robot.Send(ctx, out.Robot)
	case command.Servo:
		return out.Kind, d.Servo.Send(ctx, out.Servo)
	default:
		return out.Kind, ErrInvalidCommand
	}
}
