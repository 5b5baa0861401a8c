package command

import "strings"

// Commands accepted by the control endpoint.
const (
	Enable                 = "ENABLE"
	Disable                = "DISABLE"
	Forward                = "FORWARD"
	Backward               = "BACKWARD"
	RotateClockwise        = "ROTATE_CLOCKWISE"
	RotateCounterClockwise = "ROTATE_COUNTERCLOCKWISE"
	Stop                   = "STOP"
	ToggleServo            = "TOGGLE_SERVO"
	ServoSpeed1            = "SERVO_SPEED1"
	ServoSpeed2            = "SERVO_SPEED2"
	ServoSpeed3            = "SERVO_SPEED3"
	ServoStop              = "SERVO_STOP"
)

const servoPrefix = "SERVO_"

// Robot actions understood by the ManualControlCapability.
const (
	ActionEnable  = "enable"
	ActionDisable = "disable"
	ActionMove    = "move"
)

// Servo codes understood by the Arduino firmware.
const (
	CodeSlow   = "s"
	CodeNormal = "n"
	CodeFast   = "f"
	CodeStop   = "x"
	// CodeStart is the path used by TOGGLE_SERVO
	CodeStart = "start"
)

type Kind int

const (
	Rejected Kind = iota
	Robot
	Servo
)

func (k Kind) String() string {
	switch k {
	case Robot:
		return "robot"
	case Servo:
		return "servo"
	default:
		return "rejected"
	}
}

// RobotAction is the body sent to the robot. An empty
// MovementCommand is omitted, which the robot reads as "stop".
type RobotAction struct {
	Action          string `json:"action"`
	MovementCommand string `json:"movementCommand,omitempty"`
}

type ServoAction struct {
	Code   string
	Toggle bool
}

// Path returns the servo endpoint for this action without a leading slash.
func (s ServoAction) Path() string {
	if s.Toggle {
		return CodeStart
	}
	return s.Code
}

// Outcome is the result of classifying a command. Exactly one of
// Robot/Servo is meaningful, selected by Kind.
type Outcome struct {
	Kind  Kind
	Robot RobotAction
	Servo ServoAction
}

var servoCodes = map[string]string{
	ServoSpeed1: CodeSlow,
	ServoSpeed2: CodeNormal,
	ServoSpeed3: CodeFast,
	ServoStop:   CodeStop,
}

var movements = map[string]bool{
	Forward:                true,
	Backward:               true,
	RotateClockwise:        true,
	RotateCounterClockwise: true,
}

// Classify maps a command onto its downstream target. Servo commands
// are matched first, so no robot command may start with "SERVO_".
// Unknown SERVO_ commands fall back to the stop code.
func Classify(cmd string) Outcome {
	if cmd == ToggleServo {
		return Outcome{Kind: Servo, Servo: ServoAction{Toggle: true}}
	}
	if strings.HasPrefix(cmd, servoPrefix) {
		code, ok := servoCodes[cmd]
		if !ok {
			code = CodeStop
		}
		return Outcome{Kind: Servo, Servo: ServoAction{Code: code}}
	}
	switch {
	case cmd == Enable:
		return Outcome{Kind: Robot, Robot: RobotAction{Action: ActionEnable}}
	case cmd == Disable:
		return Outcome{Kind: Robot, Robot: RobotAction{Action: ActionDisable}}
	case movements[cmd]:
		return Outcome{Kind: Robot, Robot: RobotAction{
			Action:          ActionMove,
			MovementCommand: strings.ToLower(cmd),
		}}
	case cmd == Stop:
		return Outcome{Kind: Robot, Robot: RobotAction{Action: ActionMove}}
	}
	return Outcome{Kind: Rejected}
}

// Commands lists the recognized commands.
func Commands() []string {
	return []string{
		Enable, Disable, Forward, Backward, RotateClockwise,
		RotateCounterClockwise, Stop, ToggleServo,
		ServoSpeed1, ServoSpeed2, ServoSpeed3, ServoStop,
	}
}

// Known reports whether cmd is one of Commands. Unknown SERVO_ values
// are still dispatched by Classify but are not Known.
func Known(cmd string) bool {
	for _, c := range Commands() {
		if c == cmd {
			return true
		}
	}
	return false
}
