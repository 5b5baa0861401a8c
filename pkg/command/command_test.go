package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want Outcome
	}{
		{
			name: "enable",
			cmd:  Enable,
			want: Outcome{Kind: Robot, Robot: RobotAction{Action: "enable"}},
		},
		{
			name: "disable",
			cmd:  Disable,
			want: Outcome{Kind: Robot, Robot: RobotAction{Action: "disable"}},
		},
		{
			name: "forward is lowercased",
			cmd:  Forward,
			want: Outcome{Kind: Robot, Robot: RobotAction{Action: "move", MovementCommand: "forward"}},
		},
		{
			name: "backward",
			cmd:  Backward,
			want: Outcome{Kind: Robot, Robot: RobotAction{Action: "move", MovementCommand: "backward"}},
		},
		{
			name: "rotate clockwise",
			cmd:  RotateClockwise,
			want: Outcome{Kind: Robot, Robot: RobotAction{Action: "move", MovementCommand: "rotate_clockwise"}},
		},
		{
			name: "rotate counterclockwise",
			cmd:  RotateCounterClockwise,
			want: Outcome{Kind: Robot, Robot: RobotAction{Action: "move", MovementCommand: "rotate_counterclockwise"}},
		},
		{
			name: "stop has no movement",
			cmd:  Stop,
			want: Outcome{Kind: Robot, Robot: RobotAction{Action: "move"}},
		},
		{
			name: "toggle servo",
			cmd:  ToggleServo,
			want: Outcome{Kind: Servo, Servo: ServoAction{Toggle: true}},
		},
		{
			name: "servo speed 1",
			cmd:  ServoSpeed1,
			want: Outcome{Kind: Servo, Servo: ServoAction{Code: "s"}},
		},
		{
			name: "servo speed 2",
			cmd:  ServoSpeed2,
			want: Outcome{Kind: Servo, Servo: ServoAction{Code: "n"}},
		},
		{
			name: "servo speed 3",
			cmd:  ServoSpeed3,
			want: Outcome{Kind: Servo, Servo: ServoAction{Code: "f"}},
		},
		{
			name: "servo stop",
			cmd:  ServoStop,
			want: Outcome{Kind: Servo, Servo: ServoAction{Code: "x"}},
		},
		{
			name: "unknown servo command stops",
			cmd:  "SERVO_UNKNOWN",
			want: Outcome{Kind: Servo, Servo: ServoAction{Code: "x"}},
		},
		{
			name: "bare servo prefix stops",
			cmd:  "SERVO_",
			want: Outcome{Kind: Servo, Servo: ServoAction{Code: "x"}},
		},
		{name: "empty", cmd: "", want: Outcome{Kind: Rejected}},
		{name: "unknown", cmd: "NOT_A_COMMAND", want: Outcome{Kind: Rejected}},
		{name: "lowercase is not accepted", cmd: "forward", want: Outcome{Kind: Rejected}},
		{name: "padded", cmd: " STOP", want: Outcome{Kind: Rejected}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Classify(tt.cmd)); diff != "" {
				t.Errorf("Classify(%q) (-want +got):\n%s", tt.cmd, diff)
			}
		})
	}
}

func TestClassify_EveryKnownCommandDispatches(t *testing.T) {
	for _, c := range Commands() {
		if got := Classify(c); got.Kind == Rejected {
			t.Errorf("Classify(%q) = Rejected, want a dispatch target", c)
		}
		if !Known(c) {
			t.Errorf("Known(%q) = false", c)
		}
	}
	if Known("SERVO_SPEED4") {
		t.Error("Known(SERVO_SPEED4) = true, want false")
	}
}

func TestServoAction_Path(t *testing.T) {
	if p := (ServoAction{Toggle: true}).Path(); p != "start" {
		t.Errorf("toggle path = %q, want start", p)
	}
	if p := Classify(ServoSpeed3).Servo.Path(); p != "f" {
		t.Errorf("speed3 path = %q, want f", p)
	}
}
