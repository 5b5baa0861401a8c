package common

import "context"

// Link is a duplex line-oriented connection to a device
// (e.g. the Arduino on a serial port).
type Link interface {
	ID() string
	Data() <-chan []byte
	Err() <-chan error
	Write([]byte) (int, error)
	Close() error
}

type LinkManager interface {
	IsOpen(string) bool
	Open(string) (Link, error)
	Close(string) error
}

type CtxKey string

const RequestIDKey CtxKey = "requestID"

// RequestID returns the request id stored in ctx by the
// logging middleware, or "-" if there is none.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return "-"
}
