package downstream

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sudotouchwoman/tablet-relay/pkg/command"
	"github.com/sudotouchwoman/tablet-relay/pkg/common"
)

// SerialServo writes servo codes to an Arduino attached over a
// serial port, one code per line. Lines printed back by the
// firmware are logged.
type SerialServo struct {
	links   common.LinkManager
	port    string
	timeout time.Duration

	mu      sync.Mutex
	current common.Link
}

// NewSerialServo returns a servo on port. A write that takes longer
// than timeout fails and drops the link; zero means DefaultTimeout.
func NewSerialServo(links common.LinkManager, port string, timeout time.Duration) *SerialServo {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SerialServo{links: links, port: port, timeout: timeout}
}

func (s *SerialServo) Base() string { return "serial://" + s.port }

func (s *SerialServo) Send(ctx context.Context, action command.ServoAction) error {
	path := action.Path()
	if path == "" {
		return &DownstreamError{Target: TargetArduino, Err: errors.New("empty servo code")}
	}
	if err := ctx.Err(); err != nil {
		return &DownstreamError{Target: TargetArduino, Err: err}
	}
	link, err := s.link()
	if err != nil {
		return &DownstreamError{Target: TargetArduino, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	written := make(chan error, 1)
	go func() {
		_, err := link.Write([]byte(path + "\n"))
		written <- err
	}()
	select {
	case err = <-written:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		// drop the link so that the next command reopens the port;
		// closing the port also releases a stuck write
		if cerr := s.links.Close(s.port); cerr != nil {
			log.Println("Error on closing serial link:", cerr)
		}
		return &DownstreamError{Target: TargetArduino, Err: err}
	}
	return nil
}

func (s *SerialServo) link() (common.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, err := s.links.Open(s.port)
	if err != nil {
		return nil, err
	}
	if link != s.current {
		s.current = link
		go drain(link)
	}
	return link, nil
}

func drain(link common.Link) {
	for line := range link.Data() {
		log.Printf("Arduino %s: %s", link.ID(), line)
	}
	for err := range link.Err() {
		log.Printf("Arduino %s link error: %v", link.ID(), err)
	}
}
