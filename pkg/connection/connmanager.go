package connection

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sudotouchwoman/tablet-relay/pkg/common"
)

var (
	ErrAlreadyClosed = errors.New("this link has been closed already")
	ErrConnNotOpened = errors.New("connection does not exist")
)

type linkHandler struct {
	*SerialConnection
	name    string
	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool
	release func()
}

func (l *linkHandler) ID() string {
	return l.name
}

func (l *linkHandler) Data() <-chan []byte {
	return l.DataChan
}

func (l *linkHandler) Err() <-chan error {
	return l.errChan
}

// Write sends p to the device. Concurrent writes are serialized
// so that commands never interleave on the wire.
func (l *linkHandler) Write(p []byte) (int, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return 0, ErrAlreadyClosed
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.SerialConnection.Write(p)
}

func (l *linkHandler) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrAlreadyClosed
	}
	l.closed = true
	l.release()
	return nil
}

type ConnectionProvider func(string) (wr io.ReadWriter, cancel func(), err error)

type ConnectionManager struct {
	// Pool of device links keyed by name (e.g. "/dev/ttyACM0").
	// The provider is injected so tests can run without
	// a real serial port.
	context.Context
	lock     sync.RWMutex
	pool     map[string]*linkHandler
	provider ConnectionProvider
}

func NewManager(ctx context.Context, p ConnectionProvider) *ConnectionManager {
	return &ConnectionManager{
		Context:  ctx,
		pool:     map[string]*linkHandler{},
		provider: p,
	}
}

func (cm *ConnectionManager) IsOpen(name string) bool {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	_, open := cm.pool[name]
	return open
}

// Open returns the link for name, opening it through the provider
// if it is not in the pool yet.
func (cm *ConnectionManager) Open(name string) (common.Link, error) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	if handler, open := cm.pool[name]; open {
		return handler, nil
	}
	wr, canceler, err := cm.provider(name)
	if err != nil {
		return nil, err
	}
	ctx, ctxCancel := context.WithCancel(cm)
	conn := &SerialConnection{
		ReadWriter: wr,
		Context:    ctx,
		Tokenizer:  bufio.ScanLines,
		DataChan:   make(chan []byte, 1),
		errChan:    make(chan error, 1),
	}
	handler := &linkHandler{
		name:             name,
		SerialConnection: conn,
	}
	handler.release = func() {
		ctxCancel()
		if canceler != nil {
			canceler()
		}
		cm.forget(name, handler)
	}
	cm.pool[name] = handler
	go conn.Listen()
	return handler, nil
}

// Close closes the link for name and reports a pending
// link error, if there was one.
func (cm *ConnectionManager) Close(name string) error {
	cm.lock.RLock()
	handler, open := cm.pool[name]
	cm.lock.RUnlock()
	if !open {
		return ErrConnNotOpened
	}
	if err := handler.Close(); err != nil {
		return err
	}
	select {
	case err := <-handler.errChan:
		return err
	default:
		return nil
	}
}

// CloseAll closes every link in the pool.
func (cm *ConnectionManager) CloseAll() {
	cm.lock.RLock()
	handlers := make([]*linkHandler, 0, len(cm.pool))
	for _, h := range cm.pool {
		handlers = append(handlers, h)
	}
	cm.lock.RUnlock()
	for _, h := range handlers {
		h.Close()
	}
}

func (cm *ConnectionManager) forget(name string, handler *linkHandler) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	if cm.pool[name] == handler {
		delete(cm.pool, name)
	}
}
