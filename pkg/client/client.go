package client

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Peer is one connected browser channel.
type Peer interface {
	ID() string
	Send(msg []byte) error
	Open() bool
}

const writeWait = 10 * time.Second

var ErrPeerClosed = errors.New("peer is closed")

// Client is a Peer backed by a websocket connection.
// gorilla/websocket allows a single concurrent writer,
// so Send is serialized with mu.
type Client struct {
	Socket *websocket.Conn
	Token  string
	mu     sync.Mutex
	closed bool
}

func New(conn *websocket.Conn) *Client {
	return &Client{
		Socket: conn,
		Token:  uuid.NewString(),
	}
}

func (c *Client) ID() string {
	return c.Token
}

func (c *Client) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Send writes msg as a single text frame.
func (c *Client) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrPeerClosed
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteMessage(websocket.TextMessage, msg)
}

// Close marks the client closed and closes the socket.
// Only the first call closes the socket; later calls are no-ops.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.Socket.Close()
}

// CloseWith sends a close frame with the given code before closing.
func (c *Client) CloseWith(code int, reason string) error {
	c.mu.Lock()
	if !c.closed {
		msg := websocket.FormatCloseMessage(code, reason)
		c.Socket.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}
	c.mu.Unlock()
	return c.Close()
}

// Ping sends a ping control frame.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrPeerClosed
	}
	return c.Socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
