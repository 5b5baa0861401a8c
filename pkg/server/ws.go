package server

import (
	"errors"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/sudotouchwoman/tablet-relay/pkg/client"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	// peers send short trigger strings; the cap only guards memory
	maxMessageSize = 1 << 20
)

// SocketHandler upgrades the request and relays every message the peer
// sends to all other peers. The peer is registered once the upgrade
// succeeds and unregistered exactly once when reading stops, whether
// the socket was closed or failed.
func (rs *RelayServer) SocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := rs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Error during connection upgrade:", err)
		return
	}
	c := client.New(conn)
	rs.registry.Add(c)
	log.Printf("Client connected via WebSocket: %s from %s, total: %d", c.Token, r.RemoteAddr, rs.registry.Len())

	done := make(chan struct{})
	defer func() {
		close(done)
		if rs.registry.Remove(c) {
			log.Printf("Client disconnected: %s, total: %d", c.Token, rs.registry.Len())
		}
		if err := c.Close(); err != nil {
			log.Println("Error during closing websocket:", err)
		}
	}()
	go rs.keepAlive(c, done)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, readErr := conn.ReadMessage()
		if readErr != nil {
			switch {
			case errors.Is(readErr, websocket.ErrReadLimit):
				log.Printf("Message over %d bytes, dropping client: %s", maxMessageSize, c.Token)
			case websocket.IsUnexpectedCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				log.Println("WebSocket error:", readErr, " Client:", c.Token)
			}
			return
		}
		if rs.ctx.Err() != nil {
			return
		}
		log.Printf("Received trigger: %s Client: %s", message, c.Token)
		client.Broadcast(rs.ctx, rs.registry, c, textPayload(message))
	}
}

// textPayload returns msg as valid UTF-8 so it can be relayed as a text
// frame whatever frame type it arrived in. Each invalid byte becomes
// U+FFFD.
func textPayload(msg []byte) []byte {
	if utf8.Valid(msg) {
		return msg
	}
	return []byte(string([]rune(string(msg))))
}

func (rs *RelayServer) keepAlive(c *client.Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				return
			}
		case <-done:
			return
		case <-rs.ctx.Done():
			return
		}
	}
}
