package client

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/creachadair/taskgroup"
)

// Broadcast sends msg unchanged to every open peer in r except from.
// Sends run concurrently and Broadcast returns once all of them are
// done. A failed send is logged and does not affect the other peers.
// It returns the number of peers the message was delivered to.
func Broadcast(ctx context.Context, r *Registry, from Peer, msg []byte) int {
	var delivered atomic.Int64
	g := taskgroup.New(nil)
	for p := range r.Others(from) {
		if !p.Open() {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := p.Send(msg); err != nil {
				log.Println("Error on send to peer:", err, " Peer:", p.ID())
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	g.Wait()
	return int(delivered.Load())
}
