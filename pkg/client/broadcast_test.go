package client

import (
	"context"
	"errors"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/google/go-cmp/cmp"
)

var errBrokenPipe = errors.New("broken pipe")

func TestBroadcast(t *testing.T) {
	defer leaktest.Check(t)()

	a, b, c := newFake("a"), newFake("b"), newFake("c")
	r := NewRegistry()
	for _, p := range []Peer{a, b, c} {
		r.Add(p)
	}

	if n := Broadcast(context.Background(), r, a, []byte("play-happy-sound")); n != 2 {
		t.Errorf("Broadcast() delivered to %d peers, want 2", n)
	}
	for _, p := range []*fakePeer{b, c} {
		if diff := cmp.Diff([]string{"play-happy-sound"}, p.received()); diff != "" {
			t.Errorf("peer %s (-want +got):\n%s", p.id, diff)
		}
	}
	if got := a.received(); len(got) != 0 {
		t.Errorf("sender received its own message: %q", got)
	}
}

func TestBroadcast_FailingPeer(t *testing.T) {
	defer leaktest.Check(t)()

	a, b, c, d := newFake("a"), newFake("b"), newFake("c"), newFake("d")
	b.err = errBrokenPipe
	d.closed = true
	r := NewRegistry()
	for _, p := range []Peer{a, b, c, d} {
		r.Add(p)
	}

	if n := Broadcast(context.Background(), r, a, []byte("1")); n != 1 {
		t.Errorf("Broadcast() delivered to %d peers, want 1", n)
	}
	if diff := cmp.Diff([]string{"1"}, c.received()); diff != "" {
		t.Errorf("healthy peer (-want +got):\n%s", diff)
	}
	if got := d.received(); len(got) != 0 {
		t.Errorf("closed peer received %q", got)
	}
}

func TestBroadcast_Verbatim(t *testing.T) {
	a, b := newFake("a"), newFake("b")
	r := NewRegistry()
	r.Add(a)
	r.Add(b)
	msgs := []string{"ß", "stop-all-audio", "", `{"not":"parsed"}`}
	for _, m := range msgs {
		Broadcast(context.Background(), r, a, []byte(m))
	}
	if diff := cmp.Diff(msgs, b.received()); diff != "" {
		t.Errorf("messages changed in transit (-want +got):\n%s", diff)
	}
}

func TestBroadcast_Cancelled(t *testing.T) {
	a, b := newFake("a"), newFake("b")
	r := NewRegistry()
	r.Add(a)
	r.Add(b)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if n := Broadcast(ctx, r, a, []byte("x")); n != 0 {
		t.Errorf("Broadcast() on cancelled context delivered to %d peers", n)
	}
}
