package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"token-launchpad/internal/observability"
)

// fakeConn records sent messages and can be flipped closed.
type fakeConn struct {
	mu     sync.Mutex
	open   bool
	sent   [][]byte
	failOn bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{open: true}
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn {
		return errors.New("send failed")
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestHub_BroadcastScopedToTopic(t *testing.T) {
	h := New(nil)
	a := newFakeConn()
	b := newFakeConn()

	h.Subscribe("MintA", a)
	h.Subscribe("MintB", b)

	if sent := h.Broadcast("MintA", []byte("hello")); sent != 1 {
		t.Errorf("Expected 1 delivery, got %d", sent)
	}
	if a.count() != 1 {
		t.Errorf("Subscriber of MintA should receive, got %d", a.count())
	}
	if b.count() != 0 {
		t.Errorf("Subscriber of MintB should not receive, got %d", b.count())
	}
}

func TestHub_ClosedConnSkipped(t *testing.T) {
	h := New(nil)
	a := newFakeConn()
	h.Subscribe("MintA", a)
	a.close()

	if sent := h.Broadcast("MintA", []byte("hello")); sent != 0 {
		t.Errorf("Closed connection must be skipped, got %d deliveries", sent)
	}
	if a.count() != 0 {
		t.Errorf("Closed connection received a message")
	}
}

func TestHub_SendFailureNotFatal(t *testing.T) {
	h := New(nil)
	a := newFakeConn()
	a.failOn = true
	b := newFakeConn()

	h.Subscribe("MintA", a)
	h.Subscribe("MintA", b)

	if sent := h.Broadcast("MintA", []byte("hello")); sent != 1 {
		t.Errorf("Expected the healthy connection to still receive, got %d", sent)
	}
}

func TestHub_DropRemovesFromAllTopics(t *testing.T) {
	h := New(nil)
	conn := newFakeConn()

	h.Subscribe("MintA", conn)
	h.Subscribe("MintB", conn)
	if h.Subscribers("MintA") != 1 || h.Subscribers("MintB") != 1 {
		t.Fatal("Setup failed")
	}

	h.Drop(conn)

	if h.Subscribers("MintA") != 0 || h.Subscribers("MintB") != 0 {
		t.Error("Drop must remove the connection from every topic")
	}
	if h.Broadcast("MintA", []byte("x")) != 0 || h.Broadcast("MintB", []byte("x")) != 0 {
		t.Error("Broadcast after drop must not deliver")
	}
	if conn.count() != 0 {
		t.Error("Dropped connection received a message")
	}
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	h := New(nil)
	conn := newFakeConn()

	h.Subscribe("MintA", conn)
	h.Unsubscribe("MintA", conn)
	h.Unsubscribe("MintA", conn) // second removal is a no-op
	h.Unsubscribe("MintB", conn) // unknown topic is a no-op

	if h.Topics() != 0 {
		t.Errorf("Expected empty hub, got %d topics", h.Topics())
	}
}

func TestHub_SubscribeTwiceSingleDelivery(t *testing.T) {
	h := New(nil)
	conn := newFakeConn()

	h.Subscribe("MintA", conn)
	h.Subscribe("MintA", conn)

	h.Broadcast("MintA", []byte("once"))
	if conn.count() != 1 {
		t.Errorf("Duplicate subscription must not duplicate delivery, got %d", conn.count())
	}
}

func TestHub_RecordsSubscribersAndBroadcasts(t *testing.T) {
	m := observability.NewMetrics("test_hub")
	h := NewWithMetrics(nil, m, "trades")
	gauge := m.SubscribersCurrent.WithLabelValues("trades")

	a := newFakeConn()
	b := newFakeConn()

	h.Subscribe("MintA", a)
	h.Subscribe("MintA", a) // duplicate must not inflate the gauge
	h.Subscribe("MintB", a)
	h.Subscribe("MintA", b)
	if got := testutil.ToFloat64(gauge); got != 3 {
		t.Errorf("Expected 3 subscriptions on the gauge, got %v", got)
	}

	h.Unsubscribe("MintB", a)
	if got := testutil.ToFloat64(gauge); got != 2 {
		t.Errorf("Expected 2 subscriptions after unsubscribe, got %v", got)
	}

	h.Broadcast("MintA", []byte("hello"))
	if got := testutil.ToFloat64(m.BroadcastsSent); got != 2 {
		t.Errorf("Expected 2 delivered broadcasts recorded, got %v", got)
	}

	h.Drop(a)
	h.Drop(b)
	if got := testutil.ToFloat64(gauge); got != 0 {
		t.Errorf("Expected empty gauge after drops, got %v", got)
	}
}
