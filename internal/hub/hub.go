// Package hub fans out messages to live connections grouped by topic.
// Multiple independent hubs exist for different broadcast domains (global
// trade feed, per-token terminal feed, per-token chat); each has the same
// contract but independent membership.
package hub

import (
	"log"
	"sync"

	"token-launchpad/internal/observability"
)

// TopicGlobal is the topic every connection on the trade-feed hub joins;
// trade broadcasts are not token-scoped.
const TopicGlobal = "global"

// Conn is an outbound broadcast transport.
type Conn interface {
	// IsOpen reports whether the transport can still accept writes.
	IsOpen() bool
	// Send writes one message. Returns an error if the transport is closed.
	Send(msg []byte) error
}

// Hub tracks which connections are subscribed to which topic.
// All methods are safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[Conn]struct{}
	subs   int // total topic subscriptions, mirrored to the gauge
	logger *log.Logger

	metrics *observability.Metrics
	feed    string // label for this hub's subscriber gauge
}

// New creates an empty hub.
func New(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		topics: make(map[string]map[Conn]struct{}),
		logger: logger,
	}
}

// NewWithMetrics creates a hub whose subscription count and delivered
// broadcasts are recorded under the given feed label.
func NewWithMetrics(logger *log.Logger, metrics *observability.Metrics, feed string) *Hub {
	h := New(logger)
	h.metrics = metrics
	h.feed = feed
	return h
}

// Subscribe adds conn to a topic. Subscribing twice is a no-op.
func (h *Hub) Subscribe(topic string, conn Conn) {
	if conn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[Conn]struct{})
		h.topics[topic] = subs
	}
	if _, ok := subs[conn]; !ok {
		subs[conn] = struct{}{}
		h.subs++
		h.updateGaugeLocked()
	}
}

// Unsubscribe removes conn from a topic. Unknown pairs are no-ops.
func (h *Hub) Unsubscribe(topic string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		if _, present := subs[conn]; present {
			delete(subs, conn)
			h.subs--
			h.updateGaugeLocked()
		}
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Drop removes conn from every topic it was subscribed to. Must be called
// on connection close so no topic keeps a dangling reference.
func (h *Hub) Drop(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.topics {
		if _, present := subs[conn]; present {
			delete(subs, conn)
			h.subs--
		}
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.updateGaugeLocked()
}

// Broadcast sends msg to every open connection subscribed to topic and
// returns the number of successful sends. Closed connections are skipped,
// failed sends are logged and skipped; neither is an error.
func (h *Hub) Broadcast(topic string, msg []byte) int {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.topics[topic]))
	for conn := range h.topics[topic] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	sent := 0
	for _, conn := range conns {
		if !conn.IsOpen() {
			continue
		}
		if err := conn.Send(msg); err != nil {
			h.logger.Printf("Broadcast send failed on topic %s: %v", topic, err)
			continue
		}
		sent++
	}
	if h.metrics != nil && sent > 0 {
		h.metrics.BroadcastsSent.Add(float64(sent))
	}
	return sent
}

// updateGaugeLocked mirrors the subscription count to the gauge. Caller must
// hold h.mu.
func (h *Hub) updateGaugeLocked() {
	if h.metrics != nil {
		h.metrics.SubscribersCurrent.WithLabelValues(h.feed).Set(float64(h.subs))
	}
}

// Subscribers returns the current subscriber count for a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Topics returns the number of topics with at least one subscriber.
func (h *Hub) Topics() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}
