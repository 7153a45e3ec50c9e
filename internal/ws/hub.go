package ws

import (
	"encoding/json"
	"fmt"
	"sync"
)

// AlertTopic is the per-recipient stream every authenticated connection is
// subscribed to on register.
func AlertTopic(userID uint) string {
	return fmt.Sprintf("alerts:%d", userID)
}

// ReportTopic streams new reports of one category to opted-in listeners.
func ReportTopic(category string) string {
	return "reports:" + category
}

// Event is the wire envelope for everything pushed over the socket.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID uint
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

// Close tears the client down: it leaves every topic first, then closes the
// send channel. The closed flag and the channel close happen under the same
// mutex trySend takes, so an in-flight Publish can never hit a closed channel.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// trySend queues data without blocking. A client that is closing, or whose
// buffer is full, misses the message rather than stalling or panicking the
// publisher.
func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// Hub is an explicit subscription registry: topic -> set of listener handles.
// Register/unregister is tied to the connection lifetime; closing the
// connection drops the client from every topic it joined.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// topic -> subscribed clients
	topics map[string]map[*Client]struct{}
	// client -> topics it joined, so unregister can clean up
	memberships map[*Client]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		topics:      make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
	}
}

// Register adds the client and subscribes it to its own alert topic.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	c.hub = h
	h.clients[c] = struct{}{}
	h.memberships[c] = make(map[string]struct{})
	h.mu.Unlock()
	h.Subscribe(c, AlertTopic(c.UserID))
}

func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
	h.memberships[c][topic] = struct{}{}
}

func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c, topic)
}

func (h *Hub) dropLocked(c *Client, topic string) {
	if m := h.topics[topic]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.topics, topic)
		}
	}
	if m := h.memberships[c]; m != nil {
		delete(m, topic)
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range h.memberships[c] {
		h.dropLocked(c, topic)
	}
	delete(h.memberships, c)
	delete(h.clients, c)
}

// Publish sends the event to every subscriber of topic. Sends never block:
// a subscriber whose buffer is full misses the message rather than stalling
// the fan-out.
func (h *Hub) Publish(topic string, ev Event) {
	data, _ := json.Marshal(ev)
	h.mu.RLock()
	m := h.topics[topic]
	if m == nil {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
