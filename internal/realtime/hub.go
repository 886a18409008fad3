// Package realtime fans out topic-keyed broadcasts to websocket
// clients. Subscriptions are client controlled; a slow client drops
// messages rather than blocking the hub.
package realtime

import (
    "encoding/json"
    "log"
    "sort"
    "sync"
    "time"

    "github.com/gorilla/websocket"

    "fzclean/internal/metrics"
)

const (
    sendBuffer   = 16
    writeWait    = 10 * time.Second
    pingInterval = 30 * time.Second
)

// Envelope is the wire format of every server-to-client message.
type Envelope struct {
    Type      string `json:"type"`
    Data      any    `json:"data,omitempty"`
    Timestamp string `json:"timestamp"`
}

func NewEnvelope(typ string, data any) Envelope {
    return Envelope{Type: typ, Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// Client is one websocket connection registered with the hub.
type Client struct {
    hub    *Hub
    conn   *websocket.Conn
    id     string
    send   chan []byte
    topics map[string]struct{} // guarded by hub.mu
}

func (c *Client) ID() string { return c.id }

// Reply sends an envelope to this client only. Drops when the send
// queue is full.
func (c *Client) Reply(typ string, data any) {
    raw, err := json.Marshal(NewEnvelope(typ, data))
    if err != nil {
        log.Printf("realtime: marshal reply type=%s: %v", typ, err)
        return
    }
    c.trySend(raw)
}

func (c *Client) trySend(raw []byte) bool {
    select {
    case c.send <- raw:
        return true
    default:
        return false
    }
}

// Topics returns a sorted snapshot of the client's subscriptions.
func (c *Client) Topics() []string {
    c.hub.mu.Lock(); defer c.hub.mu.Unlock()
    return c.topicsLocked()
}

func (c *Client) topicsLocked() []string {
    out := make([]string, 0, len(c.topics))
    for t := range c.topics { out = append(out, t) }
    sort.Strings(out)
    return out
}

// WriteLoop drains the send queue onto the connection and keeps the
// peer alive with pings. Runs until the queue closes or a write fails.
func (c *Client) WriteLoop() {
    ticker := time.NewTicker(pingInterval)
    defer ticker.Stop()
    defer c.conn.Close()
    for {
        select {
        case raw, ok := <-c.send:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if !ok {
                _ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
                return
            }
            if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil { return }
        case <-ticker.C:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil { return }
        }
    }
}

// Hub tracks connected clients and their topic subscriptions.
type Hub struct {
    mu      sync.Mutex
    clients map[*Client]struct{}
    bridge  *RedisBridge
}

func NewHub() *Hub {
    return &Hub{clients: map[*Client]struct{}{}}
}

// SetBridge attaches a Redis fanout so broadcasts reach clients on
// other instances.
func (h *Hub) SetBridge(b *RedisBridge) { h.bridge = b }

// NewClient registers a connection and returns its client handle.
func (h *Hub) NewClient(conn *websocket.Conn, id string) *Client {
    c := &Client{hub: h, conn: conn, id: id, send: make(chan []byte, sendBuffer), topics: map[string]struct{}{}}
    h.mu.Lock()
    h.clients[c] = struct{}{}
    h.mu.Unlock()
    metrics.WSClients.Inc()
    return c
}

// Remove unregisters a client and closes its send queue. Idempotent.
func (h *Hub) Remove(c *Client) {
    h.mu.Lock(); defer h.mu.Unlock()
    if _, ok := h.clients[c]; !ok { return }
    delete(h.clients, c)
    close(c.send)
    metrics.WSClients.Dec()
}

// Subscribe adds topics to a client and returns its resulting set.
func (h *Hub) Subscribe(c *Client, topics []string) []string {
    h.mu.Lock(); defer h.mu.Unlock()
    for _, t := range topics {
        if t != "" { c.topics[t] = struct{}{} }
    }
    return c.topicsLocked()
}

// Unsubscribe removes topics from a client and returns its resulting set.
func (h *Hub) Unsubscribe(c *Client, topics []string) []string {
    h.mu.Lock(); defer h.mu.Unlock()
    for _, t := range topics { delete(c.topics, t) }
    return c.topicsLocked()
}

// Broadcast wraps data in an envelope typed by topic and delivers it
// to every subscribed client, here and (via the bridge) on peers.
func (h *Hub) Broadcast(topic string, data any) {
    raw, err := json.Marshal(NewEnvelope(topic, data))
    if err != nil {
        log.Printf("realtime: marshal broadcast topic=%s: %v", topic, err)
        return
    }
    metrics.Broadcasts.WithLabelValues(topic).Inc()
    if h.bridge != nil { h.bridge.Publish(topic, raw) }
    h.deliver(topic, raw)
}

func (h *Hub) deliver(topic string, raw []byte) {
    h.mu.Lock(); defer h.mu.Unlock()
    for c := range h.clients {
        if _, ok := c.topics[topic]; ok { c.trySend(raw) }
    }
}

func (h *Hub) ClientCount() int {
    h.mu.Lock(); defer h.mu.Unlock()
    return len(h.clients)
}
