package realtime

import (
    "context"
    "encoding/json"
    "log"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

const bridgeChannel = "fzclean:broadcasts"

// bridgeMsg carries one broadcast between instances. Origin lets the
// sender skip its own copy, which was already delivered locally.
type bridgeMsg struct {
    Origin  string          `json:"origin"`
    Topic   string          `json:"topic"`
    Payload json.RawMessage `json:"payload"`
}

// RedisBridge relays hub broadcasts across instances over a shared
// pub/sub channel.
type RedisBridge struct {
    rdb *redis.Client
    hub *Hub
    id  string
}

// NewRedisBridge connects to Redis and starts relaying inbound
// broadcasts into the hub.
func NewRedisBridge(redisURL string, h *Hub) (*RedisBridge, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    b := &RedisBridge{rdb: redis.NewClient(opt), hub: h, id: uuid.NewString()}
    go b.run()
    return b, nil
}

func (b *RedisBridge) run() {
    ctx := context.Background()
    ps := b.rdb.Subscribe(ctx, bridgeChannel)
    // wait for subscription confirmation before consuming
    if _, err := ps.Receive(ctx); err != nil {
        log.Printf("realtime: redis subscribe: %v", err)
    }
    for msg := range ps.Channel() {
        var m bridgeMsg
        if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
            log.Printf("realtime: bridge decode: %v", err)
            continue
        }
        if m.Origin == b.id || m.Topic == "" { continue }
        b.hub.deliver(m.Topic, m.Payload)
    }
}

// Publish pushes an already-enveloped broadcast to peer instances.
// Best effort; local delivery never depends on Redis.
func (b *RedisBridge) Publish(topic string, payload []byte) {
    raw, err := json.Marshal(bridgeMsg{Origin: b.id, Topic: topic, Payload: payload})
    if err != nil { return }
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := b.rdb.Publish(ctx, bridgeChannel, raw).Err(); err != nil {
        log.Printf("realtime: bridge publish topic=%s: %v", topic, err)
    }
}
