package api

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

const wsReadDeadline = 60 * time.Second

// wsRequest is a client control frame: subscribe, unsubscribe or ping.
// Clients may name a single topic or a batch.
type wsRequest struct {
	Type   string   `json:"type"`
	Topic  string   `json:"topic,omitempty"`
	Topics []string `json:"topics,omitempty"`
}

func (r wsRequest) allTopics() []string {
	topics := r.Topics
	if r.Topic != "" {
		topics = append(topics, r.Topic)
	}
	return topics
}

// WSHandler upgrades GET /ws connections and runs the control loop.
// Broadcast delivery happens on a separate writer goroutine; a client
// that stops draining its queue misses frames instead of stalling the
// hub.
func (s *Server) WSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}

	client := s.Hub.NewClient(conn, uuid.NewString())
	defer s.Hub.Remove(client)

	go client.WriteLoop()
	client.Reply("connection", map[string]string{"clientId": client.ID()})

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: client %s: %v", client.ID(), err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

		switch req.Type {
		case "subscribe":
			topics := s.Hub.Subscribe(client, req.allTopics())
			client.Reply("subscribed", map[string]any{"topics": topics})
		case "unsubscribe":
			topics := s.Hub.Unsubscribe(client, req.allTopics())
			client.Reply("unsubscribed", map[string]any{"topics": topics})
		case "ping":
			client.Reply("pong", nil)
		default:
			client.Reply("error", map[string]string{"message": "unknown message type: " + req.Type})
		}
	}
}
