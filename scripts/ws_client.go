// Package main runs a demo WebSocket client for live driver tracking.
// It creates an order, walks it to out_for_delivery, then prints the
// driver_locations and analytics_update broadcasts as they arrive.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsFrame struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Topic     string          `json:"topic,omitempty"`
}

func post(base, path string, body []byte) (*http.Response, error) {
	req, _ := http.NewRequest(http.MethodPost, base+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	return http.DefaultClient.Do(req)
}

func patchStatus(base, path, status string) {
	body := []byte(fmt.Sprintf(`{"status":%q}`, status))
	req, _ := http.NewRequest(http.MethodPatch, base+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("PATCH %s -> %s (%d)", path, status, resp.StatusCode)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Create an order with an inline customer and a delivery point
	body := []byte(`{
		"customer": {"name": "Demo Customer", "phone": "+919900112233"},
		"items": [{"name": "Shirt", "service": "wash_fold", "quantity": 3, "price": 40}],
		"deliveryAddress": "12 MG Road, Coimbatore",
		"deliveryLocation": {"lat": 11.0168, "lng": 76.9558}
	}`)
	resp, err := post(base, "/v1/orders", body)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var order struct {
		ID          string `json:"id"`
		OrderNumber string `json:"orderNumber"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		log.Fatal(err)
	}
	log.Printf("Order: %s (%s)", order.OrderNumber, order.ID)

	// Connect WS and subscribe to the two live topics
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	for _, topic := range []string{"driver_locations", "analytics_update"} {
		if err := c.WriteJSON(map[string]string{"type": "subscribe", "topic": topic}); err != nil {
			log.Fatal(err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var f wsFrame
			if err := c.ReadJSON(&f); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", f.Type, string(f.Data))
		}
	}()

	// Walk the order to the delivery leg so a driver spawns
	statusPath := "/v1/orders/" + order.ID + "/status"
	for _, st := range []string{"processing", "ready", "out_for_delivery"} {
		patchStatus(base, statusPath, st)
		time.Sleep(200 * time.Millisecond)
	}

	// Watch broadcasts for a while
	select {
	case <-time.After(20 * time.Second):
	case <-done:
	}
}
