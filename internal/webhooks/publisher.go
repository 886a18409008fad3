package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fzclean/internal/store"
)

type Publisher struct {
	Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
	return &Publisher{Store: s}
}

// Emit fans an event out to every matching subscription of the
// franchise. Deliveries are enqueued; the worker handles retries.
func (p *Publisher) Emit(ctx context.Context, franchiseID, eventType string, data any) {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, franchiseID, eventType)
	if err != nil || len(subs) == 0 {
		return
	}
	payload := map[string]any{
		"id":          fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type":        eventType,
		"franchiseId": franchiseID,
		"ts":          time.Now().UTC().Format(time.RFC3339),
		"data":        data,
	}
	body, _ := json.Marshal(payload)
	for _, s := range subs {
		_, _ = p.Store.EnqueueWebhook(ctx, franchiseID, s.ID, eventType, s.URL, s.Secret, body)
	}
}
