// Package analytics aggregates dashboard stats and streams them to
// subscribed clients on a fixed cadence.
package analytics

import (
    "context"
    "log"
    "time"

    "fzclean/internal/model"
    "fzclean/internal/realtime"
    "fzclean/internal/store"
    "fzclean/internal/track"
)

const defaultTick = 5 * time.Second

// Broadcaster recomputes dashboard aggregates every tick and pushes
// them over the analytics_update topic.
type Broadcaster struct {
    store store.Store
    hub   *realtime.Hub
    sim   *track.Simulator
    tick  time.Duration
    stop  chan struct{}
}

func NewBroadcaster(s store.Store, hub *realtime.Hub, sim *track.Simulator, tick time.Duration) *Broadcaster {
    if tick <= 0 { tick = defaultTick }
    return &Broadcaster{store: s, hub: hub, sim: sim, tick: tick, stop: make(chan struct{})}
}

func (b *Broadcaster) Start() {
    go func() {
        ticker := time.NewTicker(b.tick)
        defer ticker.Stop()
        for {
            select {
            case <-b.stop:
                return
            case <-ticker.C:
                b.Tick()
            }
        }
    }()
}

func (b *Broadcaster) Stop() { close(b.stop) }

// Tick computes fresh stats and broadcasts them. Errors are logged
// and the schedule continues.
func (b *Broadcaster) Tick() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    stats, err := b.Dashboard(ctx)
    if err != nil {
        log.Printf("analytics: dashboard: %v", err)
        return
    }
    b.hub.Broadcast("analytics_update", stats)
}

// Dashboard aggregates today's orders and revenue with live transit
// and driver counts. "Today" starts at midnight UTC.
func (b *Broadcaster) Dashboard(ctx context.Context) (model.DashboardStats, error) {
    now := time.Now().UTC()
    midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
    counts, err := b.store.DashboardCounts(ctx, midnight)
    if err != nil { return model.DashboardStats{}, err }
    return model.DashboardStats{
        OrdersToday:    counts.OrdersToday,
        RevenueToday:   counts.RevenueToday,
        ActiveTransits: counts.ActiveTransits,
        TrackedDrivers: b.sim.TrackedCount(),
        OrdersByStatus: counts.OrdersByStatus,
        GeneratedAt:    now.Format(time.RFC3339),
    }, nil
}
