// Package track simulates delivery driver movement for orders that
// are out for delivery. Positions advance along a great-circle path
// each tick and stream to clients over the driver_locations topic.
package track

import (
    "context"
    "log"
    "math/rand/v2"
    "sort"
    "sync"
    "time"

    "fzclean/internal/geo"
    "fzclean/internal/metrics"
    "fzclean/internal/model"
    "fzclean/internal/realtime"
    "fzclean/internal/webhooks"
)

const (
    defaultTick    = 3 * time.Second
    arrivalRadiusM = 100.0
    routeCap       = 50
    etaSpeedKmh    = 30.0
)

// warehouses are the dispatch points drivers start from, one per
// branch city (Pollachi, Kinathukadavu, Coimbatore).
var warehouses = []geo.Point{
    {Lat: 10.6586, Lng: 77.0085},
    {Lat: 10.8226, Lng: 77.0210},
    {Lat: 11.0168, Lng: 76.9558},
}

// OrderSource is the slice of the store the simulator needs.
type OrderSource interface {
    ListOrdersByStatus(ctx context.Context, status string) ([]model.Order, error)
}

type target struct {
    point       geo.Point
    franchiseID string
    orderNumber string
}

type arrival struct {
    franchiseID string
    orderID     string
    orderNumber string
    driverID    string
    lat, lng    float64
}

// Simulator owns the driver map and advances it on a fixed tick.
// All state is private; lifecycle is Start/Stop.
type Simulator struct {
    store OrderSource
    hub   *realtime.Hub
    pub   *webhooks.Publisher
    tick  time.Duration

    mu      sync.Mutex
    drivers map[string]*model.DriverState // keyed by order id
    routes  map[string][]model.RoutePoint
    targets map[string]target

    stop chan struct{}
}

func NewSimulator(store OrderSource, hub *realtime.Hub, pub *webhooks.Publisher, tick time.Duration) *Simulator {
    if tick <= 0 { tick = defaultTick }
    return &Simulator{
        store:   store,
        hub:     hub,
        pub:     pub,
        tick:    tick,
        drivers: map[string]*model.DriverState{},
        routes:  map[string][]model.RoutePoint{},
        targets: map[string]target{},
        stop:    make(chan struct{}),
    }
}

func (s *Simulator) Start() {
    go func() {
        ticker := time.NewTicker(s.tick)
        defer ticker.Stop()
        for {
            select {
            case <-s.stop:
                return
            case <-ticker.C:
                s.Tick()
            }
        }
    }()
}

func (s *Simulator) Stop() { close(s.stop) }

// Tick advances every tracked driver one step. Errors are logged and
// the next tick retries from current state.
func (s *Simulator) Tick() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    orders, err := s.store.ListOrdersByStatus(ctx, model.OrderOutForDelivery)
    if err != nil {
        log.Printf("track: list orders: %v", err)
        return
    }

    s.mu.Lock()
    active := make(map[string]struct{}, len(orders))
    var arrivals []arrival
    now := time.Now().UTC()
    for _, o := range orders {
        active[o.ID] = struct{}{}
        st, ok := s.drivers[o.ID]
        if !ok {
            st = s.spawnLocked(o, now)
            if st.Status == model.DriverArrived {
                arrivals = append(arrivals, s.arrivalLocked(o.ID))
            }
            continue
        }
        if st.Status == model.DriverArrived { continue }
        s.advanceLocked(st, now)
        if st.Status == model.DriverArrived {
            arrivals = append(arrivals, s.arrivalLocked(o.ID))
        }
    }
    for id := range s.drivers {
        if _, ok := active[id]; !ok {
            delete(s.drivers, id)
            delete(s.routes, id)
            delete(s.targets, id)
        }
    }
    snap := s.snapshotLocked()
    s.mu.Unlock()

    metrics.SimDrivers.Set(float64(len(snap)))
    s.hub.Broadcast("driver_locations", map[string]any{"drivers": snap})
    for _, a := range arrivals {
        if s.pub == nil { continue }
        s.pub.Emit(ctx, a.franchiseID, "driver.arrived", map[string]any{
            "driverId":    a.driverID,
            "orderId":     a.orderID,
            "orderNumber": a.orderNumber,
            "latitude":    a.lat,
            "longitude":   a.lng,
            "arrivedAt":   now.Format(time.RFC3339),
        })
    }
}

// spawnLocked places a new driver at a random warehouse headed toward
// the order's delivery location. Orders without coordinates get a
// simulated customer near a warehouse.
func (s *Simulator) spawnLocked(o model.Order, now time.Time) *model.DriverState {
    wh := warehouses[rand.IntN(len(warehouses))]
    var dest geo.Point
    if o.DeliveryLocation != nil {
        dest = geo.Point{Lat: o.DeliveryLocation.Lat, Lng: o.DeliveryLocation.Lng}
    } else {
        base := warehouses[rand.IntN(len(warehouses))]
        dest = geo.Point{Lat: base.Lat + (rand.Float64()-0.5)*0.1, Lng: base.Lng + (rand.Float64()-0.5)*0.1}
    }
    dist := geo.Distance(wh, dest)
    eta := now.Add(time.Duration(dist/(etaSpeedKmh/3.6)) * time.Second)
    st := &model.DriverState{
        DriverID:         "driver_" + o.ID,
        OrderID:          o.ID,
        Lat:              wh.Lat,
        Lng:              wh.Lng,
        Heading:          geo.Bearing(wh, dest),
        SpeedKmh:         20 + rand.Float64()*20,
        Status:           model.DriverPickedUp,
        EstimatedArrival: eta.Format(time.RFC3339),
        LastUpdated:      now.Format(time.RFC3339),
    }
    if dist < arrivalRadiusM {
        st.Status = model.DriverArrived
        st.SpeedKmh = 0
    }
    s.drivers[o.ID] = st
    s.targets[o.ID] = target{point: dest, franchiseID: o.FranchiseID, orderNumber: o.OrderNumber}
    s.appendRouteLocked(o.ID, st.Lat, st.Lng, now)
    return st
}

func (s *Simulator) advanceLocked(st *model.DriverState, now time.Time) {
    tgt, ok := s.targets[st.OrderID]
    if !ok { return }
    step := st.SpeedKmh / 3.6 * s.tick.Seconds()
    next := geo.MoveTowards(geo.Point{Lat: st.Lat, Lng: st.Lng}, tgt.point, step)
    st.Lat, st.Lng = next.Lat, next.Lng
    if geo.Distance(next, tgt.point) < arrivalRadiusM {
        st.Status = model.DriverArrived
        st.SpeedKmh = 0
    } else {
        st.Status = model.DriverInTransit
        st.Heading = geo.Bearing(next, tgt.point)
    }
    st.LastUpdated = now.Format(time.RFC3339)
    s.appendRouteLocked(st.OrderID, st.Lat, st.Lng, now)
}

func (s *Simulator) appendRouteLocked(orderID string, lat, lng float64, now time.Time) {
    pts := append(s.routes[orderID], model.RoutePoint{Lat: lat, Lng: lng, TS: now.Format(time.RFC3339)})
    if len(pts) > routeCap { pts = pts[len(pts)-routeCap:] }
    s.routes[orderID] = pts
}

func (s *Simulator) arrivalLocked(orderID string) arrival {
    st := s.drivers[orderID]
    tgt := s.targets[orderID]
    return arrival{
        franchiseID: tgt.franchiseID,
        orderID:     orderID,
        orderNumber: tgt.orderNumber,
        driverID:    st.DriverID,
        lat:         st.Lat,
        lng:         st.Lng,
    }
}

func (s *Simulator) snapshotLocked() []model.DriverState {
    out := make([]model.DriverState, 0, len(s.drivers))
    for _, st := range s.drivers { out = append(out, *st) }
    sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
    return out
}

// Snapshot returns a copy of every tracked driver, sorted by id.
func (s *Simulator) Snapshot() []model.DriverState {
    s.mu.Lock(); defer s.mu.Unlock()
    return s.snapshotLocked()
}

// Driver returns the simulated driver for an order, if tracked.
func (s *Simulator) Driver(orderID string) (model.DriverState, bool) {
    s.mu.Lock(); defer s.mu.Unlock()
    st, ok := s.drivers[orderID]
    if !ok { return model.DriverState{}, false }
    return *st, true
}

// Route returns the driver's recorded trail for an order.
func (s *Simulator) Route(orderID string) []model.RoutePoint {
    s.mu.Lock(); defer s.mu.Unlock()
    pts := s.routes[orderID]
    out := make([]model.RoutePoint, len(pts))
    copy(out, pts)
    return out
}

// StopTracking drops a driver immediately, without waiting for the
// next tick's pruning pass.
func (s *Simulator) StopTracking(orderID string) {
    s.mu.Lock(); defer s.mu.Unlock()
    delete(s.drivers, orderID)
    delete(s.routes, orderID)
    delete(s.targets, orderID)
}

func (s *Simulator) TrackedCount() int {
    s.mu.Lock(); defer s.mu.Unlock()
    return len(s.drivers)
}
