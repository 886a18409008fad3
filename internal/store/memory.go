package store

import (
    "context"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"
    "fzclean/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu        sync.Mutex
    orders    map[string]model.Order         // id -> order
    orderIDs  []string                       // insertion order
    byNumber  map[string]string              // order number -> id
    transits  map[string]model.Transit       // id -> transit
    transitIDs []string
    customers map[string]model.Customer      // id -> customer
    customerIDs []string
    employees map[string]model.Employee      // id -> employee
    employeeIDs []string
    subs      map[string][]model.Subscription // franchise -> subscriptions
    // Webhooks queue state
    deliveries map[string]*memDelivery       // id -> delivery state
    deliveriesByFranchise map[string][]string // franchise -> delivery ids
    counters  map[string]counterVal          // branchCode|year -> counter
}

type counterVal struct {
    Seq    int
    Suffix byte
}

func NewMemory() *Memory {
    return &Memory{
        orders: map[string]model.Order{},
        byNumber: map[string]string{},
        transits: map[string]model.Transit{},
        customers: map[string]model.Customer{},
        employees: map[string]model.Employee{},
        subs: map[string][]model.Subscription{},
        deliveries: map[string]*memDelivery{},
        deliveriesByFranchise: map[string][]string{},
        counters: map[string]counterVal{},
    }
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
    DeliveredAt   *time.Time
}

// Orders

func (m *Memory) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if o.ID == "" { o.ID = uuid.New().String() }
    now := time.Now().UTC()
    if o.CreatedAt.IsZero() { o.CreatedAt = now }
    o.UpdatedAt = now
    m.orders[o.ID] = o
    m.orderIDs = append(m.orderIDs, o.ID)
    m.byNumber[o.OrderNumber] = o.ID
    return o, nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    o, ok := m.orders[id]
    if !ok { return model.Order{}, ErrNotFound }
    return o, nil
}

func (m *Memory) GetOrderByNumber(ctx context.Context, number string) (model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id, ok := m.byNumber[strings.ToUpper(strings.TrimSpace(number))]
    if !ok { return model.Order{}, ErrNotFound }
    return m.orders[id], nil
}

func (m *Memory) ListOrders(ctx context.Context, franchiseID, status, cursor string, limit int) ([]model.Order, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    start := 0
    if cursor != "" {
        for i, id := range m.orderIDs {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.Order{}
    var next string
    for i := start; i < len(m.orderIDs) && len(out) < limit; i++ {
        o := m.orders[m.orderIDs[i]]
        if franchiseID != "" && o.FranchiseID != franchiseID { continue }
        if status != "" && o.Status != status { continue }
        out = append(out, o)
        next = o.ID
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) ListOrdersByStatus(ctx context.Context, status string) ([]model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []model.Order{}
    for _, id := range m.orderIDs {
        if o := m.orders[id]; o.Status == status { out = append(out, o) }
    }
    return out, nil
}

func (m *Memory) UpdateOrderStatus(ctx context.Context, id, status string) (model.Order, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    o, ok := m.orders[id]
    if !ok { return model.Order{}, ErrNotFound }
    o.Status = status
    o.UpdatedAt = time.Now().UTC()
    m.orders[id] = o
    return o, nil
}

// Transits

func (m *Memory) CreateTransit(ctx context.Context, t model.Transit) (model.Transit, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if t.ID == "" { t.ID = uuid.New().String() }
    now := time.Now().UTC()
    if t.CreatedAt.IsZero() { t.CreatedAt = now }
    t.UpdatedAt = now
    m.transits[t.ID] = t
    m.transitIDs = append(m.transitIDs, t.ID)
    return t, nil
}

func (m *Memory) GetTransit(ctx context.Context, id string) (model.Transit, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    t, ok := m.transits[id]
    if !ok { return model.Transit{}, ErrNotFound }
    return t, nil
}

func (m *Memory) ListTransits(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Transit, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    start := 0
    if cursor != "" {
        for i, id := range m.transitIDs {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.Transit{}
    var next string
    for i := start; i < len(m.transitIDs) && len(out) < limit; i++ {
        t := m.transits[m.transitIDs[i]]
        if franchiseID != "" && t.FranchiseID != franchiseID { continue }
        out = append(out, t)
        next = t.ID
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) UpdateTransitStatus(ctx context.Context, id, status string) (model.Transit, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    t, ok := m.transits[id]
    if !ok { return model.Transit{}, ErrNotFound }
    t.Status = status
    t.UpdatedAt = time.Now().UTC()
    m.transits[id] = t
    return t, nil
}

// Customers

func (m *Memory) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if c.ID == "" { c.ID = uuid.New().String() }
    if c.CreatedAt.IsZero() { c.CreatedAt = time.Now().UTC() }
    m.customers[c.ID] = c
    m.customerIDs = append(m.customerIDs, c.ID)
    return c, nil
}

func (m *Memory) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    c, ok := m.customers[id]
    if !ok { return model.Customer{}, ErrNotFound }
    return c, nil
}

func (m *Memory) FindCustomerByPhone(ctx context.Context, franchiseID, phone string) (model.Customer, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    for _, id := range m.customerIDs {
        c := m.customers[id]
        if c.Phone == phone && (franchiseID == "" || c.FranchiseID == franchiseID) { return c, nil }
    }
    return model.Customer{}, ErrNotFound
}

func (m *Memory) ListCustomers(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Customer, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    start := 0
    if cursor != "" {
        for i, id := range m.customerIDs {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.Customer{}
    var next string
    for i := start; i < len(m.customerIDs) && len(out) < limit; i++ {
        c := m.customers[m.customerIDs[i]]
        if franchiseID != "" && c.FranchiseID != franchiseID { continue }
        out = append(out, c)
        next = c.ID
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

// Employees

func (m *Memory) CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if e.ID == "" { e.ID = uuid.New().String() }
    if e.CreatedAt.IsZero() { e.CreatedAt = time.Now().UTC() }
    e.Email = strings.ToLower(e.Email)
    for _, id := range m.employeeIDs {
        if m.employees[id].Email == e.Email { return model.Employee{}, ErrConflict }
    }
    m.employees[e.ID] = e
    m.employeeIDs = append(m.employeeIDs, e.ID)
    return e, nil
}

func (m *Memory) GetEmployeeByEmail(ctx context.Context, email string) (model.Employee, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    email = strings.ToLower(strings.TrimSpace(email))
    for _, id := range m.employeeIDs {
        if e := m.employees[id]; e.Email == email { return e, nil }
    }
    return model.Employee{}, ErrNotFound
}

func (m *Memory) ListEmployees(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Employee, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    start := 0
    if cursor != "" {
        for i, id := range m.employeeIDs {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.Employee{}
    var next string
    for i := start; i < len(m.employeeIDs) && len(out) < limit; i++ {
        e := m.employees[m.employeeIDs[i]]
        if franchiseID != "" && e.FranchiseID != franchiseID { continue }
        out = append(out, e)
        next = e.ID
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

// Subscriptions

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    s := model.Subscription{ID: uuid.New().String(), FranchiseID: req.FranchiseID, URL: req.URL, Events: req.Events, Secret: req.Secret}
    m.subs[req.FranchiseID] = append(m.subs[req.FranchiseID], s)
    return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, franchiseID, eventType string) ([]model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    var out []model.Subscription
    for _, s := range m.subs[franchiseID] {
        for _, e := range s.Events { if e == eventType || e == "*" { out = append(out, s); break } }
    }
    return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Subscription, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    list := m.subs[franchiseID]
    start := 0
    if cursor != "" {
        for i := range list { if list[i].ID == cursor { start = i+1; break } }
    }
    if limit <= 0 { limit = 100 }
    end := start + limit
    if end > len(list) { end = len(list) }
    items := append([]model.Subscription(nil), list[start:end]...)
    next := ""
    if end < len(list) { next = list[end-1].ID }
    return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, franchiseID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    arr := m.subs[franchiseID]
    out := make([]model.Subscription, 0, len(arr))
    found := false
    for _, s := range arr {
        if s.ID != id { out = append(out, s) } else { found = true }
    }
    if !found { return ErrNotFound }
    m.subs[franchiseID] = out
    return nil
}

// Webhook deliveries

func (m *Memory) EnqueueWebhook(ctx context.Context, franchiseID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, FranchiseID: franchiseID, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0}, NextAttemptAt: time.Now()}
    m.deliveries[id] = d
    m.deliveriesByFranchise[franchiseID] = append(m.deliveriesByFranchise[franchiseID], id)
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now()
    out := []WebhookDelivery{}
    for _, id := range m.iterDeliveryIDs() {
        d := m.deliveries[id]
        if d == nil { continue }
        if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
            out = append(out, d.WebhookDelivery)
            if limit > 0 && len(out) >= limit { break }
        }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return nil }
    d.Attempts++
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    if success {
        d.Status = "delivered"
        now := time.Now()
        d.DeliveredAt = &now
    } else {
        d.Status = "retry"
        d.LastError = lastError
        if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d != nil {
        d.Status = "failed"
        d.LastError = lastError
        d.ResponseCode = responseCode
        d.LatencyMs = latencyMs
    }
    return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, franchiseID, status, cursor string, limit int) ([]map[string]any, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []map[string]any{}
    for _, id := range m.deliveriesByFranchise[franchiseID] {
        d := m.deliveries[id]
        if d == nil { continue }
        if status == "" || d.Status == status {
            item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
            if !d.NextAttemptAt.IsZero() { item["nextAttemptAt"] = d.NextAttemptAt }
            if d.LastError != "" { item["lastError"] = d.LastError }
            out = append(out, item)
        }
    }
    return out, "", nil
}

// Dashboard aggregates

func (m *Memory) DashboardCounts(ctx context.Context, since time.Time) (DashboardCounts, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    c := DashboardCounts{OrdersByStatus: map[string]int{}}
    for _, id := range m.orderIDs {
        o := m.orders[id]
        c.OrdersByStatus[o.Status]++
        if !o.CreatedAt.Before(since) {
            c.OrdersToday++
            c.RevenueToday += o.TotalAmount
        }
    }
    for _, id := range m.transitIDs {
        if t := m.transits[id]; t.Status != model.TransitArrived { c.ActiveTransits++ }
    }
    return c, nil
}

// Sequence counters

func (m *Memory) GetSequence(ctx context.Context, branchCode string, year int) (int, byte, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    v, ok := m.counters[counterKey(branchCode, year)]
    if !ok { return 0, 'A', nil }
    return v.Seq, v.Suffix, nil
}

func (m *Memory) SetSequence(ctx context.Context, branchCode string, year int, seq int, suffix byte) error {
    m.mu.Lock(); defer m.mu.Unlock()
    m.counters[counterKey(branchCode, year)] = counterVal{Seq: seq, Suffix: suffix}
    return nil
}

func counterKey(branchCode string, year int) string {
    return branchCode + "|" + strconv.Itoa(year)
}

// helper: iterate delivery IDs grouped by franchise
func (m *Memory) iterDeliveryIDs() []string {
    ids := []string{}
    for _, lst := range m.deliveriesByFranchise {
        ids = append(ids, lst...)
    }
    return ids
}
