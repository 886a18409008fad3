package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "fzclean/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

var schema = []string{
    `CREATE TABLE IF NOT EXISTS customers (
        id TEXT PRIMARY KEY,
        franchise_id TEXT NOT NULL,
        name TEXT NOT NULL,
        phone TEXT NOT NULL,
        email TEXT,
        address TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
    `CREATE TABLE IF NOT EXISTS orders (
        id UUID PRIMARY KEY,
        order_number TEXT UNIQUE NOT NULL,
        franchise_id TEXT NOT NULL,
        customer_id TEXT,
        customer_name TEXT,
        items JSONB NOT NULL DEFAULT '[]',
        status TEXT NOT NULL,
        total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
        delivery_address TEXT,
        delivery_lat DOUBLE PRECISION,
        delivery_lng DOUBLE PRECISION,
        degraded_id BOOLEAN NOT NULL DEFAULT false,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
    `CREATE INDEX IF NOT EXISTS idx_orders_franchise ON orders (franchise_id)`,
    `CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
    `CREATE TABLE IF NOT EXISTS transits (
        id UUID PRIMARY KEY,
        transit_id TEXT UNIQUE NOT NULL,
        franchise_id TEXT NOT NULL,
        direction TEXT NOT NULL,
        order_ids JSONB NOT NULL DEFAULT '[]',
        status TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
    `CREATE TABLE IF NOT EXISTS employees (
        id UUID PRIMARY KEY,
        franchise_id TEXT NOT NULL,
        name TEXT NOT NULL,
        email TEXT UNIQUE NOT NULL,
        role TEXT NOT NULL,
        password_hash TEXT NOT NULL,
        password_salt TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
    `CREATE TABLE IF NOT EXISTS subscriptions (
        id UUID PRIMARY KEY,
        franchise_id TEXT NOT NULL,
        url TEXT NOT NULL,
        events JSONB NOT NULL DEFAULT '[]',
        secret TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
    `CREATE TABLE IF NOT EXISTS webhook_deliveries (
        id UUID PRIMARY KEY,
        franchise_id TEXT NOT NULL,
        subscription_id TEXT,
        event_type TEXT NOT NULL,
        url TEXT NOT NULL,
        secret TEXT,
        payload JSONB NOT NULL,
        status TEXT NOT NULL DEFAULT 'pending',
        attempts INT NOT NULL DEFAULT 0,
        next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        last_error TEXT,
        response_code INT,
        latency_ms INT,
        delivered_at TIMESTAMPTZ,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
    `CREATE INDEX IF NOT EXISTS idx_deliveries_due ON webhook_deliveries (status, next_attempt_at)`,
    `CREATE TABLE IF NOT EXISTS sequence_counters (
        branch_code TEXT NOT NULL,
        year INT NOT NULL,
        seq INT NOT NULL,
        suffix TEXT NOT NULL DEFAULT 'A',
        PRIMARY KEY (branch_code, year)
    )`,
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// InitSchema creates all tables if missing. Safe to run on every boot.
func (p *Postgres) InitSchema(ctx context.Context) error {
    for _, stmt := range schema {
        if _, err := p.db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("init schema: %w", err)
        }
    }
    return nil
}

// Orders

const orderCols = `id::text, order_number, franchise_id, COALESCE(customer_id,''), COALESCE(customer_name,''), items, status, total_amount, COALESCE(delivery_address,''), delivery_lat, delivery_lng, degraded_id, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(r rowScanner) (model.Order, error) {
    var o model.Order
    var items []byte
    var lat, lng sql.NullFloat64
    if err := r.Scan(&o.ID, &o.OrderNumber, &o.FranchiseID, &o.CustomerID, &o.CustomerName, &items, &o.Status, &o.TotalAmount, &o.DeliveryAddress, &lat, &lng, &o.DegradedID, &o.CreatedAt, &o.UpdatedAt); err != nil {
        return model.Order{}, err
    }
    _ = json.Unmarshal(items, &o.Items)
    if o.Items == nil { o.Items = []model.OrderItem{} }
    if lat.Valid && lng.Valid { o.DeliveryLocation = &model.GeoPoint{Lat: lat.Float64, Lng: lng.Float64} }
    return o, nil
}

func (p *Postgres) CreateOrder(ctx context.Context, o model.Order) (model.Order, error) {
    if o.ID == "" { o.ID = uuid.New().String() }
    items, _ := json.Marshal(o.Items)
    var lat, lng any
    if o.DeliveryLocation != nil {
        lat = o.DeliveryLocation.Lat
        lng = o.DeliveryLocation.Lng
    }
    err := p.db.QueryRowContext(ctx, `INSERT INTO orders (id, order_number, franchise_id, customer_id, customer_name, items, status, total_amount, delivery_address, delivery_lat, delivery_lng, degraded_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING created_at, updated_at`,
        o.ID, o.OrderNumber, o.FranchiseID, nullIfEmpty(o.CustomerID), nullIfEmpty(o.CustomerName), items, o.Status, o.TotalAmount, nullIfEmpty(o.DeliveryAddress), lat, lng, o.DegradedID).Scan(&o.CreatedAt, &o.UpdatedAt)
    if err != nil { return model.Order{}, err }
    return o, nil
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (model.Order, error) {
    o, err := scanOrder(p.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE id::text=$1`, id))
    if errors.Is(err, sql.ErrNoRows) { return model.Order{}, ErrNotFound }
    return o, err
}

func (p *Postgres) GetOrderByNumber(ctx context.Context, number string) (model.Order, error) {
    o, err := scanOrder(p.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE order_number=$1`, strings.ToUpper(strings.TrimSpace(number))))
    if errors.Is(err, sql.ErrNoRows) { return model.Order{}, ErrNotFound }
    return o, err
}

func (p *Postgres) ListOrders(ctx context.Context, franchiseID, status, cursor string, limit int) ([]model.Order, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT ` + orderCols + ` FROM orders`
    var where []string
    var args []any
    if franchiseID != "" {
        args = append(args, franchiseID)
        where = append(where, fmt.Sprintf("franchise_id=$%d", len(args)))
    }
    if status != "" {
        args = append(args, status)
        where = append(where, fmt.Sprintf("status=$%d", len(args)))
    }
    if cursor != "" {
        args = append(args, cursor)
        where = append(where, fmt.Sprintf("id::text > $%d", len(args)))
    }
    if len(where) > 0 { q += " WHERE " + strings.Join(where, " AND ") }
    args = append(args, limit)
    q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Order{}
    var last string
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil { return nil, "", err }
        out = append(out, o)
        last = o.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) ListOrdersByStatus(ctx context.Context, status string) ([]model.Order, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT `+orderCols+` FROM orders WHERE status=$1 ORDER BY id`, status)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Order{}
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil { return nil, err }
        out = append(out, o)
    }
    return out, rows.Err()
}

func (p *Postgres) UpdateOrderStatus(ctx context.Context, id, status string) (model.Order, error) {
    res, err := p.db.ExecContext(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id::text=$1`, id, status)
    if err != nil { return model.Order{}, err }
    if n, _ := res.RowsAffected(); n == 0 { return model.Order{}, ErrNotFound }
    return p.GetOrder(ctx, id)
}

// Transits

const transitCols = `id::text, transit_id, franchise_id, direction, order_ids, status, created_at, updated_at`

func scanTransit(r rowScanner) (model.Transit, error) {
    var t model.Transit
    var ids []byte
    if err := r.Scan(&t.ID, &t.TransitID, &t.FranchiseID, &t.Direction, &ids, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
        return model.Transit{}, err
    }
    _ = json.Unmarshal(ids, &t.OrderIDs)
    if t.OrderIDs == nil { t.OrderIDs = []string{} }
    return t, nil
}

func (p *Postgres) CreateTransit(ctx context.Context, t model.Transit) (model.Transit, error) {
    if t.ID == "" { t.ID = uuid.New().String() }
    ids, _ := json.Marshal(t.OrderIDs)
    err := p.db.QueryRowContext(ctx, `INSERT INTO transits (id, transit_id, franchise_id, direction, order_ids, status)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at, updated_at`,
        t.ID, t.TransitID, t.FranchiseID, t.Direction, ids, t.Status).Scan(&t.CreatedAt, &t.UpdatedAt)
    if err != nil { return model.Transit{}, err }
    return t, nil
}

func (p *Postgres) GetTransit(ctx context.Context, id string) (model.Transit, error) {
    t, err := scanTransit(p.db.QueryRowContext(ctx, `SELECT `+transitCols+` FROM transits WHERE id::text=$1 OR transit_id=$1`, id))
    if errors.Is(err, sql.ErrNoRows) { return model.Transit{}, ErrNotFound }
    return t, err
}

func (p *Postgres) ListTransits(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Transit, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if franchiseID != "" {
        if cursor != "" {
            rows, err = p.db.QueryContext(ctx, `SELECT `+transitCols+` FROM transits WHERE franchise_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, franchiseID, cursor, limit)
        } else {
            rows, err = p.db.QueryContext(ctx, `SELECT `+transitCols+` FROM transits WHERE franchise_id=$1 ORDER BY id LIMIT $2`, franchiseID, limit)
        }
    } else {
        if cursor != "" {
            rows, err = p.db.QueryContext(ctx, `SELECT `+transitCols+` FROM transits WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
        } else {
            rows, err = p.db.QueryContext(ctx, `SELECT `+transitCols+` FROM transits ORDER BY id LIMIT $1`, limit)
        }
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Transit{}
    var last string
    for rows.Next() {
        t, err := scanTransit(rows)
        if err != nil { return nil, "", err }
        out = append(out, t)
        last = t.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) UpdateTransitStatus(ctx context.Context, id, status string) (model.Transit, error) {
    res, err := p.db.ExecContext(ctx, `UPDATE transits SET status=$2, updated_at=now() WHERE id::text=$1 OR transit_id=$1`, id, status)
    if err != nil { return model.Transit{}, err }
    if n, _ := res.RowsAffected(); n == 0 { return model.Transit{}, ErrNotFound }
    return p.GetTransit(ctx, id)
}

// Customers

func (p *Postgres) CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
    if c.ID == "" { c.ID = uuid.New().String() }
    err := p.db.QueryRowContext(ctx, `INSERT INTO customers (id, franchise_id, name, phone, email, address)
        VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`,
        c.ID, c.FranchiseID, c.Name, c.Phone, nullIfEmpty(c.Email), nullIfEmpty(c.Address)).Scan(&c.CreatedAt)
    if err != nil { return model.Customer{}, err }
    return c, nil
}

const customerCols = `id, franchise_id, name, phone, COALESCE(email,''), COALESCE(address,''), created_at`

func (p *Postgres) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
    var c model.Customer
    err := p.db.QueryRowContext(ctx, `SELECT `+customerCols+` FROM customers WHERE id=$1`, id).
        Scan(&c.ID, &c.FranchiseID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) { return model.Customer{}, ErrNotFound }
    return c, err
}

func (p *Postgres) FindCustomerByPhone(ctx context.Context, franchiseID, phone string) (model.Customer, error) {
    var c model.Customer
    var err error
    row := p.db.QueryRowContext(ctx, `SELECT `+customerCols+` FROM customers WHERE phone=$1 AND franchise_id=$2 LIMIT 1`, phone, franchiseID)
    if franchiseID == "" {
        row = p.db.QueryRowContext(ctx, `SELECT `+customerCols+` FROM customers WHERE phone=$1 LIMIT 1`, phone)
    }
    err = row.Scan(&c.ID, &c.FranchiseID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) { return model.Customer{}, ErrNotFound }
    return c, err
}

func (p *Postgres) ListCustomers(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Customer, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT ` + customerCols + ` FROM customers`
    var where []string
    var args []any
    if franchiseID != "" {
        args = append(args, franchiseID)
        where = append(where, fmt.Sprintf("franchise_id=$%d", len(args)))
    }
    if cursor != "" {
        args = append(args, cursor)
        where = append(where, fmt.Sprintf("id > $%d", len(args)))
    }
    if len(where) > 0 { q += " WHERE " + strings.Join(where, " AND ") }
    args = append(args, limit)
    q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Customer{}
    var last string
    for rows.Next() {
        var c model.Customer
        if err := rows.Scan(&c.ID, &c.FranchiseID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.CreatedAt); err != nil { return nil, "", err }
        out = append(out, c)
        last = c.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

// Employees

func (p *Postgres) CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error) {
    if e.ID == "" { e.ID = uuid.New().String() }
    e.Email = strings.ToLower(e.Email)
    err := p.db.QueryRowContext(ctx, `INSERT INTO employees (id, franchise_id, name, email, role, password_hash, password_salt)
        VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING created_at`,
        e.ID, e.FranchiseID, e.Name, e.Email, e.Role, e.PasswordHash, e.PasswordSalt).Scan(&e.CreatedAt)
    if err != nil {
        if strings.Contains(err.Error(), "duplicate key") { return model.Employee{}, ErrConflict }
        return model.Employee{}, err
    }
    return e, nil
}

func (p *Postgres) GetEmployeeByEmail(ctx context.Context, email string) (model.Employee, error) {
    var e model.Employee
    err := p.db.QueryRowContext(ctx, `SELECT id::text, franchise_id, name, email, role, password_hash, password_salt, created_at FROM employees WHERE email=$1`, strings.ToLower(strings.TrimSpace(email))).
        Scan(&e.ID, &e.FranchiseID, &e.Name, &e.Email, &e.Role, &e.PasswordHash, &e.PasswordSalt, &e.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) { return model.Employee{}, ErrNotFound }
    return e, err
}

func (p *Postgres) ListEmployees(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Employee, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT id::text, franchise_id, name, email, role, password_hash, password_salt, created_at FROM employees`
    var where []string
    var args []any
    if franchiseID != "" {
        args = append(args, franchiseID)
        where = append(where, fmt.Sprintf("franchise_id=$%d", len(args)))
    }
    if cursor != "" {
        args = append(args, cursor)
        where = append(where, fmt.Sprintf("id::text > $%d", len(args)))
    }
    if len(where) > 0 { q += " WHERE " + strings.Join(where, " AND ") }
    args = append(args, limit)
    q += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Employee{}
    var last string
    for rows.Next() {
        var e model.Employee
        if err := rows.Scan(&e.ID, &e.FranchiseID, &e.Name, &e.Email, &e.Role, &e.PasswordHash, &e.PasswordSalt, &e.CreatedAt); err != nil { return nil, "", err }
        out = append(out, e)
        last = e.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

// Subscriptions

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    id := uuid.New().String()
    ev, _ := json.Marshal(req.Events)
    _, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, franchise_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`, id, req.FranchiseID, req.URL, ev, nullIfEmpty(req.Secret))
    if err != nil { return model.Subscription{}, err }
    return model.Subscription{ID: id, FranchiseID: req.FranchiseID, URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, franchiseID, eventType string) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, COALESCE(secret,''), events FROM subscriptions WHERE franchise_id=$1 AND (events @> $2::jsonb OR events @> '["*"]'::jsonb)`, franchiseID, fmt.Sprintf("[%q]", eventType))
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        var events []byte
        if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &events); err != nil { return nil, err }
        s.FranchiseID = franchiseID
        _ = json.Unmarshal(events, &s.Events)
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) ListSubscriptions(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Subscription, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, franchise_id, url, COALESCE(secret,''), events FROM subscriptions WHERE franchise_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, franchiseID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, franchise_id, url, COALESCE(secret,''), events FROM subscriptions WHERE franchise_id=$1 ORDER BY id LIMIT $2`, franchiseID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    var out []model.Subscription
    var last string
    for rows.Next() {
        var s model.Subscription
        var ev []byte
        if err := rows.Scan(&s.ID, &s.FranchiseID, &s.URL, &s.Secret, &ev); err != nil { return nil, "", err }
        _ = json.Unmarshal(ev, &s.Events)
        out = append(out, s)
        last = s.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, franchiseID, id string) error {
    res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE franchise_id=$1 AND id::text=$2`, franchiseID, id)
    if err != nil { return err }
    if n, _ := res.RowsAffected(); n == 0 { return ErrNotFound }
    return nil
}

// Webhook deliveries

func (p *Postgres) EnqueueWebhook(ctx context.Context, franchiseID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.New().String()
    _, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, franchise_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now())`, id, franchiseID, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload)
    if err != nil { return "", err }
    return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, franchise_id, COALESCE(subscription_id,''), event_type, url, COALESCE(secret,''), payload, status, attempts
        FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        var payload []byte
        if err := rows.Scan(&d.ID, &d.FranchiseID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &payload, &d.Status, &d.Attempts); err != nil { return nil, err }
        d.Payload = payload
        out = append(out, d)
    }
    return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    if !success {
        if nextAttemptAt == nil { t := time.Now().Add(1 * time.Minute); nextAttemptAt = &t }
        _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$2, next_attempt_at=$3, updated_at=now(), response_code=$4, latency_ms=$5 WHERE id::text=$1`, id, nullIfEmpty(lastError), *nextAttemptAt, responseCode, latencyMs)
        return err
    }
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(), updated_at=now(), response_code=$2, latency_ms=$3 WHERE id::text=$1`, id, responseCode, latencyMs)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', last_error=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id::text=$1`, id, nullIfEmpty(lastError), responseCode, latencyMs)
    return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, franchiseID, status, cursor string, limit int) ([]map[string]any, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT id::text, event_type, status, attempts, next_attempt_at, last_error, url FROM webhook_deliveries WHERE franchise_id=$1`
    var rows *sql.Rows
    var err error
    if status != "" {
        q += ` AND status=$2 ORDER BY id LIMIT $3`
        rows, err = p.db.QueryContext(ctx, q, franchiseID, status, limit)
    } else {
        q += ` ORDER BY id LIMIT $2`
        rows, err = p.db.QueryContext(ctx, q, franchiseID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []map[string]any{}
    var last string
    for rows.Next() {
        var id, typ, st, url string
        var attempts int
        var nextAt sql.NullTime
        var lastErr sql.NullString
        if err := rows.Scan(&id, &typ, &st, &attempts, &nextAt, &lastErr, &url); err != nil { return nil, "", err }
        m := map[string]any{"id": id, "eventType": typ, "status": st, "attempts": attempts, "url": url}
        if nextAt.Valid { m["nextAttemptAt"] = nextAt.Time }
        if lastErr.String != "" { m["lastError"] = lastErr.String }
        out = append(out, m)
        last = id
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, rows.Err()
}

// Dashboard aggregates

func (p *Postgres) DashboardCounts(ctx context.Context, since time.Time) (DashboardCounts, error) {
    c := DashboardCounts{OrdersByStatus: map[string]int{}}
    err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FILTER (WHERE created_at >= $1), COALESCE(SUM(total_amount) FILTER (WHERE created_at >= $1), 0) FROM orders`, since).
        Scan(&c.OrdersToday, &c.RevenueToday)
    if err != nil { return c, err }
    rows, err := p.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
    if err != nil { return c, err }
    defer rows.Close()
    for rows.Next() {
        var st string
        var n int
        if err := rows.Scan(&st, &n); err != nil { return c, err }
        c.OrdersByStatus[st] = n
    }
    if err := rows.Err(); err != nil { return c, err }
    err = p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transits WHERE status <> $1`, model.TransitArrived).Scan(&c.ActiveTransits)
    return c, err
}

// Sequence counters. SetSequence is a single upsert so concurrent
// writers cannot leave a half-updated row.

func (p *Postgres) GetSequence(ctx context.Context, branchCode string, year int) (int, byte, error) {
    var seq int
    var suffix string
    err := p.db.QueryRowContext(ctx, `SELECT seq, suffix FROM sequence_counters WHERE branch_code=$1 AND year=$2`, branchCode, year).Scan(&seq, &suffix)
    if errors.Is(err, sql.ErrNoRows) { return 0, 'A', nil }
    if err != nil { return 0, 0, err }
    if suffix == "" { suffix = "A" }
    return seq, suffix[0], nil
}

func (p *Postgres) SetSequence(ctx context.Context, branchCode string, year int, seq int, suffix byte) error {
    _, err := p.db.ExecContext(ctx, `INSERT INTO sequence_counters (branch_code, year, seq, suffix) VALUES ($1,$2,$3,$4)
        ON CONFLICT (branch_code, year) DO UPDATE SET seq=EXCLUDED.seq, suffix=EXCLUDED.suffix`, branchCode, year, seq, string(suffix))
    return err
}

func nullIfEmpty(s string) any { if s == "" { return nil }; return s }
