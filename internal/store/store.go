package store

import (
    "context"
    "errors"
    "time"

    "fzclean/internal/model"
)

// Store is the persistence interface used by the API server. Both the
// in-memory and the Postgres implementations satisfy it, and either
// doubles as the order-number counter store.
type Store interface {
    // Orders
    CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
    GetOrder(ctx context.Context, id string) (model.Order, error)
    GetOrderByNumber(ctx context.Context, number string) (model.Order, error)
    ListOrders(ctx context.Context, franchiseID, status, cursor string, limit int) (items []model.Order, nextCursor string, err error)
    ListOrdersByStatus(ctx context.Context, status string) ([]model.Order, error)
    UpdateOrderStatus(ctx context.Context, id, status string) (model.Order, error)

    // Transits
    CreateTransit(ctx context.Context, t model.Transit) (model.Transit, error)
    GetTransit(ctx context.Context, id string) (model.Transit, error)
    ListTransits(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Transit, string, error)
    UpdateTransitStatus(ctx context.Context, id, status string) (model.Transit, error)

    // Customers
    CreateCustomer(ctx context.Context, c model.Customer) (model.Customer, error)
    GetCustomer(ctx context.Context, id string) (model.Customer, error)
    FindCustomerByPhone(ctx context.Context, franchiseID, phone string) (model.Customer, error)
    ListCustomers(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Customer, string, error)

    // Employees
    CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error)
    GetEmployeeByEmail(ctx context.Context, email string) (model.Employee, error)
    ListEmployees(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Employee, string, error)

    // Subscriptions
    CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
    GetSubscriptionsForEvent(ctx context.Context, franchiseID, eventType string) ([]model.Subscription, error)
    ListSubscriptions(ctx context.Context, franchiseID, cursor string, limit int) ([]model.Subscription, string, error)
    DeleteSubscription(ctx context.Context, franchiseID, id string) error

    // Webhook deliveries
    EnqueueWebhook(ctx context.Context, franchiseID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
    ListWebhookDeliveries(ctx context.Context, franchiseID, status, cursor string, limit int) ([]map[string]any, string, error)

    // Dashboard aggregates
    DashboardCounts(ctx context.Context, since time.Time) (DashboardCounts, error)

    // Order-number sequence counters, keyed by branch code and year.
    // A counter that does not exist yet reads as (0, 'A').
    GetSequence(ctx context.Context, branchCode string, year int) (seq int, suffix byte, err error)
    SetSequence(ctx context.Context, branchCode string, year int, seq int, suffix byte) error
}

// DashboardCounts are the raw aggregates behind the analytics
// dashboard. Driver counts come from the simulator, not the store.
type DashboardCounts struct {
    OrdersToday    int
    RevenueToday   float64
    ActiveTransits int
    OrdersByStatus map[string]int
}

type WebhookDelivery struct {
    ID             string
    FranchiseID    string
    SubscriptionID string
    EventType      string
    URL            string
    Secret         string
    Payload        []byte
    Status         string
    Attempts       int
}

var (
    ErrNotFound = errors.New("not found")
    ErrConflict = errors.New("conflict")
)
