package model

import "time"

// Order lifecycle. Transitions only move forward; delivered and
// cancelled are terminal.
const (
    OrderReceived       = "received"
    OrderProcessing     = "processing"
    OrderReady          = "ready"
    OrderOutForDelivery = "out_for_delivery"
    OrderDelivered      = "delivered"
    OrderCancelled      = "cancelled"
    // OrderFailed is accepted on the delivery leg for manual ops
    // corrections. The tracking simulator never produces it.
    OrderFailed = "failed"
)

// Transit lifecycle.
const (
    TransitPending    = "pending"
    TransitDispatched = "dispatched"
    TransitArrived    = "arrived"
)

// Transit directions. To the central factory for cleaning, back to the
// store for pickup.
const (
    DirectionToFactory = "to_factory"
    DirectionToStore   = "to_store"
)

// Simulated driver states.
const (
    DriverPickedUp  = "picked_up"
    DriverInTransit = "in_transit"
    DriverArrived   = "arrived"
)

// Employee roles.
const (
    RoleAdmin  = "admin"
    RoleStaff  = "staff"
    RoleDriver = "driver"
)

type GeoPoint struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
}

type OrderItem struct {
    Barcode  string  `json:"barcode"`
    Name     string  `json:"name"`
    Service  string  `json:"service"`
    Quantity int     `json:"quantity"`
    Price    float64 `json:"price"`
}

type Order struct {
    ID               string      `json:"id"`
    OrderNumber      string      `json:"orderNumber"`
    FranchiseID      string      `json:"franchiseId"`
    CustomerID       string      `json:"customerId,omitempty"`
    CustomerName     string      `json:"customerName,omitempty"`
    Items            []OrderItem `json:"items"`
    Status           string      `json:"status"`
    TotalAmount      float64     `json:"totalAmount"`
    DeliveryAddress  string      `json:"deliveryAddress,omitempty"`
    DeliveryLocation *GeoPoint   `json:"deliveryLocation,omitempty"`
    // DegradedID marks numbers minted through the timestamp fallback
    // while the counter store was unreachable.
    DegradedID bool      `json:"degradedId,omitempty"`
    CreatedAt  time.Time `json:"createdAt"`
    UpdatedAt  time.Time `json:"updatedAt"`
}

type OrderItemIn struct {
    Name     string  `json:"name"`
    Service  string  `json:"service"`
    Quantity int     `json:"quantity"`
    Price    float64 `json:"price"`
}

type CustomerIn struct {
    Name    string `json:"name"`
    Phone   string `json:"phone"`
    Email   string `json:"email,omitempty"`
    Address string `json:"address,omitempty"`
}

type OrderIn struct {
    FranchiseID      string        `json:"franchiseId"`
    CustomerID       string        `json:"customerId,omitempty"`
    Customer         *CustomerIn   `json:"customer,omitempty"`
    Items            []OrderItemIn `json:"items"`
    DeliveryAddress  string        `json:"deliveryAddress,omitempty"`
    DeliveryLocation *GeoPoint     `json:"deliveryLocation,omitempty"`
}

type Customer struct {
    ID          string    `json:"id"`
    FranchiseID string    `json:"franchiseId"`
    Name        string    `json:"name"`
    Phone       string    `json:"phone"`
    Email       string    `json:"email,omitempty"`
    Address     string    `json:"address,omitempty"`
    CreatedAt   time.Time `json:"createdAt"`
}

type Transit struct {
    ID          string    `json:"id"`
    TransitID   string    `json:"transitId"`
    FranchiseID string    `json:"franchiseId"`
    Direction   string    `json:"direction"`
    OrderIDs    []string  `json:"orderIds"`
    Status      string    `json:"status"`
    CreatedAt   time.Time `json:"createdAt"`
    UpdatedAt   time.Time `json:"updatedAt"`
}

type TransitIn struct {
    FranchiseID string   `json:"franchiseId"`
    Direction   string   `json:"direction"`
    OrderIDs    []string `json:"orderIds"`
}

type Employee struct {
    ID           string    `json:"id"`
    FranchiseID  string    `json:"franchiseId"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    Role         string    `json:"role"`
    PasswordHash string    `json:"-"`
    PasswordSalt string    `json:"-"`
    CreatedAt    time.Time `json:"createdAt"`
}

type EmployeeIn struct {
    FranchiseID string `json:"franchiseId"`
    Name        string `json:"name"`
    Email       string `json:"email"`
    Role        string `json:"role"`
    Password    string `json:"password"`
}

type LoginRequest struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

// DriverState is a live simulated courier position for one order out
// for delivery. Exactly one driver exists per tracked order.
type DriverState struct {
    DriverID         string  `json:"driverId"`
    OrderID          string  `json:"orderId"`
    Lat              float64 `json:"latitude"`
    Lng              float64 `json:"longitude"`
    Heading          float64 `json:"heading"`
    SpeedKmh         float64 `json:"speedKmh"`
    Status           string  `json:"status"`
    EstimatedArrival string  `json:"estimatedArrival,omitempty"`
    LastUpdated      string  `json:"lastUpdated"`
}

type RoutePoint struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
    TS  string  `json:"ts"`
}

// TrackingInfo is the public tracking view. No customer contact data.
type TrackingInfo struct {
    OrderNumber string       `json:"orderNumber"`
    Status      string       `json:"status"`
    Branch      string       `json:"branch"`
    ItemCount   int          `json:"itemCount"`
    PlacedAt    time.Time    `json:"placedAt"`
    Driver      *DriverState `json:"driver,omitempty"`
    Route       []RoutePoint `json:"route,omitempty"`
}

type Subscription struct {
    ID          string   `json:"id"`
    FranchiseID string   `json:"franchiseId"`
    URL         string   `json:"url"`
    Events      []string `json:"events"`
    Secret      string   `json:"secret,omitempty"`
}

type SubscriptionRequest struct {
    FranchiseID string   `json:"franchiseId"`
    URL         string   `json:"url"`
    Events      []string `json:"events"`
    Secret      string   `json:"secret,omitempty"`
}

type DashboardStats struct {
    OrdersToday    int            `json:"ordersToday"`
    RevenueToday   float64        `json:"revenueToday"`
    ActiveTransits int            `json:"activeTransits"`
    TrackedDrivers int            `json:"trackedDrivers"`
    OrdersByStatus map[string]int `json:"ordersByStatus"`
    GeneratedAt    string         `json:"generatedAt"`
}
