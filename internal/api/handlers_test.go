package api

import (
    "bytes"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "regexp"
    "testing"
    "time"

    "fzclean/internal/config"
    "fzclean/internal/model"
)

func newTestServer(t *testing.T) *Server {
    t.Helper()
    s, err := NewServer(config.Config{})
    if err != nil { t.Fatalf("NewServer: %v", err) }
    return s
}

func createOrder(t *testing.T, s *Server, body string) model.Order {
    t.Helper()
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewReader([]byte(body)))
    req.Header.Set("Content-Type", "application/json")
    s.OrdersHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create order: got %d: %s", rr.Code, rr.Body.String()) }
    var o model.Order
    if err := json.Unmarshal(rr.Body.Bytes(), &o); err != nil { t.Fatalf("decode order: %v", err) }
    return o
}

func patchOrderStatus(t *testing.T, s *Server, id, status string) int {
    t.Helper()
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPatch, "/v1/orders/"+id+"/status",
        bytes.NewReader([]byte(`{"status":"`+status+`"}`)))
    req.Header.Set("Content-Type", "application/json")
    s.OrderByIDHandler(rr, req)
    return rr.Code
}

const demoOrder = `{
    "customer": {"name": "Arun Kumar", "phone": "+91 98430 55555"},
    "items": [
        {"name": "Shirts", "service": "wash_fold", "quantity": 4, "price": 40},
        {"name": "Blazer", "service": "dry_clean", "quantity": 1, "price": 300}
    ],
    "deliveryAddress": "3 Mettur Road, Pollachi",
    "deliveryLocation": {"lat": 10.6649, "lng": 77.0102}
}`

func TestHealthReady(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    if rr.Code != 200 { t.Fatalf("health: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    if rr.Code != 200 { t.Fatalf("ready: got %d", rr.Code) }
}

func TestOrderCreateAndTrack(t *testing.T) {
    s := newTestServer(t)
    o := createOrder(t, s, demoOrder)

    // Seeded POL counter ends at 7, so the first minted number is 0008
    want := fmt.Sprintf("FZC-%dPOL0008A", time.Now().UTC().Year())
    if o.OrderNumber != want { t.Fatalf("order number %q, want %q", o.OrderNumber, want) }
    if o.DegradedID { t.Fatal("counter path should not be degraded") }
    if o.Status != model.OrderReceived { t.Fatalf("status: %q", o.Status) }
    if o.TotalAmount != 460 { t.Fatalf("total: %v", o.TotalAmount) }
    if len(o.Items) != 2 { t.Fatalf("items: %d", len(o.Items)) }
    bcRe := regexp.MustCompile(`^` + regexp.QuoteMeta(o.OrderNumber) + `-01-[0-9A-Z]{4}$`)
    if !bcRe.MatchString(o.Items[0].Barcode) { t.Fatalf("barcode %q", o.Items[0].Barcode) }
    if o.CustomerID == "" { t.Fatal("customer not resolved") }

    // Public tracking by order number, no auth headers at all
    rr := httptest.NewRecorder()
    s.TrackHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/track/"+o.OrderNumber, nil))
    if rr.Code != 200 { t.Fatalf("track: got %d: %s", rr.Code, rr.Body.String()) }
    var info model.TrackingInfo
    if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil { t.Fatalf("decode: %v", err) }
    if info.OrderNumber != o.OrderNumber { t.Fatalf("track number %q", info.OrderNumber) }
    if info.Branch != "FZ Clean Pollachi" { t.Fatalf("track branch %q", info.Branch) }
    if info.ItemCount != 2 { t.Fatalf("track items %d", info.ItemCount) }
    if info.Driver != nil { t.Fatal("no driver expected before delivery") }

    rr = httptest.NewRecorder()
    s.TrackHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/track/FZC-0000XXX0000Z", nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("track unknown: got %d", rr.Code) }
}

func TestOrderCreateValidation(t *testing.T) {
    s := newTestServer(t)
    cases := []string{
        `{"items":[{"name":"Shirt","service":"wash_fold","quantity":1,"price":10}]}`,     // no customer
        `{"customer":{"name":"A","phone":"1"},"items":[]}`,                               // no items
        `{"customer":{"name":"A","phone":"1"},"items":[{"name":"X","service":"bleach","quantity":1,"price":1}]}`, // bad service
        `{"customer":{"name":"A","phone":"1"},"items":[{"name":"X","service":"iron","quantity":0,"price":1}]}`,   // zero quantity
        `not json`,
    }
    for i, body := range cases {
        rr := httptest.NewRecorder()
        req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewReader([]byte(body)))
        s.OrdersHandler(rr, req)
        if rr.Code != http.StatusBadRequest { t.Fatalf("case %d: got %d", i, rr.Code) }
        var e apiError
        if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil { t.Fatalf("case %d decode: %v", i, err) }
        if e.Error == "" || e.Message == "" { t.Fatalf("case %d: empty error body %s", i, rr.Body.String()) }
    }

    // Unknown customerId is a 400, not a silent create
    rr := httptest.NewRecorder()
    body := `{"customerId":"CUST-POL0","items":[{"name":"X","service":"iron","quantity":1,"price":1}]}`
    req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewReader([]byte(body)))
    s.OrdersHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("unknown customer: got %d", rr.Code) }
}

func TestOrderStatusWalk(t *testing.T) {
    s := newTestServer(t)
    o := createOrder(t, s, demoOrder)

    // Skipping ahead is rejected
    if code := patchOrderStatus(t, s, o.ID, "delivered"); code != http.StatusBadRequest {
        t.Fatalf("received->delivered: got %d", code)
    }
    for _, st := range []string{"processing", "ready", "out_for_delivery", "delivered"} {
        if code := patchOrderStatus(t, s, o.ID, st); code != 200 { t.Fatalf("to %s: got %d", st, code) }
    }
    // Terminal states accept nothing further
    if code := patchOrderStatus(t, s, o.ID, "processing"); code != http.StatusBadRequest {
        t.Fatalf("delivered->processing: got %d", code)
    }
    if code := patchOrderStatus(t, s, "no-such-order", "processing"); code != http.StatusNotFound {
        t.Fatalf("unknown order: got %d", code)
    }

    // The status PATCH also resolves order numbers
    o2 := createOrder(t, s, demoOrder)
    if code := patchOrderStatus(t, s, o2.OrderNumber, "cancelled"); code != 200 {
        t.Fatalf("cancel by number: got %d", code)
    }
}

func TestOrderStatusTerminalStopsDriver(t *testing.T) {
    s := newTestServer(t)
    o := createOrder(t, s, demoOrder)
    for _, st := range []string{"processing", "ready", "out_for_delivery"} {
        if code := patchOrderStatus(t, s, o.ID, st); code != 200 { t.Fatalf("to %s: got %d", st, code) }
    }
    s.Sim.Tick()
    if _, ok := s.Sim.Driver(o.ID); !ok { t.Fatal("driver expected after tick") }
    if code := patchOrderStatus(t, s, o.ID, "delivered"); code != 200 { t.Fatalf("delivered: got %d", code) }
    if _, ok := s.Sim.Driver(o.ID); ok { t.Fatal("driver should be released on delivery") }
}

func TestOrdersListFilters(t *testing.T) {
    s := newTestServer(t)
    createOrder(t, s, demoOrder)

    rr := httptest.NewRecorder()
    s.OrdersHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/orders?status=received&limit=5", nil))
    if rr.Code != 200 { t.Fatalf("list: got %d", rr.Code) }
    var res struct {
        Items []model.Order `json:"items"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if len(res.Items) == 0 { t.Fatal("expected received orders") }
    for _, o := range res.Items {
        if o.Status != "received" { t.Fatalf("status filter leaked %q", o.Status) }
        if o.FranchiseID != "pollachi" { t.Fatalf("franchise scope leaked %q", o.FranchiseID) }
    }

    // Admins can address another franchise explicitly
    rr = httptest.NewRecorder()
    s.OrdersHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/orders?franchiseId=kinathukadavu", nil))
    if rr.Code != 200 { t.Fatalf("list kin: got %d", rr.Code) }
    var kin struct {
        Items []model.Order `json:"items"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &kin)
    for _, o := range kin.Items {
        if o.FranchiseID != "kinathukadavu" { t.Fatalf("franchise override leaked %q", o.FranchiseID) }
    }
}

func TestCustomerReuseByPhone(t *testing.T) {
    s := newTestServer(t)
    o1 := createOrder(t, s, demoOrder)
    o2 := createOrder(t, s, demoOrder)
    if o1.CustomerID != o2.CustomerID {
        t.Fatalf("same phone should reuse the customer: %q vs %q", o1.CustomerID, o2.CustomerID)
    }

    rr := httptest.NewRecorder()
    s.CustomerByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/customers/"+o1.CustomerID, nil))
    if rr.Code != 200 { t.Fatalf("get customer: got %d", rr.Code) }
}

func TestCustomersCreateList(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    body := `{"name":"Lakshmi","phone":"+91 90000 00001","address":"9 Bazaar St"}`
    req := httptest.NewRequest(http.MethodPost, "/v1/customers", bytes.NewReader([]byte(body)))
    s.CustomersHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create: got %d: %s", rr.Code, rr.Body.String()) }
    var c model.Customer
    _ = json.Unmarshal(rr.Body.Bytes(), &c)
    if !regexp.MustCompile(`^CUST-POL\d+$`).MatchString(c.ID) { t.Fatalf("customer id %q", c.ID) }

    rr = httptest.NewRecorder()
    s.CustomersHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/customers?limit=50", nil))
    if rr.Code != 200 { t.Fatalf("list: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/customers", bytes.NewReader([]byte(`{"name":"NoPhone"}`)))
    s.CustomersHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("missing phone: got %d", rr.Code) }
}

func TestTransitLifecycle(t *testing.T) {
    s := newTestServer(t)
    o := createOrder(t, s, demoOrder)

    rr := httptest.NewRecorder()
    body := `{"direction":"to_factory","orderIds":["` + o.ID + `"]}`
    req := httptest.NewRequest(http.MethodPost, "/v1/transits", bytes.NewReader([]byte(body)))
    s.TransitsHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create transit: got %d: %s", rr.Code, rr.Body.String()) }
    var tr model.Transit
    if err := json.Unmarshal(rr.Body.Bytes(), &tr); err != nil { t.Fatalf("decode: %v", err) }
    if !regexp.MustCompile(`^TRN-\d{4}POL\d{3}[A-Z]-F$`).MatchString(tr.TransitID) {
        t.Fatalf("transit id %q", tr.TransitID)
    }
    if tr.Status != model.TransitPending { t.Fatalf("status %q", tr.Status) }

    // pending -> arrived skips dispatched, rejected
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPatch, "/v1/transits/"+tr.ID+"/status",
        bytes.NewReader([]byte(`{"status":"arrived"}`)))
    s.TransitByIDHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("pending->arrived: got %d", rr.Code) }

    for _, st := range []string{"dispatched", "arrived"} {
        rr = httptest.NewRecorder()
        req = httptest.NewRequest(http.MethodPatch, "/v1/transits/"+tr.ID+"/status",
            bytes.NewReader([]byte(`{"status":"`+st+`"}`)))
        s.TransitByIDHandler(rr, req)
        if rr.Code != 200 { t.Fatalf("to %s: got %d: %s", st, rr.Code, rr.Body.String()) }
    }

    rr = httptest.NewRecorder()
    s.TransitByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/transits/"+tr.ID, nil))
    if rr.Code != 200 { t.Fatalf("get transit: got %d", rr.Code) }

    // Round trip through the parser
    rr = httptest.NewRecorder()
    s.TransitByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/transits/parse/"+tr.TransitID, nil))
    if rr.Code != 200 { t.Fatalf("parse: got %d: %s", rr.Code, rr.Body.String()) }
    var parts struct {
        BranchCode string `json:"branchCode"`
        Direction  string `json:"direction"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &parts)
    if parts.BranchCode != "POL" || parts.Direction != "to_factory" {
        t.Fatalf("parsed %+v", parts)
    }
}

func TestTransitValidation(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/transits",
        bytes.NewReader([]byte(`{"direction":"sideways","orderIds":["x"]}`)))
    s.TransitsHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("bad direction: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    s.TransitByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/transits/parse/TRN-GARBAGE", nil))
    if rr.Code != http.StatusBadRequest { t.Fatalf("parse garbage: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    s.TransitByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/transits/nope", nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("unknown transit: got %d", rr.Code) }
}

func TestBranchesRegistry(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.BranchesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/branches", nil))
    if rr.Code != 200 { t.Fatalf("list: got %d", rr.Code) }
    var res struct {
        Items []struct {
            ID         string `json:"id"`
            BranchCode string `json:"branchCode"`
        } `json:"items"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if len(res.Items) != 3 { t.Fatalf("branches: %d", len(res.Items)) }

    // Unknown ids fall back to the flagship branch instead of erroring
    rr = httptest.NewRecorder()
    s.BranchesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/branches/atlantis", nil))
    if rr.Code != 200 { t.Fatalf("fallback: got %d", rr.Code) }
    var b struct {
        ID string `json:"id"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &b)
    if b.ID != "pollachi" { t.Fatalf("fallback branch %q", b.ID) }
}

func TestLoginAndBearer(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/login",
        bytes.NewReader([]byte(`{"email":"admin@fzclean.in","password":"admin123"}`)))
    s.LoginHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("login: got %d: %s", rr.Code, rr.Body.String()) }
    var res struct {
        Token    string         `json:"token"`
        Employee model.Employee `json:"employee"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if res.Token == "" { t.Fatal("empty token") }
    if res.Employee.Role != model.RoleAdmin { t.Fatalf("role %q", res.Employee.Role) }

    // The issued token works as a bearer credential
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/employees", nil)
    req.Header.Set("Authorization", "Bearer "+res.Token)
    s.EmployeesHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("bearer list: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/login",
        bytes.NewReader([]byte(`{"email":"admin@fzclean.in","password":"wrong"}`)))
    s.LoginHandler(rr, req)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("bad password: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/login",
        bytes.NewReader([]byte(`{"email":"ghost@fzclean.in","password":"admin123"}`)))
    s.LoginHandler(rr, req)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("unknown email: got %d", rr.Code) }
}

func TestEmployeesAdminOnly(t *testing.T) {
    s := newTestServer(t)
    body := `{"name":"New Staff","email":"new.staff@fzclean.in","role":"staff","password":"secret1"}`

    // Staff cannot manage employees
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/employees", bytes.NewReader([]byte(body)))
    req.Header.Set("X-Role", "staff")
    s.EmployeesHandler(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("staff create: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/employees", bytes.NewReader([]byte(body)))
    s.EmployeesHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create: got %d: %s", rr.Code, rr.Body.String()) }
    var e model.Employee
    _ = json.Unmarshal(rr.Body.Bytes(), &e)
    if e.PasswordHash != "" { t.Fatal("hash must never serialize") }

    // Same email again conflicts
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/employees", bytes.NewReader([]byte(body)))
    s.EmployeesHandler(rr, req)
    if rr.Code != http.StatusConflict { t.Fatalf("duplicate: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/employees",
        bytes.NewReader([]byte(`{"name":"X","email":"bad","role":"staff","password":"secret1"}`)))
    s.EmployeesHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("bad email: got %d", rr.Code) }
}

func TestWebhookSubscriptionFlow(t *testing.T) {
    s := newTestServer(t)

    rr := httptest.NewRecorder()
    body := `{"url":"http://localhost:9/hook","events":["order.created"],"secret":"s3cret"}`
    req := httptest.NewRequest(http.MethodPost, "/v1/webhooks", bytes.NewReader([]byte(body)))
    s.WebhooksHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("subscribe: got %d: %s", rr.Code, rr.Body.String()) }
    var sub model.Subscription
    _ = json.Unmarshal(rr.Body.Bytes(), &sub)
    if sub.ID == "" { t.Fatal("empty subscription id") }

    // Creating an order enqueues a delivery for the subscriber
    createOrder(t, s, demoOrder)
    rr = httptest.NewRecorder()
    s.WebhookByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/webhooks/deliveries", nil))
    if rr.Code != 200 { t.Fatalf("deliveries: got %d", rr.Code) }
    var dres struct {
        Items []map[string]any `json:"items"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &dres); err != nil { t.Fatalf("decode: %v", err) }
    if len(dres.Items) != 1 { t.Fatalf("deliveries: %d", len(dres.Items)) }
    if dres.Items[0]["eventType"] != "order.created" { t.Fatalf("event %v", dres.Items[0]["eventType"]) }

    rr = httptest.NewRecorder()
    s.WebhooksHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/webhooks", nil))
    if rr.Code != 200 { t.Fatalf("list: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    s.WebhookByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/webhooks/"+sub.ID, nil))
    if rr.Code != 200 { t.Fatalf("delete: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.WebhookByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/webhooks/"+sub.ID, nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("delete twice: got %d", rr.Code) }
}

func TestDriversEndpoints(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.DriversHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/drivers", nil))
    if rr.Code != 200 { t.Fatalf("list: got %d", rr.Code) }
    var res struct {
        Drivers []model.DriverState `json:"drivers"`
    }
    _ = json.Unmarshal(rr.Body.Bytes(), &res)
    if len(res.Drivers) != 0 { t.Fatalf("expected no drivers, got %d", len(res.Drivers)) }

    rr = httptest.NewRecorder()
    s.DriverByOrderHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/drivers/nothing/route", nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("route untracked: got %d", rr.Code) }

    o := createOrder(t, s, demoOrder)
    for _, st := range []string{"processing", "ready", "out_for_delivery"} {
        if code := patchOrderStatus(t, s, o.ID, st); code != 200 { t.Fatalf("to %s: got %d", st, code) }
    }
    s.Sim.Tick()

    rr = httptest.NewRecorder()
    s.DriversHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/drivers", nil))
    res.Drivers = nil
    _ = json.Unmarshal(rr.Body.Bytes(), &res)
    if len(res.Drivers) != 1 { t.Fatalf("expected one driver, got %d", len(res.Drivers)) }
    if res.Drivers[0].OrderID != o.ID { t.Fatalf("driver order %q", res.Drivers[0].OrderID) }

    rr = httptest.NewRecorder()
    s.DriverByOrderHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/drivers/"+o.ID+"/route", nil))
    if rr.Code != 200 { t.Fatalf("route: got %d", rr.Code) }
    var route struct {
        Driver model.DriverState  `json:"driver"`
        Route  []model.RoutePoint `json:"route"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &route); err != nil { t.Fatalf("decode: %v", err) }
    if len(route.Route) == 0 { t.Fatal("route history empty") }

    // Admin can force-release the driver
    rr = httptest.NewRecorder()
    s.DriverByOrderHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/drivers/"+o.ID, nil))
    if rr.Code != 200 { t.Fatalf("delete: got %d", rr.Code) }
    if _, ok := s.Sim.Driver(o.ID); ok { t.Fatal("driver should be gone") }
}

func TestDashboardEndpoint(t *testing.T) {
    s := newTestServer(t)
    createOrder(t, s, demoOrder)
    rr := httptest.NewRecorder()
    s.DashboardHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/analytics/dashboard", nil))
    if rr.Code != 200 { t.Fatalf("dashboard: got %d", rr.Code) }
    var stats model.DashboardStats
    if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil { t.Fatalf("decode: %v", err) }
    if stats.OrdersByStatus["received"] == 0 { t.Fatalf("counts: %+v", stats.OrdersByStatus) }
    if stats.GeneratedAt == "" { t.Fatal("generatedAt missing") }
}

func TestRBAC(t *testing.T) {
    s := newTestServer(t)

    // Drivers may read transits but not create orders
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewReader([]byte(demoOrder)))
    req.Header.Set("X-Role", "driver")
    s.OrdersHandler(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("driver create order: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/transits", nil)
    req.Header.Set("X-Role", "driver")
    s.TransitsHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("driver list transits: got %d", rr.Code) }

    // Webhook management stays admin-only
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/webhooks", nil)
    req.Header.Set("X-Role", "staff")
    s.WebhooksHandler(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("staff list webhooks: got %d", rr.Code) }
}

func TestHmacModeRequiresToken(t *testing.T) {
    s, err := NewServer(config.Config{AuthMode: "hmac", AuthSecret: "test-secret"})
    if err != nil { t.Fatalf("NewServer: %v", err) }

    // Header fallback is a dev-mode convenience only
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
    req.Header.Set("X-Role", "admin")
    s.OrdersHandler(rr, req)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("headers in hmac mode: got %d", rr.Code) }

    token, err := s.Auth.Sign("pollachi", "staff", "")
    if err != nil { t.Fatalf("sign: %v", err) }
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
    req.Header.Set("Authorization", "Bearer "+token)
    s.OrdersHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("signed token: got %d: %s", rr.Code, rr.Body.String()) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
    req.Header.Set("Authorization", "Bearer not.a.token")
    s.OrdersHandler(rr, req)
    if rr.Code != http.StatusUnauthorized { t.Fatalf("garbage token: got %d", rr.Code) }
}

func TestDebugEndpoint(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.DebugJSON(rr, httptest.NewRequest(http.MethodGet, "/debug/info", nil))
    if rr.Code != 200 { t.Fatalf("debug: got %d", rr.Code) }
    var info struct {
        Store  string         `json:"store"`
        Build  map[string]any `json:"build"`
        Config map[string]any `json:"config"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil { t.Fatalf("decode: %v", err) }
    if info.Store != "memory" { t.Fatalf("store %q", info.Store) }
    if info.Build["version"] == "" { t.Fatal("build info missing") }
}
