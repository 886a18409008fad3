package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "strings"

    "github.com/google/uuid"

    "fzclean/internal/auth"
    "fzclean/internal/branch"
    "fzclean/internal/idgen"
    "fzclean/internal/model"
    "fzclean/internal/store"
)

// OrdersHandler handles POST/GET /v1/orders
func (s *Server) OrdersHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        p, ok := s.requireRole(w, r, model.RoleStaff)
        if !ok { return }
        var in model.OrderIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
            return
        }
        if err := validateOrderIn(&in); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_order", err.Error())
            return
        }
        if in.FranchiseID == "" { in.FranchiseID = p.Franchise }
        br := branch.ByID(in.FranchiseID)

        cust, err := s.resolveCustomer(r.Context(), br.ID, &in)
        if err != nil {
            if errors.Is(err, store.ErrNotFound) {
                writeError(w, http.StatusBadRequest, "unknown_customer", "customerId does not exist")
                return
            }
            writeError(w, http.StatusInternalServerError, "customer_failed", err.Error())
            return
        }

        num := s.Gen.OrderNumber(r.Context(), br.ID)
        items := make([]model.OrderItem, 0, len(in.Items))
        total := 0.0
        for i, it := range in.Items {
            items = append(items, model.OrderItem{
                Barcode:  s.Gen.ItemBarcode(num.Value, i+1),
                Name:     it.Name,
                Service:  it.Service,
                Quantity: it.Quantity,
                Price:    it.Price,
            })
            total += it.Price * float64(it.Quantity)
        }
        order := model.Order{
            ID:               uuid.NewString(),
            OrderNumber:      num.Value,
            FranchiseID:      br.ID,
            CustomerID:       cust.ID,
            CustomerName:     cust.Name,
            Items:            items,
            Status:           model.OrderReceived,
            TotalAmount:      total,
            DeliveryAddress:  in.DeliveryAddress,
            DeliveryLocation: in.DeliveryLocation,
            DegradedID:       num.Degraded,
        }
        created, err := s.Store.CreateOrder(r.Context(), order)
        if err != nil {
            writeError(w, http.StatusInternalServerError, "create_failed", err.Error())
            return
        }
        s.emitOrderEvent(r.Context(), "order.created", created, map[string]any{
            "orderId":     created.ID,
            "orderNumber": created.OrderNumber,
            "franchiseId": created.FranchiseID,
            "totalAmount": created.TotalAmount,
            "itemCount":   len(created.Items),
        })
        writeJSON(w, http.StatusCreated, created)
    case http.MethodGet:
        p, ok := s.requireRole(w, r, model.RoleStaff)
        if !ok { return }
        items, next, err := s.Store.ListOrders(r.Context(), franchiseFor(p, r),
            r.URL.Query().Get("status"), r.URL.Query().Get("cursor"), limitParam(r))
        if err != nil {
            writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// OrderByIDHandler handles GET /v1/orders/{id} and PATCH /v1/orders/{id}/status.
// The id segment accepts either the record id or the order number.
func (s *Server) OrderByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
    if rest == r.URL.Path || rest == "" {
        writeError(w, http.StatusNotFound, "not_found", "missing order id")
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]

    if len(parts) > 1 && parts[1] == "status" {
        if r.Method != http.MethodPatch {
            w.WriteHeader(http.StatusMethodNotAllowed)
            return
        }
        if _, ok := s.requireRole(w, r, model.RoleStaff); !ok { return }
        var req struct {
            Status string `json:"status"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
            return
        }
        order, err := s.findOrder(r.Context(), id)
        if err != nil {
            writeError(w, http.StatusNotFound, "not_found", "order not found")
            return
        }
        if !canTransitionOrder(order.Status, req.Status) {
            writeError(w, http.StatusBadRequest, "invalid_transition",
                fmt.Sprintf("cannot move order from %s to %s", order.Status, req.Status))
            return
        }
        updated, err := s.Store.UpdateOrderStatus(r.Context(), order.ID, req.Status)
        if err != nil {
            writeError(w, http.StatusInternalServerError, "update_failed", err.Error())
            return
        }
        if isTerminalOrderStatus(updated.Status) { s.Sim.StopTracking(updated.ID) }
        s.emitOrderEvent(r.Context(), "order.status_changed", updated, map[string]any{
            "orderId":     updated.ID,
            "orderNumber": updated.OrderNumber,
            "franchiseId": updated.FranchiseID,
            "from":        order.Status,
            "to":          updated.Status,
        })
        writeJSON(w, http.StatusOK, updated)
        return
    }

    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if _, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver); !ok { return }
    order, err := s.findOrder(r.Context(), id)
    if err != nil {
        writeError(w, http.StatusNotFound, "not_found", "order not found")
        return
    }
    writeJSON(w, http.StatusOK, order)
}

// TrackHandler handles GET /v1/track/{orderNumber}. Public: customers
// paste their order number, no credentials involved.
func (s *Server) TrackHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    number := strings.TrimPrefix(r.URL.Path, "/v1/track/")
    if number == r.URL.Path || number == "" {
        writeError(w, http.StatusNotFound, "not_found", "missing order number")
        return
    }
    order, err := s.Store.GetOrderByNumber(r.Context(), number)
    if err != nil {
        writeError(w, http.StatusNotFound, "not_found", "no order with that number")
        return
    }
    info := model.TrackingInfo{
        OrderNumber: order.OrderNumber,
        Status:      order.Status,
        Branch:      branch.ByID(order.FranchiseID).Name,
        ItemCount:   len(order.Items),
        PlacedAt:    order.CreatedAt,
    }
    if d, ok := s.Sim.Driver(order.ID); ok {
        info.Driver = &d
        info.Route = s.Sim.Route(order.ID)
    }
    writeJSON(w, http.StatusOK, info)
}

// TransitsHandler handles POST/GET /v1/transits
func (s *Server) TransitsHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        p, ok := s.requireRole(w, r, model.RoleStaff)
        if !ok { return }
        var in model.TransitIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
            return
        }
        if err := validateTransitIn(&in); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_transit", err.Error())
            return
        }
        if in.FranchiseID == "" { in.FranchiseID = p.Franchise }
        br := branch.ByID(in.FranchiseID)
        transit := model.Transit{
            ID:          uuid.NewString(),
            TransitID:   s.Gen.TransitID(br.ID, in.Direction),
            FranchiseID: br.ID,
            Direction:   in.Direction,
            OrderIDs:    in.OrderIDs,
            Status:      model.TransitPending,
        }
        created, err := s.Store.CreateTransit(r.Context(), transit)
        if err != nil {
            writeError(w, http.StatusInternalServerError, "create_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusCreated, created)
    case http.MethodGet:
        p, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver)
        if !ok { return }
        items, next, err := s.Store.ListTransits(r.Context(), franchiseFor(p, r),
            r.URL.Query().Get("cursor"), limitParam(r))
        if err != nil {
            writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// TransitByIDHandler handles GET /v1/transits/{id},
// PATCH /v1/transits/{id}/status and GET /v1/transits/parse/{transitId}.
func (s *Server) TransitByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/transits/")
    if rest == r.URL.Path || rest == "" {
        writeError(w, http.StatusNotFound, "not_found", "missing transit id")
        return
    }
    parts := strings.Split(rest, "/")

    if parts[0] == "parse" {
        if r.Method != http.MethodGet {
            w.WriteHeader(http.StatusMethodNotAllowed)
            return
        }
        if _, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver); !ok { return }
        if len(parts) < 2 || parts[1] == "" {
            writeError(w, http.StatusBadRequest, "invalid_transit_id", "missing transit id to parse")
            return
        }
        parsed, err := idgen.ParseTransitID(parts[1])
        if err != nil {
            writeError(w, http.StatusBadRequest, "invalid_transit_id", err.Error())
            return
        }
        writeJSON(w, http.StatusOK, parsed)
        return
    }

    id := parts[0]
    if len(parts) > 1 && parts[1] == "status" {
        if r.Method != http.MethodPatch {
            w.WriteHeader(http.StatusMethodNotAllowed)
            return
        }
        if _, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver); !ok { return }
        var req struct {
            Status string `json:"status"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
            return
        }
        transit, err := s.Store.GetTransit(r.Context(), id)
        if err != nil {
            writeError(w, http.StatusNotFound, "not_found", "transit not found")
            return
        }
        if !canTransitionTransit(transit.Status, req.Status) {
            writeError(w, http.StatusBadRequest, "invalid_transition",
                fmt.Sprintf("cannot move transit from %s to %s", transit.Status, req.Status))
            return
        }
        updated, err := s.Store.UpdateTransitStatus(r.Context(), transit.ID, req.Status)
        if err != nil {
            writeError(w, http.StatusInternalServerError, "update_failed", err.Error())
            return
        }
        if updated.Status == model.TransitDispatched {
            s.Pub.Emit(r.Context(), updated.FranchiseID, "transit.dispatched", map[string]any{
                "transitId":   updated.TransitID,
                "franchiseId": updated.FranchiseID,
                "direction":   updated.Direction,
                "orderCount":  len(updated.OrderIDs),
            })
        }
        writeJSON(w, http.StatusOK, updated)
        return
    }

    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if _, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver); !ok { return }
    transit, err := s.Store.GetTransit(r.Context(), id)
    if err != nil {
        writeError(w, http.StatusNotFound, "not_found", "transit not found")
        return
    }
    writeJSON(w, http.StatusOK, transit)
}

// BranchesHandler handles GET /v1/branches and GET /v1/branches/{id}.
// Unknown ids resolve to the default branch, never 404.
func (s *Server) BranchesHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    rest := strings.TrimPrefix(r.URL.Path, "/v1/branches")
    rest = strings.TrimPrefix(rest, "/")
    if rest == "" {
        writeJSON(w, http.StatusOK, map[string]any{"items": branch.All()})
        return
    }
    writeJSON(w, http.StatusOK, branch.ByID(rest))
}

// CustomersHandler handles POST/GET /v1/customers
func (s *Server) CustomersHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        p, ok := s.requireRole(w, r, model.RoleStaff)
        if !ok { return }
        var req struct {
            FranchiseID string `json:"franchiseId"`
            model.CustomerIn
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
            return
        }
        if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
            writeError(w, http.StatusBadRequest, "invalid_customer", "name and phone are required")
            return
        }
        if req.FranchiseID == "" { req.FranchiseID = p.Franchise }
        br := branch.ByID(req.FranchiseID)
        created, err := s.Store.CreateCustomer(r.Context(), model.Customer{
            ID:          s.Gen.CustomerID(br.ID),
            FranchiseID: br.ID,
            Name:        req.Name,
            Phone:       req.Phone,
            Email:       req.Email,
            Address:     req.Address,
        })
        if err != nil {
            writeError(w, http.StatusInternalServerError, "create_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusCreated, created)
    case http.MethodGet:
        p, ok := s.requireRole(w, r, model.RoleStaff)
        if !ok { return }
        items, next, err := s.Store.ListCustomers(r.Context(), franchiseFor(p, r),
            r.URL.Query().Get("cursor"), limitParam(r))
        if err != nil {
            writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// CustomerByIDHandler handles GET /v1/customers/{id}
func (s *Server) CustomerByIDHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if _, ok := s.requireRole(w, r, model.RoleStaff); !ok { return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/customers/")
    c, err := s.Store.GetCustomer(r.Context(), id)
    if err != nil {
        writeError(w, http.StatusNotFound, "not_found", "customer not found")
        return
    }
    writeJSON(w, http.StatusOK, c)
}

// LoginHandler handles POST /v1/login
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req model.LoginRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
        return
    }
    emp, err := s.Store.GetEmployeeByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
    if err != nil || !auth.VerifyPassword(req.Password, emp.PasswordSalt, emp.PasswordHash) {
        writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
        return
    }
    token, err := s.Auth.Sign(emp.FranchiseID, emp.Role, "")
    if err != nil {
        writeError(w, http.StatusInternalServerError, "token_failed", err.Error())
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"token": token, "employee": emp})
}

// EmployeesHandler handles POST/GET /v1/employees (admin only)
func (s *Server) EmployeesHandler(w http.ResponseWriter, r *http.Request) {
    p, ok := s.requireRole(w, r)
    if !ok { return }
    switch r.Method {
    case http.MethodPost:
        var in model.EmployeeIn
        if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
            return
        }
        if err := validateEmployeeIn(&in); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_employee", err.Error())
            return
        }
        if in.FranchiseID == "" { in.FranchiseID = p.Franchise }
        salt := auth.NewSalt()
        created, err := s.Store.CreateEmployee(r.Context(), model.Employee{
            ID:           uuid.NewString(),
            FranchiseID:  branch.ByID(in.FranchiseID).ID,
            Name:         in.Name,
            Email:        strings.ToLower(strings.TrimSpace(in.Email)),
            Role:         in.Role,
            PasswordHash: auth.HashPassword(in.Password, salt),
            PasswordSalt: salt,
        })
        if err != nil {
            if errors.Is(err, store.ErrConflict) {
                writeError(w, http.StatusConflict, "email_taken", "an employee with that email already exists")
                return
            }
            writeError(w, http.StatusInternalServerError, "create_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusCreated, created)
    case http.MethodGet:
        items, next, err := s.Store.ListEmployees(r.Context(), franchiseFor(p, r),
            r.URL.Query().Get("cursor"), limitParam(r))
        if err != nil {
            writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// DriversHandler handles GET /v1/drivers
func (s *Server) DriversHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if _, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver); !ok { return }
    writeJSON(w, http.StatusOK, map[string]any{"drivers": s.Sim.Snapshot()})
}

// DriverByOrderHandler handles GET /v1/drivers/{orderId}/route and
// DELETE /v1/drivers/{orderId} (admin stop-tracking).
func (s *Server) DriverByOrderHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/drivers/")
    if rest == r.URL.Path || rest == "" {
        writeError(w, http.StatusNotFound, "not_found", "missing order id")
        return
    }
    parts := strings.Split(rest, "/")
    orderID := parts[0]

    if len(parts) > 1 && parts[1] == "route" {
        if r.Method != http.MethodGet {
            w.WriteHeader(http.StatusMethodNotAllowed)
            return
        }
        if _, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver); !ok { return }
        d, ok := s.Sim.Driver(orderID)
        if !ok {
            writeError(w, http.StatusNotFound, "not_found", "no driver tracked for that order")
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"driver": d, "route": s.Sim.Route(orderID)})
        return
    }

    switch r.Method {
    case http.MethodGet:
        if _, ok := s.requireRole(w, r, model.RoleStaff, model.RoleDriver); !ok { return }
        d, ok := s.Sim.Driver(orderID)
        if !ok {
            writeError(w, http.StatusNotFound, "not_found", "no driver tracked for that order")
            return
        }
        writeJSON(w, http.StatusOK, d)
    case http.MethodDelete:
        if _, ok := s.requireRole(w, r); !ok { return }
        s.Sim.StopTracking(orderID)
        writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// WebhooksHandler handles POST/GET /v1/webhooks (admin)
func (s *Server) WebhooksHandler(w http.ResponseWriter, r *http.Request) {
    p, ok := s.requireRole(w, r)
    if !ok { return }
    switch r.Method {
    case http.MethodPost:
        var req model.SubscriptionRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
            return
        }
        if req.URL == "" || len(req.Events) == 0 {
            writeError(w, http.StatusBadRequest, "invalid_subscription", "url and events are required")
            return
        }
        if req.FranchiseID == "" { req.FranchiseID = p.Franchise }
        req.FranchiseID = branch.ByID(req.FranchiseID).ID
        sub, err := s.Store.CreateSubscription(r.Context(), req)
        if err != nil {
            writeError(w, http.StatusInternalServerError, "create_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        items, next, err := s.Store.ListSubscriptions(r.Context(), franchiseFor(p, r),
            r.URL.Query().Get("cursor"), limitParam(r))
        if err != nil {
            writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// WebhookByIDHandler handles DELETE /v1/webhooks/{id} and
// GET /v1/webhooks/deliveries (admin).
func (s *Server) WebhookByIDHandler(w http.ResponseWriter, r *http.Request) {
    p, ok := s.requireRole(w, r)
    if !ok { return }
    rest := strings.TrimPrefix(r.URL.Path, "/v1/webhooks/")
    if rest == r.URL.Path || rest == "" {
        writeError(w, http.StatusNotFound, "not_found", "missing subscription id")
        return
    }
    if rest == "deliveries" {
        if r.Method != http.MethodGet {
            w.WriteHeader(http.StatusMethodNotAllowed)
            return
        }
        items, next, err := s.Store.ListWebhookDeliveries(r.Context(), franchiseFor(p, r),
            r.URL.Query().Get("status"), r.URL.Query().Get("cursor"), limitParam(r))
        if err != nil {
            writeError(w, http.StatusInternalServerError, "list_failed", err.Error())
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
        return
    }
    if r.Method != http.MethodDelete {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if err := s.Store.DeleteSubscription(r.Context(), franchiseFor(p, r), rest); err != nil {
        writeError(w, http.StatusNotFound, "not_found", "subscription not found")
        return
    }
    writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DashboardHandler handles GET /v1/analytics/dashboard
func (s *Server) DashboardHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if _, ok := s.requireRole(w, r, model.RoleStaff); !ok { return }
    stats, err := s.Analytics.Dashboard(r.Context())
    if err != nil {
        writeError(w, http.StatusInternalServerError, "dashboard_failed", err.Error())
        return
    }
    writeJSON(w, http.StatusOK, stats)
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /readyz; checks the store when it can ping.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    if pinger, ok := s.Store.(interface{ Ping(context.Context) error }); ok {
        if err := pinger.Ping(r.Context()); err != nil {
            writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error())
            return
        }
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// findOrder looks an order up by record id, then by order number.
func (s *Server) findOrder(ctx context.Context, id string) (model.Order, error) {
    o, err := s.Store.GetOrder(ctx, id)
    if err == nil { return o, nil }
    return s.Store.GetOrderByNumber(ctx, id)
}

// resolveCustomer finds or creates the customer an order belongs to.
// Inline customers are matched by phone before a new record is minted.
func (s *Server) resolveCustomer(ctx context.Context, franchiseID string, in *model.OrderIn) (model.Customer, error) {
    if in.CustomerID != "" {
        return s.Store.GetCustomer(ctx, in.CustomerID)
    }
    if existing, err := s.Store.FindCustomerByPhone(ctx, franchiseID, in.Customer.Phone); err == nil {
        return existing, nil
    }
    return s.Store.CreateCustomer(ctx, model.Customer{
        ID:          s.Gen.CustomerID(franchiseID),
        FranchiseID: franchiseID,
        Name:        in.Customer.Name,
        Phone:       in.Customer.Phone,
        Email:       in.Customer.Email,
        Address:     in.Customer.Address,
    })
}

// emitOrderEvent fans an order event out to webhook subscribers and
// the AMQP exchange. Broker failures are logged, never surfaced.
func (s *Server) emitOrderEvent(ctx context.Context, eventType string, order model.Order, data map[string]any) {
    s.Pub.Emit(ctx, order.FranchiseID, eventType, data)
    if err := s.Notify.Publish(ctx, eventType, data); err != nil {
        log.Printf("notify: publish %s: %v", eventType, err)
    }
}

func limitParam(r *http.Request) int {
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    if limit <= 0 || limit > 500 { limit = 100 }
    return limit
}
