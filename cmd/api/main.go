package main

import (
    "log"
    "net/http"
    "time"

    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "fzclean/internal/api"
    "fzclean/internal/config"
    "fzclean/internal/metrics"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Printf("No .env file found")
    }
    cfg := config.Load()
    metrics.RegisterDefault()

    srvDeps, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }

    mux := http.NewServeMux()

    // Orders and public tracking
    mux.HandleFunc("/v1/orders", srvDeps.OrdersHandler)
    mux.HandleFunc("/v1/orders/", srvDeps.OrderByIDHandler) // includes /status
    mux.HandleFunc("/v1/track/", srvDeps.TrackHandler)

    // Transits
    mux.HandleFunc("/v1/transits", srvDeps.TransitsHandler)
    mux.HandleFunc("/v1/transits/", srvDeps.TransitByIDHandler) // includes /status, parse/

    // Branches
    mux.HandleFunc("/v1/branches", srvDeps.BranchesHandler)
    mux.HandleFunc("/v1/branches/", srvDeps.BranchesHandler)

    // Customers
    mux.HandleFunc("/v1/customers", srvDeps.CustomersHandler)
    mux.HandleFunc("/v1/customers/", srvDeps.CustomerByIDHandler)

    // Auth and employees
    mux.HandleFunc("/v1/login", srvDeps.LoginHandler)
    mux.HandleFunc("/v1/employees", srvDeps.EmployeesHandler)

    // Drivers
    mux.HandleFunc("/v1/drivers", srvDeps.DriversHandler)
    mux.HandleFunc("/v1/drivers/", srvDeps.DriverByOrderHandler) // includes /route

    // Webhook subscriptions
    mux.HandleFunc("/v1/webhooks", srvDeps.WebhooksHandler)
    mux.HandleFunc("/v1/webhooks/", srvDeps.WebhookByIDHandler) // includes deliveries

    // Analytics
    mux.HandleFunc("/v1/analytics/dashboard", srvDeps.DashboardHandler)

    // Realtime
    mux.HandleFunc("/ws", srvDeps.WSHandler)

    // Health and introspection
    mux.HandleFunc("/healthz", srvDeps.HealthHandler)
    mux.HandleFunc("/readyz", srvDeps.ReadyHandler)
    mux.HandleFunc("/debug/info", srvDeps.DebugJSON)
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    srv := &http.Server{
        Addr:              cfg.Addr(),
        Handler:           api.WithCORS(cfg.AllowOrigins, api.WithRateLimit(cfg, api.WithMetrics(api.WithLogging(mux)))),
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("API listening on %s", cfg.Addr())
    // Background loops: webhook deliveries, driver simulation, analytics
    srvDeps.NewWebhookWorker().Start()
    srvDeps.Sim.Start()
    srvDeps.Analytics.Start()

    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}
