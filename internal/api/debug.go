package api

import (
    "net/http"
    "os"
    "runtime"
    "time"

    "fzclean/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build":  buildinfo.Info(),
        "time":   time.Now().UTC().Format(time.RFC3339),
        "uptime": time.Since(s.started).Round(time.Second).String(),
        "runtime": map[string]any{
            "goroutines": runtime.NumGoroutine(),
            "gomaxprocs": runtime.GOMAXPROCS(0),
        },
        "store":     s.storeKind,
        "wsClients": s.Hub.ClientCount(),
        "drivers":   s.Sim.TrackedCount(),
        "config": map[string]any{
            "PORT":          s.Cfg.Port,
            "AUTH_MODE":     s.Cfg.AuthMode,
            "ALLOW_ORIGINS": s.Cfg.AllowOrigins,
            "RATE_RPS":      s.Cfg.RateRPS,
            "RATE_BURST":    s.Cfg.RateBurst,
            "WEBHOOK_MAX_ATTEMPTS": s.Cfg.WebhookMaxAttempts,
            "SIM_TICK_MS":          s.Cfg.SimTickMS,
            "HAS_DATABASE_URL":     os.Getenv("DATABASE_URL") != "",
            "HAS_REDIS_URL":        os.Getenv("REDIS_URL") != "",
            "HAS_AMQP_URL":         os.Getenv("AMQP_URL") != "",
        },
    }
    writeJSON(w, http.StatusOK, info)
}
