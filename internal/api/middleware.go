package api

import (
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "golang.org/x/time/rate"

    "fzclean/internal/config"
    "fzclean/internal/metrics"
)

// statusWriter captures the response code for logging and metrics.
type statusWriter struct {
    http.ResponseWriter
    status int
}

func (sw *statusWriter) WriteHeader(code int) {
    sw.status = code
    sw.ResponseWriter.WriteHeader(code)
}

// WithLogging logs remote addr, method, path, status and duration.
func WithLogging(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(sw, r)
        dur := time.Since(start)
        log.Printf("%s %s %s %d %v", r.RemoteAddr, r.Method, r.URL.Path, sw.status, dur)
    })
}

// WithMetrics records request counts and durations per route.
func WithMetrics(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(sw, r)
        route := routeLabel(r.URL.Path)
        status := strconv.Itoa(sw.status)
        metrics.HTTPRequests.WithLabelValues(r.Method, route, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
    })
}

// routeLabel collapses id path segments so the metric cardinality stays
// bounded: /v1/orders/FZC-2026POL0001A/status -> /v1/orders/:id/status.
func routeLabel(path string) string {
    parts := strings.Split(path, "/")
    if len(parts) < 4 || parts[1] != "v1" {
        return path
    }
    for i := 3; i < len(parts); i++ {
        switch parts[i] {
        case "status", "route", "parse", "deliveries", "dashboard", "":
            continue
        }
        parts[i] = ":id"
    }
    return strings.Join(parts, "/")
}

// WithCORS answers preflights and stamps permissive headers on every
// response. Origins come from ALLOW_ORIGINS, default "*".
func WithCORS(origins string, next http.Handler) http.Handler {
    if origins == "" {
        origins = "*"
    }
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Access-Control-Allow-Origin", origins)
        w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
        w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Franchise-Id, X-Role, X-Driver-Id")
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// WithRateLimit applies a global token-bucket limiter. RATE_RPS <= 0
// disables it.
func WithRateLimit(cfg config.Config, next http.Handler) http.Handler {
    if cfg.RateRPS <= 0 {
        return next
    }
    limiter := rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst)
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !limiter.Allow() {
            writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
            return
        }
        next.ServeHTTP(w, r)
    })
}
