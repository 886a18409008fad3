package api

import (
    "context"
    "log"
    "os"
    "strings"
    "time"

    "fzclean/internal/analytics"
    "fzclean/internal/auth"
    "fzclean/internal/config"
    "fzclean/internal/idgen"
    "fzclean/internal/notify"
    "fzclean/internal/realtime"
    "fzclean/internal/store"
    "fzclean/internal/track"
    "fzclean/internal/webhooks"
)

type Server struct {
    Store     store.Store
    Hub       *realtime.Hub
    Gen       *idgen.Generator
    Sim       *track.Simulator
    Analytics *analytics.Broadcaster
    Pub       *webhooks.Publisher
    Notify    notify.Publisher
    Auth      *auth.Verifier
    Cfg       config.Config

    storeKind string
    started   time.Time
}

// NewServer wires the service: in-memory store with seeded fixtures by
// default, Postgres when DATABASE_URL is set. Redis and AMQP attach
// when configured; either failing only logs, the server still comes up.
func NewServer(cfg config.Config) (*Server, error) {
    var (
        st       store.Store
        counters idgen.CounterStore
        kind     string
    )
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        mem := store.NewMemory()
        if os.Getenv("SEED_DEMO") != "false" { mem.Seed(context.Background()) }
        st, counters, kind = mem, mem, "memory"
        if cfg.SQLitePath != "" {
            sc, err := store.NewSQLiteCounters(cfg.SQLitePath)
            if err != nil {
                log.Printf("sqlite counters unavailable, falling back to memory: %v", err)
            } else {
                counters = sc
            }
        }
    } else {
        pg, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil { return nil, err }
        if os.Getenv("DB_MIGRATE") != "false" {
            if err := pg.InitSchema(context.Background()); err != nil { return nil, err }
        }
        st, counters, kind = pg, pg, "postgres"
    }

    hub := realtime.NewHub()
    if cfg.RedisURL != "" {
        if bridge, err := realtime.NewRedisBridge(cfg.RedisURL, hub); err != nil {
            log.Printf("redis bridge unavailable, broadcasts stay local: %v", err)
        } else {
            hub.SetBridge(bridge)
        }
    }

    var pub notify.Publisher = notify.Noop{}
    if cfg.AMQPURL != "" {
        if p, err := notify.NewAMQP(cfg.AMQPURL); err != nil {
            log.Printf("amqp unavailable, order events disabled: %v", err)
        } else {
            pub = p
        }
    }

    whPub := webhooks.NewPublisher(st)
    sim := track.NewSimulator(st, hub, whPub, cfg.SimTick())
    return &Server{
        Store:     st,
        Hub:       hub,
        Gen:       idgen.New(counters),
        Sim:       sim,
        Analytics: analytics.NewBroadcaster(st, hub, sim, cfg.AnalyticsTick()),
        Pub:       whPub,
        Notify:    pub,
        Auth:      auth.NewVerifier(cfg.AuthMode, cfg.AuthSecret),
        Cfg:       cfg,
        storeKind: kind,
        started:   time.Now(),
    }, nil
}

// NewWebhookWorker creates the background delivery worker.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    w := webhooks.NewWorker(s.Store)
    if s.Cfg.WebhookMaxAttempts > 0 { w.MaxAttempts = s.Cfg.WebhookMaxAttempts }
    return w
}
