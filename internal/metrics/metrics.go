package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // IDsGenerated counts minted identifiers by kind and generation mode
    IDsGenerated = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "ids_generated_total", Help: "Identifiers generated by kind and mode."},
        []string{"kind", "mode"},
    )
    // SequenceFallbacks counts order numbers minted through the degraded timestamp path
    SequenceFallbacks = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "sequence_fallbacks_total", Help: "Order number generations that fell back to timestamps."},
    )

    // WSClients tracks currently connected websocket clients
    WSClients = prometheus.NewGauge(
        prometheus.GaugeOpts{Name: "ws_clients", Help: "Connected websocket clients."},
    )
    // Broadcasts counts hub broadcasts by topic
    Broadcasts = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "broadcasts_total", Help: "Hub broadcasts by topic."},
        []string{"topic"},
    )
    // SimDrivers tracks how many simulated drivers are active
    SimDrivers = prometheus.NewGauge(
        prometheus.GaugeOpts{Name: "sim_drivers", Help: "Active simulated drivers."},
    )

    // WebhookDeliveries counts webhook delivery outcomes by event type and status
    WebhookDeliveries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
        []string{"event_type", "status"},
    )
    // WebhookLatency tracks webhook delivery latencies in milliseconds
    WebhookLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "webhook_delivery_latency_ms", Help: "Webhook delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
        []string{"event_type", "status"},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(IDsGenerated)
        Registry.MustRegister(SequenceFallbacks)
        Registry.MustRegister(WSClients)
        Registry.MustRegister(Broadcasts)
        Registry.MustRegister(SimDrivers)
        Registry.MustRegister(WebhookDeliveries)
        Registry.MustRegister(WebhookLatency)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
