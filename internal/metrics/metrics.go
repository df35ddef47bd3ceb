// Package metrics holds the Prometheus collectors shared by the API and the
// worker. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sideline"

// Metrics groups the service collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	BetsPlaced       *prometheus.CounterVec
	BetsRejected     *prometheus.CounterVec
	BetsSettled      *prometheus.CounterVec
	SettlementIssues *prometheus.CounterVec
	SettlementRun    prometheus.Histogram
	OddsIngested     *prometheus.CounterVec
	OutboxRelayed    prometheus.Counter
	WalletResets     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		BetsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bets_placed_total",
			Help: "Accepted bets by market.",
		}, []string{"market"}),
		BetsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bets_rejected_total",
			Help: "Rejected placements by error code.",
		}, []string{"code"}),
		BetsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bets_settled_total",
			Help: "Settled bets by outcome.",
		}, []string{"outcome"}),
		SettlementIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "settlement_issues_total",
			Help: "Bets that failed to settle, by failing step.",
		}, []string{"step"}),
		SettlementRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "settlement_run_seconds",
			Help:    "Duration of settlement runs.",
			Buckets: prometheus.DefBuckets,
		}),
		OddsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "odds_snapshots_ingested_total",
			Help: "Snapshot upserts from the odds feed, by result.",
		}, []string{"result"}),
		OutboxRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "outbox_relayed_total",
			Help: "Outbox events published to Kafka.",
		}),
		WalletResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "wallet_resets_total",
			Help: "Wallet resets by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BetsPlaced, m.BetsRejected, m.BetsSettled, m.SettlementIssues,
		m.SettlementRun, m.OddsIngested, m.OutboxRelayed, m.WalletResets,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) BetPlaced(market string) {
	if m == nil {
		return
	}
	m.BetsPlaced.WithLabelValues(market).Inc()
}

func (m *Metrics) BetRejected(code string) {
	if m == nil {
		return
	}
	m.BetsRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) BetSettled(outcome string) {
	if m == nil {
		return
	}
	m.BetsSettled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SettlementIssue(step string) {
	if m == nil {
		return
	}
	m.SettlementIssues.WithLabelValues(step).Inc()
}

func (m *Metrics) ObserveSettlementRun(d time.Duration) {
	if m == nil {
		return
	}
	m.SettlementRun.Observe(d.Seconds())
}

// OddsUpserted counts a snapshot write; written is false when an override blocked it.
func (m *Metrics) OddsUpserted(written bool) {
	if m == nil {
		return
	}
	result := "written"
	if !written {
		result = "overridden"
	}
	m.OddsIngested.WithLabelValues(result).Inc()
}

func (m *Metrics) Relayed(n int) {
	if m == nil {
		return
	}
	m.OutboxRelayed.Add(float64(n))
}

func (m *Metrics) WalletReset(result string) {
	if m == nil {
		return
	}
	m.WalletResets.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, fmt.Sprintf("%d", status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

// StartServer serves /metrics and /healthz on addr in a background goroutine.
// The worker uses it since it has no API router of its own.
func (m *Metrics) StartServer(addr string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()
	return srv
}
