package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the sales agent.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	turnDuration     *prometheus.HistogramVec
	turnsTotal       *prometheus.CounterVec
	stageTransitions *prometheus.CounterVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_turn_duration_seconds",
				Help:    "Duration of conversation turns by matched rule.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"rule"},
		),
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_turns_total",
				Help: "Total conversation turns by matched rule.",
			},
			[]string{"rule"},
		),
		stageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_stage_transitions_total",
				Help: "Total funnel stage transitions.",
			},
			[]string{"from", "to"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_external_errors_total",
				Help: "Total errors from collaborator services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordTurnDuration records how long a turn took for the given rule.
func (m *Metrics) RecordTurnDuration(rule string, d time.Duration) {
	m.turnDuration.WithLabelValues(rule).Observe(d.Seconds())
}

// IncrTurn counts a handled turn by the rule that matched.
func (m *Metrics) IncrTurn(rule string) {
	m.turnsTotal.WithLabelValues(rule).Inc()
}

// IncrStageTransition counts a funnel stage change.
func (m *Metrics) IncrStageTransition(from, to string) {
	m.stageTransitions.WithLabelValues(from, to).Inc()
}

// IncrExternalError increments the collaborator error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// FunnelSnapshot is the payload of GET /v1/metrics/funnel: a coarse view of
// how conversations move through the purchase funnel.
type FunnelSnapshot struct {
	TotalTurns     float64            `json:"total_turns"`
	TurnsByRule    map[string]float64 `json:"turns_by_rule"`
	ExternalErrors float64            `json:"external_errors"`
	ErrorRate      float64            `json:"error_rate"`
	CacheHitRate   float64            `json:"cache_hit_rate"`
	Period         string             `json:"period"`
}

// GetFunnelSnapshot reads the current counter values back from Prometheus.
func (m *Metrics) GetFunnelSnapshot() *FunnelSnapshot {
	byRule := map[string]float64{}
	total := 0.0
	for _, rule := range []string{
		"post_purchase", "selection", "availability_clarify", "stock_check",
		"reserve", "loyalty", "payment", "discovery", "fallback",
	} {
		v := getCounterValue(m.turnsTotal, rule)
		if v > 0 {
			byRule[rule] = v
		}
		total += v
	}

	errs := 0.0
	for _, svc := range []string{"catalog", "inventory", "orders", "payments", "loyalty", "post_purchase", "session_store", "phraser"} {
		errs += getCounterValue(m.externalErrors, svc)
	}

	hits := getCounterValue(m.cacheHits, "product")
	misses := getCounterValue(m.cacheMisses, "product")

	snap := &FunnelSnapshot{
		TotalTurns:     total,
		TurnsByRule:    byRule,
		ExternalErrors: errs,
		Period:         "all_time",
	}
	if total > 0 {
		snap.ErrorRate = errs / total
	}
	if hits+misses > 0 {
		snap.CacheHitRate = hits / (hits + misses)
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
