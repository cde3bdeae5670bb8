package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the domain counters. A nil *Metrics is valid and records
// nothing, so packages can take one unconditionally.
type Metrics struct {
	selections   *prometheus.CounterVec
	generations  *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	completions  *prometheus.CounterVec
	badges       *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spark_challenge_selections_total",
				Help: "Challenges offered, by where they came from",
			},
			[]string{"source"},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spark_generation_attempts_total",
				Help: "External generation attempts, by outcome",
			},
			[]string{"outcome"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spark_generation_cache_lookups_total",
				Help: "Generation cache lookups, by result",
			},
			[]string{"result"},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spark_completions_total",
				Help: "Challenge completion requests, by result",
			},
			[]string{"result"},
		),
		badges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spark_badges_awarded_total",
				Help: "Badges awarded, by badge name",
			},
			[]string{"badge"},
		),
	}
	reg.MustRegister(m.selections, m.generations, m.cacheLookups, m.completions, m.badges)
	return m
}

func (m *Metrics) Selection(source string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(source).Inc()
}

func (m *Metrics) Generation(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Completion(duplicate bool) {
	if m == nil {
		return
	}
	result := "recorded"
	if duplicate {
		result = "duplicate"
	}
	m.completions.WithLabelValues(result).Inc()
}

func (m *Metrics) BadgeAwarded(name string) {
	if m == nil {
		return
	}
	m.badges.WithLabelValues(name).Inc()
}
