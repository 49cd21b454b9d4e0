package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/rota/core/metrics"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	runs          prometheus.Counter
	sessions      prometheus.Counter
	roles         *prometheus.CounterVec
	cursor        prometheus.Gauge
	roster        prometheus.Gauge
	duration      prometheus.Histogram
	reassignments *prometheus.CounterVec
}

// NewPromSink registers the schedule metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rota_generation_runs_total",
		Help: "Number of scheduling runs that stored at least one session",
	})); err != nil {
		return nil, err
	}
	if s.sessions, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rota_sessions_generated_total",
		Help: "Number of sessions generated",
	})); err != nil {
		return nil, err
	}
	if s.roles, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_role_slots_total",
		Help: "Role slots by outcome: preferred, forced, table_topic or omitted",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.cursor, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rota_rotation_cursor",
		Help: "Ring position where the next session group begins",
	})); err != nil {
		return nil, err
	}
	if s.roster, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rota_roster_size",
		Help: "Participants in the rotation at the last run",
	})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rota_generation_duration_seconds",
		Help:    "Time spent generating and storing a schedule",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.reassignments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_reassignments_total",
		Help: "Manual reassignments by role",
	}, []string{"role"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordGeneration updates counters, gauges and the duration histogram.
func (s *PromSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	s.runs.Inc()
	s.sessions.Add(float64(ev.Days))
	s.roles.WithLabelValues("preferred").Add(float64(ev.Preferred))
	s.roles.WithLabelValues("forced").Add(float64(ev.Forced))
	s.roles.WithLabelValues("table_topic").Add(float64(ev.TableTopic))
	s.roles.WithLabelValues("omitted").Add(float64(ev.Omitted))
	s.cursor.Set(float64(ev.Cursor))
	s.roster.Set(float64(ev.RosterSize))
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}

// RecordReassignment counts a manual reassignment.
func (s *PromSink) RecordReassignment(ev coremetrics.ReassignmentEvent) error {
	s.reassignments.WithLabelValues(ev.Role).Inc()
	return nil
}
