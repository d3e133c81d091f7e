package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/swiftdrop/dispatch/core/metrics"
)

// PromSink records matching, lifecycle and tracking events in Prometheus
// metrics.
type PromSink struct {
	matches     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	progress    *prometheus.GaugeVec
	fleet       prometheus.Gauge
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	matches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "match_events_total",
		Help: "Total number of matching outcomes",
	}, []string{"delivery_type", "matched"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_state_changes_total",
		Help: "Total number of delivery state changes",
	}, []string{"from", "to", "actor"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "offer_ack_latency_seconds",
		Help:    "Time between assignment offer and driver acknowledgment",
		Buckets: prometheus.DefBuckets,
	}, []string{"acknowledged"})
	progress := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "delivery_progress_pct",
		Help: "Customer-facing progress per active delivery",
	}, []string{"delivery_id"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_drivers_total",
		Help: "Number of drivers known to the registry",
	})

	if err := reg.Register(matches); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			matches = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(progress); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			progress = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fleet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fleet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{matches: matches, transitions: transitions, latency: latency, progress: progress, fleet: fleet}, nil
}

// RecordMatchResult increments the counter for each matching outcome.
func (s *PromSink) RecordMatchResult(res []coremetrics.MatchResult) error {
	for _, r := range res {
		matched := strconv.FormatBool(r.DriverID != "")
		s.matches.WithLabelValues(r.DeliveryType.String(), matched).Inc()
	}
	return nil
}

// RecordStateTransition counts one delivery state change.
func (s *PromSink) RecordStateTransition(ev coremetrics.StateTransitionEvent) error {
	s.transitions.WithLabelValues(ev.From.String(), ev.To.String(), string(ev.Actor)).Inc()
	return nil
}

// RecordOfferLatency records the acknowledgment latency histogram.
func (s *PromSink) RecordOfferLatency(recs []coremetrics.OfferLatency) error {
	for _, r := range recs {
		s.latency.WithLabelValues(strconv.FormatBool(r.Acknowledged)).Observe(r.Latency.Seconds())
	}
	return nil
}

// RecordTrackingSnapshot updates the progress gauge for the delivery.
func (s *PromSink) RecordTrackingSnapshot(ev coremetrics.TrackingSnapshotEvent) error {
	s.progress.WithLabelValues(ev.DeliveryID).Set(float64(ev.ProgressPct))
	return nil
}

// RecordFleetSize sets the gauge to the current roster size.
func (s *PromSink) RecordFleetSize(size int) error {
	if s.fleet != nil {
		s.fleet.Set(float64(size))
	}
	return nil
}
