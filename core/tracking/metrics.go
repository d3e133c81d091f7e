package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	reportsApplied prometheus.Counter
	reportsDropped *prometheus.CounterVec
	milestonesHit  *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, *prometheus.CounterVec, *prometheus.CounterVec) {
	applied := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_reports_applied_total",
			Help: "Number of telemetry reports applied to tracking records",
		},
	)
	dropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_reports_dropped_total",
			Help: "Number of telemetry reports discarded before application",
		},
		[]string{"reason"},
	)
	miles := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_milestones_total",
			Help: "Number of geofence milestone crossings detected",
		},
		[]string{"milestone"},
	)
	return applied, dropped, miles
}

func init() {
	reportsApplied, reportsDropped, milestonesHit = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers tracking metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(reportsApplied, reportsDropped, milestonesHit)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	reportsApplied, reportsDropped, milestonesHit = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
