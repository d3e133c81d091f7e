package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
)

var transitionsTotal *prometheus.CounterVec

// newCollectors creates new metric collectors.
func newCollectors() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_transitions_total",
			Help: "Number of delivery state transitions",
		},
		[]string{"from", "to"},
	)
}

func init() {
	transitionsTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers delivery metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(transitionsTotal)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	transitionsTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
