package dispatch

import "github.com/prometheus/client_golang/prometheus"

var (
	matchOutcomes *prometheus.CounterVec
	offersTotal   *prometheus.CounterVec
	fleetSize     prometheus.Gauge
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge) {
	mo := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_match_outcomes_total",
		Help: "Matching attempts per outcome.",
	}, []string{"outcome"})
	ot := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_offers_total",
		Help: "Assignment offers per result.",
	}, []string{"result"})
	fs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_fleet_size",
		Help: "Drivers currently known to the registry.",
	})
	return mo, ot, fs
}

func init() {
	matchOutcomes, offersTotal, fleetSize = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers the dispatch collectors on the given
// registerer. If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(matchOutcomes, offersTotal, fleetSize)
}

// ResetMetrics recreates the collectors. Intended for tests.
func ResetMetrics(reg prometheus.Registerer) {
	matchOutcomes, offersTotal, fleetSize = newCollectors()
	if reg != nil {
		reg.MustRegister(matchOutcomes, offersTotal, fleetSize)
	}
}
