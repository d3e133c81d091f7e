package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorsOnDefaultRegistry(t *testing.T) {
	matchOutcomes.WithLabelValues("matched").Inc()
	offersTotal.WithLabelValues("accepted").Inc()
	fleetSize.Set(3)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := make(map[string]bool, len(families))
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"dispatch_match_outcomes_total",
		"dispatch_offers_total",
		"dispatch_fleet_size",
	} {
		if !found[name] {
			t.Fatalf("%s not gathered from the default registry", name)
		}
	}
}
