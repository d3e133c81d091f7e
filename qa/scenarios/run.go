package scenarios

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/swiftdrop/dispatch/core/clock"
	"github.com/swiftdrop/dispatch/core/delivery"
	"github.com/swiftdrop/dispatch/core/dispatch"
	coremetrics "github.com/swiftdrop/dispatch/core/metrics"
	"github.com/swiftdrop/dispatch/core/registry"
	"github.com/swiftdrop/dispatch/infra/logger"
	inframetrics "github.com/swiftdrop/dispatch/infra/metrics"
	"github.com/swiftdrop/dispatch/infra/mqtt"
	"github.com/swiftdrop/dispatch/internal/eventbus"
)

// RunScenario drives the dispatch manager through the scenario and verifies
// the expected bindings.
func RunScenario(t *testing.T, sc *Scenario) {
	preg := prometheus.NewRegistry()
	sink, err := inframetrics.NewPromSinkWithRegistry(coremetrics.Config{}, preg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	reg := registry.NewMemoryRegistry()
	for _, d := range sc.Drivers {
		reg.Put(d.ToModel())
	}

	clk := clock.System{}
	svc, err := delivery.NewService(delivery.NewMemoryStore(), reg, clk, logger.NopLogger{}, 0)
	if err != nil {
		t.Fatalf("delivery service: %v", err)
	}

	cfg := dispatch.Config{}
	cfg.SetDefaults()
	mgr, err := dispatch.NewManager(reg, svc, cfg, clk, logger.NopLogger{})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	cli := mqtt.NewMockClient()
	for _, id := range sc.Decline {
		cli.AckResults["cmd-"+id] = false
	}
	for _, id := range sc.FailDrivers {
		cli.FailIDs[id] = true
	}
	mgr.SetClient(cli)
	mgr.SetEventBus(eventbus.New())
	mgr.SetMetricsSink(sink)

	for _, dd := range sc.Deliveries {
		if _, err := svc.Create(dd.ToModel()); err != nil {
			t.Fatalf("create delivery %s: %v", dd.ID, err)
		}
	}

	bound := mgr.MatchPending()
	if bound != sc.Expected.Bound {
		t.Errorf("scenario %s expected %d bound, got %d", sc.Name, sc.Expected.Bound, bound)
	}
	for deliveryID, driverID := range sc.Expected.Assignments {
		d, err := svc.Get(deliveryID)
		if err != nil {
			t.Errorf("scenario %s: get %s: %v", sc.Name, deliveryID, err)
			continue
		}
		if d.DriverID != driverID {
			t.Errorf("scenario %s: delivery %s bound to %q, want %q", sc.Name, deliveryID, d.DriverID, driverID)
		}
	}
}
