package dispatch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/swiftdrop/dispatch/core/clock"
	"github.com/swiftdrop/dispatch/core/delivery"
	"github.com/swiftdrop/dispatch/core/events"
	"github.com/swiftdrop/dispatch/core/logger"
	"github.com/swiftdrop/dispatch/core/metrics"
	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/core/mqtt"
	"github.com/swiftdrop/dispatch/core/registry"
	"github.com/swiftdrop/dispatch/internal/eventbus"
)

// Manager orchestrates a matching pass: rank candidates, acquire the driver
// in the registry, offer the delivery over the broker and bind the
// acknowledged driver in the state machine. Broker, bus and sink are
// optional; without a broker client the offer step is skipped and the top
// candidate is bound directly.
type Manager struct {
	registry   registry.Registry
	deliveries *delivery.Service
	matcher    Matcher
	batch      *BatchMatcher
	cfg        Config
	clk        clock.Clock
	log        logger.Logger

	client mqtt.Client
	bus    eventbus.EventBus
	sink   metrics.MetricsSink
}

// NewManager creates a dispatch manager.
func NewManager(reg registry.Registry, svc *delivery.Service, cfg Config, clk clock.Clock, log logger.Logger) (*Manager, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if reg == nil || svc == nil || clk == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewManager")
	}
	return &Manager{
		registry:   reg,
		deliveries: svc,
		batch:      NewBatchMatcher(log),
		cfg:        cfg,
		clk:        clk,
		log:        log,
	}, nil
}

// SetClient wires the broker client used for assignment offers.
func (m *Manager) SetClient(c mqtt.Client) { m.client = c }

// SetEventBus configures the bus match and offer events are published on.
func (m *Manager) SetEventBus(bus eventbus.EventBus) { m.bus = bus }

// SetMetricsSink configures the sink match results are forwarded to.
func (m *Manager) SetMetricsSink(sink metrics.MetricsSink) { m.sink = sink }

func (m *Manager) publish(ev any) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}

func (m *Manager) recordResult(res metrics.MatchResult) {
	if m.sink == nil {
		return
	}
	if err := m.sink.RecordMatchResult([]metrics.MatchResult{res}); err != nil {
		m.log.Errorf("match metrics error: %v", err)
	}
}

// offer sends the assignment to the driver and waits for the acknowledgment.
// Returns true when the driver accepted.
func (m *Manager) offer(d model.Delivery, drv model.Driver) bool {
	a := mqtt.Assignment{
		DeliveryID: d.ID,
		DriverID:   drv.ID,
		PickupLat:  d.Pickup.Lat,
		PickupLon:  d.Pickup.Lon,
		DropoffLat: d.Dropoff.Lat,
		DropoffLon: d.Dropoff.Lon,
		Type:       d.Type.String(),
		Timestamp:  m.clk.Now(),
	}
	commandID, err := m.client.SendAssignment(drv.ID, a)
	if err != nil {
		offersTotal.WithLabelValues("error").Inc()
		m.log.Errorf("offer to driver %s failed: %v", drv.ID, err)
		return false
	}
	start := time.Now()
	ack, err := m.client.WaitForAck(commandID, time.Duration(m.cfg.AckTimeoutSeconds)*time.Second)
	latency := time.Since(start)

	m.publish(events.OfferAckEvent{
		DeliveryID:   d.ID,
		DriverID:     drv.ID,
		Acknowledged: ack,
		Err:          err,
		Latency:      latency,
	})
	if lr, ok := m.sink.(metrics.LatencyRecorder); ok {
		lerr := lr.RecordOfferLatency([]metrics.OfferLatency{{
			DeliveryID:   d.ID,
			DriverID:     drv.ID,
			Acknowledged: ack,
			Latency:      latency,
		}})
		if lerr != nil {
			m.log.Errorf("latency metrics error: %v", lerr)
		}
	}
	if err != nil || !ack {
		offersTotal.WithLabelValues("nacked").Inc()
		m.log.Infof("driver %s declined delivery %s: ack=%v err=%v", drv.ID, d.ID, ack, err)
		return false
	}
	offersTotal.WithLabelValues("acked").Inc()
	return true
}

// MatchDelivery finds and binds a driver for a single PENDING delivery.
func (m *Manager) MatchDelivery(d model.Delivery) (model.Driver, error) {
	now := m.clk.Now()
	cands := m.matcher.Candidates(d, m.registry.Snapshot(), now)
	if len(cands) == 0 {
		matchOutcomes.WithLabelValues("no_candidate").Inc()
		m.publish(events.MatchEvent{DeliveryID: d.ID, Outcome: "no_candidate", Time: now})
		m.recordResult(metrics.MatchResult{
			DeliveryID:   d.ID,
			DeliveryType: d.Type,
			MatchTime:    now,
		})
		return model.Driver{}, ErrNoCandidates
	}
	if m.cfg.MaxOfferAttempts > 0 && len(cands) > m.cfg.MaxOfferAttempts {
		cands = cands[:m.cfg.MaxOfferAttempts]
	}

	for _, cand := range cands {
		if !m.registry.Acquire(cand.Driver.ID, d.ID) {
			continue
		}
		if m.client != nil && !m.offer(d, cand.Driver) {
			m.registry.Release(cand.Driver.ID)
			continue
		}
		if err := m.deliveries.Assign(d.ID, cand.Driver.ID, model.ActorDispatcher); err != nil {
			m.registry.Release(cand.Driver.ID)
			return model.Driver{}, err
		}
		matchOutcomes.WithLabelValues("bound").Inc()
		m.publish(events.MatchEvent{
			DeliveryID: d.ID,
			DriverID:   cand.Driver.ID,
			Outcome:    "bound",
			Candidates: len(cands),
			DistanceKm: cand.DistanceKm,
			Time:       now,
		})
		m.recordResult(metrics.MatchResult{
			DeliveryID:   d.ID,
			DriverID:     cand.Driver.ID,
			DeliveryType: d.Type,
			DistanceKm:   cand.DistanceKm,
			Candidates:   len(cands),
			Acknowledged: true,
			MatchTime:    now,
		})
		return cand.Driver, nil
	}

	matchOutcomes.WithLabelValues("exhausted").Inc()
	m.publish(events.MatchEvent{DeliveryID: d.ID, Outcome: "exhausted", Candidates: len(cands), Time: now})
	m.recordResult(metrics.MatchResult{
		DeliveryID:   d.ID,
		DeliveryType: d.Type,
		Candidates:   len(cands),
		MatchTime:    now,
	})
	return model.Driver{}, ErrOffersExhausted
}

// MatchPending runs one matching pass over the pending queue, oldest
// deliveries first. The batch planner proposes the distance-optimal order of
// pairings; the offer and bind flow still runs per delivery so a declined
// offer only costs that delivery its turn.
func (m *Manager) MatchPending() int {
	pending := model.DeliveryPending
	queue := m.deliveries.List(delivery.StoreFilter{Status: &pending})
	if len(queue) == 0 {
		return 0
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].CreatedAt.Before(queue[j].CreatedAt)
	})

	roster := m.registry.Snapshot()
	if fs, ok := m.sink.(metrics.FleetSizeRecorder); ok {
		if err := fs.RecordFleetSize(len(roster)); err != nil {
			m.log.Errorf("fleet size metrics error: %v", err)
		}
	}
	fleetSize.Set(float64(len(roster)))

	plan := m.batch.Plan(queue, roster, m.clk.Now())
	planned := make(map[string]bool, len(plan))
	for _, p := range plan {
		planned[p.DeliveryID] = true
	}

	bound := 0
	// Planned deliveries first, then the rest in queue order as stragglers.
	for _, round := range []bool{true, false} {
		for _, d := range queue {
			if planned[d.ID] != round {
				continue
			}
			if _, err := m.MatchDelivery(d); err != nil {
				m.log.Debugf("delivery %s not matched: %v", d.ID, err)
				continue
			}
			bound++
		}
	}
	return bound
}

// ScanReassignments pulls stalled assignments back into the pool and matches
// them again immediately.
func (m *Manager) ScanReassignments() int {
	now := m.clk.Now()
	reassigned := 0
	for _, d := range m.deliveries.ReassignmentCandidates(now) {
		if err := m.deliveries.Unassign(d.ID, model.ActorSystem); err != nil {
			m.log.Warnf("unassign %s: %v", d.ID, err)
			continue
		}
		fresh, err := m.deliveries.Get(d.ID)
		if err != nil {
			continue
		}
		m.log.Infof("delivery %s pulled back from driver %s after %s", d.ID, d.DriverID, now.Sub(d.DriverAssignedTime))
		if _, err := m.MatchDelivery(fresh); err != nil {
			m.log.Debugf("delivery %s not rematched: %v", d.ID, err)
			continue
		}
		reassigned++
	}
	return reassigned
}

// Run drives the matching loop until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := time.Duration(m.cfg.RematchIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.log.Infof("dispatch loop started, interval %s", interval)
	for {
		select {
		case <-ctx.Done():
			m.log.Infof("dispatch loop stopped")
			return
		case <-ticker.C:
			m.MatchPending()
			m.ScanReassignments()
		}
	}
}
