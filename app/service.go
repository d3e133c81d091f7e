package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/swiftdrop/dispatch/api/deliveries"
	"github.com/swiftdrop/dispatch/api/drivers"
	"github.com/swiftdrop/dispatch/config"
	"github.com/swiftdrop/dispatch/core/clock"
	"github.com/swiftdrop/dispatch/core/delivery"
	"github.com/swiftdrop/dispatch/core/dispatch"
	"github.com/swiftdrop/dispatch/core/events"
	coremetrics "github.com/swiftdrop/dispatch/core/metrics"
	"github.com/swiftdrop/dispatch/core/registry"
	"github.com/swiftdrop/dispatch/core/tracking"
	"github.com/swiftdrop/dispatch/infra/eventlog"
	"github.com/swiftdrop/dispatch/infra/logger"
	"github.com/swiftdrop/dispatch/infra/metrics"
	"github.com/swiftdrop/dispatch/infra/mqtt"
	"github.com/swiftdrop/dispatch/infra/telemetry"
	"github.com/swiftdrop/dispatch/internal/eventbus"
	"github.com/swiftdrop/dispatch/jobs/driverstats"
)

// Service wires the dispatch manager, delivery state machine and tracking
// engine together with their transports and sinks.
type Service struct {
	Registry   *registry.MemoryRegistry
	Deliveries *delivery.Service
	Tracker    *tracking.Engine
	Manager    *dispatch.Manager

	client      *mqtt.PahoClient
	ingestor    *telemetry.Ingestor
	bus         *eventbus.Bus
	audit       eventlog.LogStore
	log         logger.Logger
	promEnabled bool
	promPort    string
	api         config.APIConfig
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	client, err := mqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	clk := clock.System{}
	reg := registry.NewMemoryRegistry()
	store := delivery.NewMemoryStore()

	reassign := time.Duration(cfg.Dispatch.ReassignAfterSeconds) * time.Second
	deliveries, err := delivery.NewService(store, reg, clk, logger.New("delivery"), reassign)
	if err != nil {
		return nil, fmt.Errorf("delivery service: %w", err)
	}
	deliveries.SetEventBus(bus)
	if sink != nil {
		deliveries.SetMetricsSink(sink)
	}

	tracker, err := tracking.NewEngine(cfg.Tracking, clk, logger.New("tracking"))
	if err != nil {
		return nil, fmt.Errorf("tracking engine: %w", err)
	}
	tracker.SetStateRequester(deliveries)
	tracker.SetDriverLocator(reg)
	tracker.SetEventBus(bus)
	if sink != nil {
		tracker.SetMetricsSink(sink)
	}
	deliveries.SetTracker(tracker)

	manager, err := dispatch.NewManager(reg, deliveries, cfg.Dispatch, clk, logger.New("dispatch"))
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}
	manager.SetClient(client)
	manager.SetEventBus(bus)
	if sink != nil {
		manager.SetMetricsSink(sink)
	}

	ingestor, err := telemetry.NewIngestor(cfg.MQTT, cfg.Telemetry, tracker)
	if err != nil {
		return nil, fmt.Errorf("telemetry ingestor: %w", err)
	}

	svc := &Service{
		Registry:    reg,
		Deliveries:  deliveries,
		Tracker:     tracker,
		Manager:     manager,
		client:      client,
		ingestor:    ingestor,
		bus:         bus,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
		api:         cfg.API,
	}
	if cfg.Logging.Enabled {
		svc.audit, err = newAuditStore(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
		// The registry is in-memory, so replay terminal transitions from
		// previous runs to restore the per-driver counters.
		if recs, err := svc.audit.Query(context.Background(), eventlog.LogQuery{}); err == nil {
			if n := driverstats.Backfill(reg, recs); n > 0 {
				logg.Infof("backfilled driver stats from %d audit records", n)
			}
		} else {
			logg.Warnf("audit replay: %v", err)
		}
	}
	return svc, nil
}

func newAuditStore(cfg config.LoggingConfig) (eventlog.LogStore, error) {
	if cfg.MaxSizeMB > 0 {
		return eventlog.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	return eventlog.NewJSONLStore(cfg.Path)
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Manager.Run(ctx)
	go s.ingestor.Start(ctx)
	go s.consumeEvents(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.api.Enabled {
		go func() {
			if err := s.startAPIServer(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// startAPIServer serves the operational read endpoints until the context is
// canceled.
func (s *Service) startAPIServer(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/drivers", drivers.NewRosterHandler(s.Registry))
	mux.Handle("/api/deliveries/track", deliveries.NewTrackingHandler(s.Tracker))
	mux.Handle("/api/deliveries/attention", deliveries.NewAttentionHandler(s.Tracker))
	if s.audit != nil {
		mux.Handle("/api/deliveries/logs", deliveries.NewLogHandler(s.audit, s.api.Token))
	}
	srv := &http.Server{Addr: s.api.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// consumeEvents forwards state changes to the broker and the audit log.
func (s *Service) consumeEvents(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			sc, isChange := e.(events.StateChangeEvent)
			if !isChange {
				continue
			}
			payload, err := json.Marshal(sc)
			if err != nil {
				s.log.Errorf("encode state change: %v", err)
				continue
			}
			if err := s.client.PublishStateChange(sc.DeliveryID, payload); err != nil {
				s.log.Warnf("publish state change %s: %v", sc.DeliveryID, err)
			}
			if s.audit != nil {
				if err := s.audit.Append(ctx, eventlog.FromStateChange(sc)); err != nil {
					s.log.Warnf("audit append: %v", err)
				}
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	s.client.Disconnect()
	if s.audit != nil {
		return s.audit.Close()
	}
	return nil
}
