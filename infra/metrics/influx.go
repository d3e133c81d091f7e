package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/swiftdrop/dispatch/core/metrics"
	"github.com/swiftdrop/dispatch/infra/logger"
)

// InfluxSink writes dispatch and tracking events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordMatchResult writes each matching outcome as a point.
func (s *InfluxSink) RecordMatchResult(res []coremetrics.MatchResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range res {
		p := write.NewPointWithMeasurement("match_event").
			AddTag("delivery_id", r.DeliveryID).
			AddTag("delivery_type", r.DeliveryType.String()).
			AddTag("matched", strconv.FormatBool(r.DriverID != "")).
			AddTag("component", "dispatch_manager")
		if r.DriverID != "" {
			p = p.AddTag("driver_id", r.DriverID)
		}
		p = p.AddField("distance_km", round3(r.DistanceKm)).
			AddField("candidates", r.Candidates).
			SetTime(r.MatchTime)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordStateTransition writes one delivery state change.
func (s *InfluxSink) RecordStateTransition(ev coremetrics.StateTransitionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("delivery_transition").
		AddTag("delivery_id", ev.DeliveryID).
		AddTag("from", ev.From.String()).
		AddTag("to", ev.To.String()).
		AddTag("actor", string(ev.Actor)).
		AddTag("component", "delivery_service")
	if ev.DriverID != "" {
		p = p.AddTag("driver_id", ev.DriverID)
	}
	p = p.AddField("count", 1).SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTrackingSnapshot writes a point-in-time view of an active delivery.
func (s *InfluxSink) RecordTrackingSnapshot(ev coremetrics.TrackingSnapshotEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("tracking_snapshot").
		AddTag("delivery_id", ev.DeliveryID).
		AddTag("driver_id", ev.DriverID).
		AddTag("status", ev.Status.String()).
		AddTag("component", "tracking_engine").
		AddField("lat", ev.Location.Lat).
		AddField("lon", ev.Location.Lon).
		AddField("speed_kmh", round3(ev.SpeedKmh)).
		AddField("distance_to_stop_km", round3(ev.DistanceToStopKm)).
		AddField("progress_pct", ev.ProgressPct).
		AddField("stale", ev.Stale).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOfferLatency writes acknowledgment latencies.
func (s *InfluxSink) RecordOfferLatency(recs []coremetrics.OfferLatency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("offer_ack").
			AddTag("delivery_id", r.DeliveryID).
			AddTag("driver_id", r.DriverID).
			AddTag("acknowledged", strconv.FormatBool(r.Acknowledged)).
			AddTag("component", "dispatch_manager").
			AddField("latency_ms", round3(r.Latency.Seconds()*1000)).
			SetTime(time.Now())
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetSize writes the current roster size.
func (s *InfluxSink) RecordFleetSize(size int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_size").
		AddTag("component", "dispatch_manager").
		AddField("drivers", size).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
