package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/swiftdrop/dispatch/core/geo"
	coremetrics "github.com/swiftdrop/dispatch/core/metrics"
	"github.com/swiftdrop/dispatch/core/model"
)

func TestInfluxSink_RecordMatchResult(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	rec := coremetrics.MatchResult{
		DeliveryID:   "del-1",
		DriverID:     "drv-1",
		DeliveryType: model.TypeExpress,
		DistanceKm:   2.345,
		Candidates:   4,
		Acknowledged: true,
		MatchTime:    now,
	}

	if err := sink.RecordMatchResult([]coremetrics.MatchResult{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("match_event").
		AddTag("delivery_id", "del-1").
		AddTag("delivery_type", "EXPRESS").
		AddTag("matched", "true").
		AddTag("component", "dispatch_manager").
		AddTag("driver_id", "drv-1").
		AddField("distance_km", 2.345).
		AddField("candidates", 4).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordTrackingSnapshot(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(b)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.TrackingSnapshotEvent{
		DeliveryID:       "del-1",
		DriverID:         "drv-1",
		Status:           model.TrackEnRoute,
		Location:         geo.Point{Lat: 40.7128, Lon: -74.0060},
		SpeedKmh:         24.5,
		DistanceToStopKm: 3.2,
		ProgressPct:      60,
		Time:             now,
	}
	if err := sink.RecordTrackingSnapshot(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("tracking_snapshot").
		AddTag("delivery_id", "del-1").
		AddTag("driver_id", "drv-1").
		AddTag("status", "EN_ROUTE").
		AddTag("component", "tracking_engine").
		AddField("lat", 40.7128).
		AddField("lon", -74.0060).
		AddField("speed_kmh", 24.5).
		AddField("distance_to_stop_km", 3.2).
		AddField("progress_pct", 60).
		AddField("stale", false).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("bodies: %#v", bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
