package main

import (
	"testing"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
)

func simConfig() Config {
	return Config{
		Broker:      "tcp://localhost:1883",
		AckTopic:    "driver/ack",
		TopicPrefix: "delivery",
		Count:       5,
		SpeedKmh:    30,
		ReportEvery: time.Second,
		CenterLat:   40.7128,
		CenterLon:   -74.0060,
	}
}

func TestGenerateFleet(t *testing.T) {
	fleet := GenerateFleet(simConfig(), AutoAck{})
	if len(fleet) != 5 {
		t.Fatalf("expected 5 drivers, got %d", len(fleet))
	}
	if fleet[0].ID != "drv0001" || fleet[4].ID != "drv0005" {
		t.Fatalf("unexpected ids: %s, %s", fleet[0].ID, fleet[4].ID)
	}
	center := geo.Point{Lat: 40.7128, Lon: -74.0060}
	for _, d := range fleet {
		if dist, _ := geo.DistanceKm(d.Position, center); dist > 10 {
			t.Fatalf("driver %s too far from center: %+v", d.ID, d.Position)
		}
	}
}

func TestGenerateFleet_Empty(t *testing.T) {
	cfg := simConfig()
	cfg.Count = 0
	if fleet := GenerateFleet(cfg, AutoAck{}); fleet != nil {
		t.Fatalf("expected nil fleet, got %d", len(fleet))
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := simConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.DropRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected drop rate error")
	}
	cfg = simConfig()
	cfg.Broker = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected broker error")
	}
}
