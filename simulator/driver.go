package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/swiftdrop/dispatch/core/geo"
)

// assignment is the offer payload published by the dispatcher.
type assignment struct {
	CommandID  string  `json:"command_id"`
	DeliveryID string  `json:"delivery_id"`
	PickupLat  float64 `json:"pickup_lat"`
	PickupLon  float64 `json:"pickup_lon"`
	DropoffLat float64 `json:"dropoff_lat"`
	DropoffLon float64 `json:"dropoff_lon"`
}

// SimulatedDriver connects to MQTT, acknowledges assignment offers and
// replays a telemetry stream while driving the route.
type SimulatedDriver struct {
	ID          string
	Broker      string
	AckTopic    string
	TopicPrefix string
	Strategy    AckStrategy
	SpeedKmh    float64
	ReportEvery time.Duration
	Position    geo.Point

	client paho.Client
	jobs   chan assignment
}

// NewSimulatedDriver creates a new driver.
func NewSimulatedDriver(id string, cfg Config, strat AckStrategy, start geo.Point) *SimulatedDriver {
	return &SimulatedDriver{
		ID:          id,
		Broker:      cfg.Broker,
		AckTopic:    cfg.AckTopic,
		TopicPrefix: cfg.TopicPrefix,
		Strategy:    strat,
		SpeedKmh:    cfg.SpeedKmh,
		ReportEvery: cfg.ReportEvery,
		Position:    start,
		jobs:        make(chan assignment, 8),
	}
}

// Run connects to the broker and serves offers until ctx is done.
func (d *SimulatedDriver) Run(ctx context.Context) error {
	cli, err := newDriverSession(d.Broker, "sim-"+d.ID)
	if err != nil {
		return err
	}
	d.client = cli
	go d.worker(ctx)
	topic := fmt.Sprintf("driver/%s/assignment", d.ID)
	if token := cli.Subscribe(topic, 0, d.onAssignment); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	<-ctx.Done()
	close(d.jobs)
	cli.Disconnect(250)
	return nil
}

func (d *SimulatedDriver) onAssignment(_ paho.Client, msg paho.Message) {
	var a assignment
	if err := json.Unmarshal(msg.Payload(), &a); err != nil {
		log.Printf("%s: decode assignment: %v", d.ID, err)
		return
	}
	select {
	case d.jobs <- a:
	default:
		log.Printf("%s: job queue full, dropping offer %s", d.ID, a.CommandID)
	}
}

func (d *SimulatedDriver) worker(ctx context.Context) {
	for {
		select {
		case a, ok := <-d.jobs:
			if !ok {
				return
			}
			if !d.Strategy.Ack(ctx, d.client, d.AckTopic, a.CommandID) {
				continue
			}
			d.drive(ctx, a)
		case <-ctx.Done():
			return
		}
	}
}

// drive moves to the pickup and then to the drop-off, reporting telemetry at
// each step.
func (d *SimulatedDriver) drive(ctx context.Context, a assignment) {
	waypoints := []geo.Point{
		{Lat: a.PickupLat, Lon: a.PickupLon},
		{Lat: a.DropoffLat, Lon: a.DropoffLon},
	}
	stepKm := d.SpeedKmh * d.ReportEvery.Hours()
	ticker := time.NewTicker(d.ReportEvery)
	defer ticker.Stop()
	for _, wp := range waypoints {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			next, arrived := advance(d.Position, wp, stepKm)
			d.Position = next
			d.report(a.DeliveryID)
			if arrived {
				break
			}
		}
	}
}

func (d *SimulatedDriver) report(deliveryID string) {
	payload, err := json.Marshal(map[string]any{
		"delivery_id": deliveryID,
		"driver_id":   d.ID,
		"lat":         d.Position.Lat,
		"lon":         d.Position.Lon,
		"speed_kmh":   d.SpeedKmh,
		"accuracy_m":  10.0,
		"ts":          time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("%s: marshal telemetry: %v", d.ID, err)
		return
	}
	topic := fmt.Sprintf("%s/%s/telemetry", d.TopicPrefix, deliveryID)
	token := d.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("%s: telemetry publish timeout", d.ID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("%s: publish telemetry: %v", d.ID, err)
	}
}
