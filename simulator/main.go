package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

func parseFlags() Config {
	cfg := Config{}
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.StringVar(&cfg.AckTopic, "ack-topic", "driver/ack", "offer acknowledgment topic")
	flag.StringVar(&cfg.TopicPrefix, "topic-prefix", "delivery", "telemetry topic prefix")
	flag.IntVar(&cfg.Count, "count", 10, "number of simulated drivers")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 500*time.Millisecond, "delay before acknowledging an offer")
	flag.Float64Var(&cfg.DropRate, "drop-rate", 0, "probability of ignoring an offer")
	flag.Float64Var(&cfg.SpeedKmh, "speed", 30, "driving speed in km/h")
	flag.DurationVar(&cfg.ReportEvery, "report-every", 2*time.Second, "telemetry report interval")
	flag.Float64Var(&cfg.CenterLat, "center-lat", 40.7128, "fleet center latitude")
	flag.Float64Var(&cfg.CenterLon, "center-lon", -74.0060, "fleet center longitude")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "log simulator activity")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := (&cfg).Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strat := RandomAck{Delay: cfg.AckLatency, DropRate: cfg.DropRate}
	fleet := GenerateFleet(cfg, strat)

	var wg sync.WaitGroup
	for _, d := range fleet {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Run(ctx); err != nil {
				log.Printf("%s: %v", d.ID, err)
			}
		}()
	}
	wg.Wait()
}
