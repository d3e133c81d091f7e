package main

import (
	"errors"
	"time"
)

// Config holds parameters for the simulator.
type Config struct {
	Broker      string
	AckTopic    string
	TopicPrefix string
	Count       int
	AckLatency  time.Duration
	DropRate    float64
	SpeedKmh    float64
	ReportEvery time.Duration
	CenterLat   float64
	CenterLon   float64
	Verbose     bool
}

// Validate checks the simulator parameters.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	if c.Count <= 0 {
		return errors.New("count must be positive")
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return errors.New("drop rate must be within [0,1]")
	}
	if c.SpeedKmh <= 0 {
		return errors.New("speed must be positive")
	}
	if c.ReportEvery <= 0 {
		return errors.New("report interval must be positive")
	}
	return nil
}
