package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
)

var fleetRng = rand.New(rand.NewSource(time.Now().UnixNano()))

// GenerateFleet creates Count drivers with IDs drv0001..drvNNNN, scattered
// within roughly 5 km of the configured center.
func GenerateFleet(cfg Config, strat AckStrategy) []*SimulatedDriver {
	if cfg.Count <= 0 {
		return nil
	}
	ds := make([]*SimulatedDriver, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		id := fmt.Sprintf("drv%04d", i+1)
		start := geo.Point{
			Lat: cfg.CenterLat + (fleetRng.Float64()-0.5)*0.09,
			Lon: cfg.CenterLon + (fleetRng.Float64()-0.5)*0.09,
		}
		ds[i] = NewSimulatedDriver(id, cfg, strat, start)
	}
	return ds
}
