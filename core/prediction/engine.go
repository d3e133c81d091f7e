package prediction

import "time"

// DemandForecaster estimates order demand for shift planning.
type DemandForecaster interface {
	// ForecastOrders returns the expected number of orders placed during
	// the slot of the given duration starting at t.
	ForecastOrders(t time.Time, slot time.Duration) float64
}
