package tracking

import (
	"strings"
	"time"

	"github.com/swiftdrop/dispatch/core/model"
)

// progressPct maps tracking statuses to the customer-facing progress bar
// percentage. The values are a compatibility contract with existing clients
// and must not drift.
var progressPct = map[model.TrackingStatus]int{
	model.TrackAssigned:            10,
	model.TrackHeadingToPickup:     25,
	model.TrackAtPickup:            40,
	model.TrackPickedUp:            50,
	model.TrackEnRoute:             60,
	model.TrackApproachingDelivery: 80,
	model.TrackAtDeliveryLocation:  90,
	model.TrackDelivering:          95,
	model.TrackDelivered:           100,
	model.TrackDeliveryFailed:      0,
}

// ProgressPercent returns the progress bar value for a tracking status.
func ProgressPercent(s model.TrackingStatus) int {
	return progressPct[s]
}

// friendlyStatus is the customer-facing description per tracking status.
var friendlyStatus = map[model.TrackingStatus]string{
	model.TrackAssigned:            "Driver assigned",
	model.TrackHeadingToPickup:     "Driver is heading to the restaurant",
	model.TrackAtPickup:            "Driver has arrived at the restaurant",
	model.TrackPickedUp:            "Your order has been picked up",
	model.TrackEnRoute:             "Your order is on the way",
	model.TrackApproachingDelivery: "Your driver is almost there",
	model.TrackAtDeliveryLocation:  "Your driver has arrived",
	model.TrackDelivering:          "Your order is being delivered",
	model.TrackDelivered:           "Delivered. Enjoy!",
	model.TrackDeliveryFailed:      "Delivery could not be completed",
}

// FriendlyStatus returns the customer-facing status string.
func FriendlyStatus(s model.TrackingStatus) string {
	return friendlyStatus[s]
}

// trafficMultiplier adjusts the base ETA per traffic condition. Unknown
// traffic applies no adjustment.
var trafficMultiplier = map[model.TrafficCondition]float64{
	model.TrafficUnknown:           1.0,
	model.TrafficLight:             0.9,
	model.TrafficModerate:          1.1,
	model.TrafficHeavy:             1.3,
	model.TrafficSevere:            1.6,
}

const wetWeatherMultiplier = 1.2

// AdjustedETAMinutes applies the traffic and weather multipliers to a base
// travel time estimate.
func AdjustedETAMinutes(baseMinutes float64, traffic model.TrafficCondition, weather string) float64 {
	m, ok := trafficMultiplier[traffic]
	if !ok {
		m = 1.0
	}
	adjusted := baseMinutes * m
	w := strings.ToLower(weather)
	if strings.Contains(w, "rain") || strings.Contains(w, "snow") {
		adjusted *= wetWeatherMultiplier
	}
	return adjusted
}

// EstimateDelivery computes the ETA from the remaining distance at the given
// report time.
func EstimateDelivery(at time.Time, remainingKm, assumedSpeedKmh float64, traffic model.TrafficCondition, weather string) time.Time {
	base := remainingKm / assumedSpeedKmh * 60
	adjusted := AdjustedETAMinutes(base, traffic, weather)
	return at.Add(time.Duration(adjusted * float64(time.Minute)))
}
