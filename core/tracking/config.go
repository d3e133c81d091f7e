package tracking

import "fmt"

// Config holds the tunable parameters of the tracking engine. Defaults are
// operational starting points, not validated constants; all of them are
// expected to be tuned per deployment.
type Config struct {
	// GeofenceRadiusM is the arrival-detection radius around pickup and
	// drop-off, in meters.
	GeofenceRadiusM float64 `json:"geofence_radius_m"`
	// StalenessSeconds is the age after which a record counts as stale.
	StalenessSeconds int `json:"staleness_seconds"`
	// AccuracyNoiseM is the GPS accuracy above which distance-traveled
	// increments are skipped.
	AccuracyNoiseM float64 `json:"accuracy_noise_m"`
	// AssumedSpeedKmh is the base speed for ETA computation.
	AssumedSpeedKmh float64 `json:"assumed_speed_kmh"`
	// OffRouteM is the route deviation above which attention is required.
	OffRouteM float64 `json:"off_route_m"`
	// LowBatteryPct and LowSignalPct flag degraded driver devices.
	LowBatteryPct float64 `json:"low_battery_pct"`
	LowSignalPct  float64 `json:"low_signal_pct"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.GeofenceRadiusM <= 0 {
		c.GeofenceRadiusM = 100
	}
	if c.StalenessSeconds <= 0 {
		c.StalenessSeconds = 300
	}
	if c.AccuracyNoiseM <= 0 {
		c.AccuracyNoiseM = 50
	}
	if c.AssumedSpeedKmh <= 0 {
		c.AssumedSpeedKmh = 30
	}
	if c.OffRouteM <= 0 {
		c.OffRouteM = 500
	}
	if c.LowBatteryPct <= 0 {
		c.LowBatteryPct = 20
	}
	if c.LowSignalPct <= 0 {
		c.LowSignalPct = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.GeofenceRadiusM <= 0 {
		return fmt.Errorf("geofence_radius_m must be positive")
	}
	if c.AssumedSpeedKmh <= 0 {
		return fmt.Errorf("assumed_speed_kmh must be positive")
	}
	return nil
}
