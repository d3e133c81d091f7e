package dispatch

import "fmt"

// Config holds the tunable parameters of the dispatch manager.
type Config struct {
	// AckTimeoutSeconds bounds the wait for a driver to acknowledge an
	// assignment offer.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
	// MaxOfferAttempts caps how many ranked candidates are offered a single
	// delivery before the attempt is declared exhausted. Zero means all.
	MaxOfferAttempts int `json:"max_offer_attempts"`
	// RematchIntervalSeconds is the period of the background matching loop.
	RematchIntervalSeconds int `json:"rematch_interval_seconds"`
	// ReassignAfterSeconds is how long a delivery may sit in ASSIGNED
	// without pickup progress before it is pulled back into the pool.
	ReassignAfterSeconds int `json:"reassign_after_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.AckTimeoutSeconds <= 0 {
		c.AckTimeoutSeconds = 10
	}
	if c.MaxOfferAttempts < 0 {
		c.MaxOfferAttempts = 0
	}
	if c.RematchIntervalSeconds <= 0 {
		c.RematchIntervalSeconds = 15
	}
	if c.ReassignAfterSeconds <= 0 {
		c.ReassignAfterSeconds = 600
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.AckTimeoutSeconds <= 0 {
		return fmt.Errorf("ack_timeout_seconds must be positive")
	}
	if c.RematchIntervalSeconds <= 0 {
		return fmt.Errorf("rematch_interval_seconds must be positive")
	}
	return nil
}
