// Package events defines the payload types published on the internal event
// bus. Downstream systems (notification, billing, analytics) subscribe to
// these; the core never blocks on their consumption.
package events
