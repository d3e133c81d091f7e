// Package prediction provides order demand forecasting. The shift planner
// consumes it to size the roster per timeslot; production deployments plug in
// a model-backed implementation.
package prediction
