// Package scheduler implements day-ahead shift planning. It books drivers
// per timeslot against a demand forecast, respecting declared availability.
// Plans can be exported to JSON or CSV.
package scheduler
