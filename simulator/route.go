package main

import "github.com/swiftdrop/dispatch/core/geo"

// advance moves from toward to by at most stepKm and reports arrival.
// Linear interpolation is good enough at city scale.
func advance(from, to geo.Point, stepKm float64) (geo.Point, bool) {
	dist, _ := geo.DistanceKm(from, to)
	if dist <= stepKm {
		return to, true
	}
	frac := stepKm / dist
	return geo.Point{
		Lat: from.Lat + (to.Lat-from.Lat)*frac,
		Lon: from.Lon + (to.Lon-from.Lon)*frac,
	}, false
}
