// Package geo implements the spherical-earth math behind delivery
// tracking: great-circle distance, initial bearing, and stepwise
// movement along the geodesic toward a target.
package geo

import "math"

// EarthRadiusM is the mean earth radius shared by all formulas here.
const EarthRadiusM = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the haversine great-circle distance in meters.
func Distance(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusM * c
}

// Bearing returns the initial bearing from a to b in degrees,
// normalized to [0, 360).
func Bearing(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// MoveTowards advances cur by stepMeters along the geodesic toward
// target. When the step reaches or passes the target it returns the
// target exactly, never overshooting.
func MoveTowards(cur, target Point, stepMeters float64) Point {
	if stepMeters <= 0 {
		return cur
	}
	if stepMeters >= Distance(cur, target) {
		return target
	}
	theta := Bearing(cur, target) * math.Pi / 180
	delta := stepMeters / EarthRadiusM
	lat1 := cur.Lat * math.Pi / 180
	lng1 := cur.Lng * math.Pi / 180
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))
	return Point{Lat: lat2 * 180 / math.Pi, Lng: lng2 * 180 / math.Pi}
}
