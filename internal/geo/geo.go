// Package geo contains pure geographic computation helpers.
package geo

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle (Haversine) distance in kilometres
// between two points specified in decimal degrees. Symmetric, zero for
// identical points. Coordinate-range validation is the caller's job.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Located is anything with a coordinate pair.
type Located interface {
	Coords() (lat, lng float64)
}

// Ranked pairs a candidate with its computed distance from a target.
type Ranked[T Located] struct {
	Item       T
	DistanceKm float64
}

// NearestWithinRadius annotates each candidate with its distance from the
// target, drops those farther than maxRadiusKm, and returns the rest sorted
// ascending by distance.
func NearestWithinRadius[T Located](targetLat, targetLng float64, candidates []T, maxRadiusKm float64) []Ranked[T] {
	out := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		lat, lng := c.Coords()
		d := DistanceKm(targetLat, targetLng, lat, lng)
		if d <= maxRadiusKm {
			out = append(out, Ranked[T]{Item: c, DistanceKm: d})
		}
	}
	sortByDistance(out, func(r Ranked[T]) float64 { return r.DistanceKm })
	return out
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// sortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function.
func sortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
