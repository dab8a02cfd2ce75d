// Package routing wraps external route/geocoding providers behind a single
// interface and carries the Haversine fallback estimate used when a
// coordinate cannot be snapped to a road.
package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"swiftcab/internal/geo"
	"swiftcab/internal/types"
)

// ErrNoRoutablePoint means the upstream could not snap a coordinate to a
// road. Callers recover from this one specifically with FallbackEstimate;
// every other upstream failure surfaces as *APIError.
var ErrNoRoutablePoint = errors.New("no routable point near coordinate")

// APIError is any other upstream routing failure. It is not silently
// downgraded; callers decide whether to propagate or degrade.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s routing error (status %d): %s", e.Provider, e.Status, e.Message)
}

// Step is one turn-by-turn instruction of a route.
type Step struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance"`
	DurationSeconds float64 `json:"duration"`
}

// Route is the provider-independent result of a route lookup. Fallback
// records whether the values came from the Haversine estimate rather than a
// road-based route, so downstream callers keep that distinction.
type Route struct {
	DistanceMeters  float64 `json:"distance"`
	DurationSeconds float64 `json:"duration"`
	Steps           []Step  `json:"steps"`
	Fallback        bool    `json:"fallback"`
}

// Place is a geocoding suggestion.
type Place struct {
	Label string      `json:"label"`
	Point types.Point `json:"coordinates"`
}

// Provider is the external routing/geocoding collaborator.
type Provider interface {
	GetRoute(ctx context.Context, start, end types.Point) (Route, error)
	Autocomplete(ctx context.Context, query string) ([]Place, error)
	ReverseGeocode(ctx context.Context, pt types.Point) (string, error)
}

// FallbackEstimate derives a route from great-circle distance and an assumed
// average speed, with a single synthetic instruction step. speedKmph <= 0
// falls back to 30 km/h.
func FallbackEstimate(start, end types.Point, speedKmph float64) Route {
	if speedKmph <= 0 {
		speedKmph = 30
	}
	distanceKm := geo.DistanceKm(start.Lat, start.Lng, end.Lat, end.Lng)
	durationSec := math.Round(distanceKm / speedKmph * 3600)
	return Route{
		DistanceMeters:  distanceKm * 1000,
		DurationSeconds: durationSec,
		Steps: []Step{{
			Instruction:     fmt.Sprintf("Estimated route: %.1f km, ~%d min", distanceKm, int(math.Round(durationSec/60))),
			DistanceMeters:  distanceKm * 1000,
			DurationSeconds: durationSec,
		}},
		Fallback: true,
	}
}

// RouteOrFallback fetches a route and substitutes the fallback estimate only
// for the no-routable-point failure mode. Other errors pass through.
func RouteOrFallback(ctx context.Context, p Provider, start, end types.Point, speedKmph float64) (Route, error) {
	r, err := p.GetRoute(ctx, start, end)
	if errors.Is(err, ErrNoRoutablePoint) {
		return FallbackEstimate(start, end, speedKmph), nil
	}
	if err != nil {
		return Route{}, err
	}
	return r, nil
}

// FormatInstructions renders steps as driver-readable strings with per-step
// distance (km, one decimal) and duration (minutes, rounded).
func FormatInstructions(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for i, s := range steps {
		out = append(out, fmt.Sprintf("%d. %s (%.1fkm, ~%dmin)",
			i+1, s.Instruction, s.DistanceMeters/1000, int(math.Round(s.DurationSeconds/60))))
	}
	return out
}
