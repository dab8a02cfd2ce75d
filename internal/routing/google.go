package routing

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"swiftcab/internal/types"
)

// GoogleProvider backs the routing contract with the Google Maps APIs.
// Selected by config when an openrouteservice key is not available.
type GoogleProvider struct {
	client *maps.Client
}

func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &GoogleProvider{client: client}, nil
}

func (p *GoogleProvider) GetRoute(ctx context.Context, start, end types.Point) (Route, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", start.Lat, start.Lng),
		Destination: fmt.Sprintf("%f,%f", end.Lat, end.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := p.client.Directions(ctx, r)
	if err != nil {
		// ZERO_RESULTS / NOT_FOUND mean the coordinate does not resolve to a
		// road; that is the recoverable failure mode.
		msg := err.Error()
		if strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND") {
			return Route{}, ErrNoRoutablePoint
		}
		return Route{}, &APIError{Provider: "google", Message: msg}
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, ErrNoRoutablePoint
	}

	leg := routes[0].Legs[0]
	route := Route{
		DistanceMeters:  float64(leg.Distance.Meters),
		DurationSeconds: leg.Duration.Seconds(),
	}
	for _, s := range leg.Steps {
		route.Steps = append(route.Steps, Step{
			Instruction:     stripHTML(s.HTMLInstructions),
			DistanceMeters:  float64(s.Distance.Meters),
			DurationSeconds: s.Duration.Seconds(),
		})
	}
	return route, nil
}

func (p *GoogleProvider) Autocomplete(ctx context.Context, query string) ([]Place, error) {
	results, err := p.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return nil, &APIError{Provider: "google", Message: err.Error()}
	}
	places := make([]Place, 0, len(results))
	for _, r := range results {
		places = append(places, Place{
			Label: r.FormattedAddress,
			Point: types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		})
	}
	return places, nil
}

func (p *GoogleProvider) ReverseGeocode(ctx context.Context, pt types.Point) (string, error) {
	results, err := p.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: pt.Lat, Lng: pt.Lng},
	})
	if err != nil {
		return "", &APIError{Provider: "google", Message: err.Error()}
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}

// stripHTML drops the markup Google embeds in step instructions.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
