package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"swiftcab/internal/types"
)

// ORSProvider performs route and geocoding lookups against an
// openrouteservice HTTP endpoint.
type ORSProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewORSProvider(baseURL, apiKey string) *ORSProvider {
	return &ORSProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type orsDirectionsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
			Segments []struct {
				Steps []struct {
					Distance    float64 `json:"distance"`
					Duration    float64 `json:"duration"`
					Instruction string  `json:"instruction"`
				} `json:"steps"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// GetRoute queries /v2/directions/driving-car. ORS reports an unreachable
// coordinate with error code 2010 ("Could not find routable point"); that is
// mapped to ErrNoRoutablePoint so callers can degrade to the estimate.
func (p *ORSProvider) GetRoute(ctx context.Context, start, end types.Point) (Route, error) {
	q := url.Values{}
	q.Set("api_key", p.apiKey)
	q.Set("start", fmt.Sprintf("%f,%f", start.Lng, start.Lat))
	q.Set("end", fmt.Sprintf("%f,%f", end.Lng, end.Lat))

	body, status, err := p.get(ctx, "/v2/directions/driving-car", q)
	if err != nil {
		return Route{}, err
	}
	if status != http.StatusOK {
		text := string(body)
		if strings.Contains(text, "2010") || strings.Contains(text, "Could not find routable point") {
			return Route{}, ErrNoRoutablePoint
		}
		return Route{}, &APIError{Provider: "ors", Status: status, Message: truncate(text, 200)}
	}

	var out orsDirectionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Route{}, &APIError{Provider: "ors", Status: status, Message: "malformed directions response"}
	}
	if len(out.Features) == 0 {
		return Route{}, ErrNoRoutablePoint
	}

	feat := out.Features[0]
	route := Route{
		DistanceMeters:  feat.Properties.Summary.Distance,
		DurationSeconds: feat.Properties.Summary.Duration,
	}
	for _, seg := range feat.Properties.Segments {
		for _, s := range seg.Steps {
			route.Steps = append(route.Steps, Step{
				Instruction:     s.Instruction,
				DistanceMeters:  s.Distance,
				DurationSeconds: s.Duration,
			})
		}
	}
	return route, nil
}

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lng, lat
		} `json:"geometry"`
		Properties struct {
			Label    string `json:"label"`
			Name     string `json:"name"`
			Street   string `json:"street"`
			Locality string `json:"locality"`
			Region   string `json:"region"`
			Postcode string `json:"postalcode"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *ORSProvider) Autocomplete(ctx context.Context, query string) ([]Place, error) {
	q := url.Values{}
	q.Set("api_key", p.apiKey)
	q.Set("text", query)

	body, status, err := p.get(ctx, "/geocode/autocomplete", q)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{Provider: "ors", Status: status, Message: truncate(string(body), 200)}
	}

	var out orsGeocodeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &APIError{Provider: "ors", Status: status, Message: "malformed autocomplete response"}
	}

	places := make([]Place, 0, len(out.Features))
	for _, f := range out.Features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		places = append(places, Place{
			Label: f.Properties.Label,
			Point: types.Point{Lat: f.Geometry.Coordinates[1], Lng: f.Geometry.Coordinates[0]},
		})
	}
	return places, nil
}

// ReverseGeocode returns a human-readable address for the point, or the
// empty string when nothing is found there.
func (p *ORSProvider) ReverseGeocode(ctx context.Context, pt types.Point) (string, error) {
	q := url.Values{}
	q.Set("api_key", p.apiKey)
	q.Set("point.lon", fmt.Sprintf("%f", pt.Lng))
	q.Set("point.lat", fmt.Sprintf("%f", pt.Lat))

	body, status, err := p.get(ctx, "/geocode/reverse", q)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &APIError{Provider: "ors", Status: status, Message: truncate(string(body), 200)}
	}

	var out orsGeocodeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &APIError{Provider: "ors", Status: status, Message: "malformed reverse geocode response"}
	}
	if len(out.Features) == 0 {
		return "", nil
	}

	props := out.Features[0].Properties
	parts := make([]string, 0, 5)
	for _, v := range []string{props.Name, props.Street, props.Locality, props.Region, props.Postcode} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", "), nil
}

func (p *ORSProvider) get(ctx context.Context, path string, q url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, &APIError{Provider: "ors", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, &APIError{Provider: "ors", Status: resp.StatusCode, Message: err.Error()}
	}
	return body, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
