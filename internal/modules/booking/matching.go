package booking

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"swiftcab/internal/config"
	"swiftcab/internal/geo"
	"swiftcab/internal/modules/location"
	"swiftcab/internal/observability"
	"swiftcab/internal/routing"
	"swiftcab/internal/types"
)

// ErrNoCandidates is a business outcome, not a failure: no available driver
// inside any radius of the ladder. Callers must branch on it explicitly.
var ErrNoCandidates = errors.New("no drivers available within search radius")

// Candidate is one ranked driver for a pickup point.
type Candidate struct {
	Driver       location.AvailableDriver `json:"driver"`
	DistanceKm   float64                  `json:"distance_km"`
	Route        routing.Route            `json:"route"`
	Score        int                      `json:"score"`
	Instructions []string                 `json:"instructions,omitempty"`
}

// LocationFinder is the slice of the location service the matcher needs.
type LocationFinder interface {
	NearestDrivers(ctx context.Context, lat, lng, maxRadiusKm float64, maxResults int) ([]geo.Ranked[location.AvailableDriver], error)
}

// Matcher ranks candidate drivers by progressive radius expansion: each
// radius of the ladder is tried in order and the first one with any
// candidates wins.
type Matcher struct {
	locations LocationFinder
	router    routing.Provider
	cfg       config.MatchingConfig
	log       *logrus.Logger
}

func NewMatcher(locations LocationFinder, router routing.Provider, cfg config.MatchingConfig, log *logrus.Logger) *Matcher {
	return &Matcher{locations: locations, router: router, cfg: cfg, log: log}
}

// Rank finds candidates around the pickup point and orders them by composite
// score, best first. Routing errors during scoring propagate so the caller
// can decide on a distance-only fallback.
func (m *Matcher) Rank(ctx context.Context, pickup types.Point, exclude types.ID) ([]Candidate, error) {
	started := time.Now()
	defer func() {
		observability.MatchLatency.Observe(time.Since(started).Seconds())
	}()

	ranked, err := m.candidatesByLadder(ctx, pickup, exclude)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		observability.NoCandidatesTotal.Inc()
		return nil, ErrNoCandidates
	}

	out := make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		route, err := m.router.GetRoute(ctx, pickup, types.Point{Lat: r.Item.Lat, Lng: r.Item.Lng})
		if errors.Is(err, routing.ErrNoRoutablePoint) {
			route = routing.FallbackEstimate(pickup, types.Point{Lat: r.Item.Lat, Lng: r.Item.Lng}, m.cfg.FallbackSpeedKmph)
			observability.RoutingFallbacksTotal.Inc()
		} else if err != nil {
			return nil, err
		}
		out = append(out, Candidate{
			Driver:       r.Item,
			DistanceKm:   r.DistanceKm,
			Route:        route,
			Score:        m.score(r.Item, route),
			Instructions: routing.FormatInstructions(route.Steps),
		})
	}

	sortByScore(out)
	observability.MatchesTotal.Inc()
	return out, nil
}

// NearestByDistance is the scoring bypass used when the routing-dependent
// path fails: the single nearest driver by great-circle distance within the
// fallback radius.
func (m *Matcher) NearestByDistance(ctx context.Context, pickup types.Point, exclude types.ID) (*Candidate, error) {
	ranked, err := m.locations.NearestDrivers(ctx, pickup.Lat, pickup.Lng, m.cfg.FallbackRadiusKm, m.cfg.MaxCandidates)
	if err != nil {
		return nil, err
	}
	for _, r := range ranked {
		if r.Item.DriverID == exclude {
			continue
		}
		return &Candidate{Driver: r.Item, DistanceKm: r.DistanceKm}, nil
	}
	return nil, ErrNoCandidates
}

func (m *Matcher) candidatesByLadder(ctx context.Context, pickup types.Point, exclude types.ID) ([]geo.Ranked[location.AvailableDriver], error) {
	for _, radius := range m.cfg.RadiusLadderKm {
		ranked, err := m.locations.NearestDrivers(ctx, pickup.Lat, pickup.Lng, radius, m.cfg.MaxCandidates)
		if err != nil {
			return nil, err
		}
		if exclude != "" {
			ranked = withoutDriver(ranked, exclude)
		}
		if len(ranked) > 0 {
			m.log.WithFields(logrus.Fields{
				"radius_km":  radius,
				"candidates": len(ranked),
			}).Debug("radius search hit")
			return ranked, nil
		}
	}
	return nil, nil
}

// score is the weighted composite: distance decays 10 points per km from a
// 100 ceiling; an unrated driver gets a neutral 80; availability is 100 by
// construction of the candidate set; the vehicle-type term is a fixed
// placeholder until vehicle matching exists.
func (m *Matcher) score(d location.AvailableDriver, route routing.Route) int {
	distanceScore := math.Max(0, 100-(route.DistanceMeters/1000)*10)

	ratingScore := 80.0
	if d.Rating > 0 {
		ratingScore = d.Rating * 20
	}

	availabilityScore := 0.0
	if d.IsAvailable {
		availabilityScore = 100
	}

	const vehicleScore = 100.0

	composite := distanceScore*m.cfg.DistanceWeight +
		ratingScore*m.cfg.RatingWeight +
		availabilityScore*m.cfg.AvailabilityWeight +
		vehicleScore*m.cfg.VehicleTypeWeight
	return int(math.Round(composite))
}

func withoutDriver(ranked []geo.Ranked[location.AvailableDriver], exclude types.ID) []geo.Ranked[location.AvailableDriver] {
	out := ranked[:0:0]
	for _, r := range ranked {
		if r.Item.DriverID != exclude {
			out = append(out, r)
		}
	}
	return out
}

// sortByScore orders best-first, distance as the tiebreak.
func sortByScore(c []Candidate) {
	for i := 1; i < len(c); i++ {
		key := c[i]
		j := i - 1
		for j >= 0 && less(key, c[j]) {
			c[j+1] = c[j]
			j--
		}
		c[j+1] = key
	}
}

func less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DistanceKm < b.DistanceKm
}
