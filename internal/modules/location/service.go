package location

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"swiftcab/internal/geo"
	"swiftcab/internal/ingest"
	"swiftcab/internal/observability"
	"swiftcab/internal/types"
)

var ErrInvalidCoordinate = errors.New("coordinates out of range")

const (
	// Minimum gap between accepted writes per driver.
	throttleWindow = 5000 * time.Millisecond
	// How recent a tracked position must be to count as live.
	freshnessWindow = 5 * time.Minute
)

// DriverSync mirrors accepted positions onto the driver record so the
// fallback query has coordinates to work with.
type DriverSync interface {
	UpdateCoords(ctx context.Context, id types.ID, lat, lng float64) error
}

// Producer publishes accepted pings for analytics. Optional.
type Producer interface {
	Publish(ingest.LocationEvent) error
}

type Service struct {
	store    Store
	drivers  DriverSync
	producer Producer
	log      *logrus.Logger
	now      func() time.Time
}

func NewService(store Store, drivers DriverSync, producer Producer, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		drivers:  drivers,
		producer: producer,
		log:      log,
		now:      time.Now,
	}
}

// Report records a driver position. The first report for a driver is always
// applied; later reports inside the throttle window return the existing
// record with skipped=true. A skipped report is an acknowledgment, not an
// error.
func (s *Service) Report(ctx context.Context, driverID types.ID, lat, lng float64) (*Record, bool, error) {
	if !(types.Point{Lat: lat, Lng: lng}).Valid() {
		observability.LocationUpdatesTotal.WithLabelValues("invalid").Inc()
		return nil, false, ErrInvalidCoordinate
	}

	nowMillis := s.now().UnixMilli()

	existing, err := s.store.Get(ctx, driverID)
	switch {
	case errors.Is(err, ErrNotFound):
		// fall through to the write below
	case err != nil:
		return nil, false, err
	default:
		if nowMillis-existing.LastUpdate < throttleWindow.Milliseconds() {
			observability.LocationUpdatesTotal.WithLabelValues("throttled").Inc()
			return existing, true, nil
		}
	}

	r := &Record{DriverID: driverID, Lat: lat, Lng: lng, LastUpdate: nowMillis}
	if err := s.store.Upsert(ctx, r); err != nil {
		return nil, false, err
	}
	observability.LocationUpdatesTotal.WithLabelValues("applied").Inc()

	if s.drivers != nil {
		if err := s.drivers.UpdateCoords(ctx, driverID, lat, lng); err != nil {
			s.log.WithError(err).WithField("driver_id", driverID).Warn("driver coordinate sync failed")
		}
	}
	if s.producer != nil {
		if err := s.producer.Publish(ingest.LocationEvent{
			DriverID:   driverID,
			Latitude:   lat,
			Longitude:  lng,
			ReportedAt: nowMillis,
		}); err != nil {
			s.log.WithError(err).WithField("driver_id", driverID).Warn("location publish failed")
		}
	}
	return r, false, nil
}

// Current returns the driver's last accepted position.
func (s *Service) Current(ctx context.Context, driverID types.ID) (*Record, error) {
	return s.store.Get(ctx, driverID)
}

// ForceSet writes a position bypassing the throttle. Used when a completed
// booking moves the driver to the dropoff point.
func (s *Service) ForceSet(ctx context.Context, driverID types.ID, lat, lng float64) error {
	if !(types.Point{Lat: lat, Lng: lng}).Valid() {
		return ErrInvalidCoordinate
	}
	r := &Record{DriverID: driverID, Lat: lat, Lng: lng, LastUpdate: s.now().UnixMilli()}
	if err := s.store.Upsert(ctx, r); err != nil {
		return err
	}
	if s.drivers != nil {
		if err := s.drivers.UpdateCoords(ctx, driverID, lat, lng); err != nil {
			s.log.WithError(err).WithField("driver_id", driverID).Warn("driver coordinate sync failed")
		}
	}
	return nil
}

// AvailableDrivers returns available drivers with a live position from the
// last five minutes. When live tracking has nothing, it falls back to
// last-known driver-record coordinates so matching is not starved.
func (s *Service) AvailableDrivers(ctx context.Context) ([]AvailableDriver, error) {
	since := s.now().Add(-freshnessWindow).UnixMilli()
	tracked, err := s.store.TrackedAvailable(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(tracked) > 0 {
		return tracked, nil
	}
	return s.store.FallbackAvailable(ctx)
}

// NearestDrivers ranks available drivers by distance from a point, capped at
// maxResults.
func (s *Service) NearestDrivers(ctx context.Context, lat, lng, maxRadiusKm float64, maxResults int) ([]geo.Ranked[AvailableDriver], error) {
	if !(types.Point{Lat: lat, Lng: lng}).Valid() {
		return nil, ErrInvalidCoordinate
	}
	available, err := s.AvailableDrivers(ctx)
	if err != nil {
		return nil, err
	}
	ranked := geo.NearestWithinRadius(lat, lng, available, maxRadiusKm)
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked, nil
}
