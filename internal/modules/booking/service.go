package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"swiftcab/internal/dispatch"
	"swiftcab/internal/modules/driver"
	"swiftcab/internal/modules/location"
	"swiftcab/internal/modules/pricing"
	"swiftcab/internal/notify"
	"swiftcab/internal/observability"
	"swiftcab/internal/routing"
	"swiftcab/internal/types"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrValidation        = errors.New("invalid booking input")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrForbidden         = errors.New("booking assigned to a different driver")
	ErrDriverUnavailable = errors.New("driver not available")
	ErrConflict          = errors.New("booking state conflict")
)

// DriverDirectory is the slice of the driver module the booking flows need.
type DriverDirectory interface {
	Get(ctx context.Context, id types.ID) (*driver.Driver, error)
	GetUser(ctx context.Context, id types.ID) (*driver.User, error)
	MarkUnavailable(ctx context.Context, id types.ID) (bool, error)
	MarkAvailable(ctx context.Context, id types.ID) error
}

// LocationTracker extends LocationFinder with the direct position operations
// the lifecycle needs.
type LocationTracker interface {
	LocationFinder
	Current(ctx context.Context, driverID types.ID) (*location.Record, error)
	ForceSet(ctx context.Context, driverID types.ID, lat, lng float64) error
}

// PricingCatalog resolves fare tiers and discounts at creation time.
type PricingCatalog interface {
	Get(ctx context.Context, id types.ID) (*pricing.Pricing, error)
	GetDiscount(ctx context.Context, id types.ID) (*pricing.Discount, error)
}

type EmailSender interface {
	Send(to, subject, body string) error
}

type SMSSender interface {
	Send(to, message string) error
}

type OfferDispatcher interface {
	Offer(driverID types.ID, offer dispatch.Offer) error
}

type Charger interface {
	Charge(ctx context.Context, fare float64, description string) (string, error)
}

// Service drives the booking lifecycle. Email, SMS, offer dispatch, and the
// charger are optional collaborators; a nil value disables that side effect.
type Service struct {
	store      Store
	drivers    DriverDirectory
	locations  LocationTracker
	matcher    *Matcher
	router     routing.Provider
	catalog    PricingCatalog
	email      EmailSender
	sms        SMSSender
	dispatcher OfferDispatcher
	charger    Charger
	log        *logrus.Logger
}

func NewService(
	store Store,
	drivers DriverDirectory,
	locations LocationTracker,
	matcher *Matcher,
	router routing.Provider,
	catalog PricingCatalog,
	email EmailSender,
	sms SMSSender,
	dispatcher OfferDispatcher,
	charger Charger,
	log *logrus.Logger,
) *Service {
	return &Service{
		store:      store,
		drivers:    drivers,
		locations:  locations,
		matcher:    matcher,
		router:     router,
		catalog:    catalog,
		email:      email,
		sms:        sms,
		dispatcher: dispatcher,
		charger:    charger,
		log:        log,
	}
}

type CreateCommand struct {
	UserID     types.ID
	Pickup     types.Point
	Dropoff    types.Point
	PricingID  *types.ID
	DiscountID *types.ID
	VehicleID  *types.ID
	PickupTime *time.Time
}

// Create computes route and fare up front and persists the booking in
// Requested. A booking is never written with an unresolvable route or a
// non-finite fare.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !cmd.Pickup.Valid() || !cmd.Dropoff.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}

	user, err := s.drivers.GetUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	route, err := s.router.GetRoute(ctx, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		if errors.Is(err, routing.ErrNoRoutablePoint) {
			return nil, fmt.Errorf("%w: no routable point near pickup or dropoff", ErrValidation)
		}
		return nil, err
	}

	var tier *pricing.Pricing
	if cmd.PricingID != nil {
		if tier, err = s.catalog.Get(ctx, *cmd.PricingID); err != nil {
			return nil, err
		}
	}
	var disc *pricing.Discount
	if cmd.DiscountID != nil {
		if disc, err = s.catalog.GetDiscount(ctx, *cmd.DiscountID); err != nil {
			return nil, err
		}
	}

	fare, err := pricing.ComputeFare(route.DistanceMeters, route.DurationSeconds, tier, disc, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	b := &Booking{
		UserID:          cmd.UserID,
		Status:          StatusRequested,
		Pickup:          cmd.Pickup,
		Dropoff:         cmd.Dropoff,
		PricingID:       cmd.PricingID,
		DiscountID:      cmd.DiscountID,
		VehicleID:       cmd.VehicleID,
		Fare:            fare.Fare,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		PickupTime:      cmd.PickupTime,
	}
	if err := s.store.Create(ctx, b, fare.DiscountApplied); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"user_id":    b.UserID,
		"fare":       b.Fare,
	}).Info("booking created")

	if s.email != nil && user.Email != "" {
		go func() {
			body := notify.BookingCreatedBody(user.Name, b.Fare, b.DistanceMeters, b.DurationSeconds)
			if err := s.email.Send(user.Email, "Booking confirmation", body); err != nil {
				s.log.WithError(err).WithField("booking_id", b.ID).Warn("booking email failed")
			}
		}()
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Booking, error) {
	return s.store.List(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID types.ID) ([]*Booking, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListByDriver returns bookings assigned to the driver. Unassigned requested
// rows belong to the market, not to any driver, so they are excluded by
// construction.
func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error) {
	return s.store.ListByDriver(ctx, driverID)
}

// AssignDriver attaches an available driver to a Requested booking without
// changing its status; only an explicit accept moves it forward. The
// availability flip is the atomic claim: losing it means someone else got
// the driver first.
func (s *Service) AssignDriver(ctx context.Context, bookingID, driverID types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusRequested {
		return nil, fmt.Errorf("%w: cannot assign driver in state %s", ErrInvalidState, b.Status)
	}
	if _, err := s.drivers.Get(ctx, driverID); err != nil {
		return nil, err
	}

	claimed, err := s.drivers.MarkUnavailable(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		observability.AssignmentsTotal.WithLabelValues("driver_unavailable").Inc()
		return nil, ErrDriverUnavailable
	}

	ok, err := s.store.AssignDriver(ctx, bookingID, driverID)
	if err == nil && !ok {
		err = ErrConflict
	}
	if err != nil {
		if relErr := s.drivers.MarkAvailable(ctx, driverID); relErr != nil {
			s.log.WithError(relErr).WithField("driver_id", driverID).Error("failed to release driver after assignment conflict")
		}
		return nil, err
	}

	observability.AssignmentsTotal.WithLabelValues("assigned").Inc()
	s.pushOffer(driverID, b)

	b.DriverID = &driverID
	return b, nil
}

// AutoAssign runs the matching engine and assigns the best candidate. When
// the routing-dependent scoring path fails upstream, it degrades to the
// single nearest driver by great-circle distance instead of aborting.
func (s *Service) AutoAssign(ctx context.Context, bookingID types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusRequested {
		return nil, fmt.Errorf("%w: cannot auto-assign in state %s", ErrInvalidState, b.Status)
	}

	candidates, err := s.matcher.Rank(ctx, b.Pickup, "")
	if err != nil {
		if errors.Is(err, ErrNoCandidates) {
			observability.AssignmentsTotal.WithLabelValues("no_candidates").Inc()
			return nil, err
		}
		s.log.WithError(err).WithField("booking_id", bookingID).Warn("scored matching failed, falling back to nearest driver")
		observability.RoutingFallbacksTotal.Inc()
		nearest, ferr := s.matcher.NearestByDistance(ctx, b.Pickup, "")
		if ferr != nil {
			return nil, ferr
		}
		candidates = []Candidate{*nearest}
	}

	// The top candidate can be claimed by a concurrent assignment between
	// ranking and the availability flip; walk down the list.
	for _, c := range candidates {
		assigned, err := s.AssignDriver(ctx, bookingID, c.Driver.DriverID)
		if errors.Is(err, ErrDriverUnavailable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return assigned, nil
	}
	observability.AssignmentsTotal.WithLabelValues("no_candidates").Inc()
	return nil, ErrNoCandidates
}

// Accept moves a Requested booking to Accepted on behalf of a driver. The
// booking must be unassigned or already assigned to this driver.
func (s *Service) Accept(ctx context.Context, driverID, bookingID types.ID) (*Booking, error) {
	d, err := s.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, StatusAccepted) {
		return nil, fmt.Errorf("%w: cannot accept booking in state %s", ErrInvalidState, b.Status)
	}
	if b.DriverID != nil && *b.DriverID != d.ID {
		return nil, ErrForbidden
	}

	// A driver already holding this booking was claimed at assignment time.
	alreadyHeld := b.DriverID != nil && *b.DriverID == d.ID
	if !alreadyHeld {
		claimed, err := s.drivers.MarkUnavailable(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, ErrDriverUnavailable
		}
	}

	ok, err := s.store.UpdateStatus(ctx, b.ID, StatusRequested, StatusAccepted, &d.ID)
	if err == nil && !ok {
		err = ErrConflict
	}
	if err != nil {
		if !alreadyHeld {
			if relErr := s.drivers.MarkAvailable(ctx, d.ID); relErr != nil {
				s.log.WithError(relErr).WithField("driver_id", d.ID).Error("failed to release driver after accept conflict")
			}
		}
		return nil, err
	}

	observability.AssignmentsTotal.WithLabelValues("accepted").Inc()
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"driver_id":  d.ID,
	}).Info("booking accepted")

	s.notifyAccepted(ctx, b, d)

	b.Status = StatusAccepted
	b.DriverID = &d.ID
	return b, nil
}

// RejectWithReassignment clears the rejecting driver, puts the booking back
// in Requested, and tries to hand it to a different nearby driver. The
// rejector is excluded from the candidate search and re-checked before the
// handoff.
func (s *Service) RejectWithReassignment(ctx context.Context, driverID, bookingID types.ID) (*Booking, bool, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, false, err
	}
	if b.DriverID == nil || *b.DriverID != driverID {
		return nil, false, ErrForbidden
	}
	if b.Status != StatusRequested && b.Status != StatusAccepted {
		return nil, false, fmt.Errorf("%w: cannot reject booking in state %s", ErrInvalidState, b.Status)
	}

	ok, err := s.store.ResetToRequested(ctx, b.ID, b.Status)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ErrConflict
	}
	if err := s.drivers.MarkAvailable(ctx, driverID); err != nil {
		s.log.WithError(err).WithField("driver_id", driverID).Error("failed to free rejecting driver")
	}
	b.Status = StatusRequested
	b.DriverID = nil

	replacement, err := s.findReplacement(ctx, b.Pickup, driverID)
	if err != nil {
		if errors.Is(err, ErrNoCandidates) {
			observability.ReassignmentsTotal.WithLabelValues("none_found").Inc()
			return b, false, nil
		}
		return nil, false, err
	}
	if replacement == driverID {
		// The exclusion filter should make this impossible; never hand the
		// booking back to the driver who just rejected it.
		observability.ReassignmentsTotal.WithLabelValues("none_found").Inc()
		return b, false, nil
	}

	claimed, err := s.drivers.MarkUnavailable(ctx, replacement)
	if err != nil || !claimed {
		observability.ReassignmentsTotal.WithLabelValues("none_found").Inc()
		return b, false, err
	}
	ok, err = s.store.UpdateStatus(ctx, b.ID, StatusRequested, StatusAccepted, &replacement)
	if err == nil && !ok {
		err = ErrConflict
	}
	if err != nil {
		if relErr := s.drivers.MarkAvailable(ctx, replacement); relErr != nil {
			s.log.WithError(relErr).WithField("driver_id", replacement).Error("failed to release replacement driver")
		}
		if errors.Is(err, ErrConflict) {
			return b, false, nil
		}
		return nil, false, err
	}

	observability.ReassignmentsTotal.WithLabelValues("reassigned").Inc()
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"rejected":   driverID,
		"reassigned": replacement,
	}).Info("booking reassigned")

	b.Status = StatusAccepted
	b.DriverID = &replacement
	s.pushOffer(replacement, b)
	return b, true, nil
}

func (s *Service) findReplacement(ctx context.Context, pickup types.Point, exclude types.ID) (types.ID, error) {
	candidates, err := s.matcher.Rank(ctx, pickup, exclude)
	if err != nil {
		if errors.Is(err, ErrNoCandidates) {
			return "", err
		}
		s.log.WithError(err).Warn("scored reassignment failed, falling back to nearest driver")
		nearest, ferr := s.matcher.NearestByDistance(ctx, pickup, exclude)
		if ferr != nil {
			return "", ferr
		}
		return nearest.Driver.DriverID, nil
	}
	return candidates[0].Driver.DriverID, nil
}

// Reject marks the booking rejected_by_driver with no reassignment attempt
// and frees the driver.
func (s *Service) Reject(ctx context.Context, driverID, bookingID types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.DriverID == nil || *b.DriverID != driverID {
		return nil, ErrForbidden
	}
	if !CanTransition(b.Status, StatusRejectedByDriver) {
		return nil, fmt.Errorf("%w: cannot reject booking in state %s", ErrInvalidState, b.Status)
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusRejectedByDriver, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if err := s.drivers.MarkAvailable(ctx, driverID); err != nil {
		s.log.WithError(err).WithField("driver_id", driverID).Error("failed to free rejecting driver")
	}
	b.Status = StatusRejectedByDriver
	return b, nil
}

// ConfirmPickup moves an Accepted booking to In_progress. The driver is
// freed immediately: an in-progress driver can already be matched to their
// next ride.
func (s *Service) ConfirmPickup(ctx context.Context, driverID, bookingID types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.DriverID == nil || *b.DriverID != driverID {
		return nil, ErrForbidden
	}
	if !CanTransition(b.Status, StatusInProgress) {
		return nil, fmt.Errorf("%w: cannot confirm pickup in state %s", ErrInvalidState, b.Status)
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, StatusAccepted, StatusInProgress, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if err := s.drivers.MarkAvailable(ctx, driverID); err != nil {
		s.log.WithError(err).WithField("driver_id", driverID).Error("failed to free driver on pickup")
	}
	now := time.Now()
	b.Status = StatusInProgress
	b.PickupTime = &now
	return b, nil
}

// Complete finishes an in-progress ride: dropoff time is stamped, the
// driver's tracked position moves to the dropoff point, and the driver is
// freed.
func (s *Service) Complete(ctx context.Context, bookingID types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, StatusCompleted) {
		return nil, fmt.Errorf("%w: cannot complete booking in state %s", ErrInvalidState, b.Status)
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, StatusInProgress, StatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	if b.DriverID != nil {
		if err := s.locations.ForceSet(ctx, *b.DriverID, b.Dropoff.Lat, b.Dropoff.Lng); err != nil {
			s.log.WithError(err).WithField("driver_id", *b.DriverID).Warn("failed to move driver location to dropoff")
		}
		if err := s.drivers.MarkAvailable(ctx, *b.DriverID); err != nil {
			s.log.WithError(err).WithField("driver_id", *b.DriverID).Error("failed to free driver on completion")
		}
	}

	now := time.Now()
	b.Status = StatusCompleted
	b.DropoffTime = &now
	return b, nil
}

// CompletePayment charges the fare and marks the booking payment_completed.
func (s *Service) CompletePayment(ctx context.Context, bookingID types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, StatusPaymentCompleted) {
		return nil, fmt.Errorf("%w: cannot complete payment in state %s", ErrInvalidState, b.Status)
	}
	if s.charger != nil {
		if _, err := s.charger.Charge(ctx, b.Fare, fmt.Sprintf("swiftcab booking %s", b.ID)); err != nil {
			return nil, fmt.Errorf("charge fare: %w", err)
		}
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusPaymentCompleted, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	b.Status = StatusPaymentCompleted
	return b, nil
}

// Cancel ends the booking from Requested or Accepted and frees the assigned
// driver if any.
func (s *Service) Cancel(ctx context.Context, bookingID types.ID) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel booking in state %s", ErrInvalidState, b.Status)
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if b.DriverID != nil {
		if err := s.drivers.MarkAvailable(ctx, *b.DriverID); err != nil {
			s.log.WithError(err).WithField("driver_id", *b.DriverID).Error("failed to free driver on cancellation")
		}
	}
	b.Status = StatusCancelled
	return b, nil
}

type UpdateCommand struct {
	Status      *Status
	PickupTime  *time.Time
	DropoffTime *time.Time
	Fare        *float64
}

// Update is the generic admin write. It bypasses the transition table but
// still frees the driver whenever the status lands on Completed or newly
// becomes Cancelled.
func (s *Service) Update(ctx context.Context, bookingID types.ID, cmd UpdateCommand) (*Booking, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	prev := b.Status
	if cmd.Status != nil {
		b.Status = *cmd.Status
	}
	if cmd.PickupTime != nil {
		b.PickupTime = cmd.PickupTime
	}
	if cmd.DropoffTime != nil {
		b.DropoffTime = cmd.DropoffTime
	}
	if cmd.Fare != nil {
		if *cmd.Fare < 0 {
			return nil, fmt.Errorf("%w: fare must be non-negative", ErrValidation)
		}
		b.Fare = *cmd.Fare
	}
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}

	freed := b.Status == StatusCompleted || (b.Status == StatusCancelled && prev != StatusCancelled)
	if freed && b.DriverID != nil {
		if err := s.drivers.MarkAvailable(ctx, *b.DriverID); err != nil {
			s.log.WithError(err).WithField("driver_id", *b.DriverID).Error("failed to free driver on status overwrite")
		}
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, bookingID types.ID) error {
	return s.store.Delete(ctx, bookingID)
}

// NearbyDrivers returns ranked candidates with route, ETA, and turn-by-turn
// instructions for a booking's pickup point.
func (s *Service) NearbyDrivers(ctx context.Context, bookingID types.ID, maxRadiusKm float64, maxResults int) ([]Candidate, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	ranked, err := s.locations.NearestDrivers(ctx, b.Pickup.Lat, b.Pickup.Lng, maxRadiusKm, maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		route, err := routing.RouteOrFallback(ctx, s.router, b.Pickup, types.Point{Lat: r.Item.Lat, Lng: r.Item.Lng}, s.matcher.cfg.FallbackSpeedKmph)
		if err != nil {
			return nil, err
		}
		out = append(out, Candidate{
			Driver:       r.Item,
			DistanceKm:   r.DistanceKm,
			Route:        route,
			Score:        s.matcher.score(r.Item, route),
			Instructions: routing.FormatInstructions(route.Steps),
		})
	}
	return out, nil
}

// Progress is the driver-to-pickup leg of an accepted booking.
type Progress struct {
	DistanceMeters  float64  `json:"distance_meters"`
	DurationSeconds float64  `json:"duration_seconds"`
	Fallback        bool     `json:"fallback"`
	Instructions    []string `json:"instructions"`
}

// DriverProgress reports how far the assigned driver is from the pickup.
func (s *Service) DriverProgress(ctx context.Context, driverID, bookingID types.ID) (*Progress, error) {
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.DriverID == nil || *b.DriverID != driverID {
		return nil, ErrForbidden
	}
	rec, err := s.locations.Current(ctx, driverID)
	if err != nil {
		return nil, err
	}
	route, err := routing.RouteOrFallback(ctx, s.router, types.Point{Lat: rec.Lat, Lng: rec.Lng}, b.Pickup, s.matcher.cfg.FallbackSpeedKmph)
	if err != nil {
		return nil, err
	}
	return &Progress{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Fallback:        route.Fallback,
		Instructions:    routing.FormatInstructions(route.Steps),
	}, nil
}

func (s *Service) pushOffer(driverID types.ID, b *Booking) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Offer(driverID, dispatch.Offer{
		BookingID:     b.ID,
		PickupLat:     b.Pickup.Lat,
		PickupLng:     b.Pickup.Lng,
		DropoffLat:    b.Dropoff.Lat,
		DropoffLng:    b.Dropoff.Lng,
		Fare:          b.Fare,
		DistanceMeter: b.DistanceMeters,
	})
	if err != nil && !errors.Is(err, dispatch.ErrNoSession) {
		s.log.WithError(err).WithField("driver_id", driverID).Warn("offer push failed")
	}
}

func (s *Service) notifyAccepted(ctx context.Context, b *Booking, d *driver.Driver) {
	if s.sms == nil {
		return
	}
	user, err := s.drivers.GetUser(ctx, b.UserID)
	if err != nil || user.Phone == "" {
		return
	}
	driverUser, _ := s.drivers.GetUser(ctx, d.UserID)
	name := ""
	if driverUser != nil {
		name = driverUser.Name
	}
	go func() {
		if err := s.sms.Send(user.Phone, notify.BookingAcceptedMessage(name)); err != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Warn("acceptance sms failed")
		}
	}()
}
