package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"swiftcab/internal/config"
	"swiftcab/internal/geo"
	"swiftcab/internal/modules/driver"
	"swiftcab/internal/modules/location"
	"swiftcab/internal/modules/pricing"
	"swiftcab/internal/routing"
	"swiftcab/internal/types"
)

var pickupCBD = types.Point{Lat: -1.2921, Lng: 36.8219}

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type memBookings struct {
	mu       sync.Mutex
	rows     map[types.ID]*Booking
	redeemed map[types.ID]int
}

func newMemBookings() *memBookings {
	return &memBookings{rows: make(map[types.ID]*Booking), redeemed: make(map[types.ID]int)}
}

func (m *memBookings) Create(_ context.Context, b *Booking, redeemDiscount bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = types.NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	cp := *b
	m.rows[b.ID] = &cp
	if redeemDiscount && b.DiscountID != nil {
		m.redeemed[*b.DiscountID]++
	}
	return nil
}

func (m *memBookings) Get(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) List(_ context.Context) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.rows {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memBookings) ListByUser(_ context.Context, userID types.ID) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.rows {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memBookings) ListByDriver(_ context.Context, driverID types.ID) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.rows {
		if b.DriverID != nil && *b.DriverID == driverID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id types.ID, from, to Status, driverID *types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if driverID != nil {
		b.DriverID = driverID
	}
	now := time.Now()
	switch to {
	case StatusInProgress:
		b.PickupTime = &now
	case StatusCompleted:
		b.DropoffTime = &now
	}
	return true, nil
}

func (m *memBookings) AssignDriver(_ context.Context, id types.ID, driverID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok || b.Status != StatusRequested {
		return false, nil
	}
	b.DriverID = &driverID
	return true, nil
}

func (m *memBookings) ResetToRequested(_ context.Context, id types.ID, from Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = StatusRequested
	b.DriverID = nil
	return true, nil
}

func (m *memBookings) Update(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	m.rows[b.ID] = &cp
	return nil
}

func (m *memBookings) Delete(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memDrivers struct {
	mu      sync.Mutex
	drivers map[types.ID]*driver.Driver
	users   map[types.ID]*driver.User
}

func newMemDrivers() *memDrivers {
	return &memDrivers{
		drivers: make(map[types.ID]*driver.Driver),
		users:   make(map[types.ID]*driver.User),
	}
}

func (m *memDrivers) add(id types.ID, rating float64, available bool) {
	m.drivers[id] = &driver.Driver{
		ID: id, UserID: "u-" + id, Rating: rating,
		Verification: driver.Verified, IsAvailable: available,
	}
	m.users["u-"+id] = &driver.User{ID: "u-" + id, Name: string(id), Phone: "+254700000000"}
}

func (m *memDrivers) Get(_ context.Context, id types.ID) (*driver.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, driver.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDrivers) GetUser(_ context.Context, id types.ID) (*driver.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, driver.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memDrivers) MarkUnavailable(_ context.Context, id types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok || !d.IsAvailable {
		return false, nil
	}
	d.IsAvailable = false
	return true, nil
}

func (m *memDrivers) MarkAvailable(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return driver.ErrNotFound
	}
	d.IsAvailable = true
	return nil
}

func (m *memDrivers) available(id types.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drivers[id].IsAvailable
}

type memLocations struct {
	drivers   *memDrivers
	mu        sync.Mutex
	positions map[types.ID]types.Point
}

func newMemLocations(d *memDrivers) *memLocations {
	return &memLocations{drivers: d, positions: make(map[types.ID]types.Point)}
}

func (m *memLocations) NearestDrivers(_ context.Context, lat, lng, maxRadiusKm float64, maxResults int) ([]geo.Ranked[location.AvailableDriver], error) {
	m.mu.Lock()
	var candidates []location.AvailableDriver
	for id, pt := range m.positions {
		d := m.drivers.drivers[id]
		if d == nil || !d.IsAvailable {
			continue
		}
		candidates = append(candidates, location.AvailableDriver{
			DriverID: id, Lat: pt.Lat, Lng: pt.Lng,
			Rating: d.Rating, IsAvailable: true,
		})
	}
	m.mu.Unlock()

	ranked := geo.NearestWithinRadius(lat, lng, candidates, maxRadiusKm)
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked, nil
}

func (m *memLocations) Current(_ context.Context, driverID types.ID) (*location.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pt, ok := m.positions[driverID]
	if !ok {
		return nil, location.ErrNotFound
	}
	return &location.Record{DriverID: driverID, Lat: pt.Lat, Lng: pt.Lng}, nil
}

func (m *memLocations) ForceSet(_ context.Context, driverID types.ID, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[driverID] = types.Point{Lat: lat, Lng: lng}
	return nil
}

// fakeRouter answers GetRoute from great-circle distance at 40 km/h, unless
// told to fail.
type fakeRouter struct {
	err        error
	noRoutable bool
	fixed      *routing.Route
}

func (f *fakeRouter) GetRoute(_ context.Context, start, end types.Point) (routing.Route, error) {
	if f.err != nil {
		return routing.Route{}, f.err
	}
	if f.noRoutable {
		return routing.Route{}, routing.ErrNoRoutablePoint
	}
	if f.fixed != nil {
		return *f.fixed, nil
	}
	km := geo.DistanceKm(start.Lat, start.Lng, end.Lat, end.Lng)
	return routing.Route{
		DistanceMeters:  km * 1000,
		DurationSeconds: km / 40 * 3600,
		Steps:           []routing.Step{{Instruction: "Drive", DistanceMeters: km * 1000}},
	}, nil
}

func (f *fakeRouter) Autocomplete(context.Context, string) ([]routing.Place, error) {
	return nil, nil
}

func (f *fakeRouter) ReverseGeocode(context.Context, types.Point) (string, error) {
	return "", nil
}

type fakeCatalog struct {
	tiers     map[types.ID]*pricing.Pricing
	discounts map[types.ID]*pricing.Discount
}

func (f *fakeCatalog) Get(_ context.Context, id types.ID) (*pricing.Pricing, error) {
	t, ok := f.tiers[id]
	if !ok {
		return nil, pricing.ErrNotFound
	}
	return t, nil
}

func (f *fakeCatalog) GetDiscount(_ context.Context, id types.ID) (*pricing.Discount, error) {
	d, ok := f.discounts[id]
	if !ok {
		return nil, pricing.ErrDiscountNotFound
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type harness struct {
	svc       *Service
	store     *memBookings
	drivers   *memDrivers
	locations *memLocations
	router    *fakeRouter
	catalog   *fakeCatalog
}

func newHarness() *harness {
	drivers := newMemDrivers()
	locations := newMemLocations(drivers)
	router := &fakeRouter{}
	store := newMemBookings()
	catalog := &fakeCatalog{
		tiers:     make(map[types.ID]*pricing.Pricing),
		discounts: make(map[types.ID]*pricing.Discount),
	}
	log := logrus.New()

	cfg := config.MatchingConfig{
		RadiusLadderKm:     []float64{5, 10, 15, 25},
		MaxCandidates:      20,
		DistanceWeight:     0.4,
		RatingWeight:       0.3,
		AvailabilityWeight: 0.2,
		VehicleTypeWeight:  0.1,
		FallbackRadiusKm:   5,
		FallbackSpeedKmph:  30,
	}
	matcher := NewMatcher(locations, router, cfg, log)
	svc := NewService(store, drivers, locations, matcher, router, catalog, nil, nil, nil, nil, log)
	return &harness{svc: svc, store: store, drivers: drivers, locations: locations, router: router, catalog: catalog}
}

func (h *harness) addDriver(id types.ID, rating float64, at types.Point) {
	h.drivers.add(id, rating, true)
	lat, lng := at.Lat, at.Lng
	h.drivers.drivers[id].Lat = &lat
	h.drivers.drivers[id].Lng = &lng
	h.locations.positions[id] = at
}

func (h *harness) seedBooking(t *testing.T, status Status, driverID *types.ID) *Booking {
	t.Helper()
	b := &Booking{
		UserID:          "u-rider",
		Status:          status,
		DriverID:        driverID,
		Pickup:          pickupCBD,
		Dropoff:         types.Point{Lat: -1.3183, Lng: 36.8169},
		Fare:            140,
		DistanceMeters:  10000,
		DurationSeconds: 1200,
	}
	h.drivers.users["u-rider"] = &driver.User{ID: "u-rider", Name: "Rider", Email: "rider@example.com", Phone: "+254711111111"}
	if err := h.store.Create(context.Background(), b, false); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

// assertDriverInvariant checks that accepted / in-progress bookings always
// carry a driver.
func assertDriverInvariant(t *testing.T, b *Booking) {
	t.Helper()
	if (b.Status == StatusAccepted || b.Status == StatusInProgress) && b.DriverID == nil {
		t.Fatalf("booking in state %s has no driver", b.Status)
	}
}

// offset returns a point roughly km kilometres north of base.
func offset(base types.Point, km float64) types.Point {
	return types.Point{Lat: base.Lat + km/110.574, Lng: base.Lng}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreateComputesFare(t *testing.T) {
	h := newHarness()
	h.drivers.users["u-rider"] = &driver.User{ID: "u-rider", Name: "Rider", Email: "rider@example.com"}
	h.router.fixed = &routing.Route{DistanceMeters: 10000, DurationSeconds: 1200}

	b, err := h.svc.Create(context.Background(), CreateCommand{
		UserID:  "u-rider",
		Pickup:  pickupCBD,
		Dropoff: types.Point{Lat: -1.3183, Lng: 36.8169},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Fare != 140 {
		t.Errorf("fare = %v, want 140", b.Fare)
	}
	if b.Status != StatusRequested {
		t.Errorf("status = %s, want requested", b.Status)
	}
	if b.DriverID != nil {
		t.Error("new booking must not have a driver")
	}
}

func TestCreateRedeemsDiscount(t *testing.T) {
	h := newHarness()
	h.drivers.users["u-rider"] = &driver.User{ID: "u-rider"}
	h.router.fixed = &routing.Route{DistanceMeters: 10000, DurationSeconds: 1200}

	discID := types.ID("disc1")
	h.catalog.discounts[discID] = &pricing.Discount{
		ID: discID, Type: pricing.DiscountPercentage, Value: 10,
		ExpiryDate: time.Now().Add(time.Hour), MaximumUses: 5,
	}

	b, err := h.svc.Create(context.Background(), CreateCommand{
		UserID: "u-rider", Pickup: pickupCBD,
		Dropoff:    types.Point{Lat: -1.3183, Lng: 36.8169},
		DiscountID: &discID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Fare != 126 {
		t.Errorf("fare = %v, want 126", b.Fare)
	}
	if h.store.redeemed[discID] != 1 {
		t.Errorf("discount redeemed %d times, want 1", h.store.redeemed[discID])
	}
}

func TestCreateExhaustedDiscountNotRedeemed(t *testing.T) {
	h := newHarness()
	h.drivers.users["u-rider"] = &driver.User{ID: "u-rider"}
	h.router.fixed = &routing.Route{DistanceMeters: 10000, DurationSeconds: 1200}

	discID := types.ID("disc1")
	h.catalog.discounts[discID] = &pricing.Discount{
		ID: discID, Type: pricing.DiscountPercentage, Value: 10,
		ExpiryDate: time.Now().Add(time.Hour), MaximumUses: 5, CurrentUses: 5,
	}

	b, err := h.svc.Create(context.Background(), CreateCommand{
		UserID: "u-rider", Pickup: pickupCBD,
		Dropoff:    types.Point{Lat: -1.3183, Lng: 36.8169},
		DiscountID: &discID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Fare != 140 {
		t.Errorf("fare = %v, want 140 (discount exhausted)", b.Fare)
	}
	if h.store.redeemed[discID] != 0 {
		t.Errorf("exhausted discount must not be redeemed, got %d", h.store.redeemed[discID])
	}
}

func TestCreateAbortsOnUnroutablePoint(t *testing.T) {
	h := newHarness()
	h.drivers.users["u-rider"] = &driver.User{ID: "u-rider"}
	h.router.noRoutable = true

	_, err := h.svc.Create(context.Background(), CreateCommand{
		UserID: "u-rider", Pickup: pickupCBD,
		Dropoff: types.Point{Lat: -1.3183, Lng: 36.8169},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if n := len(h.store.rows); n != 0 {
		t.Errorf("booking persisted despite route failure: %d rows", n)
	}
}

func TestCreateInvalidCoordinates(t *testing.T) {
	h := newHarness()
	_, err := h.svc.Create(context.Background(), CreateCommand{
		UserID:  "u-rider",
		Pickup:  types.Point{Lat: 95, Lng: 36.8},
		Dropoff: types.Point{Lat: -1.3, Lng: 36.8},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAutoAssignPicksNearest(t *testing.T) {
	h := newHarness()
	h.addDriver("near", 4.0, offset(pickupCBD, 0.3))
	h.addDriver("mid", 4.0, offset(pickupCBD, 0.5))
	h.addDriver("far", 4.0, offset(pickupCBD, 1.5))
	b := h.seedBooking(t, StatusRequested, nil)

	got, err := h.svc.AutoAssign(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if got.DriverID == nil || *got.DriverID != "near" {
		t.Fatalf("expected nearest driver, got %v", got.DriverID)
	}
	if got.Status != StatusRequested {
		t.Errorf("assignment must not leave requested, got %s", got.Status)
	}
	if h.drivers.available("near") {
		t.Error("assigned driver must be unavailable")
	}
	if !h.drivers.available("mid") || !h.drivers.available("far") {
		t.Error("unassigned drivers must stay available")
	}
}

func TestAutoAssignNoCandidates(t *testing.T) {
	h := newHarness()
	b := h.seedBooking(t, StatusRequested, nil)

	_, err := h.svc.AutoAssign(context.Background(), b.ID)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestAutoAssignRoutingFailureFallsBack(t *testing.T) {
	h := newHarness()
	h.addDriver("near", 4.0, offset(pickupCBD, 0.3))
	h.addDriver("far", 4.0, offset(pickupCBD, 1.5))
	h.router.err = &routing.APIError{Provider: "ors", Status: 503, Message: "unavailable"}
	b := h.seedBooking(t, StatusRequested, nil)

	got, err := h.svc.AutoAssign(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("AutoAssign with routing failure: %v", err)
	}
	if got.DriverID == nil || *got.DriverID != "near" {
		t.Fatalf("fallback should pick the nearest driver, got %v", got.DriverID)
	}
}

func TestAssignDriverUnavailable(t *testing.T) {
	h := newHarness()
	h.drivers.add("busy", 4.0, false)
	b := h.seedBooking(t, StatusRequested, nil)

	_, err := h.svc.AssignDriver(context.Background(), b.ID, "busy")
	if !errors.Is(err, ErrDriverUnavailable) {
		t.Fatalf("expected ErrDriverUnavailable, got %v", err)
	}
}

func TestAcceptSetsDriverAndStatus(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	b := h.seedBooking(t, StatusRequested, nil)

	got, err := h.svc.Accept(context.Background(), "d1", b.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	assertDriverInvariant(t, got)
	if got.Status != StatusAccepted {
		t.Errorf("status = %s, want accepted", got.Status)
	}
	if h.drivers.available("d1") {
		t.Error("accepting driver must become unavailable")
	}
}

func TestAcceptForbiddenForOtherDriver(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	h.addDriver("d2", 4.5, offset(pickupCBD, 0.7))
	owner := types.ID("d1")
	b := h.seedBooking(t, StatusRequested, &owner)

	_, err := h.svc.Accept(context.Background(), "d2", b.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAcceptWrongState(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	owner := types.ID("d1")
	b := h.seedBooking(t, StatusInProgress, &owner)

	_, err := h.svc.Accept(context.Background(), "d1", b.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRejectWithReassignmentSoleDriver(t *testing.T) {
	h := newHarness()
	h.addDriver("only", 4.5, offset(pickupCBD, 0.5))
	b := h.seedBooking(t, StatusRequested, nil)

	if _, err := h.svc.Accept(context.Background(), "only", b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	got, reassigned, err := h.svc.RejectWithReassignment(context.Background(), "only", b.ID)
	if err != nil {
		t.Fatalf("RejectWithReassignment: %v", err)
	}
	if reassigned {
		t.Error("sole driver rejection must not reassign")
	}
	if got.Status != StatusRequested {
		t.Errorf("status = %s, want requested", got.Status)
	}
	if got.DriverID != nil {
		t.Errorf("driver must be cleared, got %v", *got.DriverID)
	}
	if !h.drivers.available("only") {
		t.Error("rejecting driver must be freed")
	}
}

func TestRejectWithReassignmentFindsReplacement(t *testing.T) {
	h := newHarness()
	h.addDriver("first", 4.5, offset(pickupCBD, 0.5))
	h.addDriver("second", 4.5, offset(pickupCBD, 0.8))
	b := h.seedBooking(t, StatusRequested, nil)

	if _, err := h.svc.Accept(context.Background(), "first", b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	got, reassigned, err := h.svc.RejectWithReassignment(context.Background(), "first", b.ID)
	if err != nil {
		t.Fatalf("RejectWithReassignment: %v", err)
	}
	if !reassigned {
		t.Fatal("expected reassignment to the second driver")
	}
	assertDriverInvariant(t, got)
	if got.DriverID == nil || *got.DriverID == "first" {
		t.Fatalf("booking must never return to the rejecting driver, got %v", got.DriverID)
	}
	if got.Status != StatusAccepted {
		t.Errorf("status = %s, want accepted", got.Status)
	}
	if !h.drivers.available("first") {
		t.Error("rejecting driver must be freed")
	}
	if h.drivers.available("second") {
		t.Error("replacement driver must be claimed")
	}
}

func TestRejectWithReassignmentNotAssigned(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	b := h.seedBooking(t, StatusRequested, nil)

	_, _, err := h.svc.RejectWithReassignment(context.Background(), "d1", b.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestConfirmPickupFreesDriver(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	b := h.seedBooking(t, StatusRequested, nil)

	if _, err := h.svc.Accept(context.Background(), "d1", b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	got, err := h.svc.ConfirmPickup(context.Background(), "d1", b.ID)
	if err != nil {
		t.Fatalf("ConfirmPickup: %v", err)
	}
	assertDriverInvariant(t, got)
	if got.Status != StatusInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}
	if got.PickupTime == nil {
		t.Error("pickup time must be stamped")
	}
	// Intentional: the driver can be matched to their next ride while this
	// one is still in progress.
	if !h.drivers.available("d1") {
		t.Error("driver must be freed on pickup confirmation")
	}
}

func TestConfirmPickupWrongState(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	owner := types.ID("d1")
	b := h.seedBooking(t, StatusRequested, &owner)

	_, err := h.svc.ConfirmPickup(context.Background(), "d1", b.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from requested, got %v", err)
	}
}

func TestCompleteMovesDriverToDropoff(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	b := h.seedBooking(t, StatusRequested, nil)

	if _, err := h.svc.Accept(context.Background(), "d1", b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := h.svc.ConfirmPickup(context.Background(), "d1", b.ID); err != nil {
		t.Fatalf("ConfirmPickup: %v", err)
	}

	got, err := h.svc.Complete(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.DropoffTime == nil {
		t.Error("dropoff time must be stamped")
	}
	if !h.drivers.available("d1") {
		t.Error("driver must be freed on completion")
	}
	pos := h.locations.positions["d1"]
	if pos.Lat != b.Dropoff.Lat || pos.Lng != b.Dropoff.Lng {
		t.Errorf("driver position = %+v, want dropoff %+v", pos, b.Dropoff)
	}
}

func TestCancelFreesDriver(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	b := h.seedBooking(t, StatusRequested, nil)

	if _, err := h.svc.Accept(context.Background(), "d1", b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	got, err := h.svc.Cancel(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if !h.drivers.available("d1") {
		t.Error("driver must be freed on cancellation")
	}
}

func TestCancelFromCompletedRejected(t *testing.T) {
	h := newHarness()
	b := h.seedBooking(t, StatusCompleted, nil)

	_, err := h.svc.Cancel(context.Background(), b.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCompletePaymentFromRequested(t *testing.T) {
	h := newHarness()
	b := h.seedBooking(t, StatusRequested, nil)

	got, err := h.svc.CompletePayment(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("CompletePayment: %v", err)
	}
	if got.Status != StatusPaymentCompleted {
		t.Errorf("status = %s, want payment_completed", got.Status)
	}
}

func TestUpdateFreesDriverOnCancel(t *testing.T) {
	h := newHarness()
	h.addDriver("d1", 4.5, offset(pickupCBD, 0.5))
	b := h.seedBooking(t, StatusRequested, nil)

	if _, err := h.svc.Accept(context.Background(), "d1", b.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	cancelled := StatusCancelled
	if _, err := h.svc.Update(context.Background(), b.ID, UpdateCommand{Status: &cancelled}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !h.drivers.available("d1") {
		t.Error("overwriting status to cancelled must free the driver")
	}
}

func TestGetNotFound(t *testing.T) {
	h := newHarness()
	if _, err := h.svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
