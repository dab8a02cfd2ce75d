package driver

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"swiftcab/internal/types"
)

// memStore is an in-memory storage so the service tests run without
// Postgres.
type memStore struct {
	drivers  map[types.ID]*Driver
	users    map[types.ID]*User
	vehicles map[types.ID][]Vehicle
}

func newMemStore() *memStore {
	return &memStore{
		drivers:  make(map[types.ID]*Driver),
		users:    make(map[types.ID]*User),
		vehicles: make(map[types.ID][]Vehicle),
	}
}

func (m *memStore) Create(_ context.Context, d *Driver) error {
	if d.ID == "" {
		d.ID = types.NewID()
	}
	cp := *d
	m.drivers[d.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) GetByUserID(_ context.Context, userID types.ID) (*Driver, error) {
	for _, d := range m.drivers {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListAvailable(context.Context) ([]*Driver, error) {
	var out []*Driver
	for _, d := range m.drivers {
		if d.IsAvailable && d.Verification == Verified {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, id types.ID, license *string, verification *VerificationStatus) (*Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if license != nil {
		d.LicenseNumber = *license
	}
	if verification != nil {
		d.Verification = *verification
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) UpdateRating(_ context.Context, id types.ID, score float64) error {
	d, ok := m.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Rating = (d.Rating*float64(d.TotalTrips) + score) / float64(d.TotalTrips+1)
	d.TotalTrips++
	return nil
}

func (m *memStore) CreateUser(_ context.Context, u *User) error {
	if u.ID == "" {
		u.ID = types.NewID()
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailInUse
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUser(_ context.Context, id types.ID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreateVehicle(_ context.Context, v *Vehicle) error {
	if v.ID == "" {
		v.ID = types.NewID()
	}
	m.vehicles[v.DriverID] = append(m.vehicles[v.DriverID], *v)
	return nil
}

func (m *memStore) ListVehicles(_ context.Context, driverID types.ID) ([]Vehicle, error) {
	return m.vehicles[driverID], nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Service{store: store, log: log}, store
}

func createUser(t *testing.T, svc *Service) *User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateUserCommand{
		Name:  "Amina Odhiambo",
		Email: "amina@example.com",
		Phone: "+254700000001",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestCreateUserThenRegisterDriver(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u := createUser(t, svc)
	d, err := svc.Register(ctx, RegisterCommand{UserID: u.ID, LicenseNumber: "DL-1234"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if d.Verification != Unverified {
		t.Errorf("new driver verification = %q, want %q", d.Verification, Unverified)
	}
	if d.IsAvailable {
		t.Error("new driver should not be available")
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []CreateUserCommand{
		{Email: "a@b.c", Phone: "1"},
		{Name: "n", Phone: "1"},
		{Name: "n", Email: "a@b.c"},
		{Name: "n", Email: "not-an-email", Phone: "1"},
	}
	for _, cmd := range cases {
		if _, err := svc.CreateUser(ctx, cmd); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateUser(%+v) err = %v, want ErrValidation", cmd, err)
		}
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	createUser(t, svc)
	_, err := svc.CreateUser(ctx, CreateUserCommand{Name: "x", Email: "amina@example.com", Phone: "2"})
	if !errors.Is(err, ErrEmailInUse) {
		t.Errorf("duplicate email err = %v, want ErrEmailInUse", err)
	}
}

// A registered driver starts unverified and only enters the matchable pool
// once an update flips the verification status.
func TestUpdateVerifiesDriver(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	u := createUser(t, svc)
	d, err := svc.Register(ctx, RegisterCommand{UserID: u.ID, LicenseNumber: "DL-1234"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	store.drivers[d.ID].IsAvailable = true

	if list, _ := svc.ListAvailable(ctx); len(list) != 0 {
		t.Fatalf("unverified driver listed as available: %+v", list)
	}

	verified := Verified
	updated, err := svc.Update(ctx, d.ID, UpdateCommand{Verification: &verified})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Verification != Verified {
		t.Errorf("verification = %q, want %q", updated.Verification, Verified)
	}
	list, err := svc.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(list) != 1 || list[0].ID != d.ID {
		t.Errorf("verified driver missing from available list: %+v", list)
	}
}

func TestUpdateRejectsUnknownVerification(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u := createUser(t, svc)
	d, err := svc.Register(ctx, RegisterCommand{UserID: u.ID, LicenseNumber: "DL-1234"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	bogus := VerificationStatus("approved")
	if _, err := svc.Update(ctx, d.ID, UpdateCommand{Verification: &bogus}); !errors.Is(err, ErrValidation) {
		t.Errorf("Update err = %v, want ErrValidation", err)
	}
	empty := ""
	if _, err := svc.Update(ctx, d.ID, UpdateCommand{LicenseNumber: &empty}); !errors.Is(err, ErrValidation) {
		t.Errorf("Update with empty license err = %v, want ErrValidation", err)
	}
}

func TestAddVehicle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u := createUser(t, svc)
	d, err := svc.Register(ctx, RegisterCommand{UserID: u.ID, LicenseNumber: "DL-1234"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.AddVehicle(ctx, d.ID, AddVehicleCommand{Make: "Toyota", Model: "Vitz"}); !errors.Is(err, ErrValidation) {
		t.Errorf("AddVehicle without plate err = %v, want ErrValidation", err)
	}
	if _, err := svc.AddVehicle(ctx, types.NewID(), AddVehicleCommand{Make: "Toyota", Model: "Vitz", Plate: "KDA 001A"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddVehicle for unknown driver err = %v, want ErrNotFound", err)
	}

	v, err := svc.AddVehicle(ctx, d.ID, AddVehicleCommand{Make: "Toyota", Model: "Vitz", Plate: "KDA 001A"})
	if err != nil {
		t.Fatalf("AddVehicle: %v", err)
	}
	if v.DriverID != d.ID {
		t.Errorf("vehicle driver = %q, want %q", v.DriverID, d.ID)
	}
	list, err := svc.ListVehicles(ctx, d.ID)
	if err != nil {
		t.Fatalf("ListVehicles: %v", err)
	}
	if len(list) != 1 || list[0].Plate != "KDA 001A" {
		t.Errorf("unexpected vehicles: %+v", list)
	}
}
