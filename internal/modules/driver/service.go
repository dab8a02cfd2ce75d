package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"swiftcab/internal/types"
)

var ErrValidation = errors.New("invalid driver input")

// storage is the slice of Store the service uses; tests substitute an
// in-memory one.
type storage interface {
	Create(ctx context.Context, d *Driver) error
	Get(ctx context.Context, id types.ID) (*Driver, error)
	GetByUserID(ctx context.Context, userID types.ID) (*Driver, error)
	ListAvailable(ctx context.Context) ([]*Driver, error)
	Update(ctx context.Context, id types.ID, license *string, verification *VerificationStatus) (*Driver, error)
	UpdateRating(ctx context.Context, id types.ID, score float64) error
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id types.ID) (*User, error)
	CreateVehicle(ctx context.Context, v *Vehicle) error
	ListVehicles(ctx context.Context, driverID types.ID) ([]Vehicle, error)
}

type Service struct {
	store storage
	log   *logrus.Logger
}

func NewService(store *Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

type RegisterCommand struct {
	UserID        types.ID
	LicenseNumber string
}

// Register creates a driver profile for an existing user. A user holds at
// most one driver profile.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Driver, error) {
	if cmd.UserID == "" || cmd.LicenseNumber == "" {
		return nil, fmt.Errorf("%w: user id and license number are required", ErrValidation)
	}
	if _, err := s.store.GetUser(ctx, cmd.UserID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetByUserID(ctx, cmd.UserID); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	d := &Driver{
		UserID:        cmd.UserID,
		LicenseNumber: cmd.LicenseNumber,
		Verification:  Unverified,
		IsAvailable:   false,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"driver_id": d.ID,
		"user_id":   d.UserID,
	}).Info("driver registered")
	return d, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListAvailable(ctx context.Context) ([]*Driver, error) {
	return s.store.ListAvailable(ctx)
}

type UpdateCommand struct {
	LicenseNumber *string
	Verification  *VerificationStatus
}

// Update changes the driver profile. Verification moves a registered driver
// into (or out of) the matchable pool; registration always starts
// unverified.
func (s *Service) Update(ctx context.Context, id types.ID, cmd UpdateCommand) (*Driver, error) {
	if cmd.LicenseNumber != nil && *cmd.LicenseNumber == "" {
		return nil, fmt.Errorf("%w: license number cannot be empty", ErrValidation)
	}
	if cmd.Verification != nil {
		switch *cmd.Verification {
		case Unverified, Verified, Rejected:
		default:
			return nil, fmt.Errorf("%w: unknown verification status %q", ErrValidation, *cmd.Verification)
		}
	}
	d, err := s.store.Update(ctx, id, cmd.LicenseNumber, cmd.Verification)
	if err != nil {
		return nil, err
	}
	if cmd.Verification != nil {
		s.log.WithFields(logrus.Fields{
			"driver_id":    d.ID,
			"verification": d.Verification,
		}).Info("driver verification updated")
	}
	return d, nil
}

// RecordReview folds a 0-5 review score into the driver's average rating.
func (s *Service) RecordReview(ctx context.Context, id types.ID, score float64) error {
	if score < 0 || score > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrValidation)
	}
	return s.store.UpdateRating(ctx, id, score)
}

type CreateUserCommand struct {
	Name  string
	Email string
	Phone string
}

// CreateUser registers a rider account. Bookings and driver profiles both
// hang off a user row, so this is the entry point for any fresh deployment.
func (s *Service) CreateUser(ctx context.Context, cmd CreateUserCommand) (*User, error) {
	if cmd.Name == "" || cmd.Email == "" || cmd.Phone == "" {
		return nil, fmt.Errorf("%w: name, email and phone are required", ErrValidation)
	}
	if !strings.Contains(cmd.Email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrValidation)
	}
	u := &User{Name: cmd.Name, Email: cmd.Email, Phone: cmd.Phone}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id types.ID) (*User, error) {
	return s.store.GetUser(ctx, id)
}

type AddVehicleCommand struct {
	Make  string
	Model string
	Plate string
}

func (s *Service) AddVehicle(ctx context.Context, driverID types.ID, cmd AddVehicleCommand) (*Vehicle, error) {
	if cmd.Make == "" || cmd.Model == "" || cmd.Plate == "" {
		return nil, fmt.Errorf("%w: make, model and plate are required", ErrValidation)
	}
	if _, err := s.store.Get(ctx, driverID); err != nil {
		return nil, err
	}
	v := &Vehicle{DriverID: driverID, Make: cmd.Make, Model: cmd.Model, Plate: cmd.Plate}
	if err := s.store.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) ListVehicles(ctx context.Context, driverID types.ID) ([]Vehicle, error) {
	return s.store.ListVehicles(ctx, driverID)
}
