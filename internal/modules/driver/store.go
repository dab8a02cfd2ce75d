package driver

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"swiftcab/internal/cache"
	"swiftcab/internal/types"
)

var (
	ErrNotFound     = errors.New("driver not found")
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicate    = errors.New("driver already registered for user")
	ErrEmailInUse   = errors.New("email already in use")
	ErrPlateInUse   = errors.New("plate already registered")
)

const driverColumns = `id, user_id, license_number, rating, verification_status,
	total_trips, is_available, latitude, longitude, created_at`

type Store struct {
	db    *pgxpool.Pool
	cache *cache.Cache
}

func NewStore(db *pgxpool.Pool, c *cache.Cache) *Store {
	return &Store{db: db, cache: c}
}

func driverCacheKey(id types.ID) string { return "driver:" + string(id) }

const availableDriversKey = "drivers:available"

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	err := row.Scan(
		&d.ID, &d.UserID, &d.LicenseNumber, &d.Rating, &d.Verification,
		&d.TotalTrips, &d.IsAvailable, &d.Lat, &d.Lng, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) Create(ctx context.Context, d *Driver) error {
	if d.ID == "" {
		d.ID = types.NewID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (
			id, user_id, license_number, rating, verification_status,
			total_trips, is_available, latitude, longitude, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(d.ID), string(d.UserID), d.LicenseNumber, d.Rating, string(d.Verification),
		d.TotalTrips, d.IsAvailable, d.Lat, d.Lng, d.CreatedAt,
	)
	if err != nil {
		return err
	}
	s.cache.Delete(ctx, availableDriversKey)
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	var cached Driver
	if s.cache.Get(ctx, driverCacheKey(id), &cached) {
		return &cached, nil
	}
	d, err := scanDriver(s.db.QueryRow(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE id = $1`, string(id),
	))
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, driverCacheKey(id), d)
	return d, nil
}

func (s *Store) GetByUserID(ctx context.Context, userID types.ID) (*Driver, error) {
	return scanDriver(s.db.QueryRow(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE user_id = $1`, string(userID),
	))
}

// ListAvailable returns verified, available drivers ordered by rating.
func (s *Store) ListAvailable(ctx context.Context) ([]*Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE is_available = TRUE AND verification_status = 'verified'
		ORDER BY rating DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update overwrites the mutable profile fields. Nil fields keep their
// current value.
func (s *Store) Update(ctx context.Context, id types.ID, license *string, verification *VerificationStatus) (*Driver, error) {
	d, err := scanDriver(s.db.QueryRow(ctx, `
		UPDATE drivers
		SET license_number = COALESCE($2, license_number),
		    verification_status = COALESCE($3, verification_status)
		WHERE id = $1
		RETURNING `+driverColumns,
		string(id), license, (*string)(verification),
	))
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, driverCacheKey(id), availableDriversKey)
	return d, nil
}

// MarkUnavailable claims the driver for an assignment. The availability check
// lives in the WHERE clause so two concurrent assignments cannot both win;
// the loser sees false.
func (s *Store) MarkUnavailable(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET is_available = FALSE
		WHERE id = $1 AND is_available = TRUE`,
		string(id),
	)
	if err != nil {
		return false, err
	}
	s.cache.Delete(ctx, driverCacheKey(id), availableDriversKey)
	return tag.RowsAffected() == 1, nil
}

func (s *Store) MarkAvailable(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET is_available = TRUE
		WHERE id = $1`,
		string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.cache.Delete(ctx, driverCacheKey(id), availableDriversKey)
	return nil
}

func (s *Store) UpdateCoords(ctx context.Context, id types.ID, lat, lng float64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET latitude = $2, longitude = $3
		WHERE id = $1`,
		string(id), lat, lng,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.cache.Delete(ctx, driverCacheKey(id))
	return nil
}

// UpdateRating folds a new review score into the running average and bumps
// the trip counter.
func (s *Store) UpdateRating(ctx context.Context, id types.ID, score float64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET rating = (rating * total_trips + $2) / (total_trips + 1),
		    total_trips = total_trips + 1
		WHERE id = $1`,
		string(id), score,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.cache.Delete(ctx, driverCacheKey(id), availableDriversKey)
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = types.NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, name, email, phone_number, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(u.ID), u.Name, u.Email, u.Phone, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailInUse
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, phone_number, created_at
		FROM users
		WHERE id = $1`, string(id),
	)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateVehicle(ctx context.Context, v *Vehicle) error {
	if v.ID == "" {
		v.ID = types.NewID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (id, driver_id, make, model, plate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(v.ID), string(v.DriverID), v.Make, v.Model, v.Plate, v.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrPlateInUse
	}
	return err
}

func (s *Store) ListVehicles(ctx context.Context, driverID types.ID) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, driver_id, make, model, plate, created_at
		FROM vehicles
		WHERE driver_id = $1
		ORDER BY created_at`, string(driverID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.DriverID, &v.Make, &v.Model, &v.Plate, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
