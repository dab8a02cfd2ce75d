package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swiftcab/internal/cache"
	"swiftcab/internal/modules/pricing"
	"swiftcab/internal/types"
)

// Store is the persistence surface the service needs. PgxStore is the system
// of record; tests use an in-memory fake.
type Store interface {
	Create(ctx context.Context, b *Booking, redeemDiscount bool) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	ListByUser(ctx context.Context, userID types.ID) ([]*Booking, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error)
	// UpdateStatus is a compare-and-set: the write applies only if the row is
	// still in from. Lifecycle timestamps are stamped by the target status.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, driverID *types.ID) (bool, error)
	// AssignDriver sets the driver without leaving Requested.
	AssignDriver(ctx context.Context, id types.ID, driverID types.ID) (bool, error)
	// ResetToRequested clears the driver and puts the booking back on the
	// market, only if the row is still in from.
	ResetToRequested(ctx context.Context, id types.ID, from Status) (bool, error)
	Update(ctx context.Context, b *Booking) error
	Delete(ctx context.Context, id types.ID) error
}

const bookingColumns = `id, user_id, driver_id, vehicle_id, pricing_id, discount_id, status,
	pickup_latitude, pickup_longitude, dropoff_latitude, dropoff_longitude,
	fare, distance_meters, duration_seconds, pickup_time, dropoff_time, created_at`

type PgxStore struct {
	db    *pgxpool.Pool
	cache *cache.Cache
}

func NewPgxStore(db *pgxpool.Pool, c *cache.Cache) *PgxStore {
	return &PgxStore{db: db, cache: c}
}

func bookingCacheKey(id types.ID) string { return "booking:" + string(id) }

const allBookingsKey = "bookings:all"

func (s *PgxStore) invalidate(ctx context.Context, id types.ID) {
	s.cache.Delete(ctx, bookingCacheKey(id), allBookingsKey)
}

// Create persists the booking and, when redeemDiscount is set, advances the
// discount usage counter in the same transaction. A discount that expired or
// ran out between fare computation and commit rolls the booking back.
func (s *PgxStore) Create(ctx context.Context, b *Booking, redeemDiscount bool) error {
	if b.ID == "" {
		b.ID = types.NewID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, user_id, driver_id, vehicle_id, pricing_id, discount_id, status,
			pickup_latitude, pickup_longitude, dropoff_latitude, dropoff_longitude,
			fare, distance_meters, duration_seconds, pickup_time, dropoff_time, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17
		)`,
		string(b.ID), string(b.UserID), idPtr(b.DriverID), idPtr(b.VehicleID),
		idPtr(b.PricingID), idPtr(b.DiscountID), string(b.Status),
		b.Pickup.Lat, b.Pickup.Lng, b.Dropoff.Lat, b.Dropoff.Lng,
		b.Fare, b.DistanceMeters, b.DurationSeconds, b.PickupTime, b.DropoffTime, b.CreatedAt,
	)
	if err != nil {
		return err
	}

	if redeemDiscount && b.DiscountID != nil {
		ok, err := pricing.RedeemDiscount(ctx, tx, *b.DiscountID)
		if err != nil {
			return err
		}
		if !ok {
			return pricing.ErrDiscountNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.cache.Delete(ctx, allBookingsKey)
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var driverID, vehicleID, pricingID, discountID *string
	err := row.Scan(
		&b.ID, &b.UserID, &driverID, &vehicleID, &pricingID, &discountID, &b.Status,
		&b.Pickup.Lat, &b.Pickup.Lng, &b.Dropoff.Lat, &b.Dropoff.Lng,
		&b.Fare, &b.DistanceMeters, &b.DurationSeconds, &b.PickupTime, &b.DropoffTime, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.DriverID = toID(driverID)
	b.VehicleID = toID(vehicleID)
	b.PricingID = toID(pricingID)
	b.DiscountID = toID(discountID)
	return &b, nil
}

func (s *PgxStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	var cached Booking
	if s.cache.Get(ctx, bookingCacheKey(id), &cached) {
		return &cached, nil
	}
	b, err := scanBooking(s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1`, string(id),
	))
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, bookingCacheKey(id), b)
	return b, nil
}

func (s *PgxStore) List(ctx context.Context) ([]*Booking, error) {
	var cached []*Booking
	if s.cache.Get(ctx, allBookingsKey, &cached) {
		return cached, nil
	}
	out, err := s.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, allBookingsKey, out)
	return out, nil
}

func (s *PgxStore) ListByUser(ctx context.Context, userID types.ID) ([]*Booking, error) {
	return s.list(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`, string(userID))
}

func (s *PgxStore) ListByDriver(ctx context.Context, driverID types.ID) ([]*Booking, error) {
	return s.list(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE driver_id = $1
		ORDER BY created_at DESC`, string(driverID))
}

func (s *PgxStore) list(ctx context.Context, query string, args ...any) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PgxStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, driverID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    driver_id = COALESCE($2, driver_id),
		    pickup_time = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE pickup_time END,
		    dropoff_time = CASE WHEN $1 = 'completed' THEN NOW() ELSE dropoff_time END
		WHERE id = $3 AND status = $4`,
		string(to), idPtr(driverID), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, id)
	return tag.RowsAffected() == 1, nil
}

func (s *PgxStore) AssignDriver(ctx context.Context, id types.ID, driverID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET driver_id = $2
		WHERE id = $1 AND status = 'requested'`,
		string(id), string(driverID),
	)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, id)
	return tag.RowsAffected() == 1, nil
}

func (s *PgxStore) ResetToRequested(ctx context.Context, id types.ID, from Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = 'requested', driver_id = NULL
		WHERE id = $1 AND status = $2`,
		string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, id)
	return tag.RowsAffected() == 1, nil
}

func (s *PgxStore) Update(ctx context.Context, b *Booking) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $2, driver_id = $3, vehicle_id = $4,
		    pickup_time = $5, dropoff_time = $6, fare = $7
		WHERE id = $1`,
		string(b.ID), string(b.Status), idPtr(b.DriverID), idPtr(b.VehicleID),
		b.PickupTime, b.DropoffTime, b.Fare,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, b.ID)
	return nil
}

func (s *PgxStore) Delete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, id)
	return nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toID(v *string) *types.ID {
	if v == nil {
		return nil
	}
	id := types.ID(*v)
	return &id
}
