package location

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swiftcab/internal/types"
)

var ErrNotFound = errors.New("location record not found")

// Store persists driver location records. The pgx implementation is the
// system of record; tests substitute an in-memory one.
type Store interface {
	Get(ctx context.Context, driverID types.ID) (*Record, error)
	Upsert(ctx context.Context, r *Record) error
	// TrackedAvailable returns available drivers whose location was reported
	// at or after sinceMillis.
	TrackedAvailable(ctx context.Context, sinceMillis int64) ([]AvailableDriver, error)
	// FallbackAvailable returns available drivers from their driver-record
	// coordinates, ignoring location freshness.
	FallbackAvailable(ctx context.Context) ([]AvailableDriver, error)
}

type PgxStore struct {
	db *pgxpool.Pool
}

func NewPgxStore(db *pgxpool.Pool) *PgxStore {
	return &PgxStore{db: db}
}

func (s *PgxStore) Get(ctx context.Context, driverID types.ID) (*Record, error) {
	row := s.db.QueryRow(ctx, `
		SELECT driver_id, latitude, longitude, last_update
		FROM driver_locations
		WHERE driver_id = $1`, string(driverID),
	)
	var r Record
	err := row.Scan(&r.DriverID, &r.Lat, &r.Lng, &r.LastUpdate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PgxStore) Upsert(ctx context.Context, r *Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO driver_locations (driver_id, latitude, longitude, last_update)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (driver_id)
		DO UPDATE SET latitude = $2, longitude = $3, last_update = $4`,
		string(r.DriverID), r.Lat, r.Lng, r.LastUpdate,
	)
	return err
}

func (s *PgxStore) TrackedAvailable(ctx context.Context, sinceMillis int64) ([]AvailableDriver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT l.driver_id, l.latitude, l.longitude, l.last_update,
		       d.rating, d.total_trips, d.is_available
		FROM driver_locations l
		JOIN drivers d ON d.id = l.driver_id
		WHERE d.is_available = TRUE
		  AND d.verification_status = 'verified'
		  AND l.last_update >= $1`,
		sinceMillis,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAvailable(rows)
}

func (s *PgxStore) FallbackAvailable(ctx context.Context) ([]AvailableDriver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT d.id, d.latitude, d.longitude, 0,
		       d.rating, d.total_trips, d.is_available
		FROM drivers d
		WHERE d.is_available = TRUE
		  AND d.verification_status = 'verified'
		  AND d.latitude IS NOT NULL
		  AND d.longitude IS NOT NULL`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAvailable(rows)
}

func scanAvailable(rows pgx.Rows) ([]AvailableDriver, error) {
	var out []AvailableDriver
	for rows.Next() {
		var d AvailableDriver
		if err := rows.Scan(&d.DriverID, &d.Lat, &d.Lng, &d.LastUpdate,
			&d.Rating, &d.TotalTrips, &d.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
