package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swiftcab/internal/cache"
	"swiftcab/internal/types"
)

var (
	ErrNotFound         = errors.New("pricing record not found")
	ErrDiscountNotFound = errors.New("discount not found")
)

type Store struct {
	db    *pgxpool.Pool
	cache *cache.Cache
}

func NewStore(db *pgxpool.Pool, c *cache.Cache) *Store {
	return &Store{db: db, cache: c}
}

func pricingCacheKey(id types.ID) string { return "pricing:" + string(id) }

func (s *Store) Create(ctx context.Context, p *Pricing) error {
	if p.ID == "" {
		p.ID = types.NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO pricing (
			id, name, base_fare, cost_per_km, cost_per_minute,
			service_fee, minimum_fare, conditions_multiplier, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(p.ID), p.Name, p.BaseFare, p.CostPerKm, p.CostPerMinute,
		p.ServiceFee, p.MinimumFare, p.ConditionsMultiplier, p.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Pricing, error) {
	var p Pricing
	if s.cache.Get(ctx, pricingCacheKey(id), &p) {
		return &p, nil
	}

	row := s.db.QueryRow(ctx, `
		SELECT id, name, base_fare, cost_per_km, cost_per_minute,
		       service_fee, minimum_fare, conditions_multiplier, created_at
		FROM pricing
		WHERE id = $1`, string(id),
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.BaseFare, &p.CostPerKm, &p.CostPerMinute,
		&p.ServiceFee, &p.MinimumFare, &p.ConditionsMultiplier, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, pricingCacheKey(id), &p)
	return &p, nil
}

func (s *Store) List(ctx context.Context) ([]Pricing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, base_fare, cost_per_km, cost_per_minute,
		       service_fee, minimum_fare, conditions_multiplier, created_at
		FROM pricing
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pricing
	for rows.Next() {
		var p Pricing
		if err := rows.Scan(
			&p.ID, &p.Name, &p.BaseFare, &p.CostPerKm, &p.CostPerMinute,
			&p.ServiceFee, &p.MinimumFare, &p.ConditionsMultiplier, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetDiscount(ctx context.Context, id types.ID) (*Discount, error) {
	return s.scanDiscount(s.db.QueryRow(ctx, `
		SELECT id, code, type, value, expiry_date, maximum_uses, current_uses, created_at
		FROM discounts
		WHERE id = $1`, string(id),
	))
}

func (s *Store) GetDiscountByCode(ctx context.Context, code string) (*Discount, error) {
	return s.scanDiscount(s.db.QueryRow(ctx, `
		SELECT id, code, type, value, expiry_date, maximum_uses, current_uses, created_at
		FROM discounts
		WHERE code = $1`, code,
	))
}

func (s *Store) scanDiscount(row pgx.Row) (*Discount, error) {
	var d Discount
	err := row.Scan(&d.ID, &d.Code, &d.Type, &d.Value, &d.ExpiryDate, &d.MaximumUses, &d.CurrentUses, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDiscountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateDiscount(ctx context.Context, d *Discount) error {
	if d.ID == "" {
		d.ID = types.NewID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO discounts (id, code, type, value, expiry_date, maximum_uses, current_uses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(d.ID), d.Code, string(d.Type), d.Value, d.ExpiryDate, d.MaximumUses, d.CurrentUses, d.CreatedAt,
	)
	return err
}

// RedeemDiscount advances the usage counter inside the caller's transaction.
// The WHERE clause re-checks expiry and the cap so a concurrent redemption of
// the last use loses instead of overshooting.
func RedeemDiscount(ctx context.Context, tx pgx.Tx, id types.ID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE discounts
		SET current_uses = current_uses + 1
		WHERE id = $1
		  AND current_uses < maximum_uses
		  AND expiry_date > NOW()`,
		string(id),
	)
	if err != nil {
		return false, fmt.Errorf("redeem discount: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
