// Package pricing holds fare reference data and the fare calculator applied
// at booking creation.
package pricing

import (
	"time"

	"swiftcab/internal/types"
)

// Pricing is an immutable fare tier. Values are in whole currency units
// except the rates, which may be fractional.
type Pricing struct {
	ID                   types.ID  `json:"id"`
	Name                 string    `json:"name"`
	BaseFare             float64   `json:"base_fare"`
	CostPerKm            float64   `json:"cost_per_km"`
	CostPerMinute        float64   `json:"cost_per_minute"`
	ServiceFee           float64   `json:"service_fee"`
	MinimumFare          float64   `json:"minimum_fare"`
	ConditionsMultiplier float64   `json:"conditions_multiplier"`
	CreatedAt            time.Time `json:"created_at"`
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a promo code with an expiry and a usage cap. CurrentUses is
// only ever advanced by the conditional update in the store, as part of the
// booking write.
type Discount struct {
	ID          types.ID     `json:"id"`
	Code        string       `json:"code"`
	Type        DiscountType `json:"type"`
	Value       float64      `json:"value"`
	ExpiryDate  time.Time    `json:"expiry_date"`
	MaximumUses int          `json:"maximum_uses"`
	CurrentUses int          `json:"current_uses"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Usable reports whether the discount may still be redeemed at t.
func (d *Discount) Usable(t time.Time) bool {
	return d != nil && d.ExpiryDate.After(t) && d.CurrentUses < d.MaximumUses
}
