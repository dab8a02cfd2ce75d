package pricing

import (
	"errors"
	"math"
	"time"
)

// Defaults used when no pricing tier is attached to a booking.
const (
	DefaultBaseFare      = 50.0
	DefaultCostPerKm     = 5.0
	DefaultCostPerMinute = 2.0
	DefaultMultiplier    = 1.0
)

var ErrNonFiniteFare = errors.New("computed fare is not a finite number")

// FareResult carries the computed fare and whether a discount was actually
// applied, so the caller can advance the usage counter in the same write.
type FareResult struct {
	Fare            float64
	DiscountApplied bool
}

// ComputeFare derives a fare from distance, duration, an optional tier and an
// optional discount:
//
//	fare = (base + perKm*km + perMin*min) * multiplier [+ service fee]
//
// An expired or exhausted discount is ignored rather than rejected. The
// discounted fare is clamped to the tier's minimum fare, then to zero, and
// the final amount is rounded up to the next whole currency unit.
func ComputeFare(distanceMeters, durationSeconds float64, tier *Pricing, discount *Discount, now time.Time) (FareResult, error) {
	base, perKm, perMin, mult := DefaultBaseFare, DefaultCostPerKm, DefaultCostPerMinute, DefaultMultiplier
	if tier != nil {
		base, perKm, perMin, mult = tier.BaseFare, tier.CostPerKm, tier.CostPerMinute, tier.ConditionsMultiplier
	}

	km := distanceMeters / 1000
	minutes := durationSeconds / 60
	fare := (base + perKm*km + perMin*minutes) * mult
	if tier != nil {
		fare += tier.ServiceFee
	}

	applied := false
	if discount.Usable(now) {
		switch discount.Type {
		case DiscountPercentage:
			fare -= fare * discount.Value / 100
		case DiscountFixed:
			fare -= discount.Value
		}
		applied = true
		if tier != nil && fare < tier.MinimumFare {
			fare = tier.MinimumFare
		}
		if fare < 0 {
			fare = 0
		}
	}

	fare = math.Ceil(fare)
	if math.IsNaN(fare) || math.IsInf(fare, 0) {
		return FareResult{}, ErrNonFiniteFare
	}
	return FareResult{Fare: fare, DiscountApplied: applied}, nil
}
