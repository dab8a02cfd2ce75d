// Package booking implements the booking lifecycle state machine, driver
// assignment, and the matching engine that ranks candidate drivers.
package booking

import (
	"time"

	"swiftcab/internal/types"
)

type Status string

const (
	StatusRequested        Status = "requested"
	StatusPaymentCompleted Status = "payment_completed"
	StatusAccepted         Status = "accepted"
	StatusInProgress       Status = "in_progress"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
	StatusRejectedByDriver Status = "rejected_by_driver"
)

type Booking struct {
	ID         types.ID    `json:"id"`
	UserID     types.ID    `json:"user_id"`
	DriverID   *types.ID   `json:"driver_id"`
	VehicleID  *types.ID   `json:"vehicle_id"`
	PricingID  *types.ID   `json:"pricing_id"`
	DiscountID *types.ID   `json:"discount_id"`
	Status     Status      `json:"status"`
	Pickup     types.Point `json:"pickup"`
	Dropoff    types.Point `json:"dropoff"`
	// Computed at creation from the routing provider; non-negative and finite
	// whenever the row exists.
	Fare            float64    `json:"fare"`
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds float64    `json:"duration_seconds"`
	PickupTime      *time.Time `json:"pickup_time"`
	DropoffTime     *time.Time `json:"dropoff_time"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AllowedTransitions represents the booking state flow as code. The
// accepted -> requested edge is the reassignment reset: a rejecting driver
// puts the booking back on the market.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:  {StatusPaymentCompleted, StatusAccepted, StatusCancelled, StatusRejectedByDriver},
	StatusAccepted:   {StatusInProgress, StatusRequested, StatusCancelled, StatusRejectedByDriver},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}