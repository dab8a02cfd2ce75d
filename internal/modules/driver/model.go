// Package driver manages driver records, verification, and the availability
// flag that the assignment flow flips.
package driver

import (
	"time"

	"swiftcab/internal/types"
)

type VerificationStatus string

const (
	Unverified VerificationStatus = "unverified"
	Verified   VerificationStatus = "verified"
	Rejected   VerificationStatus = "rejected"
)

type Driver struct {
	ID            types.ID           `json:"id"`
	UserID        types.ID           `json:"user_id"`
	LicenseNumber string             `json:"license_number"`
	Rating        float64            `json:"rating"`
	Verification  VerificationStatus `json:"verification_status"`
	TotalTrips    int                `json:"total_trips"`
	IsAvailable   bool               `json:"is_available"`
	// Last-known coordinates, nil until the first location report.
	Lat       *float64  `json:"latitude"`
	Lng       *float64  `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// Coords satisfies geo.Located. Drivers without coordinates are filtered out
// before ranking, so the zero fallback is never ranked.
func (d *Driver) Coords() (float64, float64) {
	if d.Lat == nil || d.Lng == nil {
		return 0, 0
	}
	return *d.Lat, *d.Lng
}

func (d *Driver) HasCoords() bool {
	return d.Lat != nil && d.Lng != nil
}

// Vehicle is a car registered to a driver. Bookings reference vehicles by
// id; matching does not use them yet.
type Vehicle struct {
	ID        types.ID  `json:"id"`
	DriverID  types.ID  `json:"driver_id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Plate     string    `json:"plate"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the owning account a driver registers against. Only the fields the
// booking and notification paths need.
type User struct {
	ID        types.ID  `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone_number"`
	CreatedAt time.Time `json:"created_at"`
}
