// Package location tracks each driver's last reported position with a write
// throttle that bounds update volume under frequent GPS pings.
package location

import "swiftcab/internal/types"

// Record is a driver's last accepted position. LastUpdate is epoch millis.
type Record struct {
	DriverID   types.ID `json:"driver_id"`
	Lat        float64  `json:"latitude"`
	Lng        float64  `json:"longitude"`
	LastUpdate int64    `json:"last_update"`
}

func (r Record) Coords() (float64, float64) { return r.Lat, r.Lng }

// AvailableDriver is the matching engine's view of a candidate: position plus
// the driver fields that feed the composite score.
type AvailableDriver struct {
	DriverID    types.ID `json:"driver_id"`
	Lat         float64  `json:"latitude"`
	Lng         float64  `json:"longitude"`
	LastUpdate  int64    `json:"last_update"`
	Rating      float64  `json:"rating"`
	TotalTrips  int      `json:"total_trips"`
	IsAvailable bool     `json:"is_available"`
}

func (d AvailableDriver) Coords() (float64, float64) { return d.Lat, d.Lng }
