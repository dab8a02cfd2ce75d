// Package dispatch pushes booking offers to connected driver sockets.
// Delivery is best effort: a driver without a live session simply misses the
// push and learns about the assignment on their next poll.
package dispatch

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"swiftcab/internal/types"
)

var ErrNoSession = errors.New("no websocket session for driver")

// Offer is the payload pushed to a driver when a booking is assigned to them.
type Offer struct {
	BookingID     types.ID `json:"booking_id"`
	PickupLat     float64  `json:"pickup_latitude"`
	PickupLng     float64  `json:"pickup_longitude"`
	DropoffLat    float64  `json:"dropoff_latitude"`
	DropoffLng    float64  `json:"dropoff_longitude"`
	Fare          float64  `json:"fare"`
	DistanceMeter float64  `json:"distance_meters"`
}

type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Registry tracks one live socket per driver.
type Registry struct {
	mu       sync.RWMutex
	sessions map[types.ID]*session
	log      *logrus.Logger
}

func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{sessions: make(map[types.ID]*session), log: log}
}

// Add registers a driver's socket, replacing and closing any previous one.
func (r *Registry) Add(driverID types.ID, conn *websocket.Conn) {
	r.mu.Lock()
	prev := r.sessions[driverID]
	r.sessions[driverID] = &session{conn: conn}
	r.mu.Unlock()
	if prev != nil {
		prev.conn.Close()
	}
}

func (r *Registry) Remove(driverID types.ID, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[driverID]; ok && s.conn == conn {
		delete(r.sessions, driverID)
	}
}

// Offer sends an offer to the driver's socket if one is connected.
func (r *Registry) Offer(driverID types.ID, offer Offer) error {
	r.mu.RLock()
	s, ok := r.sessions[driverID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.send(offer); err != nil {
		r.log.WithError(err).WithField("driver_id", driverID).Warn("websocket offer failed")
		return err
	}
	return nil
}
