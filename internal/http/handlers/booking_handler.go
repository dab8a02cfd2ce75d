package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/modules/booking"
	"swiftcab/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

type createBookingReq struct {
	UserID     string     `json:"user_id"`
	PickupLat  float64    `json:"pickup_lat"`
	PickupLng  float64    `json:"pickup_lng"`
	DropoffLat float64    `json:"dropoff_lat"`
	DropoffLng float64    `json:"dropoff_lng"`
	PricingID  *string    `json:"pricing_id"`
	DiscountID *string    `json:"discount_id"`
	VehicleID  *string    `json:"vehicle_id"`
	PickupTime *time.Time `json:"pickup_time"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.UserID) {
		writeError(c, http.StatusBadRequest, "invalid user id")
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		UserID:     types.ID(req.UserID),
		Pickup:     types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:    types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		PricingID:  toIDPtr(req.PricingID),
		DiscountID: toIDPtr(req.DiscountID),
		VehicleID:  toIDPtr(req.VehicleID),
		PickupTime: req.PickupTime,
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context())
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) ListByUser(c *gin.Context) {
	id, ok := pathID(c, "userId")
	if !ok {
		return
	}
	list, err := h.bookings.ListByUser(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) ListByDriver(c *gin.Context) {
	id, ok := pathID(c, "driverId")
	if !ok {
		return
	}
	list, err := h.bookings.ListByDriver(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type updateBookingReq struct {
	Status      *string    `json:"status"`
	PickupTime  *time.Time `json:"pickup_time"`
	DropoffTime *time.Time `json:"dropoff_time"`
	Fare        *float64   `json:"fare"`
}

func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := booking.UpdateCommand{
		PickupTime:  req.PickupTime,
		DropoffTime: req.DropoffTime,
		Fare:        req.Fare,
	}
	if req.Status != nil {
		st := booking.Status(*req.Status)
		cmd.Status = &st
	}
	b, err := h.bookings.Update(c.Request.Context(), id, cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		writeBookingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignDriverReq struct {
	DriverID string `json:"driver_id"`
}

func (h *BookingHandler) AssignDriver(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignDriverReq
	if err := c.ShouldBindJSON(&req); err != nil || !isValidID(req.DriverID) {
		writeError(c, http.StatusBadRequest, "invalid driver id")
		return
	}
	b, err := h.bookings.AssignDriver(c.Request.Context(), id, types.ID(req.DriverID))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) AutoAssign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.AutoAssign(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CompletePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.CompletePayment(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Complete(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Cancel(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) NearbyDrivers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	radiusKm := queryFloat(c, "maxRadiusKm", 5)
	maxResults := queryInt(c, "maxResults", 10)
	candidates, err := h.bookings.NearbyDrivers(c.Request.Context(), id, radiusKm, maxResults)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func pathID(c *gin.Context, name string) (types.ID, bool) {
	v := c.Param(name)
	if !isValidID(v) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(v), true
}

func toIDPtr(v *string) *types.ID {
	if v == nil || *v == "" {
		return nil
	}
	id := types.ID(*v)
	return &id
}

func queryFloat(c *gin.Context, name string, def float64) float64 {
	v := c.Query(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
