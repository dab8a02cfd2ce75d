package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/modules/booking"
	"swiftcab/internal/modules/driver"
	"swiftcab/internal/modules/location"
	"swiftcab/internal/types"
)

type DriverHandler struct {
	drivers   *driver.Service
	locations *location.Service
	bookings  *booking.Service
}

func NewDriverHandler(drivers *driver.Service, locations *location.Service, bookings *booking.Service) *DriverHandler {
	return &DriverHandler{drivers: drivers, locations: locations, bookings: bookings}
}

type registerDriverReq struct {
	UserID        string `json:"user_id"`
	LicenseNumber string `json:"license_number"`
}

func (h *DriverHandler) Register(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.UserID) {
		writeError(c, http.StatusBadRequest, "invalid user id")
		return
	}
	d, err := h.drivers.Register(c.Request.Context(), driver.RegisterCommand{
		UserID:        types.ID(req.UserID),
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DriverHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.drivers.Get(c.Request.Context(), id)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DriverHandler) ListAvailable(c *gin.Context) {
	list, err := h.drivers.ListAvailable(c.Request.Context())
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type updateDriverReq struct {
	LicenseNumber      *string `json:"license_number"`
	VerificationStatus *string `json:"verification_status"`
}

// Update changes profile fields, including the verification status that
// gates a driver into the matchable pool.
func (h *DriverHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := driver.UpdateCommand{LicenseNumber: req.LicenseNumber}
	if req.VerificationStatus != nil {
		v := driver.VerificationStatus(*req.VerificationStatus)
		cmd.Verification = &v
	}
	d, err := h.drivers.Update(c.Request.Context(), id, cmd)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type addVehicleReq struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Plate string `json:"plate"`
}

func (h *DriverHandler) AddVehicle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addVehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.drivers.AddVehicle(c.Request.Context(), id, driver.AddVehicleCommand{
		Make:  req.Make,
		Model: req.Model,
		Plate: req.Plate,
	})
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *DriverHandler) ListVehicles(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.drivers.ListVehicles(c.Request.Context(), id)
	if err != nil {
		writeDriverError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type reviewReq struct {
	Score float64 `json:"score"`
}

func (h *DriverHandler) RecordReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.drivers.RecordReview(c.Request.Context(), id, req.Score); err != nil {
		writeDriverError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reportLocationReq struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// ReportLocation accepts a position ping. A ping inside the throttle window
// is acknowledged with skipped=true rather than rejected.
func (h *DriverHandler) ReportLocation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reportLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rec, skipped, err := h.locations.Report(c.Request.Context(), id, req.Lat, req.Lng)
	if err != nil {
		writeLocationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": rec, "skipped": skipped})
}

func (h *DriverHandler) Progress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	bookingID := c.Query("bookingId")
	if !isValidID(bookingID) {
		writeError(c, http.StatusBadRequest, "invalid bookingId")
		return
	}
	p, err := h.bookings.DriverProgress(c.Request.Context(), id, types.ID(bookingID))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DriverHandler) Accept(c *gin.Context) {
	driverID, bookingID, ok := driverBookingIDs(c)
	if !ok {
		return
	}
	b, err := h.bookings.Accept(c.Request.Context(), driverID, bookingID)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Reject is terminal by default; ?reassign=true puts the booking back on
// the market and tries to hand it to the next-best driver.
func (h *DriverHandler) Reject(c *gin.Context) {
	driverID, bookingID, ok := driverBookingIDs(c)
	if !ok {
		return
	}
	if c.Query("reassign") == "true" {
		b, reassigned, err := h.bookings.RejectWithReassignment(c.Request.Context(), driverID, bookingID)
		if err != nil {
			writeBookingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"booking": b, "reassigned": reassigned})
		return
	}
	b, err := h.bookings.Reject(c.Request.Context(), driverID, bookingID)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *DriverHandler) ConfirmPickup(c *gin.Context) {
	driverID, bookingID, ok := driverBookingIDs(c)
	if !ok {
		return
	}
	b, err := h.bookings.ConfirmPickup(c.Request.Context(), driverID, bookingID)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func driverBookingIDs(c *gin.Context) (types.ID, types.ID, bool) {
	driverID, ok := pathID(c, "id")
	if !ok {
		return "", "", false
	}
	bookingID, ok := pathID(c, "bookingId")
	if !ok {
		return "", "", false
	}
	return driverID, bookingID, true
}
