// Package handlers holds the gin handlers and the per-module error mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/modules/booking"
	"swiftcab/internal/modules/driver"
	"swiftcab/internal/modules/location"
	"swiftcab/internal/modules/pricing"
	"swiftcab/internal/routing"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// isValidID ensures IDs are hex and 32 chars (matches the ID generator).
func isValidID(v string) bool {
	if len(v) != 32 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	var apiErr *routing.APIError
	switch {
	case errors.Is(err, booking.ErrValidation), errors.Is(err, location.ErrInvalidCoordinate):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound),
		errors.Is(err, driver.ErrNotFound),
		errors.Is(err, driver.ErrUserNotFound),
		errors.Is(err, location.ErrNotFound),
		errors.Is(err, pricing.ErrNotFound),
		errors.Is(err, pricing.ErrDiscountNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, booking.ErrNoCandidates):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "no_candidates"})
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrDriverUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.As(err, &apiErr):
		writeError(c, http.StatusBadGateway, apiErr.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeDriverError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, driver.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, driver.ErrNotFound), errors.Is(err, driver.ErrUserNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, driver.ErrDuplicate),
		errors.Is(err, driver.ErrEmailInUse),
		errors.Is(err, driver.ErrPlateInUse):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeLocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, location.ErrInvalidCoordinate):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, location.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writePricingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrNotFound), errors.Is(err, pricing.ErrDiscountNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeGeoError(c *gin.Context, err error) {
	var apiErr *routing.APIError
	switch {
	case errors.Is(err, routing.ErrNoRoutablePoint):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &apiErr):
		writeError(c, http.StatusBadGateway, apiErr.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
