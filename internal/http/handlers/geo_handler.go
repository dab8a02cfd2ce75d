package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/routing"
	"swiftcab/internal/types"
)

// GeoHandler proxies autocomplete and reverse geocoding to the routing
// provider.
type GeoHandler struct {
	router routing.Provider
}

func NewGeoHandler(router routing.Provider) *GeoHandler {
	return &GeoHandler{router: router}
}

func (h *GeoHandler) Autocomplete(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		writeError(c, http.StatusBadRequest, "missing q")
		return
	}
	places, err := h.router.Autocomplete(c.Request.Context(), q)
	if err != nil {
		writeGeoError(c, err)
		return
	}
	c.JSON(http.StatusOK, places)
}

func (h *GeoHandler) Reverse(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	pt := types.Point{Lat: lat, Lng: lng}
	if !pt.Valid() {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	label, err := h.router.ReverseGeocode(c.Request.Context(), pt)
	if err != nil {
		writeGeoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"label": label})
}
