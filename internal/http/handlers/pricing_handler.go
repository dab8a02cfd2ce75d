package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swiftcab/internal/modules/pricing"
)

// PricingHandler exposes the fare reference data. These are admin endpoints;
// bookings resolve tiers and discounts internally, not through here.
type PricingHandler struct {
	catalog *pricing.Store
}

func NewPricingHandler(catalog *pricing.Store) *PricingHandler {
	return &PricingHandler{catalog: catalog}
}

type createPricingReq struct {
	Name                 string  `json:"name"`
	BaseFare             float64 `json:"base_fare"`
	CostPerKm            float64 `json:"cost_per_km"`
	CostPerMinute        float64 `json:"cost_per_minute"`
	ServiceFee           float64 `json:"service_fee"`
	MinimumFare          float64 `json:"minimum_fare"`
	ConditionsMultiplier float64 `json:"conditions_multiplier"`
}

func (h *PricingHandler) Create(c *gin.Context) {
	var req createPricingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(c, http.StatusBadRequest, "name is required")
		return
	}
	p := &pricing.Pricing{
		Name:                 req.Name,
		BaseFare:             req.BaseFare,
		CostPerKm:            req.CostPerKm,
		CostPerMinute:        req.CostPerMinute,
		ServiceFee:           req.ServiceFee,
		MinimumFare:          req.MinimumFare,
		ConditionsMultiplier: req.ConditionsMultiplier,
	}
	if err := h.catalog.Create(c.Request.Context(), p); err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PricingHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PricingHandler) List(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type createDiscountReq struct {
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	ExpiryDate  time.Time `json:"expiry_date"`
	MaximumUses int       `json:"maximum_uses"`
}

func (h *PricingHandler) CreateDiscount(c *gin.Context) {
	var req createDiscountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t := pricing.DiscountType(req.Type)
	if t != pricing.DiscountPercentage && t != pricing.DiscountFixed {
		writeError(c, http.StatusBadRequest, "type must be percentage or fixed")
		return
	}
	if req.Code == "" || req.Value <= 0 || req.MaximumUses <= 0 {
		writeError(c, http.StatusBadRequest, "code, value and maximum_uses are required")
		return
	}
	d := &pricing.Discount{
		Code:        req.Code,
		Type:        t,
		Value:       req.Value,
		ExpiryDate:  req.ExpiryDate,
		MaximumUses: req.MaximumUses,
	}
	if err := h.catalog.CreateDiscount(c.Request.Context(), d); err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *PricingHandler) GetDiscountByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		writeError(c, http.StatusBadRequest, "missing code")
		return
	}
	d, err := h.catalog.GetDiscountByCode(c.Request.Context(), code)
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
