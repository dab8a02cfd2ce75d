// Package http wires the gin router: module handlers, middleware, metrics
// and health endpoints.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"swiftcab/internal/dispatch"
	"swiftcab/internal/http/handlers"
	"swiftcab/internal/http/middleware"
	"swiftcab/internal/modules/booking"
	"swiftcab/internal/modules/driver"
	"swiftcab/internal/modules/location"
	"swiftcab/internal/modules/pricing"
	"swiftcab/internal/routing"
)

type RouterDeps struct {
	Bookings  *booking.Service
	Drivers   *driver.Service
	Locations *location.Service
	Pricing   *pricing.Store
	Router    routing.Provider
	Dispatch  *dispatch.Registry
	Log       *logrus.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log), middleware.Metrics())

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	bookings := r.Group("/api/bookings")
	bookings.POST("", bookingHandler.Create)
	bookings.GET("", bookingHandler.List)
	bookings.GET("/:id", bookingHandler.Get)
	bookings.PATCH("/:id", bookingHandler.Update)
	bookings.DELETE("/:id", bookingHandler.Delete)
	bookings.GET("/user/:userId", bookingHandler.ListByUser)
	bookings.GET("/driver/:driverId", bookingHandler.ListByDriver)
	bookings.POST("/:id/assign-driver", bookingHandler.AssignDriver)
	bookings.POST("/:id/auto-assign", bookingHandler.AutoAssign)
	bookings.POST("/:id/complete-payment", bookingHandler.CompletePayment)
	bookings.POST("/:id/complete", bookingHandler.Complete)
	bookings.POST("/:id/cancel", bookingHandler.Cancel)
	bookings.GET("/:id/nearby-drivers", bookingHandler.NearbyDrivers)

	driverHandler := handlers.NewDriverHandler(deps.Drivers, deps.Locations, deps.Bookings)
	drivers := r.Group("/api/drivers")
	drivers.POST("", driverHandler.Register)
	drivers.GET("/available", driverHandler.ListAvailable)
	drivers.GET("/:id", driverHandler.Get)
	drivers.PATCH("/:id", driverHandler.Update)
	drivers.POST("/:id/vehicles", driverHandler.AddVehicle)
	drivers.GET("/:id/vehicles", driverHandler.ListVehicles)
	drivers.POST("/:id/location", driverHandler.ReportLocation)
	drivers.GET("/:id/progress", driverHandler.Progress)
	drivers.POST("/:id/reviews", driverHandler.RecordReview)
	drivers.POST("/:id/bookings/:bookingId/accept", driverHandler.Accept)
	drivers.POST("/:id/bookings/:bookingId/reject", driverHandler.Reject)
	drivers.POST("/:id/bookings/:bookingId/confirm-pickup", driverHandler.ConfirmPickup)

	userHandler := handlers.NewUserHandler(deps.Drivers)
	r.POST("/api/users", userHandler.Create)
	r.GET("/api/users/:id", userHandler.Get)

	geoHandler := handlers.NewGeoHandler(deps.Router)
	r.GET("/api/geo/autocomplete", geoHandler.Autocomplete)
	r.GET("/api/geo/reverse", geoHandler.Reverse)

	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	r.POST("/api/pricing", pricingHandler.Create)
	r.GET("/api/pricing", pricingHandler.List)
	r.GET("/api/pricing/:id", pricingHandler.Get)
	r.POST("/api/discounts", pricingHandler.CreateDiscount)
	r.GET("/api/discounts/:code", pricingHandler.GetDiscountByCode)

	wsHandler := handlers.NewWSHandler(deps.Dispatch, deps.Log)
	r.GET("/ws/drivers/:id", wsHandler.Connect)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
