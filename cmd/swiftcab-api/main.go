// Entry point; loads config, wires module services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"swiftcab/internal/cache"
	"swiftcab/internal/config"
	"swiftcab/internal/dispatch"
	httptransport "swiftcab/internal/http"
	"swiftcab/internal/infra"
	"swiftcab/internal/ingest"
	"swiftcab/internal/logging"
	"swiftcab/internal/modules/booking"
	"swiftcab/internal/modules/driver"
	"swiftcab/internal/modules/location"
	"swiftcab/internal/modules/pricing"
	"swiftcab/internal/notify"
	"swiftcab/internal/payments"
	"swiftcab/internal/routing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config may itself be broken; use a default logger here.
		logging.New("info", "text").WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewPgxPool(ctx, cfg.DB.DSN)
	if err != nil {
		log.WithError(err).Fatal("database init failed")
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, 0)
	if err != nil {
		// Redis is a cache; degrade to uncached rather than refuse to start.
		log.WithError(err).Warn("redis unavailable, running without cache")
		redisClient = nil
	}
	cacheLayer := cache.New(redisClient, cfg.Redis.CacheTTL, log)

	var router routing.Provider
	switch cfg.Routing.Provider {
	case "google":
		router, err = routing.NewGoogleProvider(cfg.Routing.GoogleAPIKey)
		if err != nil {
			log.WithError(err).Fatal("google maps init failed")
		}
	default:
		router = routing.NewORSProvider(cfg.Routing.ORSBaseURL, cfg.Routing.ORSAPIKey)
	}

	var producer location.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := ingest.NewLocationProducer(cfg.Kafka.Brokers, cfg.Kafka.LocationTopic)
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	pricingStore := pricing.NewStore(dbPool, cacheLayer)

	driverStore := driver.NewStore(dbPool, cacheLayer)
	driverSvc := driver.NewService(driverStore, log)

	locationStore := location.NewPgxStore(dbPool)
	locationSvc := location.NewService(locationStore, driverStore, producer, log)

	registry := dispatch.NewRegistry(log)

	var email booking.EmailSender
	if cfg.SMTP.Host != "" {
		email = notify.NewEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	}
	var sms booking.SMSSender
	if cfg.Twilio.AccountSID != "" {
		sms = notify.NewSMSSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	}
	var charger booking.Charger
	if cfg.Stripe.APIKey != "" {
		charger = payments.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.Currency)
	}

	matcher := booking.NewMatcher(locationSvc, router, cfg.Matching, log)
	bookingStore := booking.NewPgxStore(dbPool, cacheLayer)
	bookingSvc := booking.NewService(
		bookingStore, driverStore, locationSvc, matcher, router, pricingStore,
		email, sms, registry, charger, log,
	)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Bookings:  bookingSvc,
		Drivers:   driverSvc,
		Locations: locationSvc,
		Pricing:   pricingStore,
		Router:    router,
		Dispatch:  registry,
		Log:       log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown was not clean")
		}
	}()

	log.WithField("addr", cfg.HTTP.Addr).Info("swiftcab api listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}
}
