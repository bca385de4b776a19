package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pitchbook/config"
	"pitchbook/cron"
	"pitchbook/database"
	bookingRepoPkg "pitchbook/database/repository/booking"
	courseRepoPkg "pitchbook/database/repository/course"
	webhookeventRepoPkg "pitchbook/database/repository/webhookevent"
	"pitchbook/handlers"
	"pitchbook/middleware"
	"pitchbook/routes"
	"pitchbook/services/booking"
	"pitchbook/services/notification"
	"pitchbook/services/payment"
	"pitchbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	courseRepo := courseRepoPkg.NewMongoCourseRepo()
	eventLedger := webhookeventRepoPkg.NewMongoEventLedger()

	if err := bookingRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}
	if err := courseRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure course indexes: %v", err)
	}
	if err := eventLedger.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure webhook event indexes: %v", err)
	}

	// notification queue.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()
	notifier := notification.NewAsynqDispatcher(asynqClient)
	cron.InitNotifyWorker()

	// services.
	availabilityService := &booking.DefaultAvailabilityService{
		Repo:  bookingRepo,
		Cache: utils.GetCacheClient(),
	}
	reservationService := &booking.DefaultReservationService{
		Repo:          bookingRepo,
		Courses:       courseRepo,
		Availability:  availabilityService,
		Notifier:      notifier,
		PriceOneToOne: config.AppConfig.PriceOneToOne,
		PriceGroup:    config.AppConfig.PriceGroup,
	}
	checkoutService := &payment.StripeCheckoutService{
		Client:      payment.StripeClient{},
		Bookings:    bookingRepo,
		Courses:     courseRepo,
		FrontendURL: config.AppConfig.FrontendURL,
		Currency:    config.AppConfig.Currency,
	}
	webhookService := &payment.StripeWebhookReconciler{
		Secret:       config.AppConfig.StripeWebhookSecret,
		Bookings:     bookingRepo,
		Courses:      courseRepo,
		Events:       eventLedger,
		Availability: availabilityService,
		Notifier:     notifier,
	}

	bookingHandler := handlers.NewBookingHandler(availabilityService, reservationService, logger)
	paymentHandler := handlers.NewPaymentHandler(checkoutService, webhookService, logger)

	routes.RegisterRoutes(router, &routes.HandlerBundle{
		Booking: bookingHandler,
		Payment: paymentHandler,
	})

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
