// File: artisanhub/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artisanhub/config"
	"artisanhub/cron"
	"artisanhub/database"
	artisanRepoPkg "artisanhub/database/repository/artisan"
	bookingRepoPkg "artisanhub/database/repository/booking"
	"artisanhub/handlers"
	"artisanhub/middleware"
	"artisanhub/realtime"
	"artisanhub/routes"
	"artisanhub/services/booking"
	"artisanhub/services/geo"
	"artisanhub/services/notify"
	"artisanhub/services/presence"
	"artisanhub/services/tasks"
	"artisanhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitPresenceCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	artisanRepo := artisanRepoPkg.NewMongoArtisanRepo()

	// realtime plumbing: hub -> router -> flows.
	hub := realtime.NewHub()
	registry := presence.NewRegistry(artisanRepo, utils.GetPresenceCacheClient())
	eventRouter := notify.NewRouter(registry, hub)
	flows := notify.NewFlows(eventRouter, bookingRepo)
	locations := geo.NewLocationStore()

	reminderScheduler := tasks.NewAsynqReminderScheduler(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}, time.Duration(config.AppConfig.ReminderLeadMins)*time.Minute)
	defer reminderScheduler.Close()

	bookingService := booking.NewDefaultBookingService(
		bookingRepo,
		artisanRepo,
		flows,
		reminderScheduler,
		locations,
		config.AppConfig.CommissionRate,
		time.Duration(config.AppConfig.CancelWindowHours)*time.Hour,
	)

	gateway := realtime.NewGateway(hub, registry, flows, bookingService, locations)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)

	routes.RegisterRoutes(router, bookingHandler, gateway)

	cron.InitReminderWorker(flows, bookingRepo)
	utils.StartHealthMonitor(utils.GetPresenceCacheClient(), database.MongoClient)

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
