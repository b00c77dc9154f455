package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"rental-backend/config"
	"rental-backend/controllers"
	"rental-backend/routes"
	"rental-backend/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Warn("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	// The penalty matrix is static data; a malformed entry is a programming
	// error, so refuse to start on one.
	if err := services.ValidatePenaltyMatrix(); err != nil {
		log.Fatalf("❌ Penalty matrix invalid: %v", err)
	}

	cfg := config.LoadSettings()

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	db := config.DB
	if db == nil {
		log.Fatal("❌ config.DB is nil after ConnectDatabase()")
	}
	log.Info("✅ Database connection established and migrations applied")

	// Initialize services
	bookingService := services.NewBookingService(db, cfg, log)
	reclamationService := services.NewReclamationService(db, log)
	settlementService := services.NewSettlementService(db, cfg.SettlementURL, log)

	// Initialize controllers
	bookingController := controllers.NewBookingController(bookingService, settlementService)
	reclamationController := controllers.NewReclamationController(reclamationService)
	payoutController := controllers.NewPayoutController(settlementService)

	// Build router
	router := routes.SetupRouter(bookingController, reclamationController, payoutController, log)

	// Background sweep retries payouts that never reached settlement.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go settlementService.Run(sweepCtx, cfg.PayoutSweepInterval)

	// Port from env (prefer), fallback to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Warn("⚠️  Shutdown signal received, shutting down server...")

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Info("✅ Server stopped gracefully")
}
