package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/IANDYI/growth-service/internal/adapters/handler"
	"github.com/IANDYI/growth-service/internal/adapters/middleware"
	"github.com/IANDYI/growth-service/internal/adapters/repository"
	"github.com/IANDYI/growth-service/internal/config"
	"github.com/IANDYI/growth-service/internal/core/domain"
	"github.com/IANDYI/growth-service/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.InitSchema {
		if err := config.InitDatabase(db); err != nil {
			log.Fatalf("Failed to initialize database schema: %v", err)
		}
	}

	breakerCfg := repository.DefaultBreakerConfig()
	breakerCfg.MaxRequests = cfg.CircuitBreakerMaxRequests
	breakerCfg.Interval = cfg.CircuitBreakerInterval
	breakerCfg.Timeout = cfg.CircuitBreakerTimeout

	alertPublisher, err := repository.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.AlertsQueueName, breakerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ publisher: %v", err)
	}
	defer alertPublisher.Close()

	sqlRepo := repository.NewSQLRepository(db, breakerCfg)
	referenceRepo := repository.NewReferenceRepository(db, breakerCfg)

	childService := services.NewChildService(sqlRepo, sqlRepo)
	growthService := services.NewGrowthDataService(
		sqlRepo, sqlRepo, sqlRepo, referenceRepo, alertPublisher,
		services.WithWeightForLengthResolution(cfg.WeightForLengthResolution),
	)

	// Users and children announced by the identity service
	// With several replicas RabbitMQ distributes messages round-robin
	registrationConsumer, err := repository.NewRegistrationConsumer(cfg.RabbitMQURL, cfg.RegistrationQueueName, childService)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ registration consumer: %v", err)
	}
	defer registrationConsumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	go func() {
		if err := registrationConsumer.StartConsuming(consumerCtx); err != nil {
			log.Printf("Registration consumer error: %v", err)
		}
	}()
	log.Println("Registration consumer started in background")

	childHandler := handler.NewChildHandler(childService)
	growthHandler := handler.NewGrowthHandler(growthService)
	healthHandler := handler.NewHealthHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)
	defer authMiddleware.Stop()

	writers := []domain.Role{domain.RoleUser, domain.RoleAdmin}

	mux := http.NewServeMux()

	// Health checks and metrics, no auth required
	mux.HandleFunc("GET /metrics", handler.Metrics)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)

	// Children - User: own, Doctor and Admin: all (Doctor read-only)
	mux.HandleFunc("POST /children", authMiddleware.RequireAnyRole(writers, childHandler.CreateChild))
	mux.HandleFunc("GET /children", authMiddleware.RequireAuth(childHandler.ListChildren))
	mux.HandleFunc("GET /children/{child_id}", authMiddleware.RequireAuth(childHandler.GetChild))

	// Growth data
	mux.HandleFunc("POST /children/{child_id}/growth-data", authMiddleware.RequireAnyRole(writers, growthHandler.CreateGrowthData))
	mux.HandleFunc("GET /children/{child_id}/growth-data", authMiddleware.RequireAuth(growthHandler.ListGrowthData))
	mux.HandleFunc("GET /children/{child_id}/growth-velocity", authMiddleware.RequireAuth(growthHandler.GenerateGrowthVelocity))
	mux.HandleFunc("GET /growth-data/{growth_data_id}", authMiddleware.RequireAuth(growthHandler.GetGrowthData))
	mux.HandleFunc("PUT /growth-data/{growth_data_id}", authMiddleware.RequireAnyRole(writers, growthHandler.UpdateGrowthData))
	mux.HandleFunc("DELETE /growth-data/{growth_data_id}", authMiddleware.RequireAnyRole(writers, growthHandler.DeleteGrowthData))

	// Anonymous percentile calculator
	mux.HandleFunc("POST /growth-data/public", growthHandler.GeneratePublicGrowthResult)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.MetricsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Growth Service on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop consuming before the HTTP server drains
	consumerCancel()
	log.Println("Registration consumer stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
