package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ms-events/internal/config"
	"ms-events/internal/database"
	"ms-events/internal/events/db"
	"ms-events/internal/events/event_api"
	"ms-events/internal/events/service"
	"ms-events/internal/logger"
	"ms-events/internal/notify"
	"ms-events/internal/server"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Level: cfg.Log.Level,
		Color: cfg.Log.Color,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Event Service initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	eventDB := db.New(bunDB)
	if err := eventDB.EnsureSchema(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to ensure events table: %v", err))
	}
	log.LogDatabase("CREATE TABLE IF NOT EXISTS", "events", "schema ready")

	if cfg.Notify.Backend == "kafka" {
		if err := notify.EnsureTopic(ctx, cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", fmt.Sprintf("Topic %s ensured", cfg.Notify.KafkaTopic))
		}
	}

	publisher, err := notify.New(cfg.Notify)
	if err != nil {
		log.Fatal("NOTIFY", err.Error())
	}
	defer publisher.Close()
	log.Info("NOTIFY", fmt.Sprintf("Change notifications backend: %s", publisher.Name()))

	eventService := service.NewEventService(eventDB, publisher, log)
	handler := event_api.NewHandler(eventService, log)

	log.Info("HTTP", "Setting up router and middleware")
	srv := server.NewHTTPServer(cfg.Server, server.NewRouter(handler, cfg.CORS, log))

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Event Service running on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Event Service shutdown complete")
	}
}
