package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EnviroMonitorAPI/internal/config"
	"EnviroMonitorAPI/internal/database"
	"EnviroMonitorAPI/internal/handler"
	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/mqtt"
	"EnviroMonitorAPI/internal/notify"
	"EnviroMonitorAPI/internal/repository"
	"EnviroMonitorAPI/internal/scheduler"
	"EnviroMonitorAPI/internal/server"
	"EnviroMonitorAPI/internal/service"
	"EnviroMonitorAPI/internal/websocket"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger since main logger isn't ready
		panic("Failed to load configuration: " + err.Error())
	}

	// 2. Initialize Logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		LogFilePath: cfg.Logging.FilePath,
		UseColors:   cfg.Logging.UseColors,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed: %v", err)
	}

	cfg.Print()
	log.Info("Starting Enviro Monitor API Server")

	// 3. Database Connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Info("Database connected successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Health(ctx); err != nil {
		log.Fatal("Database health check failed: %v", err)
	}

	// 4. Initialize Repositories
	alertRepo := repository.NewAlertRepository(db.DB)
	stationRepo := repository.NewStationRepository(db.DB)
	sensorRepo := repository.NewSensorRepository(db.DB)

	// 5. WebSocket Hub
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	// 6. Initialize Services
	alertService := service.NewAlertService(alertRepo, hub, cfg.Alerts, log)
	evaluator := service.NewThresholdEvaluator(nil)
	ingestService := service.NewIngestService(evaluator, alertService, stationRepo, log)
	notify.NewNotifyService(log) // delivery stub, not wired into the alert path yet

	// 7. Initialize MQTT Client + Subscriptions
	mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
		MQTT:   &cfg.MQTT,
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create MQTT client: %v", err)
	}
	defer func() {
		if err := mqttClient.Disconnect(); err != nil {
			log.Error("Failed to disconnect MQTT: %v", err)
		}
	}()

	if err := mqttClient.Connect(); err != nil {
		log.Fatal("Failed to connect to MQTT broker: %v", err)
	}

	if err := mqttClient.Subscribe(cfg.MQTT.ReadingsTopic, handleReading(ingestService, log)); err != nil {
		log.Fatal("Failed to subscribe to readings topic: %v", err)
	}

	alertService.WithPublisher(mqttClient, cfg.MQTT.AlertsTopic)

	log.Info("MQTT subscriptions active")

	// 8. Background Jobs (sweep + retention purge)
	sched := scheduler.New(alertService, cfg.Alerts, log)
	if err := sched.Start(); err != nil {
		log.Fatal("Failed to start scheduler: %v", err)
	}

	// 9. Initialize Handlers
	alertHandler := handler.NewAlertHandler(alertService, log)
	stationHandler := handler.NewStationHandler(stationRepo, sensorRepo, log)
	healthHandler := handler.NewHealthHandler(db, mqttClient, log)

	// 10. Start HTTP Server
	srv := server.New(cfg, log)
	srv.RegisterHandlers(alertHandler, stationHandler, healthHandler, hub)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("Server failed: %v", err)
		}
	}()

	log.Info("API server ready on http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("Shutdown signal received")

	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
}

// --- MQTT Handlers ---

func handleReading(ingest *service.IngestService, log *logger.Logger) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ingest.ProcessMessage(ctx, payload); err != nil {
			log.Error("Failed to process reading: %v", err)
			return err
		}
		return nil
	}
}
