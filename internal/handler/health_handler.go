package handler

import (
	"net/http"
	"time"

	"EnviroMonitorAPI/internal/database"
	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/models"
	"EnviroMonitorAPI/internal/mqtt"

	"github.com/gorilla/mux"
)

type HealthHandler struct {
	db         *database.Database
	mqttClient *mqtt.Client
	log        *logger.Logger
}

func NewHealthHandler(db *database.Database, mqttClient *mqtt.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:         db,
		mqttClient: mqttClient,
		log:        log,
	}
}

func (h *HealthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.GetHealth).Methods("GET")
}

func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}

	resp.Services.Database = h.db.Health(r.Context()) == nil
	resp.Services.MQTT = h.mqttClient != nil && h.mqttClient.IsConnected()

	stats := h.db.Stats()
	resp.Pool.OpenConnections = stats.OpenConnections
	resp.Pool.InUse = stats.InUse
	resp.Pool.Idle = stats.Idle

	status := http.StatusOK
	if !resp.Services.Database {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else if !resp.Services.MQTT {
		resp.Status = "degraded"
	}

	respondJSON(w, status, resp)
}
