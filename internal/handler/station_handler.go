package handler

import (
	"net/http"
	"strconv"

	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/repository"

	"github.com/gorilla/mux"
)

// StationHandler exposes read-only station and sensor lookups used by
// dashboards alongside the alert listings.
type StationHandler struct {
	stationRepo repository.IStationRepository
	sensorRepo  repository.ISensorRepository
	log         *logger.Logger
}

func NewStationHandler(stationRepo repository.IStationRepository, sensorRepo repository.ISensorRepository, log *logger.Logger) *StationHandler {
	return &StationHandler{
		stationRepo: stationRepo,
		sensorRepo:  sensorRepo,
		log:         log,
	}
}

func (h *StationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/stations", h.ListStations).Methods("GET")
	r.HandleFunc("/stations/{id}", h.GetStation).Methods("GET")
	r.HandleFunc("/stations/{id}/sensors", h.ListSensors).Methods("GET")
}

func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stationRepo.GetAll(r.Context())
	if err != nil {
		h.log.Error("Failed to list stations: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stations)
}

func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid station ID")
		return
	}

	station, err := h.stationRepo.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get station %d: %v", id, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, station)
}

func (h *StationHandler) ListSensors(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid station ID")
		return
	}

	sensors, err := h.sensorRepo.GetByStation(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to list sensors for station %d: %v", id, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sensors)
}
