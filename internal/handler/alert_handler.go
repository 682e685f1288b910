package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/models"
	"EnviroMonitorAPI/internal/service"

	"github.com/gorilla/mux"
)

type AlertHandler struct {
	alertService service.IAlertService
	log          *logger.Logger
}

func NewAlertHandler(alertService service.IAlertService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		log:          log,
	}
}

func (h *AlertHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/alerts/active", h.ListActive).Methods("GET")
	r.HandleFunc("/alerts/history", h.ListHistory).Methods("GET")
	r.HandleFunc("/alerts/history", h.Purge).Methods("DELETE")
	r.HandleFunc("/alerts/stats", h.GetStatistics).Methods("GET")
	r.HandleFunc("/alerts/sweep", h.Sweep).Methods("POST")
	r.HandleFunc("/alerts/acknowledge/{id}", h.Acknowledge).Methods("PUT")
	r.HandleFunc("/alerts/resolve/{id}", h.Resolve).Methods("PUT")
}

func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseListQuery(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.alertService.ListActive(r.Context(), filter, page)
	if err != nil {
		h.log.Error("Failed to list active alerts: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *AlertHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	filter, page, err := parseListQuery(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.alertService.ListHistory(r.Context(), filter, page)
	if err != nil {
		h.log.Error("Failed to list alert history: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := parseAlertID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	var req models.AcknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	alert, err := h.alertService.Acknowledge(r.Context(), id, req.ActorID)
	if err != nil {
		h.log.Error("Failed to acknowledge alert %d: %v", id, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := parseAlertID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	alert, err := h.alertService.Resolve(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to resolve alert %d: %v", id, err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.alertService.Sweep(r.Context())
	if err != nil {
		h.log.Error("Manual sweep failed: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.SweepResponse{ResolvedCount: count})
}

func (h *AlertHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var olderThan *time.Time
	var resolvedOnly *bool

	if v := r.URL.Query().Get("older_than"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "older_than must be RFC3339")
			return
		}
		olderThan = &t
	}
	if v := r.URL.Query().Get("resolved_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "resolved_only must be a boolean")
			return
		}
		resolvedOnly = &b
	}

	count, err := h.alertService.Purge(r.Context(), olderThan, resolvedOnly)
	if err != nil {
		h.log.Error("Failed to purge alert history: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, models.PurgeResponse{DeletedCount: count})
}

func (h *AlertHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alertService.GetStatistics(r.Context())
	if err != nil {
		h.log.Error("Failed to get alert statistics: %v", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func parseAlertID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func parseListQuery(r *http.Request) (models.AlertFilter, models.PageRequest, error) {
	var filter models.AlertFilter
	q := r.URL.Query()

	if v := q.Get("station_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, models.PageRequest{}, models.NewValidationError("station_id", "must be an integer")
		}
		filter.StationID = &id
	}
	if v := q.Get("sensor_type"); v != "" {
		filter.SensorType = &v
	}
	if v := q.Get("severity"); v != "" {
		filter.Severity = &v
	}
	if v := q.Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, models.PageRequest{}, models.NewValidationError("is_active", "must be a boolean")
		}
		filter.IsActive = &b
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, models.PageRequest{}, models.NewValidationError("from", "must be RFC3339")
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, models.PageRequest{}, models.NewValidationError("to", "must be RFC3339")
		}
		filter.To = &t
	}

	var page models.PageRequest
	if v := q.Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page.Page = parsed
		}
	}
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page.Limit = parsed
		}
	}
	page.SortAsc = q.Get("sort") == "asc"

	return filter, page, nil
}
