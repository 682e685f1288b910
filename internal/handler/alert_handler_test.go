package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAlertService returns canned results so the handler tests exercise
// routing, query parsing, and the error-to-status mapping only.
type stubAlertService struct {
	alert      *models.Alert
	page       *models.AlertPage
	sweepCount int64
	purgeCount int64
	err        error

	gotFilter models.AlertFilter
	gotPage   models.PageRequest
	gotActor  int64
	gotOlder  *time.Time
	gotOnly   *bool
}

func (s *stubAlertService) RecordBreach(ctx context.Context, payload *models.BreachPayload) (*models.Alert, error) {
	return s.alert, s.err
}

func (s *stubAlertService) ListActive(ctx context.Context, filter models.AlertFilter, page models.PageRequest) (*models.AlertPage, error) {
	s.gotFilter, s.gotPage = filter, page
	return s.page, s.err
}

func (s *stubAlertService) ListHistory(ctx context.Context, filter models.AlertFilter, page models.PageRequest) (*models.AlertPage, error) {
	s.gotFilter, s.gotPage = filter, page
	return s.page, s.err
}

func (s *stubAlertService) Acknowledge(ctx context.Context, alertID, actorID int64) (*models.Alert, error) {
	s.gotActor = actorID
	return s.alert, s.err
}

func (s *stubAlertService) Resolve(ctx context.Context, alertID int64) (*models.Alert, error) {
	return s.alert, s.err
}

func (s *stubAlertService) Sweep(ctx context.Context) (int64, error) {
	return s.sweepCount, s.err
}

func (s *stubAlertService) Purge(ctx context.Context, olderThan *time.Time, resolvedOnly *bool) (int64, error) {
	s.gotOlder, s.gotOnly = olderThan, resolvedOnly
	return s.purgeCount, s.err
}

func (s *stubAlertService) GetStatistics(ctx context.Context) (map[string]int, error) {
	return map[string]int{models.SeverityHigh: 2}, s.err
}

func setupAlertHandler(t *testing.T, stub *stubAlertService) *mux.Router {
	t.Helper()

	log, err := logger.New(logger.Config{Level: logger.ERROR})
	require.NoError(t, err)

	router := mux.NewRouter()
	NewAlertHandler(stub, log).RegisterRoutes(router)
	return router
}

func doRequest(router *mux.Router, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListActive_ParsesQuery(t *testing.T) {
	stub := &stubAlertService{page: &models.AlertPage{Items: []models.Alert{}}}
	router := setupAlertHandler(t, stub)

	rec := doRequest(router, http.MethodGet,
		"/alerts/active?station_id=4&severity=HIGH&page=2&limit=20&sort=asc", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.gotFilter.StationID)
	assert.Equal(t, int64(4), *stub.gotFilter.StationID)
	require.NotNil(t, stub.gotFilter.Severity)
	assert.Equal(t, models.SeverityHigh, *stub.gotFilter.Severity)
	assert.Equal(t, models.PageRequest{Page: 2, Limit: 20, SortAsc: true}, stub.gotPage)
}

func TestListActive_BadQueryValues(t *testing.T) {
	router := setupAlertHandler(t, &stubAlertService{})

	rec := doRequest(router, http.MethodGet, "/alerts/active?station_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodGet, "/alerts/history?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodGet, "/alerts/history?is_active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcknowledge_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"unknown alert", models.ErrAlertNotFound, http.StatusNotFound},
		{"resolved alert", models.ErrAlertNotActive, http.StatusConflict},
		{"bad actor", models.NewValidationError("actor_id", "must be a positive integer"), http.StatusBadRequest},
	}

	body, _ := json.Marshal(models.AcknowledgeRequest{ActorID: 3})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAlertService{alert: &models.Alert{ID: 7}, err: tt.err}
			router := setupAlertHandler(t, stub)

			rec := doRequest(router, http.MethodPut, "/alerts/acknowledge/7", body)
			assert.Equal(t, tt.want, rec.Code)
			if tt.err == nil {
				assert.Equal(t, int64(3), stub.gotActor)
			}
		})
	}
}

func TestAcknowledge_InvalidInputs(t *testing.T) {
	router := setupAlertHandler(t, &stubAlertService{})

	rec := doRequest(router, http.MethodPut, "/alerts/acknowledge/notanumber", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodPut, "/alerts/acknowledge/7", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolve_NotFound(t *testing.T) {
	router := setupAlertHandler(t, &stubAlertService{err: models.ErrAlertNotFound})

	rec := doRequest(router, http.MethodPut, "/alerts/resolve/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alert not found", resp.Error)
}

func TestSweep_ReturnsCount(t *testing.T) {
	router := setupAlertHandler(t, &stubAlertService{sweepCount: 4})

	rec := doRequest(router, http.MethodPost, "/alerts/sweep", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.SweepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(4), resp.ResolvedCount)
}

func TestPurge_ParsesFilters(t *testing.T) {
	stub := &stubAlertService{purgeCount: 12}
	router := setupAlertHandler(t, stub)

	rec := doRequest(router, http.MethodDelete,
		"/alerts/history?older_than=2026-05-01T00:00:00Z&resolved_only=true", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.gotOlder)
	assert.Equal(t, 2026, stub.gotOlder.Year())
	require.NotNil(t, stub.gotOnly)
	assert.True(t, *stub.gotOnly)

	var resp models.PurgeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(12), resp.DeletedCount)
}

func TestPurge_BadTimestamp(t *testing.T) {
	router := setupAlertHandler(t, &stubAlertService{})

	rec := doRequest(router, http.MethodDelete, "/alerts/history?older_than=lastweek", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStatistics(t *testing.T) {
	router := setupAlertHandler(t, &stubAlertService{})

	rec := doRequest(router, http.MethodGet, "/alerts/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats[models.SeverityHigh])
}
