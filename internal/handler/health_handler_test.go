package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"EnviroMonitorAPI/internal/database"
	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealthHandler(t *testing.T) (*mux.Router, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log, err := logger.New(logger.Config{Level: logger.ERROR})
	require.NoError(t, err)

	router := mux.NewRouter()
	NewHealthHandler(&database.Database{DB: db}, nil, log).RegisterRoutes(router)
	return router, mock
}

func TestGetHealth_ReportsPoolStats(t *testing.T) {
	router, mock := setupHealthHandler(t)

	mock.ExpectQuery(`SELECT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// MQTT client is absent here, so the status degrades but stays 200.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.Services.Database)
	assert.False(t, resp.Services.MQTT)
	assert.GreaterOrEqual(t, resp.Pool.OpenConnections, 1)
}

func TestGetHealth_DatabaseDown(t *testing.T) {
	router, mock := setupHealthHandler(t)

	mock.ExpectQuery(`SELECT 1`).
		WillReturnError(assert.AnError)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Services.Database)
}
