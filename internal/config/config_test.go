package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "enviro_admin")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "enviro_monitor")
	t.Setenv("MQTT_BROKER", "localhost")
	t.Setenv("MQTT_PORT", "1883")
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("MQTT_BROKER", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "MQTT_BROKER")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.StalenessWindow)
	assert.Equal(t, time.Minute, cfg.Alerts.SweepInterval)
	assert.Equal(t, 2160*time.Hour, cfg.Alerts.RetentionPeriod)
	assert.Equal(t, "0 3 * * *", cfg.Alerts.PurgeSchedule)
	assert.Equal(t, 10, cfg.Alerts.DefaultPageLimit)
	assert.Equal(t, 100, cfg.Alerts.MaxPageLimit)
	assert.Equal(t, "enviro/stations/+/readings", cfg.MQTT.ReadingsTopic)
	assert.Equal(t, "enviro/alerts", cfg.MQTT.AlertsTopic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALERT_STALENESS_WINDOW", "30m")
	t.Setenv("ALERT_MAX_PAGE_LIMIT", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Alerts.StalenessWindow)
	assert.Equal(t, 250, cfg.Alerts.MaxPageLimit)
}

func TestGetDSN(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t,
		"host=localhost port=5432 user=enviro_admin password=secret dbname=enviro_monitor sslmode=disable",
		cfg.GetDSN())
	assert.Equal(t, "tcp://localhost:1883", cfg.GetMQTTBroker())
}

func TestValidate(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Alerts.StalenessWindow = 0
	cfg.Alerts.MaxPageLimit = 5
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_STALENESS_WINDOW must be positive")
	assert.Contains(t, err.Error(), "ALERT_MAX_PAGE_LIMIT must be >= ALERT_DEFAULT_PAGE_LIMIT")
}
