package repository

import (
	"context"
	"database/sql"
	"fmt"

	"EnviroMonitorAPI/internal/models"
)

// ISensorRepository provides read access to sensors for display enrichment
// and ingestion checks.
type ISensorRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Sensor, error)
	GetByStation(ctx context.Context, stationID int64) ([]models.Sensor, error)
}

type SensorRepository struct {
	db *sql.DB
}

func NewSensorRepository(db *sql.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

func (r *SensorRepository) GetByID(ctx context.Context, id int64) (*models.Sensor, error) {
	query := `
		SELECT id, station_id, sensor_type, name, serial_number, created_at
		FROM sensors
		WHERE id = $1`

	var sensor models.Sensor
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sensor.ID,
		&sensor.StationID,
		&sensor.SensorType,
		&sensor.Name,
		&sensor.SerialNumber,
		&sensor.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sensor %d: %w", id, err)
	}

	return &sensor, nil
}

func (r *SensorRepository) GetByStation(ctx context.Context, stationID int64) ([]models.Sensor, error) {
	query := `
		SELECT id, station_id, sensor_type, name, serial_number, created_at
		FROM sensors
		WHERE station_id = $1
		ORDER BY sensor_type, name`

	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors for station %d: %w", stationID, err)
	}
	defer rows.Close()

	var sensors []models.Sensor
	for rows.Next() {
		var s models.Sensor
		err := rows.Scan(&s.ID, &s.StationID, &s.SensorType, &s.Name,
			&s.SerialNumber, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, s)
	}
	return sensors, rows.Err()
}
