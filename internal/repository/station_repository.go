package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"EnviroMonitorAPI/internal/models"
)

// IStationRepository provides read access to monitoring stations. Station
// CRUD is owned elsewhere; the alert core only reads and touches last_seen.
type IStationRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	GetAll(ctx context.Context) ([]models.Station, error)
	UpdateLastSeen(ctx context.Context, id int64, timestamp time.Time) error
}

type StationRepository struct {
	db *sql.DB
}

func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	query := `
		SELECT id, name, latitude, longitude, last_seen, created_at, updated_at
		FROM stations
		WHERE id = $1`

	var station models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&station.ID,
		&station.Name,
		&station.Latitude,
		&station.Longitude,
		&station.LastSeen,
		&station.CreatedAt,
		&station.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrStationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get station %d: %w", id, err)
	}

	return &station, nil
}

func (r *StationRepository) GetAll(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT id, name, latitude, longitude, last_seen, created_at, updated_at
		FROM stations
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var s models.Station
		err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude,
			&s.LastSeen, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func (r *StationRepository) UpdateLastSeen(ctx context.Context, id int64, timestamp time.Time) error {
	query := `UPDATE stations SET last_seen = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, timestamp, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update station last_seen: %w", err)
	}
	return nil
}
