package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"EnviroMonitorAPI/internal/models"
)

// IAlertRepository defines the persistence operations for alerts.
type IAlertRepository interface {
	RecordBreach(ctx context.Context, payload *models.BreachPayload) (*models.Alert, error)
	GetByID(ctx context.Context, id int64) (*models.Alert, error)
	List(ctx context.Context, filter models.AlertFilter, limit, offset int, sortAsc bool) ([]models.Alert, int, error)
	Acknowledge(ctx context.Context, id, actorID int64) (*models.Alert, error)
	Resolve(ctx context.Context, id int64) (*models.Alert, error)
	SweepStale(ctx context.Context, cutoff time.Time) (int64, error)
	Purge(ctx context.Context, olderThan *time.Time, resolvedOnly *bool) (int64, error)
	CountActiveBySeverity(ctx context.Context) (map[string]int, error)
}

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `
	id, station_id, sensor_id, sensor_type, value, threshold_value,
	severity, message, is_active, acknowledged, acknowledged_by,
	acknowledged_at, resolved_at, created_at`

// RecordBreach upserts an alert for the breach inside a single transaction.
// Writers serialize on a transaction-scoped advisory lock over the dedup key
// (station_id, sensor_type, severity[, sensor_id]); FOR UPDATE on the lookup
// alone cannot block a concurrent first breach when no row exists yet, which
// would let two inserts through. The lock is released at commit or rollback.
func (r *AlertRepository) RecordBreach(ctx context.Context, payload *models.BreachPayload) (*models.Alert, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin breach transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, dedupKey(payload)); err != nil {
		return nil, fmt.Errorf("failed to lock dedup key: %w", err)
	}

	lookup := `
		SELECT id, acknowledged
		FROM alerts
		WHERE station_id = $1 AND sensor_type = $2 AND severity = $3 AND is_active = TRUE`
	args := []interface{}{payload.StationID, payload.SensorType, payload.Severity}
	if payload.SensorID != nil {
		lookup += " AND sensor_id = $4"
		args = append(args, *payload.SensorID)
	}
	lookup += " ORDER BY created_at LIMIT 1 FOR UPDATE"

	var existingID int64
	var acknowledged bool
	err = tx.QueryRowContext(ctx, lookup, args...).Scan(&existingID, &acknowledged)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to look up active alert: %w", err)
	}

	message := payload.Message
	if message == "" {
		message = fmt.Sprintf("Sensor %s reading %v exceeded threshold %v",
			payload.SensorType, payload.Value, payload.ThresholdValue)
	}

	var alert *models.Alert
	if err == sql.ErrNoRows {
		insert := `
			INSERT INTO alerts (
				station_id, sensor_id, sensor_type, value, threshold_value,
				severity, message, is_active, acknowledged, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, FALSE, $8)
			RETURNING` + alertColumns
		row := tx.QueryRowContext(ctx, insert,
			payload.StationID,
			payload.SensorID,
			payload.SensorType,
			payload.Value,
			payload.ThresholdValue,
			payload.Severity,
			message,
			time.Now(),
		)
		alert, err = scanAlert(row)
		if err != nil {
			return nil, fmt.Errorf("failed to insert alert: %w", err)
		}
	} else {
		// Re-triggered breach: refresh the reading and force the alert back
		// to unacknowledged when it had been acknowledged before.
		update := `
			UPDATE alerts
			SET value = $1, threshold_value = $2, message = $3, resolved_at = NULL`
		if acknowledged {
			update += `, acknowledged = FALSE, acknowledged_by = NULL, acknowledged_at = NULL`
		}
		update += `
			WHERE id = $4
			RETURNING` + alertColumns
		row := tx.QueryRowContext(ctx, update,
			payload.Value,
			payload.ThresholdValue,
			message,
			existingID,
		)
		alert, err = scanAlert(row)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh alert %d: %w", existingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit breach transaction: %w", err)
	}

	return alert, nil
}

// GetByID retrieves a single alert with station/sensor enrichment.
func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*models.Alert, error) {
	query := `
		SELECT a.id, a.station_id, a.sensor_id, a.sensor_type, a.value,
		       a.threshold_value, a.severity, a.message, a.is_active,
		       a.acknowledged, a.acknowledged_by, a.acknowledged_at,
		       a.resolved_at, a.created_at,
		       st.name, st.latitude, st.longitude, sn.name, sn.serial_number
		FROM alerts a
		LEFT JOIN stations st ON st.id = a.station_id
		LEFT JOIN sensors sn ON sn.id = a.sensor_id
		WHERE a.id = $1`

	alert, err := scanEnrichedAlert(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert by id: %w", err)
	}
	return alert, nil
}

// List returns one page of alerts matching the filter plus the total count
// ignoring pagination. Sorted by created_at, descending unless sortAsc.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter, limit, offset int, sortAsc bool) ([]models.Alert, int, error) {
	where, args := buildAlertFilter(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM alerts a" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	order := "DESC"
	if sortAsc {
		order = "ASC"
	}
	query := fmt.Sprintf(`
		SELECT a.id, a.station_id, a.sensor_id, a.sensor_type, a.value,
		       a.threshold_value, a.severity, a.message, a.is_active,
		       a.acknowledged, a.acknowledged_by, a.acknowledged_at,
		       a.resolved_at, a.created_at,
		       st.name, st.latitude, st.longitude, sn.name, sn.serial_number
		FROM alerts a
		LEFT JOIN stations st ON st.id = a.station_id
		LEFT JOIN sensors sn ON sn.id = a.sensor_id
		%s
		ORDER BY a.created_at %s
		LIMIT $%d OFFSET $%d`, where, order, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		alert, err := scanEnrichedAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate alert rows: %w", err)
	}

	return alerts, total, nil
}

// Acknowledge marks an active alert as acknowledged by the actor. Returns
// ErrAlertNotFound when the id does not exist and ErrAlertNotActive when the
// alert has already been resolved; neither path mutates anything.
func (r *AlertRepository) Acknowledge(ctx context.Context, id, actorID int64) (*models.Alert, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin acknowledge transaction: %w", err)
	}
	defer tx.Rollback()

	var isActive bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_active FROM alerts WHERE id = $1 FOR UPDATE`, id).Scan(&isActive)
	if err == sql.ErrNoRows {
		return nil, models.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert %d: %w", id, err)
	}
	if !isActive {
		return nil, models.ErrAlertNotActive
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE alerts
		SET acknowledged = TRUE, acknowledged_by = $1, acknowledged_at = $2
		WHERE id = $3`, actorID, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit acknowledge transaction: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Resolve closes an alert. Resolving an already-resolved alert is permitted
// and simply refreshes resolved_at.
func (r *AlertRepository) Resolve(ctx context.Context, id int64) (*models.Alert, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE alerts
		SET is_active = FALSE, resolved_at = $1
		WHERE id = $2`, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read resolve result: %w", err)
	}
	if affected == 0 {
		return nil, models.ErrAlertNotFound
	}

	return r.GetByID(ctx, id)
}

// SweepStale auto-resolves active alerts created before the cutoff in a
// single bulk update, so a breach arriving mid-sweep for the same alert is
// never clobbered by a separate read-then-write.
func (r *AlertRepository) SweepStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE alerts
		SET is_active = FALSE, resolved_at = $1
		WHERE is_active = TRUE AND created_at < $2`, time.Now(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale alerts: %w", err)
	}
	return result.RowsAffected()
}

// Purge permanently deletes alert rows matching the optional age cutoff and
// resolution-state filter. Callers must pass explicit filters; the service
// layer rejects a purge with neither.
func (r *AlertRepository) Purge(ctx context.Context, olderThan *time.Time, resolvedOnly *bool) (int64, error) {
	query := "DELETE FROM alerts"
	var clauses []string
	var args []interface{}

	if olderThan != nil {
		args = append(args, *olderThan)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if resolvedOnly != nil {
		args = append(args, !*resolvedOnly)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to purge alerts: %w", err)
	}
	return result.RowsAffected()
}

// CountActiveBySeverity returns a count of active alerts grouped by severity.
func (r *AlertRepository) CountActiveBySeverity(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT severity, COUNT(*)
		FROM alerts
		WHERE is_active = TRUE
		GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("failed to count active alerts: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		stats[severity] = count
	}
	return stats, rows.Err()
}

// dedupKey flattens the breach identity into the advisory lock key.
func dedupKey(payload *models.BreachPayload) string {
	key := fmt.Sprintf("alerts:%d:%s:%s", payload.StationID, payload.SensorType, payload.Severity)
	if payload.SensorID != nil {
		key = fmt.Sprintf("%s:%d", key, *payload.SensorID)
	}
	return key
}

func buildAlertFilter(filter models.AlertFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.StationID != nil {
		args = append(args, *filter.StationID)
		clauses = append(clauses, fmt.Sprintf("a.station_id = $%d", len(args)))
	}
	if filter.SensorType != nil {
		args = append(args, *filter.SensorType)
		clauses = append(clauses, fmt.Sprintf("a.sensor_type = $%d", len(args)))
	}
	if filter.Severity != nil {
		args = append(args, *filter.Severity)
		clauses = append(clauses, fmt.Sprintf("a.severity = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("a.is_active = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("a.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("a.created_at < $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	err := row.Scan(
		&a.ID,
		&a.StationID,
		&a.SensorID,
		&a.SensorType,
		&a.Value,
		&a.ThresholdValue,
		&a.Severity,
		&a.Message,
		&a.IsActive,
		&a.Acknowledged,
		&a.AcknowledgedBy,
		&a.AcknowledgedAt,
		&a.ResolvedAt,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanEnrichedAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	err := row.Scan(
		&a.ID,
		&a.StationID,
		&a.SensorID,
		&a.SensorType,
		&a.Value,
		&a.ThresholdValue,
		&a.Severity,
		&a.Message,
		&a.IsActive,
		&a.Acknowledged,
		&a.AcknowledgedBy,
		&a.AcknowledgedAt,
		&a.ResolvedAt,
		&a.CreatedAt,
		&a.StationName,
		&a.StationLatitude,
		&a.StationLongitude,
		&a.SensorName,
		&a.SensorSerial,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
