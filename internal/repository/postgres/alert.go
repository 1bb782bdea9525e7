package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
)

const alertColumns = `id, reporter_user_id, reporter_name, reporter_phone, address, latitude, longitude,
	incident_type, description, patient_count, attachment_url, status, assigned_responder_id,
	status_history, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// AlertRepository stores live alerts.
type AlertRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewAlertRepository(db *sql.DB, dialect Dialect) alert.Repository {
	return &AlertRepository{db: db, dialect: dialect}
}

func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	defer observe("insert", "alerts", time.Now())

	args, err := alertArgs(a)
	if err != nil {
		return errors.StoreFailure("Failed to encode alert", err)
	}

	query := fmt.Sprintf(`INSERT INTO alerts (%s) VALUES (%s)`, alertColumns, placeholders(len(args)))
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...); err != nil {
		return errors.StoreFailure("Failed to create alert", err)
	}
	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	defer observe("select", "alerts", time.Now())

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE id = ?`, alertColumns)
	a, err := scanAlert(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.StoreFailure("Failed to get alert", err)
	}
	return a, nil
}

func (r *AlertRepository) ListLive(ctx context.Context, filter alert.Filter) ([]*alert.Alert, int64, error) {
	defer observe("list", "alerts", time.Now())

	where := []string{"1 = 1"}
	var args []interface{}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ReporterID != "" {
		where = append(where, "reporter_user_id = ?")
		args = append(args, filter.ReporterID)
	}
	if filter.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, formatTime(*filter.To))
	}

	whereClause := strings.Join(where, " AND ")

	// Count and page read in one transaction so the total matches the page.
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: r.dialect == DialectPostgres})
	if err != nil {
		return nil, 0, errors.StoreFailure("Failed to begin read", err)
	}
	defer tx.Rollback()

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM alerts WHERE %s", whereClause)
	if err := tx.QueryRowContext(ctx, r.dialect.Rebind(countQuery), args...).Scan(&total); err != nil {
		return nil, 0, errors.StoreFailure("Failed to count alerts", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE %s ORDER BY created_at DESC, id DESC`, alertColumns, whereClause)
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := tx.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, 0, errors.StoreFailure("Failed to list alerts", err)
	}
	defer rows.Close()

	alerts := make([]*alert.Alert, 0, filter.Limit)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, errors.StoreFailure("Failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.StoreFailure("Failed to list alerts", err)
	}

	return alerts, total, nil
}

func (r *AlertRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM alerts")
	if err != nil {
		return nil, errors.StoreFailure("Failed to list alert IDs", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.StoreFailure("Failed to scan alert ID", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *AlertRepository) Update(ctx context.Context, id string, mutate func(*alert.Alert) error) (*alert.Alert, error) {
	defer observe("update", "alerts", time.Now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.StoreFailure("Failed to begin update", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE id = ?`, alertColumns) + r.dialect.ForUpdate()
	a, err := scanAlert(tx.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Alert")
	}
	if err != nil {
		return nil, errors.StoreFailure("Failed to load alert for update", err)
	}

	if err := mutate(a); err != nil {
		return nil, err
	}

	history, err := json.Marshal(a.StatusHistory)
	if err != nil {
		return nil, errors.StoreFailure("Failed to encode status history", err)
	}

	update := `UPDATE alerts SET status = ?, assigned_responder_id = ?, status_history = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(update),
		string(a.Status), nullString(a.AssignedResponderID), string(history), formatTime(a.UpdatedAt), a.ID,
	); err != nil {
		return nil, errors.StoreFailure("Failed to update alert", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.StoreFailure("Failed to commit alert update", err)
	}
	return a, nil
}

func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "alerts", time.Now())
	return deleteByID(ctx, r.db, r.dialect, "alerts", id, "Alert")
}

func deleteByID(ctx context.Context, db execer, dialect Dialect, table, id, resource string) error {
	result, err := db.ExecContext(ctx, dialect.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)), id)
	if err != nil {
		return errors.StoreFailure(fmt.Sprintf("Failed to delete %s", strings.ToLower(resource)), err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.StoreFailure("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

func alertArgs(a *alert.Alert) ([]interface{}, error) {
	history, err := json.Marshal(a.StatusHistory)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		a.ID,
		nullString(a.Reporter.UserID),
		a.Reporter.Name,
		a.Reporter.Phone,
		a.Location.Address,
		nullFloat(a.Location.Latitude),
		nullFloat(a.Location.Longitude),
		string(a.IncidentType),
		a.Description,
		a.PatientCount,
		a.AttachmentURL,
		string(a.Status),
		nullString(a.AssignedResponderID),
		string(history),
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	}, nil
}

// scanAlert reads alertColumns, followed by any extra destinations.
func scanAlert(row rowScanner, extra ...interface{}) (*alert.Alert, error) {
	var a alert.Alert
	var reporterID, assignedID sql.NullString
	var lat, lng sql.NullFloat64
	var incidentType, status, history, createdAt, updatedAt string

	dest := []interface{}{
		&a.ID, &reporterID, &a.Reporter.Name, &a.Reporter.Phone, &a.Location.Address, &lat, &lng,
		&incidentType, &a.Description, &a.PatientCount, &a.AttachmentURL, &status, &assignedID,
		&history, &createdAt, &updatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	a.Reporter.UserID = reporterID.String
	a.AssignedResponderID = assignedID.String
	if lat.Valid {
		v := lat.Float64
		a.Location.Latitude = &v
	}
	if lng.Valid {
		v := lng.Float64
		a.Location.Longitude = &v
	}
	a.IncidentType = alert.IncidentType(incidentType)
	a.Status = alert.Status(status)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(history), &a.StatusHistory); err != nil {
		return nil, fmt.Errorf("decode status history: %w", err)
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func observe(operation, table string, start time.Time) {
	metrics.RecordDBQuery(operation, table, time.Since(start))
}
