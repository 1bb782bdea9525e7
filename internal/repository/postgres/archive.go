package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
)

// ArchiveRepository stores resolved alerts. Rows are immutable once written.
type ArchiveRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewArchiveRepository(db *sql.DB, dialect Dialect) alert.ArchiveRepository {
	return &ArchiveRepository{db: db, dialect: dialect}
}

func (r *ArchiveRepository) Insert(ctx context.Context, a *alert.ArchivedAlert) error {
	defer observe("insert", "archived_alerts", time.Now())

	args, err := alertArgs(&a.Alert)
	if err != nil {
		return errors.StoreFailure("Failed to encode archived alert", err)
	}
	args = append(args, formatTime(a.ArchivedAt))

	query := fmt.Sprintf(
		`INSERT INTO archived_alerts (%s, archived_at) VALUES (%s) ON CONFLICT (id) DO NOTHING`,
		alertColumns, placeholders(len(args)),
	)
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...); err != nil {
		return errors.StoreFailure("Failed to archive alert", err)
	}
	return nil
}

func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*alert.ArchivedAlert, error) {
	defer observe("select", "archived_alerts", time.Now())

	query := fmt.Sprintf(`SELECT %s, archived_at FROM archived_alerts WHERE id = ?`, alertColumns)
	a, err := scanArchived(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Archived alert")
	}
	if err != nil {
		return nil, errors.StoreFailure("Failed to get archived alert", err)
	}
	return a, nil
}

func (r *ArchiveRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT COUNT(*) FROM archived_alerts WHERE id = ?`), id).Scan(&n)
	if err != nil {
		return false, errors.StoreFailure("Failed to check archive", err)
	}
	return n > 0, nil
}

func (r *ArchiveRepository) FilterExisting(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id FROM archived_alerts WHERE id IN (%s)`, placeholders(len(ids)))
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, errors.StoreFailure("Failed to check archive", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.StoreFailure("Failed to scan archived ID", err)
		}
		found = append(found, id)
	}
	return found, rows.Err()
}

var archiveOrder = map[alert.ArchiveSort]string{
	alert.SortArchivedDesc: "archived_at DESC, id DESC",
	alert.SortArchivedAsc:  "archived_at ASC, id ASC",
	alert.SortCreatedDesc:  "created_at DESC, id DESC",
	alert.SortCreatedAsc:   "created_at ASC, id ASC",
}

func (r *ArchiveRepository) List(ctx context.Context, sort alert.ArchiveSort, limit, offset int) ([]*alert.ArchivedAlert, int64, error) {
	defer observe("list", "archived_alerts", time.Now())

	order, ok := archiveOrder[sort]
	if !ok {
		order = archiveOrder[alert.SortArchivedDesc]
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM archived_alerts").Scan(&total); err != nil {
		return nil, 0, errors.StoreFailure("Failed to count archived alerts", err)
	}

	query := fmt.Sprintf(`SELECT %s, archived_at FROM archived_alerts ORDER BY %s`, alertColumns, order)
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, 0, errors.StoreFailure("Failed to list archived alerts", err)
	}
	defer rows.Close()

	var out []*alert.ArchivedAlert
	for rows.Next() {
		a, err := scanArchived(rows)
		if err != nil {
			return nil, 0, errors.StoreFailure("Failed to scan archived alert", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.StoreFailure("Failed to list archived alerts", err)
	}
	return out, total, nil
}

func (r *ArchiveRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "archived_alerts", time.Now())
	return deleteByID(ctx, r.db, r.dialect, "archived_alerts", id, "Archived alert")
}

func scanArchived(row rowScanner) (*alert.ArchivedAlert, error) {
	var archivedAt string
	a, err := scanAlert(row, &archivedAt)
	if err != nil {
		return nil, err
	}
	return &alert.ArchivedAlert{Alert: *a, ArchivedAt: parseTime(archivedAt)}, nil
}
