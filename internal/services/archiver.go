package services

import (
	"context"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
)

// Archiver moves alerts from the live store to the archive. The archive copy
// is authoritative: once it exists, any live record with the same ID is a
// remnant to be deleted.
type Archiver struct {
	live    alert.Repository
	archive alert.ArchiveRepository
	logger  *logger.Logger
}

// NewArchiver creates a new archiver
func NewArchiver(live alert.Repository, archive alert.ArchiveRepository, log *logger.Logger) *Archiver {
	return &Archiver{
		live:    live,
		archive: archive,
		logger:  log,
	}
}

// MoveToArchive writes the archived copy, then deletes the live record.
// moved is true once the archive copy exists, even if the live delete failed.
func (a *Archiver) MoveToArchive(ctx context.Context, rec *alert.ArchivedAlert) (moved bool, err error) {
	if err := a.archive.Insert(ctx, rec); err != nil {
		a.logger.WithFields(map[string]interface{}{
			"alert_id": rec.ID,
		}).ErrorWithErr(err, "Failed to write archive copy")
		return false, err
	}

	if err := a.live.Delete(ctx, rec.ID); err != nil {
		if errors.IsNotFound(err) {
			return true, nil
		}
		a.logger.WithFields(map[string]interface{}{
			"alert_id": rec.ID,
		}).ErrorWithErr(err, "Archive copy written but live record remains")
		return true, errors.StoreFailure("Alert archived but live record cleanup failed", err)
	}

	metrics.RecordArchived()
	return true, nil
}

// IsArchived reports whether id already has an archive copy.
func (a *Archiver) IsArchived(ctx context.Context, id string) (bool, error) {
	return a.archive.Exists(ctx, id)
}

// PurgeRemnants deletes live records whose IDs are already archived and
// returns how many were removed.
func (a *Archiver) PurgeRemnants(ctx context.Context, ids []string) (int, error) {
	removed := 0
	for _, id := range ids {
		err := a.live.Delete(ctx, id)
		if err != nil && !errors.IsNotFound(err) {
			return removed, err
		}
		if err == nil {
			removed++
		}
	}

	if removed > 0 {
		metrics.RecordArchiveRemnantsRemoved(removed)
		a.logger.WithFields(map[string]interface{}{
			"removed": removed,
		}).Info("Removed live remnants of archived alerts")
	}
	return removed, nil
}

// SweepRemnants finds and deletes every live record that has an archive copy.
func (a *Archiver) SweepRemnants(ctx context.Context) (int, error) {
	ids, err := a.live.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	archived, err := a.archive.FilterExisting(ctx, ids)
	if err != nil {
		return 0, err
	}
	return a.PurgeRemnants(ctx, archived)
}
