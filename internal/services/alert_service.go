package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/keylock"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/metrics"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/validator"
)

var _ alert.Service = (*AlertService)(nil)

// AlertService implements alert.Service
type AlertService struct {
	repo      alert.Repository
	archive   alert.ArchiveRepository
	archiver  *Archiver
	users     user.Repository
	publisher alert.Publisher
	notifier  alert.Notifier
	policy    alert.ArchivalPolicy
	validate  *validator.Validator
	locks     *keylock.Locker
	logger    *logger.Logger
	now       func() time.Time
}

// NewAlertService creates a new alert service
func NewAlertService(
	repo alert.Repository,
	archive alert.ArchiveRepository,
	users user.Repository,
	publisher alert.Publisher,
	notifier alert.Notifier,
	policy alert.ArchivalPolicy,
	log *logger.Logger,
) *AlertService {
	return &AlertService{
		repo:      repo,
		archive:   archive,
		archiver:  NewArchiver(repo, archive, log),
		users:     users,
		publisher: publisher,
		notifier:  notifier,
		policy:    policy,
		validate:  NewAlertValidator(),
		locks:     keylock.New(),
		logger:    log,
		now:       time.Now,
	}
}

// NewAlertValidator returns a validator that knows the alert enums.
func NewAlertValidator() *validator.Validator {
	v := validator.New()
	v.MustRegisterStringSet("incident_type", func(s string) bool { return alert.IncidentType(s).Valid() })
	v.MustRegisterStringSet("alert_status", func(s string) bool { return alert.Status(s).Valid() })
	return v
}

// Archiver exposes the archive mover for background reconciliation.
func (s *AlertService) Archiver() *Archiver {
	return s.archiver
}

// Submit validates and records a new alert
func (s *AlertService) Submit(ctx context.Context, actor *user.Actor, sub alert.Submission) (*alert.View, error) {
	sub.Address = strings.TrimSpace(sub.Address)
	sub.ReporterName = strings.TrimSpace(sub.ReporterName)
	sub.ReporterPhone = strings.TrimSpace(sub.ReporterPhone)

	errs := s.validate.Validate(sub)
	if (sub.Latitude == nil) != (sub.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field: "latitude", Tag: "required_with", Message: "latitude and longitude must be provided together",
		})
	}
	if len(errs) > 0 {
		return nil, errors.ValidationError("Invalid alert submission", errs)
	}

	var reporter alert.Reporter
	var actorID string
	if actor != nil && actor.ID != "" {
		reporter.UserID = actor.ID
		actorID = actor.ID
	} else {
		var missing []validator.ValidationError
		if sub.ReporterName == "" {
			missing = append(missing, validator.ValidationError{Field: "reporter_name", Tag: "required", Message: "reporter_name is required for anonymous reports"})
		}
		if sub.ReporterPhone == "" {
			missing = append(missing, validator.ValidationError{Field: "reporter_phone", Tag: "required", Message: "reporter_phone is required for anonymous reports"})
		}
		if len(missing) > 0 {
			return nil, errors.ValidationError("Invalid alert submission", missing)
		}
		reporter.Name = sub.ReporterName
		reporter.Phone = sub.ReporterPhone
	}

	now := s.now()
	a := &alert.Alert{
		ID:       uuid.New().String(),
		Reporter: reporter,
		Location: alert.Location{
			Address:   sub.Address,
			Latitude:  sub.Latitude,
			Longitude: sub.Longitude,
		},
		IncidentType:  alert.IncidentType(sub.IncidentType),
		Description:   strings.TrimSpace(sub.Description),
		PatientCount:  sub.PatientCount,
		AttachmentURL: sub.AttachmentURL,
		Status:        alert.StatusNew,
		StatusHistory: []alert.StatusEntry{{
			Status:    alert.StatusNew,
			Timestamp: now,
			Note:      "Alert submitted",
			ActorID:   actorID,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create alert")
		return nil, err
	}

	metrics.RecordAlertSubmitted(string(a.IncidentType), reporter.IsAnonymous())
	s.logger.WithFields(map[string]interface{}{
		"alert_id":      a.ID,
		"incident_type": a.IncidentType,
		"anonymous":     reporter.IsAnonymous(),
	}).Info("Alert submitted")

	view := s.resolve(ctx, a)
	s.publisher.AlertCreated(view)
	s.notifier.NotifyStaffOfNewAlert(a)

	return view, nil
}

// Transition moves an alert to a new status
func (s *AlertService) Transition(ctx context.Context, actor *user.Actor, id string, to alert.Status, note string) (*alert.View, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Only EMS personnel can update alert status")
	}
	note = strings.TrimSpace(note)

	release := s.locks.Lock(id)
	defer release()

	if err := s.rejectArchived(ctx, id); err != nil {
		return nil, err
	}
	if !to.Valid() {
		// Unknown ids report NotFound whatever the requested status.
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, errors.ValidationError("Invalid status", []validator.ValidationError{{
			Field: "status", Tag: "alert_status", Value: string(to), Message: "status is not a recognised alert status",
		}})
	}

	if s.policy.Archives(to) {
		return nil, s.archiveTransition(ctx, actor, id, to, note)
	}

	updated, err := s.repo.Update(ctx, id, func(a *alert.Alert) error {
		if !alert.CanTransition(a.Status, to) {
			return errors.InvalidTransition(string(a.Status), string(to))
		}
		a.ApplyTransition(to, note, actor.ID, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(string(to))
	s.logger.WithFields(map[string]interface{}{
		"alert_id":  id,
		"status":    to,
		"actor_id":  actor.ID,
		"responder": updated.AssignedResponderID,
	}).Info("Alert status updated")

	view := s.resolve(ctx, updated)
	s.publisher.AlertUpdated(view)
	return view, nil
}

func (s *AlertService) archiveTransition(ctx context.Context, actor *user.Actor, id string, to alert.Status, note string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !alert.CanTransition(current.Status, to) {
		return errors.InvalidTransition(string(current.Status), string(to))
	}

	now := s.now()
	current.ApplyTransition(to, note, actor.ID, now)

	moved, err := s.archiver.MoveToArchive(ctx, current.Archive(now))
	if moved {
		metrics.RecordTransition(string(to))
		s.publisher.AlertArchived(id)
		s.logger.WithFields(map[string]interface{}{
			"alert_id": id,
			"status":   to,
			"actor_id": actor.ID,
		}).Info("Alert archived")
	}
	return err
}

// rejectArchived returns NotFound when id has an archive copy, removing any
// live remnant on the way.
func (s *AlertService) rejectArchived(ctx context.Context, id string) error {
	archived, err := s.archiver.IsArchived(ctx, id)
	if err != nil {
		return err
	}
	if !archived {
		return nil
	}
	if _, err := s.archiver.PurgeRemnants(ctx, []string{id}); err != nil {
		s.logger.WithFields(map[string]interface{}{"alert_id": id}).WarnWithErr(err, "Failed to remove archived remnant")
	}
	return errors.NotFound("Alert")
}

// Get retrieves a live alert
func (s *AlertService) Get(ctx context.Context, id string) (*alert.View, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rejectArchived(ctx, id); err != nil {
		return nil, err
	}
	return s.resolve(ctx, a), nil
}

// ListLive retrieves live alerts newest first
func (s *AlertService) ListLive(ctx context.Context, filter alert.Filter) ([]*alert.View, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, errors.ValidationError("Invalid status filter", nil)
	}

	alerts, total, err := s.repo.ListLive(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(alerts))
	for i, a := range alerts {
		ids[i] = a.ID
	}
	remnants, err := s.archive.FilterExisting(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	if len(remnants) > 0 {
		skip := make(map[string]bool, len(remnants))
		for _, id := range remnants {
			skip[id] = true
		}
		kept := alerts[:0]
		for _, a := range alerts {
			if !skip[a.ID] {
				kept = append(kept, a)
			}
		}
		alerts = kept
		total -= int64(len(remnants))

		if _, err := s.archiver.PurgeRemnants(ctx, remnants); err != nil {
			s.logger.WarnWithErr(err, "Failed to remove archived remnants during listing")
		}
	}

	return s.resolveMany(ctx, alerts), total, nil
}

// ListArchived retrieves archived alerts
func (s *AlertService) ListArchived(ctx context.Context, actor *user.Actor, sort alert.ArchiveSort, limit, offset int) ([]*alert.ArchivedView, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, errors.Forbidden("Only EMS personnel can view archived alerts")
	}

	archived, total, err := s.archive.List(ctx, sort, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	refs := s.lookupUsers(ctx, archivedUserIDs(archived))
	views := make([]*alert.ArchivedView, len(archived))
	for i, a := range archived {
		views[i] = &alert.ArchivedView{
			ArchivedAlert:     a,
			ReporterContact:   reporterContact(&a.Alert, refs),
			AssignedResponder: contactRef(refs[a.AssignedResponderID]),
		}
	}
	return views, total, nil
}

// GetArchived retrieves one archived alert
func (s *AlertService) GetArchived(ctx context.Context, actor *user.Actor, id string) (*alert.ArchivedView, error) {
	if !actor.IsStaff() {
		return nil, errors.Forbidden("Only EMS personnel can view archived alerts")
	}

	a, err := s.archive.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	refs := s.lookupUsers(ctx, []string{a.Reporter.UserID, a.AssignedResponderID})
	return &alert.ArchivedView{
		ArchivedAlert:     a,
		ReporterContact:   reporterContact(&a.Alert, refs),
		AssignedResponder: contactRef(refs[a.AssignedResponderID]),
	}, nil
}

// DeleteArchived permanently removes an archived alert
func (s *AlertService) DeleteArchived(ctx context.Context, actor *user.Actor, id string) error {
	if !actor.IsAdmin() {
		return errors.Forbidden("Only administrators can delete archived alerts")
	}

	release := s.locks.Lock(id)
	defer release()

	archived, err := s.archiver.IsArchived(ctx, id)
	if err != nil {
		return err
	}
	if !archived {
		return errors.NotFound("Archived alert")
	}

	// A live remnant must go first, or it would resurface once the archive
	// copy no longer hides it.
	if _, err := s.archiver.PurgeRemnants(ctx, []string{id}); err != nil {
		return errors.StoreFailure("Failed to remove live remnant of archived alert", err)
	}

	if err := s.archive.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"actor_id": actor.ID,
	}).Info("Archived alert deleted")
	return nil
}

func (s *AlertService) resolve(ctx context.Context, a *alert.Alert) *alert.View {
	refs := s.lookupUsers(ctx, []string{a.Reporter.UserID, a.AssignedResponderID})
	return &alert.View{
		Alert:             a,
		ReporterContact:   reporterContact(a, refs),
		AssignedResponder: contactRef(refs[a.AssignedResponderID]),
	}
}

func (s *AlertService) resolveMany(ctx context.Context, alerts []*alert.Alert) []*alert.View {
	ids := make([]string, 0, len(alerts)*2)
	for _, a := range alerts {
		ids = append(ids, a.Reporter.UserID, a.AssignedResponderID)
	}
	refs := s.lookupUsers(ctx, ids)

	views := make([]*alert.View, len(alerts))
	for i, a := range alerts {
		views[i] = &alert.View{
			Alert:             a,
			ReporterContact:   reporterContact(a, refs),
			AssignedResponder: contactRef(refs[a.AssignedResponderID]),
		}
	}
	return views
}

// lookupUsers resolves display references. Failures degrade to unresolved views.
func (s *AlertService) lookupUsers(ctx context.Context, ids []string) map[string]*user.User {
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		s.logger.WarnWithErr(err, "Failed to resolve user references")
		return map[string]*user.User{}
	}
	return users
}

func archivedUserIDs(archived []*alert.ArchivedAlert) []string {
	ids := make([]string, 0, len(archived)*2)
	for _, a := range archived {
		ids = append(ids, a.Reporter.UserID, a.AssignedResponderID)
	}
	return ids
}

func reporterContact(a *alert.Alert, refs map[string]*user.User) *alert.ContactRef {
	if a.Reporter.IsAnonymous() {
		return &alert.ContactRef{Name: a.Reporter.Name, Phone: a.Reporter.Phone}
	}
	if ref := contactRef(refs[a.Reporter.UserID]); ref != nil {
		return ref
	}
	return &alert.ContactRef{ID: a.Reporter.UserID}
}

func contactRef(u *user.User) *alert.ContactRef {
	if u == nil {
		return nil
	}
	return &alert.ContactRef{
		ID:    u.ID,
		Name:  u.FullName(),
		Phone: u.PhoneNumber,
		Email: u.Email,
	}
}
