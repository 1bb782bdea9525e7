package dto

import (
	"time"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
)

// SubmitAlertRequest is the body of an alert submission. Reporter name and
// phone are required only when the caller is not signed in.
type SubmitAlertRequest struct {
	ReporterName  string   `json:"reporterName,omitempty"`
	ReporterPhone string   `json:"reporterPhone,omitempty"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	IncidentType  string   `json:"incidentType"`
	Description   string   `json:"description,omitempty"`
	PatientCount  int      `json:"patientCount"`
	AttachmentURL string   `json:"attachmentUrl,omitempty"`
}

// ToSubmission converts the request to the domain input
func (r SubmitAlertRequest) ToSubmission() alert.Submission {
	return alert.Submission{
		ReporterName:  r.ReporterName,
		ReporterPhone: r.ReporterPhone,
		Address:       r.Address,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		IncidentType:  r.IncidentType,
		Description:   r.Description,
		PatientCount:  r.PatientCount,
		AttachmentURL: r.AttachmentURL,
	}
}

// TransitionRequest moves an alert to a new status
type TransitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty" validate:"max=1000"`
}

// ReporterDTO identifies who raised an alert
type ReporterDTO struct {
	UserID    string `json:"userId,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// LocationDTO is where help is needed
type LocationDTO struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// StatusEntryDTO is one status history record
type StatusEntryDTO struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	ActorID   string    `json:"actorId,omitempty"`
}

// ContactDTO is a resolved account reference
type ContactDTO struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// AlertDTO represents an alert in API responses and realtime events
// Uses camelCase for frontend compatibility
type AlertDTO struct {
	ID                  string           `json:"id"`
	Reporter            ReporterDTO      `json:"reporter"`
	ReporterContact     *ContactDTO      `json:"reporterContact,omitempty"`
	Location            LocationDTO      `json:"location"`
	IncidentType        string           `json:"incidentType"`
	IncidentLabel       string           `json:"incidentLabel"`
	Description         string           `json:"description,omitempty"`
	PatientCount        int              `json:"patientCount"`
	AttachmentURL       string           `json:"attachmentUrl,omitempty"`
	Status              string           `json:"status"`
	AssignedResponderID string           `json:"assignedResponderId,omitempty"`
	AssignedResponder   *ContactDTO      `json:"assignedResponder,omitempty"`
	StatusHistory       []StatusEntryDTO `json:"statusHistory"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// ArchivedAlertDTO is an alert after it left the live store
type ArchivedAlertDTO struct {
	AlertDTO
	ArchivedAt time.Time `json:"archivedAt"`
}

// TransitionResponse reports the outcome of a status change. Alert is
// omitted when the change archived the alert.
type TransitionResponse struct {
	ID       string    `json:"id"`
	Status   string    `json:"status"`
	Archived bool      `json:"archived"`
	Alert    *AlertDTO `json:"alert,omitempty"`
}

// ArchivedEventDTO is the payload of an alert-archived event
type ArchivedEventDTO struct {
	AlertID string `json:"alertId"`
}

// FromView maps a resolved alert to its API form
func FromView(v *alert.View) AlertDTO {
	return fromAlert(v.Alert, v.ReporterContact, v.AssignedResponder)
}

// FromArchivedView maps a resolved archived alert to its API form
func FromArchivedView(v *alert.ArchivedView) ArchivedAlertDTO {
	return ArchivedAlertDTO{
		AlertDTO:   fromAlert(&v.Alert, v.ReporterContact, v.AssignedResponder),
		ArchivedAt: v.ArchivedAt,
	}
}

// FromViews maps a page of alerts
func FromViews(views []*alert.View) []AlertDTO {
	out := make([]AlertDTO, len(views))
	for i, v := range views {
		out[i] = FromView(v)
	}
	return out
}

// FromArchivedViews maps a page of archived alerts
func FromArchivedViews(views []*alert.ArchivedView) []ArchivedAlertDTO {
	out := make([]ArchivedAlertDTO, len(views))
	for i, v := range views {
		out[i] = FromArchivedView(v)
	}
	return out
}

func fromAlert(a *alert.Alert, reporter, responder *alert.ContactRef) AlertDTO {
	history := make([]StatusEntryDTO, len(a.StatusHistory))
	for i, e := range a.StatusHistory {
		history[i] = StatusEntryDTO{
			Status:    string(e.Status),
			Timestamp: e.Timestamp,
			Note:      e.Note,
			ActorID:   e.ActorID,
		}
	}

	return AlertDTO{
		ID: a.ID,
		Reporter: ReporterDTO{
			UserID:    a.Reporter.UserID,
			Name:      a.Reporter.Name,
			Phone:     a.Reporter.Phone,
			Anonymous: a.Reporter.IsAnonymous(),
		},
		ReporterContact: fromContact(reporter),
		Location: LocationDTO{
			Address:   a.Location.Address,
			Latitude:  a.Location.Latitude,
			Longitude: a.Location.Longitude,
		},
		IncidentType:        string(a.IncidentType),
		IncidentLabel:       a.IncidentType.Label(),
		Description:         a.Description,
		PatientCount:        a.PatientCount,
		AttachmentURL:       a.AttachmentURL,
		Status:              string(a.Status),
		AssignedResponderID: a.AssignedResponderID,
		AssignedResponder:   fromContact(responder),
		StatusHistory:       history,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func fromContact(c *alert.ContactRef) *ContactDTO {
	if c == nil {
		return nil
	}
	return &ContactDTO{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email}
}
