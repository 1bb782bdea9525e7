package alert

import "time"

// Alert is a live incident report moving through the response lifecycle.
type Alert struct {
	ID                  string        `json:"id"`
	Reporter            Reporter      `json:"reporter"`
	Location            Location      `json:"location"`
	IncidentType        IncidentType  `json:"incident_type"`
	Description         string        `json:"description,omitempty"`
	PatientCount        int           `json:"patient_count"`
	AttachmentURL       string        `json:"attachment_url,omitempty"`
	Status              Status        `json:"status"`
	AssignedResponderID string        `json:"assigned_responder_id,omitempty"`
	StatusHistory       []StatusEntry `json:"status_history"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Reporter identifies who raised an alert. Exactly one form is populated:
// UserID for a registered account, or Name and Phone for an anonymous caller.
type Reporter struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// IsAnonymous reports whether the reporter has no account.
func (r Reporter) IsAnonymous() bool {
	return r.UserID == ""
}

// Valid reports whether exactly one reporter form is populated.
func (r Reporter) Valid() bool {
	if r.UserID != "" {
		return r.Name == "" && r.Phone == ""
	}
	return r.Name != "" && r.Phone != ""
}

// Location is where help is needed. Coordinates are optional but paired.
type Location struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// StatusEntry is one append-only history record.
type StatusEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

// ArchivedAlert is the immutable copy of a resolved alert.
type ArchivedAlert struct {
	Alert
	ArchivedAt time.Time `json:"archived_at"`
}

// IncidentType is the closed set of emergency categories.
type IncidentType string

// Incident types
const (
	IncidentCardiacArrest       IncidentType = "cardiac_arrest"
	IncidentRespiratoryDistress IncidentType = "respiratory_distress"
	IncidentSevereBleeding      IncidentType = "severe_bleeding"
	IncidentVehicularAccident   IncidentType = "vehicular_accident"
	IncidentTrauma              IncidentType = "trauma"
	IncidentStroke              IncidentType = "stroke"
	IncidentAllergicReaction    IncidentType = "allergic_reaction"
	IncidentPoisoning           IncidentType = "poisoning"
	IncidentBurn                IncidentType = "burn"
	IncidentDrowning            IncidentType = "drowning"
	IncidentOther               IncidentType = "other"
)

var incidentLabels = map[IncidentType]string{
	IncidentCardiacArrest:       "Cardiac Arrest",
	IncidentRespiratoryDistress: "Respiratory Distress",
	IncidentSevereBleeding:      "Severe Bleeding",
	IncidentVehicularAccident:   "Vehicular Accident",
	IncidentTrauma:              "Trauma",
	IncidentStroke:              "Stroke",
	IncidentAllergicReaction:    "Allergic Reaction",
	IncidentPoisoning:           "Poisoning",
	IncidentBurn:                "Burn",
	IncidentDrowning:            "Drowning",
	IncidentOther:               "Other",
}

// Valid reports whether t is a known incident type.
func (t IncidentType) Valid() bool {
	_, ok := incidentLabels[t]
	return ok
}

// Label returns the human-readable name used in notifications.
func (t IncidentType) Label() string {
	if l, ok := incidentLabels[t]; ok {
		return l
	}
	return string(t)
}

// Status is a lifecycle state.
type Status string

// Lifecycle states
const (
	StatusNew        Status = "new"
	StatusResponding Status = "responding"
	StatusEnRoute    Status = "en_route"
	StatusOnScene    Status = "on_scene"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusResponding, StatusEnRoute, StatusOnScene, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Filter contains live alert listing options
type Filter struct {
	Status     Status
	ReporterID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// ArchiveSort selects the ordering of archive listings.
type ArchiveSort string

// Archive orderings
const (
	SortArchivedDesc ArchiveSort = "archived_desc"
	SortArchivedAsc  ArchiveSort = "archived_asc"
	SortCreatedDesc  ArchiveSort = "created_desc"
	SortCreatedAsc   ArchiveSort = "created_asc"
)

// ParseArchiveSort maps a query value to a sort, defaulting to newest archived first.
func ParseArchiveSort(s string) ArchiveSort {
	switch ArchiveSort(s) {
	case SortArchivedAsc, SortCreatedDesc, SortCreatedAsc:
		return ArchiveSort(s)
	}
	return SortArchivedDesc
}

// Submission is the input accepted from a reporter.
type Submission struct {
	ReporterName  string   `json:"reporter_name" validate:"max=120"`
	ReporterPhone string   `json:"reporter_phone" validate:"max=32"`
	Address       string   `json:"address" validate:"required,max=500"`
	Latitude      *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	IncidentType  string   `json:"incident_type" validate:"required,incident_type"`
	Description   string   `json:"description,omitempty" validate:"max=2000"`
	PatientCount  int      `json:"patient_count" validate:"required,gte=1,lte=1000"`
	AttachmentURL string   `json:"attachment_url,omitempty" validate:"omitempty,url"`
}

// ContactRef is a resolved display reference to an account.
type ContactRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// View is an alert with user references resolved for display.
type View struct {
	*Alert
	ReporterContact   *ContactRef `json:"reporter_contact,omitempty"`
	AssignedResponder *ContactRef `json:"assigned_responder,omitempty"`
}

// ArchivedView is an archived alert with user references resolved for display.
type ArchivedView struct {
	*ArchivedAlert
	ReporterContact   *ContactRef `json:"reporter_contact,omitempty"`
	AssignedResponder *ContactRef `json:"assigned_responder,omitempty"`
}

// ArchivedEvent is the payload broadcast when an alert leaves the live store.
type ArchivedEvent struct {
	AlertID string `json:"alertId"`
}
