package client

import "time"

// Reporter identifies who raised an alert
type Reporter struct {
	UserID    string `json:"userId,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// Location is where help is needed
type Location struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// StatusEntry is one status history record
type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
	ActorID   string    `json:"actorId,omitempty"`
}

// Contact is a resolved account reference
type Contact struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Alert represents a live emergency alert
type Alert struct {
	ID                  string        `json:"id"`
	Reporter            Reporter      `json:"reporter"`
	ReporterContact     *Contact      `json:"reporterContact,omitempty"`
	Location            Location      `json:"location"`
	IncidentType        string        `json:"incidentType"`
	IncidentLabel       string        `json:"incidentLabel"`
	Description         string        `json:"description,omitempty"`
	PatientCount        int           `json:"patientCount"`
	AttachmentURL       string        `json:"attachmentUrl,omitempty"`
	Status              string        `json:"status"`
	AssignedResponderID string        `json:"assignedResponderId,omitempty"`
	AssignedResponder   *Contact      `json:"assignedResponder,omitempty"`
	StatusHistory       []StatusEntry `json:"statusHistory"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// ArchivedAlert is an alert after it left the live store
type ArchivedAlert struct {
	Alert
	ArchivedAt time.Time `json:"archivedAt"`
}

// TransitionResult reports the outcome of a status change. Alert is nil
// when the change archived the alert.
type TransitionResult struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Archived bool   `json:"archived"`
	Alert    *Alert `json:"alert,omitempty"`
}

// ResponderLocation is the last reported position of a responder connection
type ResponderLocation struct {
	ConnectionID  string    `json:"connectionId"`
	ResponderID   string    `json:"responderId"`
	ResponderName string    `json:"responderName"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lng"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// User represents an account
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOptions contains pagination options
type ListOptions struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

// Page is one page of a paginated listing
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Cache    string `json:"cache,omitempty"`
}
