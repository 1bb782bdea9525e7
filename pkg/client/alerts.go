package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// AlertService handles live alert API calls
type AlertService struct {
	client *Client
}

// SubmitAlertRequest reports a new emergency. ReporterName and ReporterPhone
// are required when the client has no token.
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

// AlertListOptions contains options for listing live alerts
type AlertListOptions struct {
	ListOptions
	Status string
	From   *time.Time
	To     *time.Time
}

func (o *AlertListOptions) query() url.Values {
	query := url.Values{}
	if o == nil {
		return query
	}
	if o.Page > 0 {
		query.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.Status != "" {
		query.Set("status", o.Status)
	}
	if o.From != nil {
		query.Set("from", o.From.UTC().Format(time.RFC3339))
	}
	if o.To != nil {
		query.Set("to", o.To.UTC().Format(time.RFC3339))
	}
	return query
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// List retrieves live alerts newest first
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) (*Page[Alert], error) {
	var page Page[Alert]
	if err := s.client.doRequest(ctx, "GET", withQuery("/api/v1/alerts", opts.query()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Mine retrieves live alerts reported by the token's user
func (s *AlertService) Mine(ctx context.Context, opts *AlertListOptions) (*Page[Alert], error) {
	var page Page[Alert]
	if err := s.client.doRequest(ctx, "GET", withQuery("/api/v1/alerts/mine", opts.query()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a live alert by ID
func (s *AlertService) Get(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	if err := s.client.doRequest(ctx, "GET", "/api/v1/alerts/"+url.PathEscape(id), nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Submit reports a new alert
func (s *AlertService) Submit(ctx context.Context, req SubmitAlertRequest) (*Alert, error) {
	var alert Alert
	if err := s.client.doRequest(ctx, "POST", "/api/v1/alerts", req, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Transition moves an alert to status. Completing an alert archives it.
func (s *AlertService) Transition(ctx context.Context, id, status, note string) (*TransitionResult, error) {
	body := map[string]string{"status": status}
	if note != "" {
		body["note"] = note
	}

	var result TransitionResult
	if err := s.client.doRequest(ctx, "PATCH", "/api/v1/alerts/"+url.PathEscape(id)+"/status", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Presence retrieves the current responder positions
func (c *Client) Presence(ctx context.Context) ([]ResponderLocation, error) {
	var locations []ResponderLocation
	if err := c.doRequest(ctx, "GET", "/api/v1/presence", nil, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}
