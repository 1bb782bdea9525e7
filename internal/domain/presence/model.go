package presence

import "time"

// Presence is the last reported position of one responder connection.
// Entries are ephemeral and never persisted.
type Presence struct {
	ConnectionID  string    `json:"connectionId"`
	ResponderID   string    `json:"responderId"`
	ResponderName string    `json:"responderName"`
	Latitude      float64   `json:"lat"`
	Longitude     float64   `json:"lng"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
