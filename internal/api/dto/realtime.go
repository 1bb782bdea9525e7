package dto

// Client message types accepted on a websocket session
const (
	MessageLocationUpdate = "location-update"
	MessageOffDuty        = "off-duty"
)

// ClientMessage is a message sent by a websocket client
type ClientMessage struct {
	Type string   `json:"type"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// ErrorMessage is sent back on a websocket session when a client message is rejected
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectedMessage is the first message of every realtime session
type ConnectedMessage struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Role         string `json:"role"`
}
