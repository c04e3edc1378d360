package session

import "time"

// Entry is the cached metadata of one signed-in device. It is only ever
// replaced as a whole.
type Entry struct {
	UserID        uint      `json:"user_id"`
	DeviceID      string    `json:"device_id"`
	Platform      Platform  `json:"platform"`
	SessionID     string    `json:"session_id,omitempty"`
	TokenIssuedAt time.Time `json:"token_issued_at"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
}
