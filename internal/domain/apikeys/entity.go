package apikeys

import "time"

// Record is one issued API key. Created at registration, immutable
// thereafter, looked up by exact key match.
type Record struct {
	APIKey    string    `json:"api_key"`
	Institute string    `json:"institute"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
