package models

import "time"

// User is an account holder. Password and refresh-token hashes never
// leave the server.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Name             string     `json:"name,omitempty"`
	Timezone         string     `json:"timezone"`
	Active           bool       `json:"active"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	RefreshTokenHash string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AuditLog records a security-relevant event (registration, login,
// refresh, logout).
type AuditLog struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	Payload   string    `json:"payload,omitempty"` // JSON blob
	CreatedAt time.Time `json:"created_at"`
}
