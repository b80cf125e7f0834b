package models

import "github.com/google/uuid"

// User carries the display fields the certificate pipeline snapshots at
// issuance time. Account management lives outside this service.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
