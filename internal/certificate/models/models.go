package models

import (
	"time"

	"github.com/google/uuid"
)

// Metadata is the immutable snapshot of user and form display fields taken at
// issuance time. Later edits to the live user or form records never alter an
// already-issued certificate.
type Metadata struct {
	CompletionDate  time.Time `json:"completionDate"`
	FormTitle       string    `json:"formTitle"`
	FormDescription string    `json:"formDescription,omitempty"`
	UserName        string    `json:"userName"`
	UserEmail       string    `json:"userEmail"`
	Workload        string    `json:"workload,omitempty"`
}

// Certificate is the durable record of a one-time issuance for a (user, form)
// pair. ValidationCode is the public identifier printed on the document; Hash
// is write-once display data derived from the issuance facts.
type Certificate struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	FormID         uuid.UUID
	ValidationCode string
	Hash           string
	Metadata       Metadata
	IssuedAt       time.Time

	// Ready flips to true only after the rendered document has been written
	// to the file store. Download paths must not serve certificates that are
	// not ready.
	Ready bool
}

// ValidationLog records a single public validation attempt. Append-only and
// best-effort: a failed write never affects the validation response.
// CertificateID is uuid.Nil for well-formed codes that match no certificate;
// Code keeps what was looked up either way.
type ValidationLog struct {
	ID            uuid.UUID
	CertificateID uuid.UUID
	Code          string
	IPAddress     string
	UserAgent     string
	Device        string
	CreatedAt     time.Time
}

// PublicCertificate is the fixed public projection returned by validation
// lookups. It deliberately omits the hash and every internal identifier.
type PublicCertificate struct {
	ValidationCode string   `json:"validation_code"`
	IssuedAt       string   `json:"issued_at"`
	Metadata       Metadata `json:"metadata"`
}

// ValidationResult is the outcome of a public validation query. Invalid input
// is a normal outcome here, not an error.
type ValidationResult struct {
	IsValid     bool               `json:"is_valid"`
	Certificate *PublicCertificate `json:"certificate,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Projection builds the public view of a certificate.
func (c *Certificate) Projection() *PublicCertificate {
	return &PublicCertificate{
		ValidationCode: c.ValidationCode,
		IssuedAt:       c.IssuedAt.UTC().Format(time.RFC3339),
		Metadata:       c.Metadata,
	}
}
