package models

import (
	"time"

	"github.com/google/uuid"

	form "avalia/internal/form/models"
)

// Response is one persisted answer of a submitted form. Responses are only
// written on final submission; in-progress answers live client-side in a
// ResponseMap.
type Response struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	FormID      uuid.UUID
	QuestionID  string
	Value       form.Answer
	SubmittedAt time.Time
}
