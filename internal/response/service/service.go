// Package service handles final form submissions: visibility-aware
// validation, atomic persistence and the optional certificate issuance that
// follows a submission.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	certmodels "avalia/internal/certificate/models"
	formmodels "avalia/internal/form/models"
	formstore "avalia/internal/form/store"
	"avalia/internal/form/visibility"
	"avalia/internal/response/models"
	"avalia/internal/response/store"
	"avalia/internal/sentinel"
	userstore "avalia/internal/user/store"
	dErrors "avalia/pkg/domain-errors"
)

// CertificateIssuer issues the certificate that follows a submission of a
// certifiable form.
type CertificateIssuer interface {
	Issue(ctx context.Context, userID, formID uuid.UUID) (*certmodels.Certificate, error)
}

// SubmitResult reports what a submission stored and, when the form issues
// certificates, the certificate that came out of it. Certificate is nil when
// the form does not issue one or when issuance failed after the submission
// was stored.
type SubmitResult struct {
	AnswersStored int
	Certificate   *certmodels.Certificate
}

// Service validates and persists submissions.
type Service struct {
	responses store.Store
	forms     formstore.Store
	users     userstore.Store
	issuer    CertificateIssuer
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCertificateIssuer wires the issuance that follows submitting a
// certifiable form.
func WithCertificateIssuer(issuer CertificateIssuer) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithClock injects the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a response service.
func New(responses store.Store, forms formstore.Store, users userstore.Store, opts ...Option) *Service {
	s := &Service{
		responses: responses,
		forms:     forms,
		users:     users,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates a full submission against the form's visibility rules and
// stores it atomically. Answers addressed to questions that are hidden under
// the submitted answers are dropped, not stored. Each user submits a form
// once.
func (s *Service) Submit(ctx context.Context, userID, formID uuid.UUID, answers formmodels.ResponseMap) (*SubmitResult, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load user")
	}

	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load form")
	}

	submitted, err := s.responses.HasSubmitted(ctx, userID, formID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check previous submission")
	}
	if submitted {
		return nil, dErrors.New(dErrors.CodeConflict, "form already submitted by this user")
	}

	resolution := visibility.Resolve(form.Questions, answers)
	if err := validateRequired(form.Questions, resolution, answers); err != nil {
		return nil, err
	}

	records := s.buildRecords(userID, formID, resolution, answers)
	if err := s.responses.CreateAll(ctx, records); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "form already submitted by this user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store submission")
	}

	result := &SubmitResult{AnswersStored: len(records)}

	if form.GeneratesCertificate && s.issuer != nil {
		cert, err := s.issuer.Issue(ctx, userID, formID)
		if err != nil {
			// The submission stood; the certificate can be issued later.
			s.logger.Error("certificate issuance after submission failed",
				"user_id", userID,
				"form_id", formID,
				"error", err,
			)
		} else {
			result.Certificate = cert
		}
	}

	s.logger.Info("submission stored",
		"user_id", userID,
		"form_id", formID,
		"answers", len(records),
	)
	return result, nil
}

// ListByUserAndForm returns a user's stored answers for a form.
func (s *Service) ListByUserAndForm(ctx context.Context, userID, formID uuid.UUID) ([]*models.Response, error) {
	records, err := s.responses.ListByUserAndForm(ctx, userID, formID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list responses")
	}
	return records, nil
}

// validateRequired reports the required questions that are visible under the
// submitted answers yet unanswered.
func validateRequired(questions []formmodels.Question, resolution *visibility.Resolution, answers formmodels.ResponseMap) error {
	var missing []string
	for i := range questions {
		q := &questions[i]
		if !q.Required || !resolution.IsAnswerable(q.ID) {
			continue
		}
		if _, ok := answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("required questions unanswered: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// buildRecords keeps only answers to currently answerable questions, in the
// form's stable question id order.
func (s *Service) buildRecords(userID, formID uuid.UUID, resolution *visibility.Resolution, answers formmodels.ResponseMap) []*models.Response {
	submittedAt := s.now().UTC()
	var records []*models.Response
	for _, questionID := range answers.SortedQuestionIDs() {
		if !resolution.IsAnswerable(questionID) {
			continue
		}
		records = append(records, &models.Response{
			ID:          uuid.New(),
			UserID:      userID,
			FormID:      formID,
			QuestionID:  questionID,
			Value:       answers[questionID],
			SubmittedAt: submittedAt,
		})
	}
	return records
}
