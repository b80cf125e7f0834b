package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"avalia/internal/certificate/code"
	"avalia/internal/certificate/models"
	"avalia/internal/platform/tracer"
	"avalia/internal/sentinel"
	dErrors "avalia/pkg/domain-errors"
)

// Issue issues a certificate for the given user and form, or returns the
// existing one: issuance is idempotent per (user, form) pair. The issued
// record becomes downloadable only after the rendered document has been
// written, which Issue does before returning.
func (s *Service) Issue(ctx context.Context, userID, formID uuid.UUID) (*models.Certificate, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanIssue,
		tracer.String("user_id", userID.String()),
		tracer.String("form_id", formID.String()),
	)
	cert, err := s.issue(ctx, userID, formID)
	span.End(err)
	if err != nil {
		return nil, err
	}
	s.observeIssueDuration(start)
	return cert, nil
}

func (s *Service) issue(ctx context.Context, userID, formID uuid.UUID) (*models.Certificate, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordIssueFailure("user_not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load user")
	}

	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordIssueFailure("form_not_found")
			return nil, dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load form")
	}
	if !form.GeneratesCertificate {
		s.recordIssueFailure("not_certifiable")
		return nil, dErrors.New(dErrors.CodeInvalidOperation, "form does not issue certificates")
	}

	// Fast path before taking the singleflight slot.
	if existing, err := s.certs.FindByUserAndForm(ctx, userID, formID); err == nil {
		return existing, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load certificate")
	}

	key := userID.String() + "|" + formID.String()
	result, err, _ := s.issuing.Do(key, func() (any, error) {
		return s.issueNew(ctx, user.Name, user.Email, form.Title, form.Description, form.EstimatedTime, userID, formID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Certificate), nil
}

func (s *Service) issueNew(
	ctx context.Context,
	userName, userEmail, formTitle, formDescription, workload string,
	userID, formID uuid.UUID,
) (*models.Certificate, error) {
	validationCode, err := s.codeGen.Generate(formID.String(), userID.String())
	if err != nil {
		s.recordIssueFailure("generate_code")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate validation code")
	}

	issuedAt := s.now().UTC()
	cert := &models.Certificate{
		ID:             uuid.New(),
		UserID:         userID,
		FormID:         formID,
		ValidationCode: validationCode,
		Hash:           code.Hash(userID.String(), formID.String(), validationCode, issuedAt),
		IssuedAt:       issuedAt,
		Metadata: models.Metadata{
			CompletionDate:  issuedAt,
			FormTitle:       formTitle,
			FormDescription: formDescription,
			UserName:        userName,
			UserEmail:       userEmail,
			Workload:        workload,
		},
	}

	if err := s.certs.Create(ctx, cert); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Another writer issued for this pair first; serve its record.
			existing, findErr := s.certs.FindByUserAndForm(ctx, userID, formID)
			if findErr != nil {
				return nil, dErrors.Wrap(findErr, dErrors.CodeInternal, "load certificate after conflict")
			}
			return existing, nil
		}
		s.recordIssueFailure("persist")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist certificate")
	}

	if err := s.renderAndStore(ctx, cert); err != nil {
		// The record exists but is not ready; a later download retries the
		// render instead of serving a missing document.
		s.logger.Error("certificate document pipeline failed",
			"certificate_id", cert.ID,
			"error", err,
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CertificatesIssued.Inc()
	}
	s.logger.Info("certificate issued",
		"certificate_id", cert.ID,
		"user_id", userID,
		"form_id", formID,
		"validation_code", cert.ValidationCode,
	)
	return cert, nil
}

// renderAndStore renders the document, writes it to the file store and marks
// the record ready.
func (s *Service) renderAndStore(ctx context.Context, cert *models.Certificate) error {
	renderStart := s.now()
	_, renderSpan := s.tracer.Start(ctx, tracer.SpanIssueRender)
	data, err := s.renderer.Render(cert)
	renderSpan.End(err)
	if err != nil {
		s.recordIssueFailure("render")
		return dErrors.Wrap(err, dErrors.CodeInternal, "render certificate document")
	}
	s.observeRenderDuration(renderStart)

	_, writeSpan := s.tracer.Start(ctx, tracer.SpanIssueWrite,
		tracer.Int64("bytes", int64(len(data))),
	)
	err = s.files.Write(ctx, cert.ID.String(), data)
	writeSpan.End(err)
	if err != nil {
		s.recordIssueFailure("write_document")
		return dErrors.Wrap(err, dErrors.CodeInternal, "store certificate document")
	}

	if err := s.certs.MarkReady(ctx, cert.ID); err != nil {
		s.recordIssueFailure("mark_ready")
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark certificate ready")
	}
	cert.Ready = true
	return nil
}

// ListByUser returns the user's certificates, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Certificate, error) {
	certs, err := s.certs.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list certificates")
	}
	return certs, nil
}

// Download returns the rendered document for a certificate the user owns.
// A record whose document never landed in the file store reports a distinct
// not-found so operators can tell a broken pipeline from a bad id.
func (s *Service) Download(ctx context.Context, userID, certificateID uuid.UUID) (*models.Certificate, []byte, error) {
	cert, err := s.certs.FindByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "load certificate")
	}
	if cert.UserID != userID {
		return nil, nil, dErrors.New(dErrors.CodeForbidden, "certificate belongs to another user")
	}

	if !cert.Ready {
		// Issuance persisted the record but the document pipeline failed.
		// Retry it here before giving up.
		if err := s.renderAndStore(ctx, cert); err != nil {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "certificate file not found on server")
		}
	}

	data, err := s.files.Read(ctx, cert.ID.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "certificate file not found on server")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "read certificate document")
	}
	if s.metrics != nil {
		s.metrics.Downloads.Inc()
	}
	return cert, data, nil
}
