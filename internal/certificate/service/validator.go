package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"avalia/internal/certificate/code"
	"avalia/internal/certificate/models"
	"avalia/internal/platform/tracer"
	"avalia/internal/sentinel"
	dErrors "avalia/pkg/domain-errors"
)

// ClientInfo carries the request facts recorded on a validation attempt.
// Empty fields are stored as "unknown".
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// Validate resolves a public validation code. An unknown or malformed code
// is a normal outcome, reported in the result; only infrastructure failures
// surface as errors. Codes that fail the format check are rejected without a
// store lookup or log entry. Every lookup that reaches the store appends a
// best-effort validation log entry that never affects the response.
func (s *Service) Validate(ctx context.Context, rawCode string, client ClientInfo) (*models.ValidationResult, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanValidate)
	result, err := s.validate(ctx, rawCode, client, start)
	span.End(err)
	return result, err
}

func (s *Service) validate(ctx context.Context, rawCode string, client ClientInfo, start time.Time) (*models.ValidationResult, error) {
	if !code.IsValidFormat(rawCode) {
		s.recordValidation("invalid_format", start)
		return &models.ValidationResult{
			IsValid: false,
			Error:   "invalid validation code format",
		}, nil
	}

	normalized := code.Normalize(rawCode)
	cert, err := s.certs.FindByValidationCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.appendValidationLog(ctx, uuid.Nil, normalized, client)
			s.recordValidation("not_found", start)
			return &models.ValidationResult{
				IsValid: false,
				Error:   "certificate not found",
			}, nil
		}
		s.recordValidation("error", start)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up validation code")
	}

	s.appendValidationLog(ctx, cert.ID, normalized, client)
	s.recordValidation("valid", start)
	return &models.ValidationResult{
		IsValid:     true,
		Certificate: cert.Projection(),
	}, nil
}

// appendValidationLog records the attempt. Failures are logged and counted
// but never propagate: the validation answer must not depend on the log.
// certificateID is uuid.Nil when the code matched nothing.
func (s *Service) appendValidationLog(ctx context.Context, certificateID uuid.UUID, normalized string, client ClientInfo) {
	entry := &models.ValidationLog{
		ID:            uuid.New(),
		CertificateID: certificateID,
		Code:          normalized,
		IPAddress:     orUnknown(client.IPAddress),
		UserAgent:     orUnknown(client.UserAgent),
		Device:        deviceSummary(client.UserAgent),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.recordValidationLogError()
		s.logger.Warn("validation log append failed",
			"certificate_id", certificateID,
			"error", err,
		)
	}
}

// ValidationHistory lists the recorded validation attempts for a
// certificate, newest first.
func (s *Service) ValidationHistory(ctx context.Context, certificateID uuid.UUID) ([]*models.ValidationLog, error) {
	entries, err := s.logs.ListByCertificate(ctx, certificateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list validation logs")
	}
	return entries, nil
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}

// deviceSummary condenses a User-Agent header into a short display string.
func deviceSummary(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	if ua.Bot() {
		return "bot"
	}
	browser, version := ua.Browser()
	if browser == "" {
		return "unknown"
	}
	summary := browser
	if version != "" {
		if i := strings.Index(version, "."); i > 0 {
			version = version[:i]
		}
		summary = fmt.Sprintf("%s %s", browser, version)
	}
	if os := ua.OS(); os != "" {
		summary = fmt.Sprintf("%s on %s", summary, os)
	}
	if ua.Mobile() {
		summary += " (mobile)"
	}
	return summary
}
