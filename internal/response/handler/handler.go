// Package handler exposes form submission over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	certmodels "avalia/internal/certificate/models"
	formmodels "avalia/internal/form/models"
	"avalia/internal/response/service"
	"avalia/internal/transport/http/json"
	"avalia/internal/transport/http/shared"
	dErrors "avalia/pkg/domain-errors"
)

// Handler is the thin HTTP layer over the submission service.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the submission route. The router must wrap it with the
// auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/responses", h.handleSubmit)
	r.Get("/responses/{formID}", h.handleList)
}

type submitRequest struct {
	FormID  uuid.UUID              `json:"form_id"`
	Answers formmodels.ResponseMap `json:"answers"`
}

type submitResponse struct {
	AnswersStored int                 `json:"answers_stored"`
	Certificate   *certificateSummary `json:"certificate,omitempty"`
}

type certificateSummary struct {
	ID             uuid.UUID `json:"id"`
	ValidationCode string    `json:"validation_code"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	req, ok := shared.DecodeJSON[submitRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.FormID == uuid.Nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "form_id is required"))
		return
	}
	if len(req.Answers) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "answers must not be empty"))
		return
	}

	result, err := h.service.Submit(r.Context(), userID, req.FormID, req.Answers)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	json.WriteJSON(w, http.StatusCreated, submitResponse{
		AnswersStored: result.AnswersStored,
		Certificate:   toCertificateSummary(result.Certificate),
	})
}

type storedAnswer struct {
	QuestionID  string            `json:"question_id"`
	Value       formmodels.Answer `json:"value"`
	SubmittedAt string            `json:"submitted_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	formID, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form id"))
		return
	}

	records, err := h.service.ListByUserAndForm(r.Context(), userID, formID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	answers := make([]storedAnswer, 0, len(records))
	for _, rec := range records {
		answers = append(answers, storedAnswer{
			QuestionID:  rec.QuestionID,
			Value:       rec.Value,
			SubmittedAt: rec.SubmittedAt.Format(time.RFC3339),
		})
	}
	json.WriteJSON(w, http.StatusOK, map[string]any{"answers": answers})
}

func toCertificateSummary(cert *certmodels.Certificate) *certificateSummary {
	if cert == nil {
		return nil
	}
	return &certificateSummary{
		ID:             cert.ID,
		ValidationCode: cert.ValidationCode,
	}
}
