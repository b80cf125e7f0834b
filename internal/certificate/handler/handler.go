// Package handler exposes certificate issuance, listing, download and the
// public validation endpoint over HTTP.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"avalia/internal/certificate/models"
	"avalia/internal/certificate/service"
	"avalia/internal/platform/requestcontext"
	"avalia/internal/transport/http/json"
	"avalia/internal/transport/http/shared"
	dErrors "avalia/pkg/domain-errors"
)

// Handler is the thin HTTP layer over the certificate service.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAuthenticated mounts the routes that require a bearer token.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/certificates/issue", h.handleIssue)
	r.Get("/certificates", h.handleList)
	r.Get("/certificates/{certificateID}/download", h.handleDownload)
}

// RegisterPublic mounts the public validation route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/certificates/validate/{code}", h.handleValidate)
}

type issueRequest struct {
	FormID uuid.UUID `json:"form_id"`
}

type certificateResponse struct {
	ID             uuid.UUID       `json:"id"`
	FormID         uuid.UUID       `json:"form_id"`
	ValidationCode string          `json:"validation_code"`
	IssuedAt       string          `json:"issued_at"`
	Metadata       models.Metadata `json:"metadata"`
	Ready          bool            `json:"ready"`
}

func toCertificateResponse(cert *models.Certificate) certificateResponse {
	return certificateResponse{
		ID:             cert.ID,
		FormID:         cert.FormID,
		ValidationCode: cert.ValidationCode,
		IssuedAt:       cert.IssuedAt.UTC().Format(time.RFC3339),
		Metadata:       cert.Metadata,
		Ready:          cert.Ready,
	}
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	req, ok := shared.DecodeJSON[issueRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.FormID == uuid.Nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "form_id is required"))
		return
	}

	cert, err := h.service.Issue(r.Context(), userID, req.FormID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusCreated, toCertificateResponse(cert))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	certs, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]certificateResponse, 0, len(certs))
	for _, cert := range certs {
		out = append(out, toCertificateResponse(cert))
	}
	json.WriteJSON(w, http.StatusOK, map[string]any{"certificates": out})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	certificateID, err := uuid.Parse(chi.URLParam(r, "certificateID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid certificate id"))
		return
	}

	cert, data, err := h.service.Download(r.Context(), userID, certificateID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="certificado-%s.pdf"`, cert.ValidationCode))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleValidate is public. Unknown and malformed codes answer 200 with
// is_valid=false: the lookup succeeded, the certificate just isn't there.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	meta := requestcontext.Metadata(r.Context())
	result, err := h.service.Validate(r.Context(), chi.URLParam(r, "code"), service.ClientInfo{
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, result)
}
