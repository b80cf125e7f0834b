// Package handler exposes form retrieval and visibility resolution over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	formmodels "avalia/internal/form/models"
	"avalia/internal/form/service"
	"avalia/internal/form/visibility"
	"avalia/internal/transport/http/json"
	"avalia/internal/transport/http/shared"
	dErrors "avalia/pkg/domain-errors"
)

// Handler is the thin HTTP layer over the form service.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the form routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/forms/{formID}", h.handleGet)
	r.Post("/forms/{formID}/visible", h.handleVisible)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form id"))
		return
	}

	form, err := h.service.Get(r.Context(), formID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, form)
}

type visibleRequest struct {
	Answers formmodels.ResponseMap `json:"answers"`
}

type visibleQuestion struct {
	Question     formmodels.Question `json:"question"`
	DisplayIndex int                 `json:"display_index,omitempty"`
}

type visibleResponse struct {
	Questions       []visibleQuestion `json:"questions"`
	AnswerableCount int               `json:"answerable_count"`
}

// handleVisible resolves which questions the respondent should currently see
// for a set of in-progress answers.
func (h *Handler) handleVisible(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form id"))
		return
	}

	req, ok := shared.DecodeJSON[visibleRequest](w, r, h.logger)
	if !ok {
		return
	}

	resolution, err := h.service.ResolveVisibility(r.Context(), formID, req.Answers)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	json.WriteJSON(w, http.StatusOK, toVisibleResponse(resolution))
}

func toVisibleResponse(resolution *visibility.Resolution) visibleResponse {
	out := visibleResponse{
		Questions:       make([]visibleQuestion, 0, len(resolution.Visible)),
		AnswerableCount: resolution.AnswerableCount(),
	}
	for _, vq := range resolution.Visible {
		out.Questions = append(out.Questions, visibleQuestion{
			Question:     vq.Question,
			DisplayIndex: vq.DisplayIndex,
		})
	}
	return out
}
