package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

type feedbackRequest struct {
	OutputID string        `json:"outputId"`
	Rating   models.Rating `json:"rating"`
	Comment  *string       `json:"comment"`
}

// submitFeedback creates or replaces the caller's rating of an output they own.
func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := UserFrom(ctx)

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err, "FEEDBACK_ERROR", "Failed to save feedback")
		return
	}
	fb := models.NewFeedback(req.OutputID, user.ID, req.Rating, req.Comment)
	if err := fb.Validate(); err != nil {
		writeError(w, s.logger, err, "FEEDBACK_ERROR", "Failed to save feedback")
		return
	}

	if _, err := s.outputs.GetOwned(ctx, req.OutputID, user.ID); err != nil {
		writeError(w, s.logger, notFound(err, "Output not found"), "FEEDBACK_ERROR", "Failed to save feedback")
		return
	}

	saved, err := s.feedback.Upsert(ctx, fb)
	if err != nil {
		writeError(w, s.logger, err, "FEEDBACK_ERROR", "Failed to save feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": saved})
}

func (s *Server) deleteFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OutputID string `json:"outputId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err, "FEEDBACK_ERROR", "Failed to delete feedback")
		return
	}
	if req.OutputID == "" {
		writeError(w, s.logger, fmt.Errorf("%w: outputId is required", shared.ErrInvalidInput), "", "")
		return
	}

	if err := s.feedback.Delete(r.Context(), req.OutputID, UserFrom(r.Context()).ID); err != nil {
		writeError(w, s.logger, err, "FEEDBACK_ERROR", "Failed to delete feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// getFeedback returns {"feedback": null} when the caller has not rated the output.
func (s *Server) getFeedback(w http.ResponseWriter, r *http.Request) {
	outputID := r.URL.Query().Get("outputId")
	if outputID == "" {
		writeError(w, s.logger, fmt.Errorf("%w: outputId is required", shared.ErrInvalidInput), "", "")
		return
	}

	fb, err := s.feedback.Get(r.Context(), outputID, UserFrom(r.Context()).ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeJSON(w, http.StatusOK, map[string]any{"feedback": nil})
	case err != nil:
		writeError(w, s.logger, err, "FEEDBACK_ERROR", "Failed to fetch feedback")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"feedback": fb})
	}
}

func (s *Server) feedbackStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.feedback.Stats(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, s.logger, err, "STATS_ERROR", "Failed to fetch feedback stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
