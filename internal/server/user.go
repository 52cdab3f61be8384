package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

// PlanInfo is the plan summary returned with the profile. Limit is null for unlimited plans.
type PlanInfo struct {
	Name       models.Plan `json:"name"`
	Label      string      `json:"label"`
	Limit      *int        `json:"limit"`
	UsageCount int         `json:"usageCount"`
}

func planInfo(u *models.User) PlanInfo {
	info := PlanInfo{Name: u.Plan, Label: u.Plan.Label(), UsageCount: u.UsageCount}
	if limit := u.Plan.Limit(); limit != models.Unlimited {
		info.Limit = &limit
	}
	return info
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "plan": planInfo(user)})
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, s.logger, err, "UPDATE_ERROR", "Failed to update settings")
		return
	}

	user, err := s.users.UpdateSettings(r.Context(), UserFrom(r.Context()).ID, settings)
	if err != nil {
		writeError(w, s.logger, err, "UPDATE_ERROR", "Failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{"name": user.Name, "brandVoice": user.BrandVoice},
	})
}

func (s *Server) updateOnboarding(w http.ResponseWriter, r *http.Request) {
	var progress models.Onboarding
	if err := decodeJSON(r, &progress); err != nil {
		writeError(w, s.logger, err, "UPDATE_ERROR", "Failed to update onboarding")
		return
	}

	user, err := s.users.UpdateOnboarding(r.Context(), UserFrom(r.Context()).ID, progress)
	if err != nil {
		writeError(w, s.logger, err, "UPDATE_ERROR", "Failed to update onboarding")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"onboardingStep":      user.OnboardingStep,
		"onboardingCompleted": user.OnboardingCompleted,
	})
}

// upload stores a multipart "file" field.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if limited, ok := s.storage.(interface{ MaxBytes() int64 }); ok {
		r.Body = http.MaxBytesReader(w, r.Body, limited.MaxBytes()+1<<20)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: no file provided", shared.ErrUpload), "", "")
		return
	}
	defer file.Close()

	stored, err := s.storage.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		writeError(w, s.logger, err, "UPLOAD_ERROR", "Upload failed")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileURL string `json:"fileUrl"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err, "TRANSCRIBE_ERROR", "Transcription failed")
		return
	}
	if strings.TrimSpace(req.FileURL) == "" {
		writeError(w, s.logger, fmt.Errorf("%w: fileUrl is required", shared.ErrInvalidInput), "", "")
		return
	}

	transcript, err := s.ai.Transcribe(r.Context(), req.FileURL)
	if err != nil {
		writeError(w, s.logger, err, "TRANSCRIBE_ERROR", "Transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript})
}

func (s *Server) createDemo(w http.ResponseWriter, r *http.Request) {
	project, err := s.demo.Create(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, s.logger, err, "DEMO_ERROR", "Failed to create demo project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"projectId": project.ID})
}
