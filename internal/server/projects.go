package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/contentforge/internal/formatter"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
)

type createProjectRequest struct {
	Title        string   `json:"title"`
	InputType    string   `json:"inputType"`
	InputText    string   `json:"inputText"`
	FileURL      string   `json:"fileUrl"`
	InputFileURL string   `json:"inputFileUrl"`
	Platforms    []string `json:"platforms"`
}

func (req createProjectRequest) input(userID string) (tasks.CreateProjectInput, error) {
	inputType, err := models.ParseInputType(req.InputType)
	if err != nil {
		return tasks.CreateProjectInput{}, err
	}
	platforms, err := models.ParsePlatforms(req.Platforms)
	if err != nil {
		return tasks.CreateProjectInput{}, err
	}

	fileURL := req.FileURL
	if fileURL == "" {
		fileURL = req.InputFileURL
	}
	return tasks.CreateProjectInput{
		UserID:    userID,
		Title:     req.Title,
		InputType: inputType,
		InputText: req.InputText,
		FileURL:   fileURL,
		Platforms: platforms,
	}, nil
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.ListByUser(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, s.logger, err, "FETCH_ERROR", "Failed to fetch projects")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// createProject runs the whole pipeline before responding. The client disconnecting does not
// abandon a project mid-run.
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())

	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err, "CREATE_ERROR", "Failed to create project")
		return
	}
	in, err := req.input(user.ID)
	if err != nil {
		writeError(w, s.logger, err, "CREATE_ERROR", "Failed to create project")
		return
	}

	project, err := s.pipeline.CreateAndProcess(context.WithoutCancel(r.Context()), in, nil)
	if err != nil {
		var procErr *tasks.ProcessingError
		if errors.As(err, &procErr) {
			s.logger.Error("Processing failed", "project", procErr.ProjectID, "err", procErr.Err)
			writeJSON(w, http.StatusInternalServerError, ErrorBody{
				Error:     "Processing failed",
				Code:      "PROCESSING_ERROR",
				Status:    http.StatusInternalServerError,
				ProjectID: procErr.ProjectID,
			})
			return
		}
		writeError(w, s.logger, err, "CREATE_ERROR", "Failed to create project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projects.GetOwned(r.Context(), r.PathValue("id"), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, s.logger, notFound(err, "Project not found"), "FETCH_ERROR", "Failed to fetch project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.SoftDelete(r.Context(), r.PathValue("id"), UserFrom(r.Context()).ID); err != nil {
		writeError(w, s.logger, notFound(err, "Project not found"), "DELETE_ERROR", "Failed to delete project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) exportProject(w http.ResponseWriter, r *http.Request) {
	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, s.logger, err, "EXPORT_ERROR", "Failed to export project")
		return
	}
	project, err := s.projects.GetOwned(r.Context(), r.PathValue("id"), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, s.logger, notFound(err, "Project not found"), "EXPORT_ERROR", "Failed to export project")
		return
	}
	body, err := formatter.Export(project, format)
	if err != nil {
		writeError(w, s.logger, err, "EXPORT_ERROR", "Failed to export project")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(project)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

type regenerateRequest struct {
	ProjectID string `json:"projectId"`
	Platform  string `json:"platform"`
}

func (s *Server) regenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err, "REGENERATE_ERROR", "Failed to regenerate content")
		return
	}
	if req.ProjectID == "" {
		writeError(w, s.logger, fmt.Errorf("%w: projectId is required", shared.ErrInvalidInput), "", "")
		return
	}
	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		writeError(w, s.logger, err, "REGENERATE_ERROR", "Failed to regenerate content")
		return
	}

	output, err := s.pipeline.Regenerate(r.Context(), UserFrom(r.Context()).ID, req.ProjectID, platform)
	if err != nil {
		writeError(w, s.logger, notFound(err, "Project not found"), "REGENERATE_ERROR", "Failed to regenerate content")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"output": output})
}

// editOutput distinguishes a missing editedContent key (rejected) from an explicit null (clears
// the override).
func (s *Server) editOutput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EditedContent json.RawMessage `json:"editedContent"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err, "UPDATE_ERROR", "Failed to update output")
		return
	}
	if req.EditedContent == nil {
		writeError(w, s.logger, fmt.Errorf("%w: editedContent is required", shared.ErrInvalidInput), "", "")
		return
	}

	var content *string
	if err := json.Unmarshal(req.EditedContent, &content); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: editedContent must be a string", shared.ErrInvalidInput), "", "")
		return
	}

	ctx := r.Context()
	output, err := s.outputs.GetOwned(ctx, r.PathValue("id"), UserFrom(ctx).ID)
	if err != nil {
		writeError(w, s.logger, notFound(err, "Output not found"), "UPDATE_ERROR", "Failed to update output")
		return
	}
	if err := s.outputs.SetEditedContent(ctx, output.ID, content); err != nil {
		writeError(w, s.logger, err, "UPDATE_ERROR", "Failed to update output")
		return
	}
	if output, err = s.outputs.Get(ctx, output.ID); err != nil {
		writeError(w, s.logger, err, "UPDATE_ERROR", "Failed to update output")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"output": output})
}
