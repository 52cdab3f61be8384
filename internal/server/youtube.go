package server

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
)

// multipart overhead allowed on top of the video itself
const uploadFormSlack = 1 << 20

func (s *Server) youtubeConnect(w http.ResponseWriter, r *http.Request) {
	target, err := s.youtube.ConnectURL(UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, s.logger, err, "YOUTUBE_CONNECT_ERROR", "Failed to start YouTube authorization")
		return
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (s *Server) youtubeStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.youtube.Status(r.Context(), UserFrom(r.Context()).ID)
	if err != nil {
		writeError(w, s.logger, err, "FETCH_ERROR", "Failed to fetch YouTube status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// youtubeDisconnect always reports success; a failed revoke is only logged.
func (s *Server) youtubeDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.youtube.Disconnect(r.Context(), UserFrom(r.Context()).ID); err != nil {
		s.logger.Error("YouTube disconnect failed", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) youtubeUpload(w http.ResponseWriter, r *http.Request) {
	if !s.youtube.Configured() {
		writeError(w, s.logger, shared.ErrYouTubeNotConfigured, "", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, tasks.MaxVideoBytes+uploadFormSlack)
	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: no video file provided", shared.ErrUpload), "", "")
		return
	}
	defer file.Close()

	video, err := s.youtube.Upload(r.Context(), UserFrom(r.Context()).ID, tasks.UploadRequest{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Tags:          tasks.ParseTags(r.FormValue("tags")),
		PrivacyStatus: r.FormValue("privacyStatus"),
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Body:          file,
	})
	if err != nil {
		writeError(w, s.logger, err, "YOUTUBE_UPLOAD_ERROR", "Upload failed")
		return
	}
	writeJSON(w, http.StatusOK, video)
}
