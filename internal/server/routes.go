package server

import "net/http"

func (s *Server) routes() {
	r := s.router

	r.HandleFunc(http.MethodGet, "/healthz", s.health)

	r.Handle(http.MethodGet, "/api/projects", s.authed(s.listProjects))
	r.Handle(http.MethodPost, "/api/projects", s.authed(s.createProject))
	r.Handle(http.MethodGet, "/api/projects/{id}", s.authed(s.getProject))
	r.Handle(http.MethodDelete, "/api/projects/{id}", s.authed(s.deleteProject))
	r.Handle(http.MethodGet, "/api/projects/{id}/export", s.authed(s.exportProject))

	r.Handle(http.MethodPost, "/api/generate", s.authed(s.regenerate))
	r.Handle(http.MethodPatch, "/api/outputs/{id}", s.authed(s.editOutput))

	r.Handle(http.MethodPost, "/api/feedback", s.authed(s.submitFeedback))
	r.Handle(http.MethodDelete, "/api/feedback", s.authed(s.deleteFeedback))
	r.Handle(http.MethodGet, "/api/feedback", s.authed(s.getFeedback))
	r.Handle(http.MethodGet, "/api/feedback/stats", s.authed(s.feedbackStats))

	r.Handle(http.MethodGet, "/api/user", s.authed(s.getUser))
	r.Handle(http.MethodPatch, "/api/settings", s.authed(s.updateSettings))
	r.Handle(http.MethodPatch, "/api/user/onboarding", s.authed(s.updateOnboarding))

	r.Handle(http.MethodPost, "/api/upload", s.authed(s.upload))
	r.Handle(http.MethodPost, "/api/transcribe", s.authed(s.transcribe))
	r.Handle(http.MethodPost, "/api/demo", s.authed(s.createDemo))

	r.Handle(http.MethodGet, "/api/youtube/connect", s.authed(s.youtubeConnect))
	r.Handler(NewYouTubeCallbackHandler(s.youtube, s.cfg.App.BaseURL, s.logger))
	r.Handle(http.MethodGet, "/api/youtube/status", s.authed(s.youtubeStatus))
	r.Handle(http.MethodPost, "/api/youtube/disconnect", s.authed(s.youtubeDisconnect))
	r.Handle(http.MethodPost, "/api/youtube/upload", s.authed(s.youtubeUpload))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "ai": s.ai.Name()})
}
