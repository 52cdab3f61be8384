package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/desertthunder/contentforge/internal/shared"
)

// FakeGoogle emulates the Google OAuth token and revoke endpoints, the YouTube channel lookup and
// the resumable upload endpoints.
type FakeGoogle struct {
	Server *httptest.Server

	mu sync.Mutex

	AccessToken    string
	RefreshToken   string
	RefreshedToken string
	ExpiresIn      int
	ChannelID      string
	ChannelTitle   string
	VideoID        string
	QuotaExceeded  bool
	RevokeStatus   int

	ExchangeCalls int
	RefreshCalls  int
	RevokeCalls   int
	ChannelCalls  int
	InitCalls     int
	PutCalls      int

	InitQuery    url.Values
	InitHeader   http.Header
	InitMetadata map[string]any
	Uploaded     []byte
	Revoked      []string
}

// NewFakeGoogle starts a fake closed when the test ends.
func NewFakeGoogle(t *testing.T) *FakeGoogle {
	t.Helper()

	f := &FakeGoogle{
		AccessToken:    "access-token",
		RefreshToken:   "refresh-token",
		RefreshedToken: "refreshed-access-token",
		ExpiresIn:      3600,
		ChannelID:      "UC-test-channel",
		ChannelTitle:   "Test Channel",
		VideoID:        "vid123",
		RevokeStatus:   http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", f.token)
	mux.HandleFunc("POST /revoke", f.revoke)
	mux.HandleFunc("GET /youtube/v3/channels", f.channels)
	mux.HandleFunc("GET /channels", f.channels)
	mux.HandleFunc("POST /upload/youtube/v3/videos", f.initUpload)
	mux.HandleFunc("PUT /upload/session", f.putVideo)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns YouTube settings pointing at the fake.
func (f *FakeGoogle) Config() shared.YouTubeConfig {
	return shared.YouTubeConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      f.Server.URL + "/auth",
		TokenURL:     f.Server.URL + "/token",
		RevokeURL:    f.Server.URL + "/revoke",
		APIBaseURL:   f.Server.URL + "/",
		UploadURL:    f.Server.URL + "/upload/youtube/v3/videos",
	}
}

// Counts returns exchange, refresh and revoke call counts.
func (f *FakeGoogle) Counts() (exchange, refresh, revoke int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ExchangeCalls, f.RefreshCalls, f.RevokeCalls
}

func (f *FakeGoogle) token(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.ExchangeCalls++
		if r.PostForm.Get("code") == "bad-code" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  f.AccessToken,
			"refresh_token": f.RefreshToken,
			"expires_in":    f.ExpiresIn,
			"token_type":    "Bearer",
			"scope":         "https://www.googleapis.com/auth/youtube.upload https://www.googleapis.com/auth/youtube.readonly",
		})
	case "refresh_token":
		f.RefreshCalls++
		if r.PostForm.Get("refresh_token") == "revoked-refresh-token" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": f.RefreshedToken,
			"expires_in":   f.ExpiresIn,
			"token_type":   "Bearer",
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *FakeGoogle) revoke(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.RevokeCalls++
	r.ParseForm()
	f.Revoked = append(f.Revoked, r.PostForm.Get("token"))
	w.WriteHeader(f.RevokeStatus)
}

func (f *FakeGoogle) channels(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ChannelCalls++
	if r.Header.Get("Authorization") == "" {
		writeJSON(w, http.StatusUnauthorized, googleError(http.StatusUnauthorized, "authError", "Login Required"))
		return
	}

	items := []map[string]any{}
	if f.ChannelID != "" {
		items = append(items, map[string]any{
			"id":      f.ChannelID,
			"snippet": map[string]any{"title": f.ChannelTitle},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": "youtube#channelListResponse", "items": items})
}

func (f *FakeGoogle) initUpload(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.InitCalls++
	f.InitQuery = r.URL.Query()
	f.InitHeader = r.Header.Clone()
	f.InitMetadata = nil
	json.NewDecoder(r.Body).Decode(&f.InitMetadata)

	if f.QuotaExceeded {
		writeJSON(w, http.StatusForbidden, googleError(http.StatusForbidden, "quotaExceeded",
			"The request cannot be completed because you have exceeded your quota."))
		return
	}

	w.Header().Set("Location", f.Server.URL+"/upload/session?upload_id=abc")
	w.WriteHeader(http.StatusOK)
}

func (f *FakeGoogle) putVideo(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.PutCalls++
	f.Uploaded = body
	writeJSON(w, http.StatusOK, map[string]any{"kind": "youtube#video", "id": f.VideoID})
}

func googleError(code int, reason, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"errors": []map[string]string{
				{"reason": reason, "domain": "youtube.quota", "message": message},
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}
