package server

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
)

// CallbackPath is where Google redirects after consent.
const CallbackPath = "/api/youtube/callback"

// CallbackResult is the outcome of one OAuth callback.
type CallbackResult struct {
	Connection *models.YouTubeConnection
	err        error
}

func (c CallbackResult) Error() error {
	return c.err
}

// YouTubeCallbackHandler completes the YouTube OAuth flow.
// Implements the Handler interface for registration with a Router.
//
// With a base URL the browser is redirected to the settings page with a youtube=connected or
// youtube=error&reason=... query. Without one (the CLI flow) a small HTML page is rendered.
type YouTubeCallbackHandler struct {
	publisher *tasks.YouTubePublisher
	baseURL   string
	logger    *log.Logger
	results   chan CallbackResult
}

// NewYouTubeCallbackHandler creates a handler that stores connections through publisher.
func NewYouTubeCallbackHandler(publisher *tasks.YouTubePublisher, baseURL string, logger *log.Logger) *YouTubeCallbackHandler {
	return &YouTubeCallbackHandler{
		publisher: publisher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		results:   make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *YouTubeCallbackHandler) Routes() []string {
	return []string{http.MethodGet + " " + CallbackPath}
}

// ServeHTTP validates the callback parameters, exchanges the code and stores the connection.
func (h *YouTubeCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		reason := "auth_failed"
		if slices.Contains(providerReasons, errParam) {
			reason = errParam
		}
		h.fail(w, r, reason, fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam))
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		h.fail(w, r, "missing_params", fmt.Errorf("%w: missing code or state", shared.ErrAuthFailed))
		return
	}

	conn, err := h.publisher.HandleCallback(r.Context(), code, state)
	if err != nil {
		h.fail(w, r, callbackReason(err), err)
		return
	}

	h.Send(CallbackResult{Connection: conn})
	if h.baseURL == "" {
		h.page(w, http.StatusOK, "YouTube Connected", "Connected "+conn.ChannelTitle+". You can close this window and return to the terminal.")
		return
	}
	http.Redirect(w, r, h.baseURL+"/dashboard/settings?youtube=connected", http.StatusTemporaryRedirect)
}

// providerReasons are the OAuth error codes passed through to the settings page as-is.
var providerReasons = []string{"access_denied", "invalid_scope", "server_error", "temporarily_unavailable"}

// callbackReason maps a callback failure to a short code. The full error is only logged.
func callbackReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, shared.ErrYouTubeNotConfigured):
		return "not_configured"
	case errors.Is(err, shared.ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, shared.ErrAPIRequest):
		return "channel_lookup_failed"
	}
	return "unknown_error"
}

func (h *YouTubeCallbackHandler) fail(w http.ResponseWriter, r *http.Request, reason string, err error) {
	h.logger.Warn("YouTube callback failed", "reason", reason, "err", err)
	h.Send(CallbackResult{err: err})

	if h.baseURL == "" {
		h.page(w, http.StatusBadRequest, "Authorization Failed", reason)
		return
	}
	target := h.baseURL + "/dashboard/settings?youtube=error&reason=" + url.QueryEscape(reason)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (h *YouTubeCallbackHandler) page(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #FF0000; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, title, html.EscapeString(message))
}

// Send delivers result to a waiting reader. A result nobody is waiting for is dropped.
func (h *YouTubeCallbackHandler) Send(result CallbackResult) {
	select {
	case h.results <- result:
	default:
	}
}

// Result returns the channel the CLI waits on for the first completed callback.
func (h *YouTubeCallbackHandler) Result() <-chan CallbackResult {
	return h.results
}
