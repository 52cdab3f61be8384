package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrInvalidState     = fmt.Errorf("invalid_state")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Resource errors
	ErrNotFound          = fmt.Errorf("not found")
	ErrPlanLimit         = fmt.Errorf("plan usage limit reached")
	ErrInvalidTransition = fmt.Errorf("invalid status transition")

	// Provider errors
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrProvider             = fmt.Errorf("AI provider error")
	ErrGeneration           = fmt.Errorf("generation failed")
	ErrUpload               = fmt.Errorf("upload failed")
	ErrYouTubeNotConfigured = fmt.Errorf("YouTube integration is not configured")
	ErrYouTubeNotConnected  = fmt.Errorf("YouTube account not connected")
	ErrQuotaExceeded        = fmt.Errorf("YouTube API quota exceeded. Please try again tomorrow or request a quota increase in Google Cloud Console.")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// AppError is an error with a stable machine-readable code and an HTTP status.
type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an [AppError].
func NewAppError(code string, status int, message string, err error) *AppError {
	return &AppError{Code: code, Status: status, Message: message, Err: err}
}

type classification struct {
	sentinel error
	code     string
	status   int
	message  string
}

// classifications map sentinels to wire codes. An empty message means the sentinel text is shown.
var classifications = []classification{
	{ErrNotAuthenticated, "AUTH_ERROR", http.StatusUnauthorized, "Not authenticated"},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "Not found"},
	{ErrInvalidInput, "VALIDATION_ERROR", http.StatusBadRequest, ""},
	{ErrMissingArgument, "VALIDATION_ERROR", http.StatusBadRequest, ""},
	{ErrInvalidArgument, "VALIDATION_ERROR", http.StatusBadRequest, ""},
	{ErrPlanLimit, "PLAN_LIMIT_ERROR", http.StatusForbidden, "Plan usage limit reached. Upgrade to create more projects."},
	{ErrUpload, "UPLOAD_ERROR", http.StatusBadRequest, ""},
	{ErrYouTubeNotConfigured, "YOUTUBE_NOT_CONFIGURED", http.StatusServiceUnavailable, ""},
	{ErrYouTubeNotConnected, "YOUTUBE_NOT_CONNECTED", http.StatusBadRequest, ""},
	{ErrQuotaExceeded, "YOUTUBE_QUOTA_EXCEEDED", http.StatusTooManyRequests, ErrQuotaExceeded.Error()},
	{ErrProvider, "AI_ERROR", http.StatusInternalServerError, "AI processing failed"},
	{ErrGeneration, "GENERATION_FAILED", http.StatusInternalServerError, ""},
}

// AsAppError converts err to an [AppError].
//
// Errors that already are (or wrap) an AppError are returned unchanged. Known sentinels get their
// mapped code. Anything else becomes fallbackCode with a 500 status and fallbackMessage, so raw
// internal text never reaches the client.
func AsAppError(err error, fallbackCode, fallbackMessage string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, c := range classifications {
		if errors.Is(err, c.sentinel) {
			msg := c.message
			if msg == "" {
				msg = err.Error()
			}
			return &AppError{Code: c.code, Status: c.status, Message: msg, Err: err}
		}
	}

	return &AppError{Code: fallbackCode, Status: http.StatusInternalServerError, Message: fallbackMessage, Err: err}
}
