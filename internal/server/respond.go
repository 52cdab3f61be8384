package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/shared"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Status    int    `json:"status"`
	ProjectID string `json:"projectId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":%q}`, err.Error())
	}
}

// writeError classifies err and writes the uniform body. The raw error is only logged.
func writeError(w http.ResponseWriter, logger *log.Logger, err error, fallbackCode, fallbackMessage string) {
	appErr := shared.AsAppError(err, fallbackCode, fallbackMessage)
	logErr(logger, appErr, err)
	writeJSON(w, appErr.Status, ErrorBody{Error: appErr.Message, Code: appErr.Code, Status: appErr.Status})
}

func logErr(logger *log.Logger, appErr *shared.AppError, err error) {
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("Request failed", "code", appErr.Code, "err", err)
	} else {
		logger.Debug("Request rejected", "code", appErr.Code, "err", err)
	}
}

// notFound rewrites a missing-resource error with an entity specific message.
func notFound(err error, message string) error {
	appErr := shared.AsAppError(err, "", "")
	if appErr.Code == "NOT_FOUND" {
		return shared.NewAppError("NOT_FOUND", http.StatusNotFound, message, err)
	}
	return err
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", shared.ErrInvalidInput)
	}
	return nil
}
