package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

const devUserName = "Dev User"

type userKey struct{}

// UserFrom returns the user resolved by the auth middleware.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			kv := []any{"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start)}
			if rec.status >= http.StatusInternalServerError {
				logger.Error("Request", kv...)
			} else {
				logger.Info("Request", kv...)
			}
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("Handler panicked", "path", r.URL.Path, "panic", v)
					writeError(w, logger, fmt.Errorf("panic: %v", v), "INTERNAL_ERROR", "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// authed resolves the calling user before h runs. Requests without a user get 401 AUTH_ERROR.
func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.resolveUser(r)
		if err != nil {
			writeError(w, s.logger, err, "AUTH_ERROR", "Not authenticated")
			return
		}
		h(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (s *Server) resolveUser(r *http.Request) (*models.User, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			id = strings.TrimSpace(token)
		}
	}

	if id != "" {
		user, err := s.users.Get(r.Context(), id)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotAuthenticated
		}
		return user, err
	}

	if s.cfg.App.DevBypassAuth {
		return s.users.EnsureUser(r.Context(), s.cfg.App.DevUserEmail, devUserName, models.PlanFree)
	}
	return nil, shared.ErrNotAuthenticated
}
