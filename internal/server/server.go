package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/services"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Deps are the collaborators handlers call. They are built once at startup.
type Deps struct {
	DB      *sql.DB
	Config  *shared.Config
	AI      services.AI
	Storage services.Storage
	YouTube *tasks.YouTubePublisher
	Logger  *log.Logger
}

// Server is the contentforge JSON API.
type Server struct {
	cfg      *shared.Config
	users    *repositories.UserRepository
	projects *repositories.ProjectRepository
	outputs  *repositories.OutputRepository
	feedback *repositories.FeedbackRepository
	pipeline *tasks.Pipeline
	demo     *tasks.Demo
	youtube  *tasks.YouTubePublisher
	ai       services.AI
	storage  services.Storage
	logger   *log.Logger
	router   *BasicRouter
}

// New wires handlers for every API route.
func New(d Deps) *Server {
	logger := shared.WithLogger(d.Logger, "component", "server")
	youtube := d.YouTube
	if youtube == nil {
		youtube = tasks.NewYouTubePublisher(d.DB, nil, d.Logger)
	}

	s := &Server{
		cfg:      d.Config,
		users:    repositories.NewUserRepository(d.DB),
		projects: repositories.NewProjectRepository(d.DB),
		outputs:  repositories.NewOutputRepository(d.DB),
		feedback: repositories.NewFeedbackRepository(d.DB),
		pipeline: tasks.NewPipeline(d.DB, d.AI, d.Logger),
		demo:     tasks.NewDemo(d.DB, d.Logger),
		youtube:  youtube,
		ai:       d.AI,
		storage:  d.Storage,
		logger:   logger,
		router:   NewBasicRouter(),
	}
	s.router.Use(Recover(logger), RequestLogger(logger))
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s,
		ReadTimeout:  seconds(s.cfg.Server.ReadTimeoutSeconds, 30),
		WriteTimeout: seconds(s.cfg.Server.WriteTimeoutSeconds, 300),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", srv.Addr, "ai", s.ai.Name(), "youtube", s.youtube.Configured())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
