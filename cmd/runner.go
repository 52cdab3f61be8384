package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/services"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ai         services.AI
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB and AI are normally built per command from the config. Set them to share one database
// or collaborator across commands.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	AI         services.AI
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		ai:         opts.AI,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, seedCommand, serveCommand, projectsCommand, outputsCommand,
		feedbackCommand, youtubeCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// ConfigPath returns the path of the config file in use, if any.
func (r *Runner) ConfigPath() string {
	return r.configPath
}

// loadConfig switches to the file named by the --config flag when it exists.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, keeping current config", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.configPath = path
	return nil
}

// openDB returns the shared database or opens and migrates the configured one.
// The returned func closes only what openDB opened.
func (r *Runner) openDB(cmd *cli.Command) (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}
	if err := r.loadConfig(cmd); err != nil {
		return nil, nil, err
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, func() { db.Close() }, nil
}

func (r *Runner) storage() *services.LocalStorage {
	return services.NewLocalStorage(r.config.Storage.UploadDir, r.config.Storage.MaxUploadMB)
}

func (r *Runner) newAI(files services.FileResolver) services.AI {
	if r.ai != nil {
		return r.ai
	}
	return services.NewAI(r.config.AI, files, r.logger)
}

// newPublisher wires the YouTube client only when OAuth credentials are configured.
func (r *Runner) newPublisher(db *sql.DB) *tasks.YouTubePublisher {
	if !r.config.YouTube.Configured() {
		return tasks.NewYouTubePublisher(db, nil, r.logger)
	}
	client := services.NewYouTubeClient(r.config.YouTube, r.config.RedirectURL()).WithHTTPClient(r.httpClient)
	return tasks.NewYouTubePublisher(db, client, r.logger)
}

// currentUser resolves --user as an ID or an email, creating unknown emails on the free plan.
// Without the flag the configured dev user is used.
func (r *Runner) currentUser(ctx context.Context, cmd *cli.Command, db *sql.DB) (*models.User, error) {
	users := repositories.NewUserRepository(db)

	ref := cmd.String("user")
	if ref == "" {
		return users.EnsureUser(ctx, r.config.App.DevUserEmail, devUserName, models.PlanFree)
	}
	if shared.IsValidID(ref) {
		return users.Get(ctx, ref)
	}
	return users.EnsureUser(ctx, ref, ref, models.PlanFree)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
