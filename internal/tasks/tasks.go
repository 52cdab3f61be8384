package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/services"
	"github.com/desertthunder/contentforge/internal/shared"
	"golang.org/x/sync/errgroup"
)

// CreateProjectInput is a project submission.
type CreateProjectInput struct {
	UserID    string
	Title     string
	InputType models.InputType
	InputText string
	FileURL   string
	Platforms []models.Platform
}

// platforms validates the requested platforms and drops duplicates.
func (in CreateProjectInput) platforms() ([]models.Platform, error) {
	if len(in.Platforms) == 0 {
		return nil, fmt.Errorf("%w: at least one platform is required", shared.ErrInvalidInput)
	}

	seen := make(map[models.Platform]bool, len(in.Platforms))
	platforms := make([]models.Platform, 0, len(in.Platforms))
	for _, p := range in.Platforms {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidInput, p)
		}
		if !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}
	return platforms, nil
}

// ProcessingError reports a pipeline failure after the project row was created.
// The project has been marked FAILED.
type ProcessingError struct {
	ProjectID string
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing project %s: %v", e.ProjectID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Pipeline runs transcription, analysis and per-platform generation for projects.
type Pipeline struct {
	users    *repositories.UserRepository
	projects *repositories.ProjectRepository
	outputs  *repositories.OutputRepository
	ai       services.AI
	logger   *log.Logger
}

// NewPipeline creates a pipeline over db using ai for every model call.
func NewPipeline(db *sql.DB, ai services.AI, logger *log.Logger) *Pipeline {
	return &Pipeline{
		users:    repositories.NewUserRepository(db),
		projects: repositories.NewProjectRepository(db),
		outputs:  repositories.NewOutputRepository(db),
		ai:       ai,
		logger:   shared.WithLogger(logger, "component", "pipeline"),
	}
}

// CreateAndProcess creates a project and runs it to READY or FAILED before returning.
//
// Per-platform generation failures are stored as failed outputs and do not fail the project.
// Transcription, analysis and storage failures mark the project FAILED and return a
// [*ProcessingError] carrying its ID.
func (p *Pipeline) CreateAndProcess(ctx context.Context, in CreateProjectInput, progress chan<- ProgressUpdate) (*models.Project, error) {
	platforms, err := in.platforms()
	if err != nil {
		return nil, err
	}

	user, err := p.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanCreateProject() {
		return nil, fmt.Errorf("%w: %d of %d projects used on the %s plan",
			shared.ErrPlanLimit, user.UsageCount, user.Plan.Limit(), user.Plan.Label())
	}

	project := models.NewProject(user.ID, in.Title, in.InputType, in.InputText, in.FileURL)
	if err := p.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	logger := shared.WithLogger(p.logger, "project", project.ID)
	logger.Info("Project created", "platforms", len(platforms), "input", project.InputType)

	if err := p.process(ctx, logger, project, user, platforms, progress); err != nil {
		logger.Error("Processing failed", "error", err)

		// the failure must be recorded even if the caller has gone away
		if ferr := p.projects.Advance(context.WithoutCancel(ctx), project.ID, models.StatusFailed, repositories.ProjectUpdate{}); ferr != nil {
			logger.Error("Failed to mark project failed", "error", ferr)
		}
		sendProgress(progress, failedUpdate(project.ID, err))
		return nil, &ProcessingError{ProjectID: project.ID, Err: err}
	}

	final, err := p.projects.Get(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, completeUpdate(final))
	logger.Info("Project ready", "outputs", len(final.Outputs))
	return final, nil
}

func (p *Pipeline) process(
	ctx context.Context,
	logger *log.Logger,
	project *models.Project,
	user *models.User,
	platforms []models.Platform,
	progress chan<- ProgressUpdate,
) error {
	transcript := project.InputText
	if project.InputType != models.InputText {
		sendProgress(progress, transcribeUpdate(project.ID))
		logger.Info("Phase started", "phase", Transcribe)

		if err := p.projects.Advance(ctx, project.ID, models.StatusTranscribing, repositories.ProjectUpdate{}); err != nil {
			return err
		}

		var err error
		if transcript, err = p.ai.Transcribe(ctx, project.FileURL); err != nil {
			return fmt.Errorf("transcription failed: %w", err)
		}
	}

	sendProgress(progress, analyzeUpdate(project.ID))
	logger.Info("Phase started", "phase", Analyze)
	if err := p.projects.Advance(ctx, project.ID, models.StatusAnalyzing, repositories.ProjectUpdate{Transcript: &transcript}); err != nil {
		return err
	}

	analysis, err := p.ai.Analyze(ctx, transcript)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	encoded, err := analysis.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	logger.Info("Phase started", "phase", Generate)
	if err := p.projects.Advance(ctx, project.ID, models.StatusGenerating, repositories.ProjectUpdate{MasterAnalysis: &encoded}); err != nil {
		return err
	}

	req := services.GenerationRequest{Analysis: analysis, Transcript: transcript, BrandVoice: brandVoice(user)}
	for _, result := range p.generateAll(ctx, logger, project.ID, platforms, req, progress) {
		output := models.NewOutput(project.ID, result.Platform, result.Content)
		if !result.OK() {
			output = models.NewFailedOutput(project.ID, result.Platform, result.Error)
		}
		if err := p.outputs.Create(ctx, output); err != nil {
			return err
		}
	}

	if err := p.users.IncrementUsage(ctx, user.ID); err != nil {
		return err
	}
	return p.projects.Advance(ctx, project.ID, models.StatusReady, repositories.ProjectUpdate{})
}

// generateAll runs one generation per platform concurrently and waits for all of them.
// Results keep the order of platforms.
func (p *Pipeline) generateAll(
	ctx context.Context,
	logger *log.Logger,
	projectID string,
	platforms []models.Platform,
	req services.GenerationRequest,
	progress chan<- ProgressUpdate,
) []services.GenerationResult {
	total := len(platforms)
	results := make([]services.GenerationResult, total)
	sendProgress(progress, generateUpdate(projectID, 0, total, "", ""))

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	for i, platform := range platforms {
		g.Go(func() error {
			r := req
			r.Platform = platform
			result := settle(platform, p.ai.Generate(ctx, r))
			results[i] = result

			if !result.OK() {
				logger.Warn("Generation failed", "platform", platform, "error", result.Error)
			}

			mu.Lock()
			done++
			step := done
			mu.Unlock()
			sendProgress(progress, generateUpdate(projectID, step, total, platform, result.Error))

			// never fail the group: every platform settles independently
			return nil
		})
	}
	g.Wait()
	return results
}

// settle pins the result to platform and turns empty content into a failure, so an output
// always carries either content or an error.
func settle(platform models.Platform, r services.GenerationResult) services.GenerationResult {
	r.Platform = platform
	if r.OK() && strings.TrimSpace(r.Content) == "" {
		return services.GenerationFailed(platform, fmt.Errorf("empty content returned for %s", platform.Label()))
	}
	return r
}

// Regenerate produces fresh content for one platform of a project owned by userID.
//
// The existing output for the platform is updated in place (clearing any recorded error) or
// created when absent. A failed generation leaves stored data untouched and returns an error
// wrapping [shared.ErrGeneration]. Project status is never changed.
func (p *Pipeline) Regenerate(ctx context.Context, userID, projectID string, platform models.Platform) (*models.Output, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidInput, platform)
	}

	project, err := p.projects.GetOwned(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	user, err := p.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := settle(platform, p.ai.Generate(ctx, services.GenerationRequest{
		Platform:   platform,
		Analysis:   project.Analysis(),
		Transcript: project.SourceText(),
		BrandVoice: brandVoice(user),
	}))
	if !result.OK() {
		p.logger.Warn("Regeneration failed", "project", projectID, "platform", platform, "error", result.Error)
		return nil, result.Err()
	}

	// Generation can take a while, so the row is looked up again right before writing.
	existing, err := p.outputs.FindByPlatform(ctx, project.ID, platform)
	switch {
	case err == nil:
		if err := p.outputs.UpdateGenerated(ctx, existing.ID, result.Content); err != nil {
			return nil, err
		}
		return p.outputs.Get(ctx, existing.ID)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	output := models.NewOutput(project.ID, platform, result.Content)
	if err := p.outputs.Create(ctx, output); err != nil {
		return nil, err
	}
	return output, nil
}

func brandVoice(u *models.User) string {
	if u == nil || u.BrandVoice == nil {
		return ""
	}
	return *u.BrandVoice
}
