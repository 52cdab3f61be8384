package tasks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/services"
	"github.com/desertthunder/contentforge/internal/shared"
)

// DemoTitle is the title of the sample project.
const DemoTitle = "Sample: Create Once, Distribute Everywhere"

// DemoPlatforms are the platforms the sample project has outputs for.
var DemoPlatforms = []models.Platform{
	models.PlatformTwitter,
	models.PlatformLinkedIn,
	models.PlatformInstagram,
	models.PlatformBlog,
	models.PlatformShortVideo,
}

// Demo seeds ready-made sample projects without calling any provider.
type Demo struct {
	projects *repositories.ProjectRepository
	outputs  *repositories.OutputRepository
	logger   *log.Logger
}

// NewDemo creates a [Demo] over db.
func NewDemo(db *sql.DB, logger *log.Logger) *Demo {
	return &Demo{
		projects: repositories.NewProjectRepository(db),
		outputs:  repositories.NewOutputRepository(db),
		logger:   shared.WithLogger(logger, "component", "demo"),
	}
}

// Create inserts a READY sample project for userID and returns it with its outputs.
// Usage is not counted.
func (d *Demo) Create(ctx context.Context, userID string) (*models.Project, error) {
	analysis, err := services.SampleAnalysis().Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode sample analysis: %w", err)
	}

	project := models.NewProject(userID, DemoTitle, models.InputText, services.SampleTranscript, "")
	project.Status = models.StatusReady
	project.MasterAnalysis = analysis
	if err := d.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	for _, platform := range DemoPlatforms {
		if err := d.outputs.Create(ctx, models.NewOutput(project.ID, platform, services.SampleContent(platform))); err != nil {
			return nil, err
		}
	}

	d.logger.Info("Demo project created", "user", userID, "project", project.ID)
	return d.projects.Get(ctx, project.ID)
}
