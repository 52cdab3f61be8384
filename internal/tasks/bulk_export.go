package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/formatter"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/shared"
	"golang.org/x/time/rate"
)

const manifestFile = "export_manifest.json"

// BulkExportOpts contains configuration for bulk project exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: md, csv, txt
	OutputDir  string           // Base output directory (default: contentforge_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 10)
	RateLimit  float64          // Projects loaded per second (default: 10)
}

// BulkExportResult is the manifest of a finished bulk export plus where it was written.
type BulkExportResult struct {
	formatter.Manifest
	OutputDirectory string
	ManifestPath    string
}

type exportJob struct {
	index   int
	project *models.Project
}

type exportResult struct {
	index int
	entry formatter.ManifestEntry
}

// Exporter writes a user's projects to disk.
type Exporter struct {
	projects *repositories.ProjectRepository
	logger   *log.Logger
}

// NewExporter creates an [Exporter] over db.
func NewExporter(db *sql.DB, logger *log.Logger) *Exporter {
	return &Exporter{
		projects: repositories.NewProjectRepository(db),
		logger:   shared.WithLogger(logger, "component", "export"),
	}
}

// BulkExport exports the given projects of userID, or all of them when ids is empty, with a
// worker pool. Loading is rate limited. A project that fails to load or write is recorded in the
// manifest and does not stop the others.
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	userID string,
	ids []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatMarkdown
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("contentforge_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}

	if len(ids) == 0 {
		all, err := e.projects.ListByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, p := range all {
			ids = append(ids, p.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Manifest: formatter.Manifest{
			ExportedAt: time.Now().UTC(),
			Format:     opts.Format,
			Total:      len(ids),
			Entries:    make([]formatter.ManifestEntry, len(ids)),
		},
		OutputDirectory: opts.OutputDir,
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(ids))
	results := make(chan exportResult, len(ids))

	var workers sync.WaitGroup
	for range opts.NumWorkers {
		workers.Add(1)
		go e.exportWorker(ctx, &workers, jobs, results, opts)
	}

	var producer sync.WaitGroup
	producer.Add(1)
	go func() {
		defer producer.Done()
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			project, err := e.projects.GetOwned(ctx, id, userID)
			if err != nil {
				results <- exportResult{i, formatter.ManifestEntry{
					ProjectID: id,
					Title:     fmt.Sprintf("Unknown (%s)", id),
					Error:     err.Error(),
				}}
				continue
			}
			jobs <- exportJob{index: i, project: project}
		}
	}()

	go func() {
		producer.Wait()
		workers.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		e.record(result, prog, res, completed)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestFile)
	if err := formatter.WriteManifest(&result.Manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes projects from jobs until it is closed or ctx is done.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- exportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- exportResult{job.index, e.exportOne(job.project, opts)}
	}
}

func (e *Exporter) record(result *BulkExportResult, prog chan<- ProgressUpdate, res exportResult, completed int) {
	entry := res.entry
	result.Entries[res.index] = entry

	var err error
	if entry.Error != "" {
		result.Failed++
		err = fmt.Errorf("%s", entry.Error)
		e.logger.Warn("Export failed", "project", entry.ProjectID, "error", entry.Error)
	} else {
		result.Successful++
	}
	sendProgress(prog, exportUpdate(completed, result.Total, entry.Title, err))
}

// exportOne writes a single project. File names are prefixed with the project ID so equal titles
// do not collide.
func (e *Exporter) exportOne(p *models.Project, opts BulkExportOpts) formatter.ManifestEntry {
	entry := formatter.ManifestEntry{ProjectID: p.ID, Title: p.Title}

	path := filepath.Join(opts.OutputDir, p.ID+"_"+opts.Format.Filename(p))
	written, err := formatter.WriteExport(p, opts.Format, path)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.File = filepath.Base(written)
	return entry
}
