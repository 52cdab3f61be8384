package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/contentforge/internal/formatter"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/services"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
	"github.com/urfave/cli/v3"
)

const previewLength = 60

// ProjectsList prints the user's projects, newest first.
func (r *Runner) ProjectsList(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	projects, err := repositories.NewProjectRepository(db).ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(projects, true)
	}
	if len(projects) == 0 {
		return r.writePlain("No projects yet. Create one with 'contentforge projects create'.\n")
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.ID,
			p.Title,
			string(p.Status),
			fmt.Sprintf("%d", len(p.Outputs)),
			p.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"ID", "Title", "Status", "Outputs", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return r.writePlain("%s\n", usageLine(user))
}

// ProjectsCreate submits text or a media file and waits for the pipeline to finish.
func (r *Runner) ProjectsCreate(ctx context.Context, cmd *cli.Command) error {
	platforms, err := models.ParsePlatforms(cmd.StringSlice("platform"))
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	storage := r.storage()
	in := tasks.CreateProjectInput{
		UserID:    user.ID,
		Title:     cmd.String("title"),
		Platforms: platforms,
	}
	if err := r.sourceInput(ctx, cmd, storage, &in); err != nil {
		return err
	}

	pipeline := tasks.NewPipeline(db, r.newAI(storage), r.logger)
	useJSON := cmd.Bool("json")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var printer sync.WaitGroup
	printer.Add(1)
	go func() {
		defer printer.Done()
		for update := range progressCh {
			if useJSON {
				continue
			}
			switch update.Phase {
			case tasks.Generate:
				if update.Step == 0 {
					r.writePlain("\n✎ %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.Transcribe, tasks.Analyze:
				r.writePlain("● %s\n", update.Message)
			case tasks.Complete, tasks.Failed:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	project, err := pipeline.CreateAndProcess(ctx, in, progressCh)
	close(progressCh)
	printer.Wait()

	if err != nil {
		var perr *tasks.ProcessingError
		if errors.As(err, &perr) {
			r.logger.Error("project failed", "project", perr.ProjectID, "error", perr.Err)
		}
		return err
	}

	if useJSON {
		return r.writeJSON(project, true)
	}

	r.writePlain("\n")
	r.writePlainHeader(project.Title)
	r.writePlain("ID:     %s\n", project.ID)
	r.writePlain("Status: %s\n\n", project.Status)
	r.writePlain("%s\n", outputTable(project.Outputs))
	return nil
}

// sourceInput fills the input fields of in from --text or --file.
// Text files are read inline; audio and video are uploaded to storage for transcription.
func (r *Runner) sourceInput(ctx context.Context, cmd *cli.Command, storage services.Storage, in *tasks.CreateProjectInput) error {
	text, path := cmd.String("text"), cmd.String("file")
	switch {
	case text != "" && path != "":
		return fmt.Errorf("%w: cannot specify both --text and --file", shared.ErrInvalidArgument)
	case text != "":
		in.InputType, in.InputText = models.InputText, text
		return nil
	case path == "":
		return fmt.Errorf("%w: either --text or --file must be provided", shared.ErrMissingArgument)
	}

	inputType, contentType, err := mediaInputType(path)
	if err != nil {
		return err
	}
	if in.Title == "" {
		in.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if inputType == models.InputText {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		in.InputType, in.InputText = models.InputText, string(data)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	stored, err := storage.Upload(ctx, filepath.Base(path), contentType, info.Size(), f)
	if err != nil {
		return err
	}
	r.logger.Info("file uploaded", "file", path, "url", stored.URL)

	in.InputType, in.FileURL = inputType, stored.URL
	return nil
}

// ProjectsShow prints one project with its outputs, or renders it in an export format.
func (r *Runner) ProjectsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}

	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	project, err := repositories.NewProjectRepository(db).GetOwned(ctx, id, user.ID)
	if err != nil {
		return err
	}

	if f := cmd.String("format"); f != "" {
		format, err := formatter.ParseFormat(f)
		if err != nil {
			return err
		}
		data, err := formatter.Export(project, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if cmd.Bool("json") {
		return r.writeJSON(project, true)
	}

	r.writePlainHeader(project.Title)
	r.writePlain("ID:      %s\n", project.ID)
	r.writePlain("Status:  %s\n", project.Status)
	r.writePlain("Input:   %s\n", project.InputType)
	r.writePlain("Created: %s\n", project.CreatedAt.Local().Format("2006-01-02 15:04"))

	for _, o := range project.Outputs {
		r.writePlainln("── %s (%s) ──", o.Platform.Label(), formatter.OutputState(o))
		if o.Failed() {
			r.writePlain("Generation failed: %s\n", o.ErrorMessage())
			continue
		}
		r.writePlain("%s\n", o.EffectiveContent())
	}
	return nil
}

// ProjectsDelete soft-deletes a project.
func (r *Runner) ProjectsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}

	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	if err := repositories.NewProjectRepository(db).SoftDelete(ctx, id, user.ID); err != nil {
		return err
	}
	r.logger.Info("project deleted", "project", id)
	return r.writePlain("✓ Deleted %s\n", id)
}

// ProjectsExport writes projects to a directory with a manifest.
func (r *Runner) ProjectsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDB(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(ctx, cmd, db)
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var printer sync.WaitGroup
	printer.Add(1)
	go func() {
		defer printer.Done()
		for update := range progressCh {
			r.writePlain("   %s\n", update.Message)
		}
	}()

	r.writePlain("Exporting projects as %s...\n", format)
	result, err := tasks.NewExporter(db, r.logger).BulkExport(ctx, progressCh, user.ID, cmd.StringSlice("id"), opts)
	close(progressCh)
	printer.Wait()

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest:  %s\n", result.ManifestPath)
	r.writePlain("Exported:  %d/%d\n", result.Successful, result.Total)

	if result.Failed > 0 {
		r.writePlain("\nFailed to export %d projects:\n", result.Failed)
		for _, entry := range result.Entries {
			if entry.Error != "" {
				r.writePlain("  - %s: %s\n", entry.Title, entry.Error)
			}
		}
	}
	return nil
}

func outputTable(outputs []*models.Output) string {
	rows := make([][]string, 0, len(outputs))
	for _, o := range outputs {
		detail := o.EffectiveContent()
		if o.Failed() {
			detail = o.ErrorMessage()
		}
		rows = append(rows, []string{o.ID, o.Platform.Label(), formatter.OutputState(o), preview(detail, previewLength)})
	}
	return renderTable([]string{"ID", "Platform", "State", "Content"}, rows, nil)
}

// preview flattens s to a single line of at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// usageLine reports plan usage, e.g. "2 of 3 projects used on the Free plan".
func usageLine(u *models.User) string {
	if limit := u.Plan.Limit(); limit != models.Unlimited {
		return fmt.Sprintf("%d of %d projects used on the %s plan", u.UsageCount, limit, u.Plan.Label())
	}
	return fmt.Sprintf("%d projects on the %s plan", u.UsageCount, u.Plan.Label())
}

// mediaTypes covers extensions the system MIME table may not know.
var mediaTypes = map[string]string{
	".mp3":      "audio/mpeg",
	".wav":      "audio/wav",
	".m4a":      "audio/mp4",
	".ogg":      "audio/ogg",
	".mp4":      "video/mp4",
	".mov":      "video/quicktime",
	".webm":     "video/webm",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// mediaInputType maps a file name to the pipeline input type and upload content type.
func mediaInputType(name string) (models.InputType, string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	contentType, ok := mediaTypes[ext]
	if !ok {
		contentType, _, _ = mime.ParseMediaType(mime.TypeByExtension(ext))
	}

	switch {
	case strings.HasPrefix(contentType, "audio/"):
		return models.InputAudio, contentType, nil
	case strings.HasPrefix(contentType, "video/"):
		return models.InputVideo, contentType, nil
	case strings.HasPrefix(contentType, "text/"):
		return models.InputText, contentType, nil
	}
	return "", "", fmt.Errorf("%w: unsupported file type %q", shared.ErrUpload, ext)
}
