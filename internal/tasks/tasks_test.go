package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/services"
	"github.com/desertthunder/contentforge/internal/shared"
	tu "github.com/desertthunder/contentforge/internal/testing"
)

func testLogger() *log.Logger {
	return shared.NewLogger(&strings.Builder{})
}

// recordingAI wraps the mock and remembers every generation request.
type recordingAI struct {
	*services.MockAI

	mu       sync.Mutex
	requests []services.GenerationRequest
	content  map[models.Platform]string
}

func newRecordingAI() *recordingAI {
	return &recordingAI{MockAI: services.NewMockAI(), content: map[models.Platform]string{}}
}

func (r *recordingAI) Generate(ctx context.Context, req services.GenerationRequest) services.GenerationResult {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	content, override := r.content[req.Platform]
	r.mu.Unlock()

	if override {
		return services.Generated(req.Platform, content)
	}
	return r.MockAI.Generate(ctx, req)
}

// hookAI runs before ahead of every generation.
type hookAI struct {
	*services.MockAI
	before func()
}

func (h *hookAI) Generate(ctx context.Context, req services.GenerationRequest) services.GenerationResult {
	if h.before != nil {
		h.before()
	}
	return h.MockAI.Generate(ctx, req)
}

func textInput(userID string, platforms ...models.Platform) CreateProjectInput {
	return CreateProjectInput{
		UserID:    userID,
		Title:     "Episode 12",
		InputType: models.InputText,
		InputText: "A long talk about repurposing content.",
		Platforms: platforms,
	}
}

func TestPipeline_CreateAndProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("partial generation failure still reaches READY", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

		ai := services.NewMockAI()
		ai.Failures[models.PlatformBlog] = errors.New("timeout")
		p := NewPipeline(db, ai, testLogger())

		project, err := p.CreateAndProcess(ctx, textInput(user.ID, models.PlatformTwitter, models.PlatformBlog), nil)
		if err != nil {
			t.Fatalf("CreateAndProcess failed: %v", err)
		}
		if project.Status != models.StatusReady {
			t.Errorf("expected READY, got %s", project.Status)
		}
		if len(project.Outputs) != 2 {
			t.Fatalf("expected 2 outputs, got %d", len(project.Outputs))
		}

		twitter := project.OutputFor(models.PlatformTwitter)
		if twitter == nil || twitter.Content == "" || twitter.Failed() {
			t.Errorf("expected generated twitter output, got %+v", twitter)
		}
		blog := project.OutputFor(models.PlatformBlog)
		if blog == nil || blog.Content != "" || blog.ErrorMessage() != "timeout" {
			t.Errorf("expected failed blog output, got %+v", blog)
		}
		if project.Transcript != project.InputText {
			t.Error("text input should be stored as the transcript")
		}
		if project.Analysis().NarrativeArc == "" {
			t.Error("expected stored analysis")
		}

		u, _ := repositories.NewUserRepository(db).Get(ctx, user.ID)
		if u.UsageCount != 1 {
			t.Errorf("expected usage 1, got %d", u.UsageCount)
		}
	})

	t.Run("every platform failing still reaches READY", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

		ai := services.NewMockAI()
		for _, platform := range models.Platforms {
			ai.Failures[platform] = errors.New("down")
		}

		project, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(ctx, textInput(user.ID, models.Platforms...), nil)
		if err != nil {
			t.Fatalf("CreateAndProcess failed: %v", err)
		}
		if project.Status != models.StatusReady || len(project.Outputs) != len(models.Platforms) {
			t.Errorf("unexpected project %s with %d outputs", project.Status, len(project.Outputs))
		}
		for _, o := range project.Outputs {
			if !o.Failed() {
				t.Errorf("%s should be failed", o.Platform)
			}
		}
	})

	t.Run("empty content becomes a failed output", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

		ai := newRecordingAI()
		ai.content[models.PlatformInstagram] = "   "

		project, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(ctx, textInput(user.ID, models.PlatformInstagram), nil)
		if err != nil {
			t.Fatal(err)
		}
		if o := project.OutputFor(models.PlatformInstagram); o == nil || !o.Failed() {
			t.Errorf("expected failed output, got %+v", o)
		}
	})

	t.Run("duplicate platforms are generated once", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)
		ai := services.NewMockAI()

		project, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(ctx,
			textInput(user.ID, models.PlatformTwitter, models.PlatformTwitter), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(project.Outputs) != 1 || ai.Calls(models.PlatformTwitter) != 1 {
			t.Errorf("expected a single twitter output, got %d (calls %d)", len(project.Outputs), ai.Calls(models.PlatformTwitter))
		}
	})

	t.Run("brand voice reaches every generation", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)
		voice := "Dry and precise"
		if _, err := repositories.NewUserRepository(db).UpdateSettings(ctx, user.ID, models.Settings{BrandVoice: &voice}); err != nil {
			t.Fatal(err)
		}

		ai := newRecordingAI()
		if _, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(ctx,
			textInput(user.ID, models.PlatformTwitter, models.PlatformLinkedIn), nil); err != nil {
			t.Fatal(err)
		}
		if len(ai.requests) != 2 {
			t.Fatalf("expected 2 requests, got %d", len(ai.requests))
		}
		for _, req := range ai.requests {
			if req.BrandVoice != voice || req.Transcript == "" || len(req.Analysis.Topics) == 0 {
				t.Errorf("unexpected request %+v", req)
			}
		}
	})

	t.Run("transcription failure marks FAILED", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

		ai := services.NewMockAI()
		ai.TranscribeErr = errors.New("bad audio")

		progress := make(chan ProgressUpdate, 16)
		_, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(ctx, CreateProjectInput{
			UserID:    user.ID,
			InputType: models.InputAudio,
			FileURL:   "uploads/ep.mp3",
			Platforms: []models.Platform{models.PlatformTwitter},
		}, progress)

		var perr *ProcessingError
		if !errors.As(err, &perr) || perr.ProjectID == "" {
			t.Fatalf("expected ProcessingError with project id, got %v", err)
		}

		project, err := repositories.NewProjectRepository(db).Get(ctx, perr.ProjectID)
		if err != nil {
			t.Fatal(err)
		}
		if project.Status != models.StatusFailed || len(project.Outputs) != 0 {
			t.Errorf("expected FAILED without outputs, got %s with %d", project.Status, len(project.Outputs))
		}
		if project.Title != models.DefaultProjectTitle {
			t.Errorf("expected default title, got %q", project.Title)
		}

		u, _ := repositories.NewUserRepository(db).Get(ctx, user.ID)
		if u.UsageCount != 0 {
			t.Error("failed projects must not count usage")
		}

		close(progress)
		var last ProgressUpdate
		for u := range progress {
			last = u
		}
		if last.Phase != Failed || last.ProjectID != perr.ProjectID {
			t.Errorf("expected final failed update, got %+v", last)
		}
	})

	t.Run("analysis failure marks FAILED", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

		ai := services.NewMockAI()
		ai.AnalyzeErr = errors.New("malformed")

		_, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(ctx, textInput(user.ID, models.PlatformBlog), nil)
		var perr *ProcessingError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProcessingError, got %v", err)
		}
		project, _ := repositories.NewProjectRepository(db).Get(ctx, perr.ProjectID)
		if project.Status != models.StatusFailed {
			t.Errorf("expected FAILED, got %s", project.Status)
		}
		if ai.Calls(models.PlatformBlog) != 0 {
			t.Error("generation must not run after analysis fails")
		}
	})

	t.Run("terminal projects do not change", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)
		projects := repositories.NewProjectRepository(db)

		project, err := NewPipeline(db, services.NewMockAI(), testLogger()).CreateAndProcess(ctx, textInput(user.ID, models.PlatformTwitter), nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, next := range []models.Status{models.StatusFailed, models.StatusGenerating, models.StatusTranscribing} {
			if err := projects.Advance(ctx, project.ID, next, repositories.ProjectUpdate{}); !errors.Is(err, shared.ErrInvalidTransition) {
				t.Errorf("READY -> %s should be rejected, got %v", next, err)
			}
		}
	})

	t.Run("plan limit", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)
		users := repositories.NewUserRepository(db)
		for range models.PlanFree.Limit() {
			if err := users.IncrementUsage(ctx, user.ID); err != nil {
				t.Fatal(err)
			}
		}

		ai := services.NewMockAI()
		_, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(ctx, textInput(user.ID, models.PlatformTwitter), nil)
		if !errors.Is(err, shared.ErrPlanLimit) {
			t.Fatalf("expected ErrPlanLimit, got %v", err)
		}

		projects, _ := repositories.NewProjectRepository(db).ListByUser(ctx, user.ID)
		if len(projects) != 0 {
			t.Error("no project should be created over the limit")
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)
		p := NewPipeline(db, services.NewMockAI(), testLogger())

		tests := []struct {
			name string
			in   CreateProjectInput
		}{
			{"no platforms", textInput(user.ID)},
			{"unknown platform", textInput(user.ID, models.Platform("MYSPACE"))},
			{"empty text", CreateProjectInput{UserID: user.ID, InputType: models.InputText, Platforms: []models.Platform{models.PlatformBlog}}},
			{"audio without file", CreateProjectInput{UserID: user.ID, InputType: models.InputAudio, Platforms: []models.Platform{models.PlatformBlog}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := p.CreateAndProcess(ctx, tt.in, nil); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		db := tu.MustDB(t)
		_, err := NewPipeline(db, services.NewMockAI(), testLogger()).CreateAndProcess(ctx, textInput("ghost", models.PlatformBlog), nil)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("cancelled context still records FAILED", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

		ai := services.NewMockAI()
		ai.Delay = time.Second

		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := NewPipeline(db, ai, testLogger()).CreateAndProcess(cctx, textInput(user.ID, models.PlatformBlog), nil)
		var perr *ProcessingError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProcessingError, got %v", err)
		}
		project, _ := repositories.NewProjectRepository(db).Get(ctx, perr.ProjectID)
		if project.Status != models.StatusFailed {
			t.Errorf("expected FAILED, got %s", project.Status)
		}
	})

	t.Run("progress updates", func(t *testing.T) {
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

		progress := make(chan ProgressUpdate, 32)
		if _, err := NewPipeline(db, services.NewMockAI(), testLogger()).CreateAndProcess(ctx,
			textInput(user.ID, models.PlatformTwitter, models.PlatformBlog), progress); err != nil {
			t.Fatal(err)
		}
		close(progress)

		phases := map[Phase]int{}
		var last ProgressUpdate
		for u := range progress {
			phases[u.Phase]++
			last = u
		}
		if phases[Transcribe] != 0 {
			t.Error("text input should skip transcription")
		}
		if phases[Analyze] != 1 || phases[Generate] != 3 {
			t.Errorf("unexpected phases %v", phases)
		}
		if last.Phase != Complete {
			t.Errorf("expected final complete update, got %s", last.Phase)
		}
	})
}

func TestPipeline_Regenerate(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, ai services.AI) (*Pipeline, *models.User, *models.Project) {
		t.Helper()
		db := tu.MustDB(t)
		user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)
		p := NewPipeline(db, ai, testLogger())
		project, err := p.CreateAndProcess(ctx, textInput(user.ID, models.PlatformTwitter), nil)
		if err != nil {
			t.Fatal(err)
		}
		return p, user, project
	}

	t.Run("updates in place", func(t *testing.T) {
		ai := newRecordingAI()
		p, user, project := setup(t, ai)
		original := project.OutputFor(models.PlatformTwitter)

		ai.content[models.PlatformTwitter] = "fresh thread"
		for range 2 {
			out, err := p.Regenerate(ctx, user.ID, project.ID, models.PlatformTwitter)
			if err != nil {
				t.Fatalf("Regenerate failed: %v", err)
			}
			if out.ID != original.ID || out.Content != "fresh thread" {
				t.Errorf("unexpected output %+v", out)
			}
		}

		reloaded, _ := p.projects.Get(ctx, project.ID)
		if len(reloaded.Outputs) != 1 {
			t.Errorf("expected one output row, got %d", len(reloaded.Outputs))
		}
		if reloaded.Status != models.StatusReady {
			t.Errorf("status should not change, got %s", reloaded.Status)
		}
	})

	t.Run("keeps edited content", func(t *testing.T) {
		ai := newRecordingAI()
		p, user, project := setup(t, ai)
		out := project.OutputFor(models.PlatformTwitter)

		edit := "my edit"
		if err := p.outputs.SetEditedContent(ctx, out.ID, &edit); err != nil {
			t.Fatal(err)
		}

		ai.content[models.PlatformTwitter] = "regenerated"
		got, err := p.Regenerate(ctx, user.ID, project.ID, models.PlatformTwitter)
		if err != nil {
			t.Fatal(err)
		}
		if got.EditedContent == nil || *got.EditedContent != edit || got.Content != "regenerated" {
			t.Errorf("unexpected output %+v", got)
		}
	})

	t.Run("clears recorded error", func(t *testing.T) {
		ai := services.NewMockAI()
		ai.Failures[models.PlatformTwitter] = errors.New("timeout")
		p, user, project := setup(t, ai)
		if !project.OutputFor(models.PlatformTwitter).Failed() {
			t.Fatal("expected failed output")
		}

		delete(ai.Failures, models.PlatformTwitter)
		out, err := p.Regenerate(ctx, user.ID, project.ID, models.PlatformTwitter)
		if err != nil {
			t.Fatal(err)
		}
		if out.Failed() || out.Content == "" {
			t.Errorf("expected recovered output, got %+v", out)
		}
	})

	t.Run("creates missing platform", func(t *testing.T) {
		p, user, project := setup(t, services.NewMockAI())

		out, err := p.Regenerate(ctx, user.ID, project.ID, models.PlatformBlog)
		if err != nil {
			t.Fatal(err)
		}
		reloaded, _ := p.projects.Get(ctx, project.ID)
		if len(reloaded.Outputs) != 2 || reloaded.OutputFor(models.PlatformBlog).ID != out.ID {
			t.Errorf("expected new blog output, got %d outputs", len(reloaded.Outputs))
		}
	})

	t.Run("output written during generation is updated", func(t *testing.T) {
		ai := &hookAI{MockAI: services.NewMockAI()}
		p, user, project := setup(t, ai)

		racer := models.NewOutput(project.ID, models.PlatformBlog, "written meanwhile")
		ai.before = func() {
			if err := p.outputs.Create(ctx, racer); err != nil {
				t.Errorf("failed to create output: %v", err)
			}
		}

		out, err := p.Regenerate(ctx, user.ID, project.ID, models.PlatformBlog)
		if err != nil {
			t.Fatal(err)
		}
		if out.ID != racer.ID || out.Content == "written meanwhile" {
			t.Errorf("expected the existing row to be updated, got %+v", out)
		}
		outputs, err := p.outputs.ListByProject(ctx, project.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(outputs) != 2 {
			t.Errorf("expected 2 output rows, got %d", len(outputs))
		}
	})

	t.Run("failure leaves stored content", func(t *testing.T) {
		ai := services.NewMockAI()
		p, user, project := setup(t, ai)
		before := project.OutputFor(models.PlatformTwitter).Content

		ai.Failures[models.PlatformTwitter] = errors.New("rate limited")
		_, err := p.Regenerate(ctx, user.ID, project.ID, models.PlatformTwitter)
		if !errors.Is(err, shared.ErrGeneration) || !strings.Contains(err.Error(), "rate limited") {
			t.Fatalf("expected ErrGeneration, got %v", err)
		}

		reloaded, _ := p.projects.Get(ctx, project.ID)
		if reloaded.OutputFor(models.PlatformTwitter).Content != before {
			t.Error("stored content must not change on failure")
		}
	})

	t.Run("other user's project", func(t *testing.T) {
		p, _, project := setup(t, services.NewMockAI())
		if _, err := p.Regenerate(ctx, "someone-else", project.ID, models.PlatformTwitter); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("invalid platform", func(t *testing.T) {
		p, user, project := setup(t, services.NewMockAI())
		if _, err := p.Regenerate(ctx, user.ID, project.ID, models.Platform("FAX")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestDemo(t *testing.T) {
	ctx := context.Background()
	db := tu.MustDB(t)
	user := tu.MustUser(t, db, "creator@example.com", models.PlanFree)

	project, err := NewDemo(db, testLogger()).Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if project.Status != models.StatusReady || project.Title != DemoTitle || project.InputType != models.InputText {
		t.Errorf("unexpected project %+v", project)
	}
	if len(project.Outputs) != len(DemoPlatforms) {
		t.Errorf("expected %d outputs, got %d", len(DemoPlatforms), len(project.Outputs))
	}
	if len(models.ParseAnalysis(project.MasterAnalysis).Topics) == 0 {
		t.Error("demo analysis should parse")
	}

	u, _ := repositories.NewUserRepository(db).Get(ctx, user.ID)
	if u.UsageCount != 0 {
		t.Error("demo projects do not count usage")
	}
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	t.Run("full channel drops", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 1)
		sendProgress(progress, analyzeUpdate("p"))
		sendProgress(progress, analyzeUpdate("p"))
		if len(progress) != 1 {
			t.Errorf("expected 1 buffered update, got %d", len(progress))
		}
	})

	t.Run("nil channel", func(t *testing.T) {
		sendProgress(nil, analyzeUpdate("p"))
	})

	t.Run("messages", func(t *testing.T) {
		ok := generateUpdate("p", 1, 2, models.PlatformBlog, "")
		failed := generateUpdate("p", 2, 2, models.PlatformBlog, "timeout")
		if !strings.Contains(ok.Message, "✓ Blog") || !strings.Contains(failed.Message, "✗ Blog: timeout") {
			t.Errorf("unexpected messages %q %q", ok.Message, failed.Message)
		}
		if Generate.String() != "generate" || Phase(99).String() != "" {
			t.Error("unexpected phase names")
		}
	})
}
