package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func mustUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "Test User", models.PlanCreator)
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func mustProject(t *testing.T, db *sql.DB, userID string) *models.Project {
	t.Helper()
	project := models.NewProject(userID, "Episode 12", models.InputText, "some transcript", "")
	if err := NewProjectRepository(db).Create(context.Background(), project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func mustOutput(t *testing.T, db *sql.DB, projectID string, platform models.Platform) *models.Output {
	t.Helper()
	output := models.NewOutput(projectID, platform, "content for "+string(platform))
	if err := NewOutputRepository(db).Create(context.Background(), output); err != nil {
		t.Fatalf("failed to create output: %v", err)
	}
	return output
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		user := mustUser(t, db, "test@example.com")

		if user.ID == "" {
			t.Fatal("user ID should be set after creation")
		}

		retrieved, err := repo.Get(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.Email != user.Email || retrieved.Plan != models.PlanCreator {
			t.Errorf("unexpected user %+v", retrieved)
		}
		if retrieved.BrandVoice != nil {
			t.Errorf("brand voice should be unset, got %q", *retrieved.BrandVoice)
		}
	})

	t.Run("EnsureUser", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)

		first, err := repo.EnsureUser(ctx, "dev@example.com", "Dev", models.PlanCreator)
		if err != nil {
			t.Fatalf("EnsureUser() error: %v", err)
		}
		second, err := repo.EnsureUser(ctx, "dev@example.com", "Other", models.PlanFree)
		if err != nil {
			t.Fatalf("EnsureUser() error: %v", err)
		}
		if first.ID != second.ID {
			t.Error("EnsureUser should return the existing user")
		}
		if second.Plan != models.PlanCreator {
			t.Errorf("existing user should keep its plan, got %s", second.Plan)
		}
	})

	t.Run("UpdateSettings", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		user := mustUser(t, db, "test@example.com")

		voice := "  witty and direct  "
		updated, err := repo.UpdateSettings(ctx, user.ID, models.Settings{BrandVoice: &voice})
		if err != nil {
			t.Fatalf("UpdateSettings() error: %v", err)
		}
		if updated.BrandVoice == nil || *updated.BrandVoice != "witty and direct" {
			t.Errorf("expected trimmed brand voice, got %v", updated.BrandVoice)
		}
		if updated.Name != "Test User" {
			t.Errorf("name should be unchanged, got %q", updated.Name)
		}

		name := "Renamed"
		updated, err = repo.UpdateSettings(ctx, user.ID, models.Settings{Name: &name})
		if err != nil {
			t.Fatalf("UpdateSettings() error: %v", err)
		}
		if updated.Name != "Renamed" || updated.BrandVoice == nil {
			t.Errorf("expected name change only, got %+v", updated)
		}
	})

	t.Run("UpdateOnboarding", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		user := mustUser(t, db, "test@example.com")

		step := 2
		updated, err := repo.UpdateOnboarding(ctx, user.ID, models.Onboarding{Step: &step})
		if err != nil {
			t.Fatalf("UpdateOnboarding() error: %v", err)
		}
		if updated.OnboardingStep != 2 || updated.OnboardingCompleted {
			t.Errorf("unexpected onboarding state %+v", updated)
		}

		done := true
		updated, err = repo.UpdateOnboarding(ctx, user.ID, models.Onboarding{Completed: &done})
		if err != nil {
			t.Fatalf("UpdateOnboarding() error: %v", err)
		}
		if updated.OnboardingStep != 2 || !updated.OnboardingCompleted {
			t.Errorf("unexpected onboarding state %+v", updated)
		}
	})

	t.Run("IncrementUsage", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewUserRepository(db)
		user := mustUser(t, db, "test@example.com")

		for i := 0; i < 2; i++ {
			if err := repo.IncrementUsage(ctx, user.ID); err != nil {
				t.Fatalf("IncrementUsage() error: %v", err)
			}
		}

		retrieved, _ := repo.Get(ctx, user.ID)
		if retrieved.UsageCount != 2 {
			t.Errorf("expected usage 2, got %d", retrieved.UsageCount)
		}
	})
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("GetOwned", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProjectRepository(db)
		owner := mustUser(t, db, "owner@example.com")
		other := mustUser(t, db, "other@example.com")
		project := mustProject(t, db, owner.ID)
		mustOutput(t, db, project.ID, models.PlatformTwitter)

		got, err := repo.GetOwned(ctx, project.ID, owner.ID)
		if err != nil {
			t.Fatalf("GetOwned() error: %v", err)
		}
		if len(got.Outputs) != 1 || got.Outputs[0].Platform != models.PlatformTwitter {
			t.Errorf("expected one twitter output, got %+v", got.Outputs)
		}

		if _, err := repo.GetOwned(ctx, project.ID, other.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("another user's project should be not found, got %v", err)
		}
	})

	t.Run("ListByUser newest first", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProjectRepository(db)
		user := mustUser(t, db, "owner@example.com")

		first := mustProject(t, db, user.ID)
		time.Sleep(2 * time.Millisecond)
		second := mustProject(t, db, user.ID)
		mustOutput(t, db, first.ID, models.PlatformBlog)
		mustOutput(t, db, second.ID, models.PlatformTwitter)
		mustOutput(t, db, second.ID, models.PlatformLinkedIn)

		projects, err := repo.ListByUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListByUser() error: %v", err)
		}
		if len(projects) != 2 {
			t.Fatalf("expected 2 projects, got %d", len(projects))
		}
		if projects[0].ID != second.ID {
			t.Error("expected newest project first")
		}
		if len(projects[0].Outputs) != 2 || len(projects[1].Outputs) != 1 {
			t.Errorf("outputs attached to the wrong projects: %d, %d", len(projects[0].Outputs), len(projects[1].Outputs))
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProjectRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)

		if err := repo.SoftDelete(ctx, project.ID, user.ID); err != nil {
			t.Fatalf("SoftDelete() error: %v", err)
		}
		if _, err := repo.Get(ctx, project.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("deleted project should be not found, got %v", err)
		}

		projects, _ := repo.ListByUser(ctx, user.ID)
		if len(projects) != 0 {
			t.Errorf("deleted project should not be listed")
		}

		var deletedAt sql.NullTime
		if err := db.QueryRow("SELECT deleted_at FROM projects WHERE id = ?", project.ID).Scan(&deletedAt); err != nil {
			t.Fatalf("row should still exist: %v", err)
		}
		if !deletedAt.Valid {
			t.Error("deleted_at should be set")
		}

		if err := repo.SoftDelete(ctx, project.ID, user.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("second delete should be not found, got %v", err)
		}
	})

	t.Run("Advance", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProjectRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)

		transcript := "hello world"
		if err := repo.Advance(ctx, project.ID, models.StatusAnalyzing, ProjectUpdate{Transcript: &transcript}); err != nil {
			t.Fatalf("Advance(ANALYZING) error: %v", err)
		}
		analysis := `{"topics":["x"]}`
		if err := repo.Advance(ctx, project.ID, models.StatusGenerating, ProjectUpdate{MasterAnalysis: &analysis}); err != nil {
			t.Fatalf("Advance(GENERATING) error: %v", err)
		}
		if err := repo.Advance(ctx, project.ID, models.StatusReady, ProjectUpdate{}); err != nil {
			t.Fatalf("Advance(READY) error: %v", err)
		}

		got, _ := repo.Get(ctx, project.ID)
		if got.Status != models.StatusReady || got.Transcript != transcript || got.MasterAnalysis != analysis {
			t.Errorf("unexpected project %+v", got)
		}

		for _, next := range []models.Status{models.StatusFailed, models.StatusGenerating, models.StatusReady} {
			if err := repo.Advance(ctx, project.ID, next, ProjectUpdate{}); !errors.Is(err, shared.ErrInvalidTransition) {
				t.Errorf("terminal project moved to %s: %v", next, err)
			}
		}
	})

	t.Run("Advance backwards", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProjectRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)

		if err := repo.Advance(ctx, project.ID, models.StatusGenerating, ProjectUpdate{}); err != nil {
			t.Fatalf("Advance() error: %v", err)
		}
		if err := repo.Advance(ctx, project.ID, models.StatusAnalyzing, ProjectUpdate{}); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestOutputRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("failed output metadata", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewOutputRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)

		failed := models.NewFailedOutput(project.ID, models.PlatformBlog, "timeout")
		if err := repo.Create(ctx, failed); err != nil {
			t.Fatalf("Create() error: %v", err)
		}

		got, err := repo.Get(ctx, failed.ID)
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if got.Content != "" || got.ErrorMessage() != "timeout" {
			t.Errorf("unexpected failed output %+v", got)
		}

		if err := repo.UpdateGenerated(ctx, failed.ID, "fresh"); err != nil {
			t.Fatalf("UpdateGenerated() error: %v", err)
		}
		got, _ = repo.Get(ctx, failed.ID)
		if got.Content != "fresh" || got.Failed() {
			t.Errorf("regenerated output should have content and no error, got %+v", got)
		}
	})

	t.Run("GetOwned", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewOutputRepository(db)
		owner := mustUser(t, db, "owner@example.com")
		other := mustUser(t, db, "other@example.com")
		project := mustProject(t, db, owner.ID)
		output := mustOutput(t, db, project.ID, models.PlatformTwitter)

		if _, err := repo.GetOwned(ctx, output.ID, owner.ID); err != nil {
			t.Errorf("owner should see output: %v", err)
		}
		if _, err := repo.GetOwned(ctx, output.ID, other.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("other user should get not found, got %v", err)
		}

		if err := NewProjectRepository(db).SoftDelete(ctx, project.ID, owner.ID); err != nil {
			t.Fatalf("SoftDelete() error: %v", err)
		}
		if _, err := repo.GetOwned(ctx, output.ID, owner.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("output of a deleted project should be not found, got %v", err)
		}
	})

	t.Run("SetEditedContent", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewOutputRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)
		output := mustOutput(t, db, project.ID, models.PlatformTwitter)

		edited := "my version"
		if err := repo.SetEditedContent(ctx, output.ID, &edited); err != nil {
			t.Fatalf("SetEditedContent() error: %v", err)
		}
		got, _ := repo.Get(ctx, output.ID)
		if got.EffectiveContent() != "my version" || got.Content != "content for TWITTER" {
			t.Errorf("edit should override without replacing generated content, got %+v", got)
		}

		if err := repo.SetEditedContent(ctx, output.ID, nil); err != nil {
			t.Fatalf("SetEditedContent(nil) error: %v", err)
		}
		got, _ = repo.Get(ctx, output.ID)
		if got.EditedContent != nil {
			t.Error("override should be cleared")
		}
	})

	t.Run("FindByPlatform", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewOutputRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)
		output := mustOutput(t, db, project.ID, models.PlatformThreads)

		got, err := repo.FindByPlatform(ctx, project.ID, models.PlatformThreads)
		if err != nil || got.ID != output.ID {
			t.Errorf("FindByPlatform() = %v, %v", got, err)
		}
		if _, err := repo.FindByPlatform(ctx, project.ID, models.PlatformBlog); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestFeedbackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert replaces the rating", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFeedbackRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)
		output := mustOutput(t, db, project.ID, models.PlatformTwitter)

		first, err := repo.Upsert(ctx, models.NewFeedback(output.ID, user.ID, models.ThumbsUp, nil))
		if err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}

		comment := "too long"
		second, err := repo.Upsert(ctx, models.NewFeedback(output.ID, user.ID, models.ThumbsDown, &comment))
		if err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
		if first.ID != second.ID {
			t.Error("upsert should keep the same row")
		}
		if second.Rating != models.ThumbsDown || second.Comment == nil || *second.Comment != "too long" {
			t.Errorf("unexpected feedback %+v", second)
		}

		var count int
		db.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&count)
		if count != 1 {
			t.Errorf("expected one feedback row, got %d", count)
		}
	})

	t.Run("rate then clear leaves nothing", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFeedbackRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)
		output := mustOutput(t, db, project.ID, models.PlatformBlog)

		if _, err := repo.Upsert(ctx, models.NewFeedback(output.ID, user.ID, models.ThumbsUp, nil)); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
		if err := repo.Delete(ctx, output.ID, user.ID); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		if _, err := repo.Get(ctx, output.ID, user.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("feedback should be gone, got %v", err)
		}
		if err := repo.Delete(ctx, output.ID, user.ID); err != nil {
			t.Errorf("second delete should be a no-op, got %v", err)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFeedbackRepository(db)
		user := mustUser(t, db, "owner@example.com")
		other := mustUser(t, db, "other@example.com")
		project := mustProject(t, db, user.ID)

		platforms := []models.Platform{models.PlatformTwitter, models.PlatformTwitter, models.PlatformBlog}
		ratings := []models.Rating{models.ThumbsUp, models.ThumbsDown, models.ThumbsUp}
		for i, p := range platforms {
			output := mustOutput(t, db, project.ID, p)
			comment := "comment " + string(rune('a'+i))
			if _, err := repo.Upsert(ctx, models.NewFeedback(output.ID, user.ID, ratings[i], &comment)); err != nil {
				t.Fatalf("Upsert() error: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
		}

		otherProject := mustProject(t, db, other.ID)
		otherOutput := mustOutput(t, db, otherProject.ID, models.PlatformBlog)
		if _, err := repo.Upsert(ctx, models.NewFeedback(otherOutput.ID, other.ID, models.ThumbsDown, nil)); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}

		stats, err := repo.Stats(ctx, user.ID)
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		if stats.Total != 3 || stats.ThumbsUp != 2 || stats.ThumbsDown != 1 {
			t.Errorf("unexpected totals %+v", stats)
		}
		if tw := stats.ByPlatform[models.PlatformTwitter]; tw.ThumbsUp != 1 || tw.ThumbsDown != 1 {
			t.Errorf("unexpected twitter counts %+v", tw)
		}
		if len(stats.RecentComments) != 3 || stats.RecentComments[0].Comment != "comment c" {
			t.Errorf("expected newest comment first, got %+v", stats.RecentComments)
		}
	})

	t.Run("Stats bounds recent comments", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewFeedbackRepository(db)
		user := mustUser(t, db, "owner@example.com")
		project := mustProject(t, db, user.ID)

		for i := 0; i < models.MaxRecentComments+3; i++ {
			output := mustOutput(t, db, project.ID, models.PlatformNewsletter)
			comment := "note"
			if _, err := repo.Upsert(ctx, models.NewFeedback(output.ID, user.ID, models.ThumbsUp, &comment)); err != nil {
				t.Fatalf("Upsert() error: %v", err)
			}
		}

		stats, err := repo.Stats(ctx, user.ID)
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		if stats.Total != models.MaxRecentComments+3 {
			t.Errorf("expected %d total, got %d", models.MaxRecentComments+3, stats.Total)
		}
		if len(stats.RecentComments) != models.MaxRecentComments {
			t.Errorf("expected %d recent comments, got %d", models.MaxRecentComments, len(stats.RecentComments))
		}
	})
}

func TestYouTubeConnectionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert keeps refresh token when omitted", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewYouTubeConnectionRepository(db)
		user := mustUser(t, db, "owner@example.com")

		conn := &models.YouTubeConnection{
			UserID:       user.ID,
			ChannelID:    "UC123",
			ChannelTitle: "My Channel",
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(time.Hour),
			Scope:        "youtube.upload",
		}
		if err := repo.Upsert(ctx, conn); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}

		again := &models.YouTubeConnection{
			UserID:      user.ID,
			ChannelID:   "UC123",
			AccessToken: "access-2",
			ExpiresAt:   time.Now().Add(time.Hour),
		}
		if err := repo.Upsert(ctx, again); err != nil {
			t.Fatalf("second Upsert() error: %v", err)
		}

		got, err := repo.GetByUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetByUser() error: %v", err)
		}
		if got.AccessToken != "access-2" || got.RefreshToken != "refresh-1" {
			t.Errorf("unexpected tokens %q / %q", got.AccessToken, got.RefreshToken)
		}
	})

	t.Run("UpdateToken and Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewYouTubeConnectionRepository(db)
		user := mustUser(t, db, "owner@example.com")

		conn := &models.YouTubeConnection{UserID: user.ID, AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now()}
		if err := repo.Upsert(ctx, conn); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}

		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		if err := repo.UpdateToken(ctx, user.ID, "b", "", expiry); err != nil {
			t.Fatalf("UpdateToken() error: %v", err)
		}
		got, _ := repo.GetByUser(ctx, user.ID)
		if got.AccessToken != "b" || got.RefreshToken != "r" || !got.ExpiresAt.Equal(expiry) {
			t.Errorf("unexpected connection %+v", got)
		}

		if err := repo.DeleteByUser(ctx, user.ID); err != nil {
			t.Fatalf("DeleteByUser() error: %v", err)
		}
		if _, err := repo.GetByUser(ctx, user.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
		if err := repo.DeleteByUser(ctx, user.ID); err != nil {
			t.Errorf("deleting twice should succeed, got %v", err)
		}
	})
}
