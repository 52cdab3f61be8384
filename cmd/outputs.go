package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/desertthunder/contentforge/internal/tasks"
	"github.com/urfave/cli/v3"
)

// OutputsRegenerate generates one platform's content for a project again.
func (r *Runner) OutputsRegenerate(ctx context.Context, cmd *cli.Command) error {
	projectID := cmd.StringArg("project")
	if projectID == "" {
		return fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}
	platform, err := models.ParsePlatform(cmd.String("platform"))
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

	r.logger.Info("regenerating", "project", projectID, "platform", platform)
	pipeline := tasks.NewPipeline(db, r.newAI(r.storage()), r.logger)
	output, err := pipeline.Regenerate(ctx, user.ID, projectID, platform)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(output, true)
	}
	r.writePlain("✓ Regenerated %s (%s)\n", platform.Label(), output.ID)
	if output.EditedContent != nil {
		r.writePlain("Note: an edited version exists and is still shown. Clear it with 'contentforge outputs edit %s --clear'.\n", output.ID)
	}
	return r.writePlainln("%s", output.Content)
}

// OutputsEdit stores or clears the user's edited content for an output.
func (r *Runner) OutputsEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: output id", shared.ErrMissingArgument)
	}

	content, err := editedContent(cmd)
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

	outputs := repositories.NewOutputRepository(db)
	if _, err := outputs.GetOwned(ctx, id, user.ID); err != nil {
		return err
	}
	if err := outputs.SetEditedContent(ctx, id, content); err != nil {
		return err
	}

	if content == nil {
		return r.writePlain("✓ Cleared edit on %s\n", id)
	}
	return r.writePlain("✓ Saved edit on %s (%d characters)\n", id, len([]rune(*content)))
}

// editedContent reads exactly one of --content, --from-file or --clear. nil means clear.
func editedContent(cmd *cli.Command) (*string, error) {
	set := 0
	for _, name := range []string{"content", "from-file", "clear"} {
		if cmd.IsSet(name) {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one of --content, --from-file or --clear is required", shared.ErrInvalidArgument)
	}

	switch {
	case cmd.Bool("clear"):
		return nil, nil
	case cmd.IsSet("from-file"):
		data, err := os.ReadFile(cmd.String("from-file"))
		if err != nil {
			return nil, fmt.Errorf("failed to read edited content: %w", err)
		}
		content := string(data)
		return &content, nil
	}
	content := cmd.String("content")
	return &content, nil
}
