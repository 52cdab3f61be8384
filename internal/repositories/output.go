package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

const outputColumns = `o.id, o.project_id, o.platform, o.content, o.edited_content, o.metadata, o.created_at, o.updated_at`

// OutputRepository persists [models.Output].
type OutputRepository struct {
	db *sql.DB
}

// NewOutputRepository creates a new [OutputRepository] with the given database connection
func NewOutputRepository(db *sql.DB) *OutputRepository {
	return &OutputRepository{db: db}
}

// Create inserts a new output with a generated ID.
func (r *OutputRepository) Create(ctx context.Context, output *models.Output) error {
	output.ID = shared.GenerateID()
	output.Touch(now())

	if err := output.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	metadata, err := output.Metadata.MarshalMetadata()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO outputs (id, project_id, platform, content, edited_content, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, output.ID, output.ProjectID, output.Platform, output.Content, nullString(output.EditedContent),
		nullString(metadata), output.CreatedAt, output.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert output: %w", err)
	}
	return nil
}

// Get retrieves an output by ID.
func (r *OutputRepository) Get(ctx context.Context, id string) (*models.Output, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+outputColumns+` FROM outputs o WHERE o.id = ?`, id)
	output, err := scanOutput(row)
	if err != nil {
		return nil, notFound(err, "output", id)
	}
	return output, nil
}

// GetOwned retrieves an output whose parent project is owned by userID and not deleted.
func (r *OutputRepository) GetOwned(ctx context.Context, id, userID string) (*models.Output, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+outputColumns+`
		FROM outputs o
		JOIN projects p ON p.id = o.project_id
		WHERE o.id = ? AND p.user_id = ? AND p.deleted_at IS NULL
	`, id, userID)
	output, err := scanOutput(row)
	if err != nil {
		return nil, notFound(err, "output", id)
	}
	return output, nil
}

// FindByPlatform returns the first output of projectID for platform.
func (r *OutputRepository) FindByPlatform(ctx context.Context, projectID string, platform models.Platform) (*models.Output, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+outputColumns+`
		FROM outputs o
		WHERE o.project_id = ? AND o.platform = ?
		ORDER BY o.created_at ASC, o.rowid ASC
		LIMIT 1
	`, projectID, platform)
	output, err := scanOutput(row)
	if err != nil {
		return nil, notFound(err, "output", projectID+"/"+string(platform))
	}
	return output, nil
}

// ListByProject returns a project's outputs in creation order.
func (r *OutputRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Output, error) {
	return r.listWhere(ctx, `o.project_id = ?`, projectID)
}

func (r *OutputRepository) listWhere(ctx context.Context, where string, args ...any) ([]*models.Output, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+outputColumns+` FROM outputs o WHERE `+where+` ORDER BY o.created_at ASC, o.rowid ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outputs: %w", err)
	}
	defer rows.Close()

	outputs := []*models.Output{}
	for rows.Next() {
		output, err := scanOutput(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan output: %w", err)
		}
		outputs = append(outputs, output)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return outputs, nil
}

// UpdateGenerated replaces generated content and clears any recorded error.
// The edited override is left untouched.
func (r *OutputRepository) UpdateGenerated(ctx context.Context, id, content string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE outputs SET content = ?, metadata = NULL, updated_at = ? WHERE id = ?`, content, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update output: %w", err)
	}
	return expectRows(result, "output", id)
}

// SetEditedContent stores the user's override. nil clears it.
func (r *OutputRepository) SetEditedContent(ctx context.Context, id string, content *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE outputs SET edited_content = ?, updated_at = ? WHERE id = ?`, nullString(content), now(), id)
	if err != nil {
		return fmt.Errorf("failed to update output: %w", err)
	}
	return expectRows(result, "output", id)
}

func scanOutput(s scanner) (*models.Output, error) {
	var (
		o        models.Output
		edited   sql.NullString
		metadata sql.NullString
	)
	err := s.Scan(&o.ID, &o.ProjectID, &o.Platform, &o.Content, &edited, &metadata, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.EditedContent = stringPtr(edited)
	o.Metadata = models.UnmarshalMetadata(metadata.String)
	return &o, nil
}
