package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

const projectColumns = `id, user_id, title, input_type, input_text, file_url, transcript, master_analysis, status, created_at, updated_at, deleted_at`

// ProjectRepository persists [models.Project].
type ProjectRepository struct {
	db      *sql.DB
	outputs *OutputRepository
}

// NewProjectRepository creates a new [ProjectRepository] with the given database connection
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db, outputs: NewOutputRepository(db)}
}

// ProjectUpdate carries the optional columns written together with a status change.
type ProjectUpdate struct {
	Transcript     *string
	MasterAnalysis *string
}

// Create inserts a new project with a generated ID.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	project.ID = shared.GenerateID()
	project.Touch(now())

	if err := project.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		project.ID, project.UserID, project.Title, project.InputType,
		emptyAsNull(project.InputText), emptyAsNull(project.FileURL), emptyAsNull(project.Transcript),
		emptyAsNull(project.MasterAnalysis), project.Status, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// Get retrieves a non-deleted project by ID with its outputs, regardless of owner.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ? AND deleted_at IS NULL`, id)
	return r.load(ctx, row, id)
}

// GetOwned retrieves a non-deleted project owned by userID, with its outputs.
func (r *ProjectRepository) GetOwned(ctx context.Context, id, userID string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID)
	return r.load(ctx, row, id)
}

func (r *ProjectRepository) load(ctx context.Context, row *sql.Row, id string) (*models.Project, error) {
	project, err := scanProject(row)
	if err != nil {
		return nil, notFound(err, "project", id)
	}

	outputs, err := r.outputs.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	project.Outputs = outputs
	return project, nil
}

// ListByUser returns the user's non-deleted projects newest first, each with its outputs.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	projects := []*models.Project{}
	byID := make(map[string]*models.Project)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
		byID[project.ID] = project
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	// release the connection before the outputs query
	rows.Close()

	outputs, err := r.outputs.listWhere(ctx, `o.project_id IN (SELECT id FROM projects WHERE user_id = ? AND deleted_at IS NULL)`, userID)
	if err != nil {
		return nil, err
	}
	for _, o := range outputs {
		if p, ok := byID[o.ProjectID]; ok {
			p.Outputs = append(p.Outputs, o)
		}
	}
	return projects, nil
}

// Advance moves a project to next, writing any columns in update in the same statement.
//
// The transition must keep the pipeline moving forward; terminal projects never change.
// The write is conditional on the status read, so a concurrent change fails with [shared.ErrInvalidTransition].
func (r *ProjectRepository) Advance(ctx context.Context, id string, next models.Status, update ProjectUpdate) error {
	var current models.Status
	err := r.db.QueryRowContext(ctx, `SELECT status FROM projects WHERE id = ? AND deleted_at IS NULL`, id).Scan(&current)
	if err != nil {
		return notFound(err, "project", id)
	}

	if !current.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, current, next)
	}

	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{next, now()}
	if update.Transcript != nil {
		sets = append(sets, "transcript = ?")
		args = append(args, *update.Transcript)
	}
	if update.MasterAnalysis != nil {
		sets = append(sets, "master_analysis = ?")
		args = append(args, *update.MasterAnalysis)
	}
	args = append(args, id, current)

	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s changed concurrently", shared.ErrInvalidTransition, id)
	}
	return nil
}

// SoftDelete marks a project owned by userID as deleted.
func (r *ProjectRepository) SoftDelete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET deleted_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		now(), now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return expectRows(result, "project", id)
}

func scanProject(s scanner) (*models.Project, error) {
	var (
		p                                              models.Project
		inputText, fileURL, transcript, masterAnalysis sql.NullString
		deletedAt                                      sql.NullTime
	)
	err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.InputType, &inputText, &fileURL, &transcript,
		&masterAnalysis, &p.Status, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	p.InputText = inputText.String
	p.FileURL = fileURL.String
	p.Transcript = transcript.String
	p.MasterAnalysis = masterAnalysis.String
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	p.Outputs = []*models.Output{}
	return &p, nil
}

func emptyAsNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
