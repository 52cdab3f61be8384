package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

const userColumns = `id, email, name, plan, usage_count, onboarding_step, onboarding_completed, brand_voice, created_at, updated_at`

// UserRepository persists [models.User].
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with a generated ID.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = shared.GenerateID()
	if user.Plan == "" {
		user.Plan = models.PlanFree
	}
	user.Touch(now())

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.Plan, user.UsageCount, user.OnboardingStep,
		user.OnboardingCompleted, nullString(user.BrandVoice), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return user, nil
}

// EnsureUser returns the user with email, creating it on plan if absent.
func (r *UserRepository) EnsureUser(ctx context.Context, email, name string, plan models.Plan) (*models.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	user = models.NewUser(email, name, plan)
	if err := r.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return users, nil
}

// UpdateSettings applies the non-nil fields of settings and returns the updated user.
func (r *UserRepository) UpdateSettings(ctx context.Context, id string, settings models.Settings) (*models.User, error) {
	if err := settings.Normalize(); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = COALESCE(?, name),
			brand_voice = CASE WHEN ? THEN ? ELSE brand_voice END,
			updated_at = ?
		WHERE id = ?
	`, nullString(settings.Name), settings.BrandVoice != nil, nullString(settings.BrandVoice), now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	if err := expectRows(result, "user", id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// UpdateOnboarding applies the non-nil fields of progress and returns the updated user.
func (r *UserRepository) UpdateOnboarding(ctx context.Context, id string, progress models.Onboarding) (*models.User, error) {
	if err := progress.Validate(); err != nil {
		return nil, err
	}

	var step sql.NullInt64
	if progress.Step != nil {
		step = sql.NullInt64{Int64: int64(*progress.Step), Valid: true}
	}
	var completed sql.NullBool
	if progress.Completed != nil {
		completed = sql.NullBool{Bool: *progress.Completed, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET onboarding_step = COALESCE(?, onboarding_step),
			onboarding_completed = COALESCE(?, onboarding_completed),
			updated_at = ?
		WHERE id = ?
	`, step, completed, now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update onboarding: %w", err)
	}
	if err := expectRows(result, "user", id); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// IncrementUsage adds one to the user's usage counter.
func (r *UserRepository) IncrementUsage(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET usage_count = usage_count + 1, updated_at = ? WHERE id = ?`, now(), id)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return expectRows(result, "user", id)
}

// SetPlan changes the user's plan tier.
func (r *UserRepository) SetPlan(ctx context.Context, id string, plan models.Plan) error {
	if !plan.Valid() {
		return fmt.Errorf("%w: unknown plan %q", shared.ErrInvalidInput, plan)
	}
	result, err := r.db.ExecContext(ctx, `UPDATE users SET plan = ?, updated_at = ? WHERE id = ?`, plan, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set plan: %w", err)
	}
	return expectRows(result, "user", id)
}

func scanUser(s scanner) (*models.User, error) {
	var (
		user       models.User
		brandVoice sql.NullString
	)
	err := s.Scan(&user.ID, &user.Email, &user.Name, &user.Plan, &user.UsageCount, &user.OnboardingStep,
		&user.OnboardingCompleted, &brandVoice, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.BrandVoice = stringPtr(brandVoice)
	return &user, nil
}
