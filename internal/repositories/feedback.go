package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

const feedbackColumns = `id, output_id, user_id, rating, comment, created_at, updated_at`

// FeedbackRepository persists [models.Feedback].
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new [FeedbackRepository] with the given database connection
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Upsert creates or replaces the (output, user) rating and returns the stored row.
func (r *FeedbackRepository) Upsert(ctx context.Context, feedback *models.Feedback) (*models.Feedback, error) {
	if err := feedback.Validate(); err != nil {
		return nil, err
	}

	ts := now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (`+feedbackColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (output_id, user_id) DO UPDATE SET
			rating = excluded.rating,
			comment = excluded.comment,
			updated_at = excluded.updated_at
	`, shared.GenerateID(), feedback.OutputID, feedback.UserID, feedback.Rating, nullString(feedback.Comment), ts, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert feedback: %w", err)
	}

	return r.Get(ctx, feedback.OutputID, feedback.UserID)
}

// Get returns the user's feedback on an output.
func (r *FeedbackRepository) Get(ctx context.Context, outputID, userID string) (*models.Feedback, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE output_id = ? AND user_id = ?`, outputID, userID)
	feedback, err := scanFeedback(row)
	if err != nil {
		return nil, notFound(err, "feedback", outputID)
	}
	return feedback, nil
}

// Delete removes the user's feedback on an output. Deleting nothing is not an error.
func (r *FeedbackRepository) Delete(ctx context.Context, outputID, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feedback WHERE output_id = ? AND user_id = ?`, outputID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	return nil
}

// Stats aggregates the user's feedback on outputs of their own projects.
func (r *FeedbackRepository) Stats(ctx context.Context, userID string) (*models.FeedbackStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.rating, f.comment, f.created_at, o.platform
		FROM feedback f
		JOIN outputs o ON o.id = f.output_id
		JOIN projects p ON p.id = o.project_id
		WHERE f.user_id = ? AND p.user_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	stats := &models.FeedbackStats{
		ByPlatform:     map[models.Platform]models.RatingCounts{},
		RecentComments: []models.RecentComment{},
	}
	for rows.Next() {
		var (
			rating    models.Rating
			comment   sql.NullString
			createdAt time.Time
			platform  models.Platform
		)
		if err := rows.Scan(&rating, &comment, &createdAt, &platform); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		stats.Total++
		switch rating {
		case models.ThumbsUp:
			stats.ThumbsUp++
		case models.ThumbsDown:
			stats.ThumbsDown++
		}

		counts := stats.ByPlatform[platform]
		counts.Add(rating)
		stats.ByPlatform[platform] = counts

		if comment.Valid && comment.String != "" && len(stats.RecentComments) < models.MaxRecentComments {
			stats.RecentComments = append(stats.RecentComments, models.RecentComment{
				Comment:   comment.String,
				Platform:  platform,
				Rating:    rating,
				CreatedAt: createdAt,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return stats, nil
}

func scanFeedback(s scanner) (*models.Feedback, error) {
	var (
		f       models.Feedback
		comment sql.NullString
	)
	if err := s.Scan(&f.ID, &f.OutputID, &f.UserID, &f.Rating, &comment, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Comment = stringPtr(comment)
	return &f, nil
}
