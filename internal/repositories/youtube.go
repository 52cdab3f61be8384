package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

const connectionColumns = `id, user_id, channel_id, channel_title, access_token, refresh_token, expires_at, scope, created_at, updated_at`

// YouTubeConnectionRepository persists [models.YouTubeConnection], one row per user.
type YouTubeConnectionRepository struct {
	db *sql.DB
}

// NewYouTubeConnectionRepository creates a new [YouTubeConnectionRepository] with the given database connection
func NewYouTubeConnectionRepository(db *sql.DB) *YouTubeConnectionRepository {
	return &YouTubeConnectionRepository{db: db}
}

// Upsert stores the user's connection, replacing any previous one.
// An empty refresh token keeps the stored one, since Google only returns it on first consent.
func (r *YouTubeConnectionRepository) Upsert(ctx context.Context, conn *models.YouTubeConnection) error {
	if conn.ID == "" {
		conn.ID = shared.GenerateID()
	}
	conn.Touch(now())
	conn.ExpiresAt = conn.ExpiresAt.UTC()

	if err := conn.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO youtube_connections (`+connectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			channel_title = excluded.channel_title,
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN youtube_connections.refresh_token ELSE excluded.refresh_token END,
			expires_at = excluded.expires_at,
			scope = excluded.scope,
			updated_at = excluded.updated_at
	`, conn.ID, conn.UserID, conn.ChannelID, conn.ChannelTitle, conn.AccessToken, conn.RefreshToken,
		conn.ExpiresAt, conn.Scope, conn.CreatedAt, conn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert youtube connection: %w", err)
	}
	return nil
}

// GetByUser returns the user's connection.
func (r *YouTubeConnectionRepository) GetByUser(ctx context.Context, userID string) (*models.YouTubeConnection, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM youtube_connections WHERE user_id = ?`, userID)

	var c models.YouTubeConnection
	err := row.Scan(&c.ID, &c.UserID, &c.ChannelID, &c.ChannelTitle, &c.AccessToken, &c.RefreshToken,
		&c.ExpiresAt, &c.Scope, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "youtube connection", userID)
	}
	return &c, nil
}

// UpdateToken persists a refreshed access token. An empty refreshToken keeps the stored one.
func (r *YouTubeConnectionRepository) UpdateToken(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE youtube_connections
		SET access_token = ?,
			refresh_token = CASE WHEN ? = '' THEN refresh_token ELSE ? END,
			expires_at = ?,
			updated_at = ?
		WHERE user_id = ?
	`, accessToken, refreshToken, refreshToken, expiresAt.UTC(), now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update youtube token: %w", err)
	}
	return expectRows(result, "youtube connection", userID)
}

// DeleteByUser removes the user's connection. Deleting nothing is not an error.
func (r *YouTubeConnectionRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM youtube_connections WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete youtube connection: %w", err)
	}
	return nil
}
