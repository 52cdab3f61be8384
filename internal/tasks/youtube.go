package tasks

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/repositories"
	"github.com/desertthunder/contentforge/internal/services"
	"github.com/desertthunder/contentforge/internal/shared"
	"golang.org/x/oauth2"
)

const (
	// MaxVideoBytes is the largest Short accepted for upload.
	MaxVideoBytes = 100 << 20

	defaultShortTitle = "Untitled Short"
	// used when Google omits expires_in
	defaultTokenLifetime = time.Hour
)

// VideoTypes are the accepted upload content types.
var VideoTypes = []string{"video/mp4", "video/quicktime", "video/webm"}

// YouTubeAPI is the subset of [services.YouTubeClient] the publisher calls.
type YouTubeAPI interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Channel(ctx context.Context, accessToken string) (*services.Channel, error)
	Upload(ctx context.Context, accessToken string, video services.VideoUpload) (*services.UploadedVideo, error)
	Revoke(ctx context.Context, token string) error
}

// UploadRequest is a Short submitted by a user.
type UploadRequest struct {
	Title         string
	Description   string
	Tags          []string
	PrivacyStatus string
	ContentType   string
	Size          int64
	Body          io.Reader
}

// Validate checks the video type and size.
func (r UploadRequest) Validate() error {
	if r.Body == nil {
		return fmt.Errorf("%w: no video file provided", shared.ErrInvalidInput)
	}
	if !slices.Contains(VideoTypes, r.ContentType) {
		return fmt.Errorf("%w: invalid video format. Supported: MP4, MOV, WEBM. Got: %s", shared.ErrUpload, r.ContentType)
	}
	if r.Size > MaxVideoBytes {
		return fmt.Errorf("%w: file too large. Maximum size is 100MB", shared.ErrUpload)
	}
	return nil
}

// ParseTags accepts a JSON array of strings or a comma-separated list.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err == nil {
		return tags
	}

	for t := range strings.SplitSeq(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type oauthState struct {
	UserID string `json:"userId"`
}

// EncodeState packs userID into the OAuth state parameter.
func EncodeState(userID string) string {
	data, _ := json.Marshal(oauthState{UserID: userID})
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeState returns the user ID carried by state, or [shared.ErrInvalidState].
func DecodeState(state string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		if data, err = base64.URLEncoding.DecodeString(state); err != nil {
			return "", shared.ErrInvalidState
		}
	}

	var s oauthState
	if err := json.Unmarshal(data, &s); err != nil || s.UserID == "" {
		return "", shared.ErrInvalidState
	}
	return s.UserID, nil
}

// YouTubePublisher manages per-user YouTube connections and publishes Shorts.
type YouTubePublisher struct {
	api         YouTubeAPI
	connections *repositories.YouTubeConnectionRepository
	logger      *log.Logger
	now         func() time.Time
}

// NewYouTubePublisher creates a publisher. A nil api means the integration is not configured.
func NewYouTubePublisher(db *sql.DB, api YouTubeAPI, logger *log.Logger) *YouTubePublisher {
	return &YouTubePublisher{
		api:         api,
		connections: repositories.NewYouTubeConnectionRepository(db),
		logger:      shared.WithLogger(logger, "component", "youtube"),
		now:         time.Now,
	}
}

// Configured reports whether OAuth credentials are available.
func (p *YouTubePublisher) Configured() bool { return p.api != nil }

// ConnectURL returns Google's consent URL for userID.
func (p *YouTubePublisher) ConnectURL(userID string) (string, error) {
	if !p.Configured() {
		return "", shared.ErrYouTubeNotConfigured
	}
	return p.api.AuthCodeURL(EncodeState(userID)), nil
}

// HandleCallback completes the OAuth flow and stores the user's connection.
func (p *YouTubePublisher) HandleCallback(ctx context.Context, code, state string) (*models.YouTubeConnection, error) {
	if !p.Configured() {
		return nil, shared.ErrYouTubeNotConfigured
	}
	userID, err := DecodeState(state)
	if err != nil {
		return nil, err
	}

	token, err := p.api.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	channel, err := p.api.Channel(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	conn := &models.YouTubeConnection{
		UserID:       userID,
		ChannelID:    channel.ID,
		ChannelTitle: channel.Title,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    p.expiry(token),
		Scope:        services.TokenScope(token),
	}
	if err := p.connections.Upsert(ctx, conn); err != nil {
		return nil, err
	}

	p.logger.Info("YouTube connected", "user", userID, "channel", channel.Title)
	return conn, nil
}

// AccessToken returns a token valid for at least [models.TokenRefreshBuffer], refreshing and
// persisting a new one when the stored token is about to expire.
func (p *YouTubePublisher) AccessToken(ctx context.Context, userID string) (string, error) {
	if !p.Configured() {
		return "", shared.ErrYouTubeNotConfigured
	}

	conn, err := p.connection(ctx, userID)
	if err != nil {
		return "", err
	}
	if conn.Usable(p.now(), models.TokenRefreshBuffer) {
		return conn.AccessToken, nil
	}

	token, err := p.api.Refresh(ctx, conn.RefreshToken)
	if err != nil {
		return "", err
	}
	if err := p.connections.UpdateToken(ctx, userID, token.AccessToken, token.RefreshToken, p.expiry(token)); err != nil {
		return "", err
	}

	p.logger.Debug("Access token refreshed", "user", userID)
	return token.AccessToken, nil
}

// Upload publishes a Short on the user's channel.
func (p *YouTubePublisher) Upload(ctx context.Context, userID string, req UploadRequest) (*services.UploadedVideo, error) {
	if !p.Configured() {
		return nil, shared.ErrYouTubeNotConfigured
	}
	if _, err := p.connection(ctx, userID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := p.AccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultShortTitle
	}
	privacy := "public"
	if req.PrivacyStatus == "unlisted" {
		privacy = "unlisted"
	}

	video, err := p.api.Upload(ctx, token, services.VideoUpload{
		Title:         title,
		Description:   req.Description,
		Tags:          req.Tags,
		PrivacyStatus: privacy,
		ContentType:   req.ContentType,
		Size:          req.Size,
		Body:          req.Body,
	})
	if err != nil {
		p.logger.Error("YouTube upload failed", "user", userID, "error", err)
		return nil, err
	}

	p.logger.Info("Short uploaded", "user", userID, "video", video.VideoID)
	return video, nil
}

// Status summarizes the user's connection.
func (p *YouTubePublisher) Status(ctx context.Context, userID string) (*models.YouTubeStatus, error) {
	status := &models.YouTubeStatus{Configured: p.Configured()}

	conn, err := p.connections.GetByUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}

	status.Connected = true
	status.ChannelTitle = conn.ChannelTitle
	status.ChannelID = conn.ChannelID
	return status, nil
}

// Disconnect removes the user's connection. Revoking the token at Google is best effort.
func (p *YouTubePublisher) Disconnect(ctx context.Context, userID string) error {
	conn, err := p.connections.GetByUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if p.Configured() {
		if err := p.api.Revoke(ctx, conn.AccessToken); err != nil {
			p.logger.Warn("Token revoke failed", "user", userID, "error", err)
		}
	}
	return p.connections.DeleteByUser(ctx, userID)
}

func (p *YouTubePublisher) connection(ctx context.Context, userID string) (*models.YouTubeConnection, error) {
	conn, err := p.connections.GetByUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrYouTubeNotConnected
	}
	return conn, err
}

func (p *YouTubePublisher) expiry(token *oauth2.Token) time.Time {
	if token.Expiry.IsZero() {
		return p.now().Add(defaultTokenLifetime)
	}
	return token.Expiry
}
