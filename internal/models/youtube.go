package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/contentforge/internal/shared"
)

// TokenRefreshBuffer is how long before expiry an access token stops being handed out.
const TokenRefreshBuffer = 5 * time.Minute

// YouTubeConnection holds a user's OAuth tokens and channel identity. One per user.
type YouTubeConnection struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Scope        string    `json:"scope"`
	Timestamps
}

func (c *YouTubeConnection) Key() string { return c.ID }

// Validate checks the fields required to call the API.
func (c *YouTubeConnection) Validate() error {
	if c.ID == "" || c.UserID == "" {
		return fmt.Errorf("%w: connection id and user are required", shared.ErrInvalidInput)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: access token is required", shared.ErrInvalidInput)
	}
	if c.ExpiresAt.IsZero() {
		return fmt.Errorf("%w: token expiry is required", shared.ErrInvalidInput)
	}
	return nil
}

// Usable reports whether the access token is valid for more than buffer past now.
func (c *YouTubeConnection) Usable(now time.Time, buffer time.Duration) bool {
	return c.ExpiresAt.After(now.Add(buffer))
}

// YouTubeStatus is the connection summary shown on the settings page.
type YouTubeStatus struct {
	Configured   bool   `json:"configured"`
	Connected    bool   `json:"connected"`
	ChannelTitle string `json:"channelTitle,omitempty"`
	ChannelID    string `json:"channelId,omitempty"`
}
