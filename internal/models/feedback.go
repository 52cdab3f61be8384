package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/contentforge/internal/shared"
)

// Rating is a thumbs up or down.
type Rating string

const (
	ThumbsUp   Rating = "THUMBS_UP"
	ThumbsDown Rating = "THUMBS_DOWN"
)

// MaxRecentComments bounds the comments returned with feedback stats.
const MaxRecentComments = 10

// Feedback is one user's rating of one output.
type Feedback struct {
	ID       string  `json:"id"`
	OutputID string  `json:"outputId"`
	UserID   string  `json:"userId"`
	Rating   Rating  `json:"rating"`
	Comment  *string `json:"comment"`
	Timestamps
}

// NewFeedback builds a rating; a blank comment is stored as none.
func NewFeedback(outputID, userID string, rating Rating, comment *string) *Feedback {
	f := &Feedback{OutputID: outputID, UserID: userID, Rating: rating}
	if comment != nil {
		if c := strings.TrimSpace(*comment); c != "" {
			f.Comment = &c
		}
	}
	return f
}

func (f *Feedback) Key() string { return f.ID }

// Validate checks the rating value and required references.
func (f *Feedback) Validate() error {
	if f.OutputID == "" {
		return fmt.Errorf("%w: outputId is required", shared.ErrInvalidInput)
	}
	if f.UserID == "" {
		return fmt.Errorf("%w: user is required", shared.ErrInvalidInput)
	}
	if f.Rating != ThumbsUp && f.Rating != ThumbsDown {
		return fmt.Errorf("%w: rating must be THUMBS_UP or THUMBS_DOWN", shared.ErrInvalidInput)
	}
	return nil
}

// RatingCounts tallies thumbs up and down.
type RatingCounts struct {
	ThumbsUp   int `json:"thumbsUp"`
	ThumbsDown int `json:"thumbsDown"`
}

// Add counts one rating.
func (c *RatingCounts) Add(r Rating) {
	switch r {
	case ThumbsUp:
		c.ThumbsUp++
	case ThumbsDown:
		c.ThumbsDown++
	}
}

// RecentComment is a comment shown in the stats summary.
type RecentComment struct {
	Comment   string    `json:"comment"`
	Platform  Platform  `json:"platform"`
	Rating    Rating    `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackStats aggregates a user's feedback across their own outputs.
type FeedbackStats struct {
	Total          int                       `json:"total"`
	ThumbsUp       int                       `json:"thumbsUp"`
	ThumbsDown     int                       `json:"thumbsDown"`
	ByPlatform     map[Platform]RatingCounts `json:"byPlatform"`
	RecentComments []RecentComment           `json:"recentComments"`
}
