package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/contentforge/internal/shared"
)

// Short-video metadata limits.
const (
	ShortsTag            = "#shorts"
	MaxVideoTitleLength  = 100
	MaxVideoDescLength   = 500
	MinShortVideoSeconds = 30
	MaxShortVideoSeconds = 55
)

// ScriptSegment is one timed line of a short-video script.
type ScriptSegment struct {
	Text       string  `json:"text"`
	Duration   float64 `json:"duration"`
	VisualNote string  `json:"visualNote"`
}

// ShortVideoScript is the structured content of a SHORT_VIDEO output.
type ShortVideoScript struct {
	Hook            string          `json:"hook"`
	Script          []ScriptSegment `json:"script"`
	CTA             string          `json:"cta"`
	TotalDuration   float64         `json:"totalDuration"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Tags            []string        `json:"tags"`
	Hashtags        []string        `json:"hashtags"`
	VisualDirection string          `json:"visualDirection"`
}

// ParseShortVideoScript decodes a SHORT_VIDEO output's content.
func ParseShortVideoScript(content string) (*ShortVideoScript, error) {
	var s ShortVideoScript
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return nil, fmt.Errorf("%w: short video content is not a script: %v", shared.ErrInvalidInput, err)
	}
	return &s, nil
}

// Normalize enforces the upload metadata rules: #shorts leads the hashtags,
// title and description are truncated, and the total duration matches the segments when unset.
func (s *ShortVideoScript) Normalize() {
	tags := []string{ShortsTag}
	for _, h := range s.Hashtags {
		h = strings.TrimSpace(h)
		if h == "" || strings.EqualFold(h, ShortsTag) {
			continue
		}
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags = append(tags, h)
	}
	s.Hashtags = tags

	s.Title = truncateRunes(strings.TrimSpace(s.Title), MaxVideoTitleLength)
	s.Description = truncateRunes(strings.TrimSpace(s.Description), MaxVideoDescLength)

	if s.TotalDuration == 0 {
		for _, seg := range s.Script {
			s.TotalDuration += seg.Duration
		}
	}
}

// Encode serializes the script as output content.
func (s *ShortVideoScript) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EnsureShortsTag appends the #shorts classification tag to a description that lacks it.
func EnsureShortsTag(description string) string {
	if strings.Contains(strings.ToLower(description), ShortsTag) {
		return description
	}
	if strings.TrimSpace(description) == "" {
		return ShortsTag
	}
	return description + "\n\n" + ShortsTag
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
