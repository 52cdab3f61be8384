package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/contentforge/internal/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Platform identifies a target output format.
type Platform string

const (
	PlatformTwitter    Platform = "TWITTER"
	PlatformLinkedIn   Platform = "LINKEDIN"
	PlatformInstagram  Platform = "INSTAGRAM"
	PlatformBlog       Platform = "BLOG"
	PlatformNewsletter Platform = "NEWSLETTER"
	PlatformShortVideo Platform = "SHORT_VIDEO"
	PlatformThreads    Platform = "THREADS"
	PlatformQuoteCard  Platform = "QUOTE_CARD"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformInstagram,
	PlatformBlog,
	PlatformNewsletter,
	PlatformShortVideo,
	PlatformThreads,
	PlatformQuoteCard,
}

// labels that title-casing gets wrong
var platformLabels = map[Platform]string{
	PlatformTwitter:  "Twitter Thread",
	PlatformLinkedIn: "LinkedIn Post",
}

// Label is a human-readable name, e.g. "Short Video" for SHORT_VIDEO.
func (p Platform) Label() string {
	if l, ok := platformLabels[p]; ok {
		return l
	}
	// a Caser keeps state, so one per call
	return cases.Title(language.English).String(strings.ReplaceAll(string(p), "_", " "))
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePlatform accepts any case and "-" or "_" separators.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidInput, s)
	}
	return p, nil
}

// ParsePlatforms parses a non-empty list, dropping duplicates while keeping order.
func ParsePlatforms(values []string) ([]Platform, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: at least one platform is required", shared.ErrInvalidInput)
	}

	seen := make(map[Platform]bool, len(values))
	platforms := make([]Platform, 0, len(values))
	for _, v := range values {
		p, err := ParsePlatform(v)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		platforms = append(platforms, p)
	}
	return platforms, nil
}
