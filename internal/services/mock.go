package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/contentforge/internal/models"
)

// MockAI is a deterministic [AI] used when no provider is configured and in tests.
//
// Failures can be injected per phase and per platform. Delay, when set, is applied to every call
// and respects context cancellation.
type MockAI struct {
	TranscribeErr error
	AnalyzeErr    error
	Failures      map[models.Platform]error
	Delay         time.Duration

	mu    sync.Mutex
	calls map[models.Platform]int
}

// NewMockAI creates a mock with no injected failures.
func NewMockAI() *MockAI {
	return &MockAI{Failures: map[models.Platform]error{}, calls: map[models.Platform]int{}}
}

func (m *MockAI) Name() string { return "mock" }

func (m *MockAI) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Transcribe returns the sample transcript.
func (m *MockAI) Transcribe(ctx context.Context, source string) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	if m.TranscribeErr != nil {
		return "", m.TranscribeErr
	}
	return SampleTranscript, nil
}

// Analyze returns the sample analysis.
func (m *MockAI) Analyze(ctx context.Context, text string) (models.MasterAnalysis, error) {
	if err := m.wait(ctx); err != nil {
		return models.MasterAnalysis{}, err
	}
	if m.AnalyzeErr != nil {
		return models.MasterAnalysis{}, m.AnalyzeErr
	}
	return SampleAnalysis(), nil
}

// Generate returns canned content for the platform, or the injected failure.
func (m *MockAI) Generate(ctx context.Context, req GenerationRequest) GenerationResult {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[models.Platform]int{}
	}
	m.calls[req.Platform]++
	failure := m.Failures[req.Platform]
	m.mu.Unlock()

	if err := m.wait(ctx); err != nil {
		return GenerationFailed(req.Platform, err)
	}
	if failure != nil {
		return GenerationFailed(req.Platform, failure)
	}
	return Generated(req.Platform, SampleContent(req.Platform))
}

// Calls reports how many times Generate ran for platform.
func (m *MockAI) Calls(platform models.Platform) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[platform]
}

// SampleTranscript is the canned transcript returned by [MockAI].
const SampleTranscript = `[00:00] Welcome back to the show. Today we're talking about content repurposing, the habit that separates creators who burn out from creators who grow.

[00:30] Most long-form pieces take six to eight hours to make, and most of them are published once, in one place, and forgotten. That leaves the majority of the work's value unused.

[01:20] Repurposing is not copy-pasting. Every platform has its own language: short takes on Twitter, stories on LinkedIn, visual structure on Instagram, depth on a blog.

[02:10] The workflow I use has three steps. Make one master piece. Mine it for themes, quotes and frameworks. Then reshape each nugget for the platform it is going to.

[03:00] One client tripled their reach in a quarter without making a single extra video. They just distributed what they already had.

[03:40] To start: pick one extra platform, build a template for it, batch the work into one day a week, and let AI tools draft while you edit. Create once, distribute everywhere.`

// SampleAnalysis is the canned analysis returned by [MockAI].
func SampleAnalysis() models.MasterAnalysis {
	return models.MasterAnalysis{
		Topics: []string{
			"Content repurposing",
			"Platform-native formats",
			"Creator workflow",
			"Audience growth",
		},
		KeyQuotes: []string{
			"Repurposing is not copy-pasting.",
			"Every platform has its own language.",
			"Create once, distribute everywhere.",
		},
		CoreArguments: []string{
			"Publishing long-form work once wastes most of its value",
			"Each platform needs the idea reshaped, not cross-posted",
			"A master piece, an analysis pass and a distribution pass make repurposing repeatable",
		},
		NarrativeArc: "Opens with the cost of single-platform publishing, introduces a three-step repurposing workflow, backs it with a client result and closes with four practical starting steps.",
		Takeaways: []string{
			"Start with one extra platform",
			"Use a template per format",
			"Batch repurposing into one day a week",
			"Let AI draft and edit the result yourself",
		},
	}
}

// SampleShortVideo is the canned SHORT_VIDEO script.
func SampleShortVideo() models.ShortVideoScript {
	return models.ShortVideoScript{
		Hook: "You're throwing away most of every video you make.",
		Script: []models.ScriptSegment{
			{Text: "You spend hours on one video, post it once, and move on.", Duration: 6, VisualNote: "Talking head, quick zoom on 'once'"},
			{Text: "Each platform speaks its own language, so copy-pasting flops.", Duration: 10, VisualNote: "Split screen of four app feeds"},
			{Text: "Make one master piece, pull out the best ideas, reshape each one per platform.", Duration: 14, VisualNote: "Three numbered text overlays"},
			{Text: "One creator tripled their reach in three months doing just this.", Duration: 8, VisualNote: "Animated growth chart"},
		},
		CTA:             "Follow for the full repurposing template.",
		TotalDuration:   43,
		Title:           "Stop Wasting Your Content: The 3-Step Repurposing Method",
		Description:     "#shorts Turn one video into a week of posts with a simple repurposing workflow. #contentcreator #marketing",
		Tags:            []string{"content repurposing", "creator tips", "social media strategy", "youtube shorts", "content marketing"},
		Hashtags:        []string{"#shorts", "#contentcreator", "#marketing"},
		VisualDirection: "Single creator facing a phone camera, bold captions, a hard cut every segment.",
	}
}

// SampleContent returns the canned content for platform.
func SampleContent(platform models.Platform) string {
	switch platform {
	case models.PlatformTwitter:
		return `1/ Most creators spend a full day on one piece of content, publish it once and forget it.

2/ That's most of its value left on the table. The problem isn't creation, it's distribution.

3/ Repurposing isn't copy-pasting. Twitter wants hot takes. LinkedIn wants stories. Instagram wants visuals.

4/ My workflow: make one master piece, mine it for ideas, reshape each idea per platform.

5/ One client tripled their reach in a quarter without making anything new.

6/ Create once, distribute everywhere. Which platform are you adding next?`
	case models.PlatformLinkedIn:
		return `I spent eight hours on a video last month. It reached 200 people.

The content wasn't the problem. I published it once and moved on.

Here's the workflow that changed that:
→ Make one deep master piece
→ Pull out the themes, quotes and frameworks
→ Reshape each one for the platform it's going to

One client tripled their reach in 90 days without creating anything new.

Create once, distribute everywhere.

What would you repurpose first?`
	case models.PlatformInstagram:
		return `SLIDE 1:
You're wasting most of your content

SLIDE 2:
Hours of work, posted once, on one platform

SLIDE 3:
Every platform speaks its own language

SLIDE 4:
Step 1: Make one master piece
Step 2: Mine it for ideas
Step 3: Reshape per platform

SLIDE 5:
Save this and tag a creator who needs it`
	case models.PlatformBlog:
		return `# Create Once, Distribute Everywhere

Most long-form content is published once and forgotten. Here's a repeatable way to get more from every piece.

## The cost of single-platform publishing

A podcast episode or video takes hours to make. Publishing it in one place reaches one audience in one format.

## Repurposing is not cross-posting

Each platform rewards something different. The same idea has to be reshaped, not pasted.

## A three-step workflow

1. **Master piece.** Go deep on one topic.
2. **Analysis.** Extract themes, quotes and frameworks.
3. **Distribution.** Adapt each nugget to its platform.

## Getting started

Pick one extra platform, build a template, batch the work and let AI handle first drafts.`
	case models.PlatformNewsletter:
		return `Subject: The content you already made is worth more than you think

Hi there,

This week's idea is simple: stop making more, start distributing better.

Three steps:
- Make one master piece
- Pull out the best ideas
- Reshape each one for where it's going

Try it on your last episode and reply with what you made.

See you next week`
	case models.PlatformShortVideo:
		script := SampleShortVideo()
		content, err := script.Encode()
		if err != nil {
			return ""
		}
		return content
	case models.PlatformThreads:
		return `Hot take: you don't need more content. You need to distribute what you already made.

One video can be a thread, a carousel, a post and a newsletter. Same idea, different shape.`
	case models.PlatformQuoteCard:
		return `"Create once, distribute everywhere."`
	}
	return fmt.Sprintf("Generated content for %s.", platform.Label())
}
