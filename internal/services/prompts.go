package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/contentforge/internal/models"
)

const analysisPrompt = `You analyze transcripts for a content repurposing tool.
Extract the main topics, the most quotable lines (verbatim), the core arguments, a one-paragraph
narrative arc and the practical takeaways.

Return only a JSON object with this shape and no markdown fencing:
{"topics": [], "keyQuotes": [], "coreArguments": [], "narrativeArc": "", "takeaways": []}`

var platformInstructions = map[models.Platform]string{
	models.PlatformTwitter: `Write a Twitter/X thread of 6 to 10 numbered tweets ("1/", "2/"...).
Open with a hook, keep each tweet under 280 characters and finish with a call to engage.`,
	models.PlatformLinkedIn: `Write a LinkedIn post of 150 to 300 words. Start with a short personal hook line,
use line breaks generously, include one concrete result and end with a question.`,
	models.PlatformInstagram: `Write an Instagram carousel of 6 to 10 slides. Label each slide "SLIDE N:" and keep
every slide to a headline plus at most three short lines. The last slide asks viewers to save or share.`,
	models.PlatformBlog: `Write an SEO-friendly blog post in Markdown of 800 to 1200 words with a title,
an introduction, H2 sections and a conclusion.`,
	models.PlatformNewsletter: `Write an email newsletter with a "Subject:" line, a friendly greeting, three
short sections built from the takeaways and a sign-off.`,
	models.PlatformThreads: `Write a Threads post of at most 500 characters: one strong opinion and one supporting line.`,
	models.PlatformQuoteCard: `Pick the single most shareable quote and return it in double quotes, nothing else.`,
}

const shortVideoInstructions = `You write YouTube Shorts scripts.

SCRIPT RULES:
- Total duration must be between %d and %d seconds
- The hook is a pattern interrupt, question or bold statement of at most 15 words
- Structure: hook, context, two or three key points, call to action
- Keep the language conversational and energetic

METADATA RULES:
- Title is curiosity driven, contains a keyword and is at most %d characters
- Description starts with %s and is at most %d characters
- 5 to 10 tags mixing broad and niche terms
- 3 to 5 hashtags with %s first
- Visual direction is actionable for a solo creator with a phone

Return only a JSON object with this shape and no markdown fencing:
{"hook": "", "script": [{"text": "", "duration": 5, "visualNote": ""}], "cta": "", "totalDuration": 40,
 "title": "", "description": "", "tags": [], "hashtags": [], "visualDirection": ""}`

// systemPrompt returns the system message for generating platform content.
func systemPrompt(req GenerationRequest) string {
	var b strings.Builder
	if req.Platform == models.PlatformShortVideo {
		fmt.Fprintf(&b, shortVideoInstructions,
			models.MinShortVideoSeconds, models.MaxShortVideoSeconds,
			models.MaxVideoTitleLength, models.ShortsTag, models.MaxVideoDescLength, models.ShortsTag)
	} else {
		b.WriteString("You repurpose long-form content into platform-native posts.\n\n")
		instructions, ok := platformInstructions[req.Platform]
		if !ok {
			instructions = fmt.Sprintf("Write a %s.", req.Platform.Label())
		}
		b.WriteString(instructions)
		b.WriteString("\n\nReturn only the post text.")
	}

	if voice := strings.TrimSpace(req.BrandVoice); voice != "" {
		fmt.Fprintf(&b, "\n\nWrite in this brand voice: %s", voice)
	}
	return b.String()
}

// userPrompt renders the analysis and transcript as the user message.
func userPrompt(req GenerationRequest) string {
	var b strings.Builder
	a := req.Analysis

	b.WriteString("CONTENT ANALYSIS\n")
	writeList(&b, "Topics", a.Topics)
	writeList(&b, "Key quotes", a.KeyQuotes)
	writeList(&b, "Core arguments", a.CoreArguments)
	if a.NarrativeArc != "" {
		fmt.Fprintf(&b, "Narrative arc: %s\n", a.NarrativeArc)
	}
	writeList(&b, "Takeaways", a.Takeaways)

	if t := strings.TrimSpace(req.Transcript); t != "" {
		b.WriteString("\nTRANSCRIPT\n")
		b.WriteString(t)
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// stripFences removes a surrounding markdown code fence from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
