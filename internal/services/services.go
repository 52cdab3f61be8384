package services

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
)

// Transcriber turns an uploaded audio or video reference into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, source string) (string, error)
}

// Analyzer extracts the master analysis from a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (models.MasterAnalysis, error)
}

// Generator produces content for one platform.
//
// Generate never returns an error: failures are reported in the [GenerationResult].
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) GenerationResult
}

// AI bundles the three collaborators the pipeline calls, plus a display name.
type AI interface {
	Transcriber
	Analyzer
	Generator
	Name() string
}

// GenerationRequest is the input for one platform generation.
type GenerationRequest struct {
	Platform   models.Platform
	Analysis   models.MasterAnalysis
	Transcript string
	BrandVoice string
}

// GenerationResult is either generated content or an error message for a platform, never both.
type GenerationResult struct {
	Platform models.Platform
	Content  string
	Error    string
}

// Generated is the success variant of [GenerationResult].
func Generated(platform models.Platform, content string) GenerationResult {
	return GenerationResult{Platform: platform, Content: content}
}

// GenerationFailed is the failure variant of [GenerationResult].
func GenerationFailed(platform models.Platform, err error) GenerationResult {
	msg := "Generation failed"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return GenerationResult{Platform: platform, Error: msg}
}

// OK reports whether generation succeeded.
func (r GenerationResult) OK() bool {
	return r.Error == ""
}

// Err returns the failure as an error wrapping [shared.ErrGeneration], or nil.
func (r GenerationResult) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %s", shared.ErrGeneration, r.Error)
}

// NewAI returns the collaborator selected by cfg: the OpenAI client when a key is configured
// and the provider is "openai", otherwise the deterministic mock.
func NewAI(cfg shared.AIConfig, files FileResolver, logger *log.Logger) AI {
	if cfg.UseMock() {
		if cfg.Provider == "openai" {
			logger.Warn("OpenAI provider selected without an API key, using mock AI")
		}
		return NewMockAI()
	}
	return NewOpenAIClient(cfg, files, logger)
}
