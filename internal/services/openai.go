package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const defaultModel = "gpt-4o-mini"

// FileResolver maps an upload reference to a local file path.
type FileResolver interface {
	Path(ref string) (string, error)
}

// OpenAIClient implements [AI] with the OpenAI chat completion and transcription APIs.
//
// Every call is rate limited, bounded by the configured timeout and retried on 429, 5xx and
// network errors.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	retry   shared.RetryConfig
	limiter *rate.Limiter
	files   FileResolver
	logger  *log.Logger
}

// NewOpenAIClient creates a client from cfg. files may be nil when transcription is not needed.
func NewOpenAIClient(cfg shared.AIConfig, files FileResolver, logger *log.Logger) *OpenAIClient {
	return NewOpenAIClientWithHTTP(cfg, files, logger, http.DefaultClient)
}

// NewOpenAIClientWithHTTP is [NewOpenAIClient] with an explicit HTTP client.
func NewOpenAIClientWithHTTP(cfg shared.AIConfig, files FileResolver, logger *log.Logger, httpClient *http.Client) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = httpClient

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	retry := shared.DefaultRetryConfig
	retry.MaxRetries = max(cfg.MaxRetries, 0)

	c := &OpenAIClient{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		timeout: cfg.Timeout(),
		retry:   retry,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		files:   files,
		logger:  shared.WithLogger(logger, "provider", "openai"),
	}
	c.retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.logger.Warn("Retrying provider call", "attempt", attempt, "wait", wait, "error", err)
	}
	return c
}

// WithRetry replaces the retry policy.
func (c *OpenAIClient) WithRetry(rc shared.RetryConfig) *OpenAIClient {
	c.retry = rc
	return c
}

func (c *OpenAIClient) Name() string { return "openai" }

// Transcribe sends the referenced audio or video file to the transcription endpoint.
func (c *OpenAIClient) Transcribe(ctx context.Context, source string) (string, error) {
	if c.files == nil {
		return "", fmt.Errorf("%w: transcription storage not configured", shared.ErrProvider)
	}
	path, err := c.files.Path(source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrProvider, err)
	}

	resp, err := call(ctx, c, func(ctx context.Context) (openai.AudioResponse, error) {
		return c.client.CreateTranscription(ctx, openai.AudioRequest{Model: openai.Whisper1, FilePath: path})
	})
	if err != nil {
		return "", fmt.Errorf("%w: transcription: %v", shared.ErrProvider, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Analyze asks the model for the master analysis of text.
func (c *OpenAIClient) Analyze(ctx context.Context, text string) (models.MasterAnalysis, error) {
	content, err := c.complete(ctx, analysisPrompt, text)
	if err != nil {
		return models.MasterAnalysis{}, fmt.Errorf("%w: analysis: %v", shared.ErrProvider, err)
	}

	if !json.Valid([]byte(content)) {
		return models.MasterAnalysis{}, fmt.Errorf("%w: analysis response is not valid JSON", shared.ErrProvider)
	}
	return models.ParseAnalysis(content), nil
}

// Generate produces content for one platform. SHORT_VIDEO output is validated and normalized.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerationRequest) GenerationResult {
	content, err := c.complete(ctx, systemPrompt(req), userPrompt(req))
	if err != nil {
		c.logger.Warn("Generation failed", "platform", req.Platform, "error", err)
		return GenerationFailed(req.Platform, err)
	}

	if req.Platform == models.PlatformShortVideo {
		script, err := models.ParseShortVideoScript(content)
		if err != nil {
			return GenerationFailed(req.Platform, err)
		}
		script.Normalize()
		if content, err = script.Encode(); err != nil {
			return GenerationFailed(req.Platform, err)
		}
	}

	if content == "" {
		return GenerationFailed(req.Platform, errors.New("provider returned empty content"))
	}
	return Generated(req.Platform, content)
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := call(ctx, c, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("provider returned no choices")
	}
	return stripFences(resp.Choices[len(resp.Choices)-1].Message.Content), nil
}

// call runs fn under the rate limiter, per-attempt timeout and retry policy.
func call[T any](ctx context.Context, c *OpenAIClient, fn func(context.Context) (T, error)) (T, error) {
	return shared.RetryDo(ctx, c.retry, func() (T, error) {
		var zero T
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		result, err := fn(attemptCtx)
		if err != nil {
			if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return zero, fmt.Errorf("%w after %s", shared.ErrTimeout, c.timeout)
			}
			return zero, statusError(err)
		}
		return result, nil
	})
}

// statusError converts go-openai HTTP failures to [shared.StatusError] so retry classification applies.
func statusError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &shared.StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &shared.StatusError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}
