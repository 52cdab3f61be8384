// YouTube Data API client: Google OAuth, channel lookup and resumable Shorts upload.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube OAuth scopes requested on connect.
var YouTubeScopes = []string{
	youtube.YoutubeUploadScope,
	youtube.YoutubeReadonlyScope,
}

const (
	// categoryPeopleAndBlogs is the upload category for Shorts.
	categoryPeopleAndBlogs = "22"
	shortsURLPrefix        = "https://youtube.com/shorts/"
	maxErrorBody           = 4096
)

// Channel identifies the authenticated user's YouTube channel.
type Channel struct {
	ID    string `json:"channelId"`
	Title string `json:"channelTitle"`
}

// VideoUpload is a Short to upload.
type VideoUpload struct {
	Title         string
	Description   string
	Tags          []string
	PrivacyStatus string
	ContentType   string
	Size          int64
	Body          io.Reader
}

// UploadedVideo is the result of a completed upload.
type UploadedVideo struct {
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
}

// YouTubeClient talks to Google's OAuth endpoints and the YouTube Data API.
type YouTubeClient struct {
	config     *oauth2.Config
	apiBaseURL string
	uploadURL  string
	revokeURL  string
	httpClient *http.Client
}

// NewYouTubeClient builds a client from cfg with redirectURL as the OAuth callback.
func NewYouTubeClient(cfg shared.YouTubeConfig, redirectURL string) *YouTubeClient {
	return &YouTubeClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       YouTubeScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: cfg.APIBaseURL,
		uploadURL:  cfg.UploadURL,
		revokeURL:  cfg.RevokeURL,
		httpClient: http.DefaultClient,
	}
}

// WithHTTPClient sets the HTTP client used for every request.
func (c *YouTubeClient) WithHTTPClient(h *http.Client) *YouTubeClient {
	c.httpClient = h
	return c
}

func (c *YouTubeClient) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthCodeURL returns the consent URL. Offline access and forced consent make Google return a
// refresh token on every connect.
func (c *YouTubeClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens.
func (c *YouTubeClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh obtains a new access token from refreshToken.
func (c *YouTubeClient) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	token, err := c.config.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return token, nil
}

// TokenScope returns the scope Google granted with token, if reported.
func TokenScope(token *oauth2.Token) string {
	if scope, ok := token.Extra("scope").(string); ok {
		return scope
	}
	return ""
}

func (c *YouTubeClient) authorized(ctx context.Context, accessToken string) *http.Client {
	return oauth2.NewClient(c.oauthContext(ctx), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

// Channel returns the channel of the token's owner.
func (c *YouTubeClient) Channel(ctx context.Context, accessToken string) (*Channel, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.authorized(ctx, accessToken))}
	if c.apiBaseURL != "" {
		opts = append(opts, option.WithEndpoint(c.apiBaseURL))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	resp, err := svc.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch channel info: %v", shared.ErrAPIRequest, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: no YouTube channel found for this account", shared.ErrAPIRequest)
	}

	ch := resp.Items[0]
	channel := &Channel{ID: ch.Id}
	if ch.Snippet != nil {
		channel.Title = ch.Snippet.Title
	}
	return channel, nil
}

// Upload performs both phases of a resumable upload.
func (c *YouTubeClient) Upload(ctx context.Context, accessToken string, video VideoUpload) (*UploadedVideo, error) {
	location, err := c.InitUpload(ctx, accessToken, video)
	if err != nil {
		return nil, err
	}
	return c.PutVideo(ctx, location, video)
}

// InitUpload starts a resumable upload and returns the one-time upload location.
//
// The description always carries #shorts and privacy is public unless unlisted was asked for.
func (c *YouTubeClient) InitUpload(ctx context.Context, accessToken string, video VideoUpload) (string, error) {
	privacy := "public"
	if video.PrivacyStatus == "unlisted" {
		privacy = "unlisted"
	}

	meta := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       video.Title,
			Description: models.EnsureShortsTag(video.Description),
			Tags:        video.Tags,
			CategoryId:  categoryPeopleAndBlogs,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
			Embeddable:              true,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode video metadata: %w", err)
	}

	u, err := url.Parse(c.uploadURL)
	if err != nil {
		return "", fmt.Errorf("invalid upload url: %w", err)
	}
	q := u.Query()
	q.Set("uploadType", "resumable")
	q.Set("part", "snippet,status")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", uploadContentType(video.ContentType))
	if video.Size > 0 {
		req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(video.Size, 10))
	}

	resp, err := c.authorized(ctx, accessToken).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: upload initialization failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		if isQuotaError(err) {
			return "", shared.ErrQuotaExceeded
		}
		return "", fmt.Errorf("%w: upload initialization failed: %v", shared.ErrAPIRequest, err)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: no upload URL returned from YouTube API", shared.ErrAPIRequest)
	}
	return location, nil
}

// PutVideo sends the video bytes to a location returned by [YouTubeClient.InitUpload].
func (c *YouTubeClient) PutVideo(ctx context.Context, location string, video VideoUpload) (*UploadedVideo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, video.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", uploadContentType(video.ContentType))
	if video.Size > 0 {
		req.ContentLength = video.Size
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: video upload failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("%w: video upload failed: %v", shared.ErrAPIRequest, err)
	}

	var uploaded youtube.Video
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploaded.Id == "" {
		return nil, fmt.Errorf("%w: upload response has no video id", shared.ErrAPIRequest)
	}
	return &UploadedVideo{VideoID: uploaded.Id, VideoURL: shortsURLPrefix + uploaded.Id}, nil
}

// Revoke invalidates token at Google.
func (c *YouTubeClient) Revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: revoke failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: revoke failed: %v", shared.ErrAPIRequest,
			&shared.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}
	return nil
}

func isQuotaError(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	for _, item := range gerr.Errors {
		if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
			return true
		}
	}
	return gerr.Code == http.StatusForbidden && strings.Contains(gerr.Body, "quotaExceeded")
}

func uploadContentType(ct string) string {
	if ct == "" {
		return "video/*"
	}
	return ct
}
