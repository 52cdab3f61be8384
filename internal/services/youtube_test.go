package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/contentforge/internal/shared"
	tu "github.com/desertthunder/contentforge/internal/testing"
)

const testRedirectURL = "http://localhost:3000/api/youtube/callback"

func TestYouTubeClientOAuth(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeGoogle(t)
	client := NewYouTubeClient(fake.Config(), testRedirectURL)

	t.Run("AuthCodeURL", func(t *testing.T) {
		u, err := url.Parse(client.AuthCodeURL("state-123"))
		if err != nil {
			t.Fatal(err)
		}
		q := u.Query()
		checks := map[string]string{
			"client_id":     "client-id",
			"redirect_uri":  testRedirectURL,
			"response_type": "code",
			"access_type":   "offline",
			"prompt":        "consent",
			"state":         "state-123",
		}
		for key, want := range checks {
			if got := q.Get(key); got != want {
				t.Errorf("%s = %q, want %q", key, got, want)
			}
		}
		if scope := q.Get("scope"); !strings.Contains(scope, "youtube.upload") || !strings.Contains(scope, "youtube.readonly") {
			t.Errorf("unexpected scope %q", scope)
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		token, err := client.Exchange(ctx, "good-code")
		if err != nil {
			t.Fatalf("Exchange failed: %v", err)
		}
		if token.AccessToken != "access-token" || token.RefreshToken != "refresh-token" {
			t.Errorf("unexpected token %+v", token)
		}
		if token.Expiry.IsZero() {
			t.Error("expected an expiry")
		}
		if !strings.Contains(TokenScope(token), "youtube.upload") {
			t.Errorf("unexpected scope %q", TokenScope(token))
		}
	})

	t.Run("Exchange rejected", func(t *testing.T) {
		if _, err := client.Exchange(ctx, "bad-code"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		token, err := client.Refresh(ctx, "refresh-token")
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if token.AccessToken != "refreshed-access-token" {
			t.Errorf("unexpected access token %q", token.AccessToken)
		}
	})

	t.Run("Refresh rejected", func(t *testing.T) {
		if _, err := client.Refresh(ctx, "revoked-refresh-token"); !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("expected ErrRefreshFailed, got %v", err)
		}
		if _, err := client.Refresh(ctx, ""); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("Revoke", func(t *testing.T) {
		if err := client.Revoke(ctx, "access-token"); err != nil {
			t.Fatalf("Revoke failed: %v", err)
		}
		if len(fake.Revoked) != 1 || fake.Revoked[0] != "access-token" {
			t.Errorf("unexpected revoked tokens %v", fake.Revoked)
		}

		fake.RevokeStatus = 400
		if err := client.Revoke(ctx, "access-token"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestYouTubeClientChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("returns channel", func(t *testing.T) {
		fake := tu.NewFakeGoogle(t)
		ch, err := NewYouTubeClient(fake.Config(), testRedirectURL).Channel(ctx, "access-token")
		if err != nil {
			t.Fatalf("Channel failed: %v", err)
		}
		if ch.ID != "UC-test-channel" || ch.Title != "Test Channel" {
			t.Errorf("unexpected channel %+v", ch)
		}
	})

	t.Run("account without channel", func(t *testing.T) {
		fake := tu.NewFakeGoogle(t)
		fake.ChannelID = ""
		_, err := NewYouTubeClient(fake.Config(), testRedirectURL).Channel(ctx, "access-token")
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "no YouTube channel") {
			t.Errorf("expected missing channel error, got %v", err)
		}
	})
}

func TestYouTubeClientUpload(t *testing.T) {
	ctx := context.Background()
	video := func(privacy string) VideoUpload {
		return VideoUpload{
			Title:         "My Short",
			Description:   "A quick tip",
			Tags:          []string{"go", "tips"},
			PrivacyStatus: privacy,
			ContentType:   "video/mp4",
			Size:          10,
			Body:          strings.NewReader("0123456789"),
		}
	}

	t.Run("two phase upload", func(t *testing.T) {
		fake := tu.NewFakeGoogle(t)
		uploaded, err := NewYouTubeClient(fake.Config(), testRedirectURL).Upload(ctx, "access-token", video("private"))
		if err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
		if uploaded.VideoID != "vid123" || uploaded.VideoURL != "https://youtube.com/shorts/vid123" {
			t.Errorf("unexpected result %+v", uploaded)
		}

		if fake.InitQuery.Get("uploadType") != "resumable" || fake.InitQuery.Get("part") != "snippet,status" {
			t.Errorf("unexpected init query %v", fake.InitQuery)
		}
		if got := fake.InitHeader.Get("X-Upload-Content-Type"); got != "video/mp4" {
			t.Errorf("X-Upload-Content-Type = %q", got)
		}
		if got := fake.InitHeader.Get("X-Upload-Content-Length"); got != "10" {
			t.Errorf("X-Upload-Content-Length = %q", got)
		}
		if got := fake.InitHeader.Get("Authorization"); got != "Bearer access-token" {
			t.Errorf("Authorization = %q", got)
		}

		snippet, _ := fake.InitMetadata["snippet"].(map[string]any)
		status, _ := fake.InitMetadata["status"].(map[string]any)
		if snippet["categoryId"] != "22" {
			t.Errorf("categoryId = %v", snippet["categoryId"])
		}
		if desc, _ := snippet["description"].(string); !strings.HasSuffix(desc, "#shorts") {
			t.Errorf("description should carry #shorts, got %q", desc)
		}
		if status["privacyStatus"] != "public" {
			t.Errorf("private requests fall back to public, got %v", status["privacyStatus"])
		}
		if v, ok := status["selfDeclaredMadeForKids"]; !ok || v != false {
			t.Errorf("selfDeclaredMadeForKids should be sent as false, got %v", v)
		}

		if string(fake.Uploaded) != "0123456789" {
			t.Errorf("unexpected uploaded bytes %q", fake.Uploaded)
		}
	})

	t.Run("unlisted is kept", func(t *testing.T) {
		fake := tu.NewFakeGoogle(t)
		if _, err := NewYouTubeClient(fake.Config(), testRedirectURL).Upload(ctx, "access-token", video("unlisted")); err != nil {
			t.Fatal(err)
		}
		status, _ := fake.InitMetadata["status"].(map[string]any)
		if status["privacyStatus"] != "unlisted" {
			t.Errorf("privacyStatus = %v", status["privacyStatus"])
		}
	})

	t.Run("quota exceeded is distinct", func(t *testing.T) {
		fake := tu.NewFakeGoogle(t)
		fake.QuotaExceeded = true

		_, err := NewYouTubeClient(fake.Config(), testRedirectURL).Upload(ctx, "access-token", video("public"))
		if !errors.Is(err, shared.ErrQuotaExceeded) {
			t.Fatalf("expected ErrQuotaExceeded, got %v", err)
		}
		if errors.Is(err, shared.ErrAPIRequest) {
			t.Error("quota errors should not be generic API errors")
		}
		if fake.PutCalls != 0 {
			t.Error("video bytes should not be sent after a failed init")
		}
	})

	t.Run("unreachable API", func(t *testing.T) {
		cfg := tu.NewFakeGoogle(t).Config()
		cfg.UploadURL = "http://127.0.0.1:1/upload"

		_, err := NewYouTubeClient(cfg, testRedirectURL).Upload(ctx, "access-token", video("public"))
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
