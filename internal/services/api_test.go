package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/contentforge/internal/models"
	"github.com/desertthunder/contentforge/internal/shared"
	tu "github.com/desertthunder/contentforge/internal/testing"
)

func TestAPIClient(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			c := NewAPIClient("http://example.com/", "user-1", customClient)

			if c.baseURL != "http://example.com" {
				t.Errorf("expected trimmed baseURL, got %s", c.baseURL)
			}
			if c.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Defaults", func(t *testing.T) {
			c := NewAPIClient("", "", nil)
			if c.baseURL != defaultAPIBaseURL {
				t.Errorf("expected default baseURL, got %s", c.baseURL)
			}
			if c.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get sends user header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-User-ID") != "user-1" {
				t.Errorf("expected X-User-ID header, got %q", r.Header.Get("X-User-ID"))
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		resp, err := NewAPIClient(server.URL, "user-1", nil).Get(ctx, "/health")
		if err != nil {
			t.Fatal(err)
		}
		if !resp.OK() || !resp.IsJSON {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("Post sends JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}))
		defer server.Close()

		resp, err := NewAPIClient(server.URL, "", nil).Post(ctx, "/api/projects", []byte(`{"title":"x"}`))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusCreated || string(resp.Body) != `{"title":"x"}` {
			t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Body)
		}
	})

	t.Run("Plain text body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("plain text"))
		}))
		defer server.Close()

		resp, err := NewAPIClient(server.URL, "", nil).Get(ctx, "/")
		if err != nil {
			t.Fatal(err)
		}
		if resp.IsJSON || resp.JSONData != nil {
			t.Error("plain text should not be parsed as JSON")
		}
	})

	t.Run("Error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Project not found","code":"NOT_FOUND"}`))
		}))
		defer server.Close()

		_, err := NewAPIClient(server.URL, "u", nil).Project(ctx, "missing")
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Project not found") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("Projects decodes list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/projects" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"projects": []models.Project{{ID: "p1", Title: "One", Status: models.StatusReady}},
			})
		}))
		defer server.Close()

		projects, err := NewAPIClient(server.URL, "u", nil).Projects(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(projects) != 1 || projects[0].Status != models.StatusReady {
			t.Errorf("unexpected projects %+v", projects)
		}
	})

	t.Run("Regenerate posts platform", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if r.URL.Path != "/api/generate" || req["projectId"] != "p1" || req["platform"] != "BLOG" {
				t.Errorf("unexpected request %s %v", r.URL.Path, req)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"output": models.Output{ID: "o1", Platform: models.PlatformBlog, Content: "fresh"},
			})
		}))
		defer server.Close()

		output, err := NewAPIClient(server.URL, "u", nil).Regenerate(ctx, "p1", models.PlatformBlog)
		if err != nil {
			t.Fatal(err)
		}
		if output.ID != "o1" || output.Content != "fresh" {
			t.Errorf("unexpected output %+v", output)
		}
	})

	t.Run("EditOutput patches content", func(t *testing.T) {
		var got map[string]*string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPatch || r.URL.Path != "/api/outputs/o1" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			got = nil
			json.NewDecoder(r.Body).Decode(&got)
			out := models.Output{ID: "o1", Content: "generated", EditedContent: got["editedContent"]}
			json.NewEncoder(w).Encode(map[string]any{"output": out})
		}))
		defer server.Close()
		client := NewAPIClient(server.URL, "u", nil)

		edited := "mine"
		output, err := client.EditOutput(ctx, "o1", &edited)
		if err != nil {
			t.Fatal(err)
		}
		if output.EffectiveContent() != "mine" {
			t.Errorf("expected edited content, got %q", output.EffectiveContent())
		}

		output, err = client.EditOutput(ctx, "o1", nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := got["editedContent"]; !ok || got["editedContent"] != nil {
			t.Error("clearing should send an explicit null")
		}
		if output.EditedContent != nil {
			t.Error("expected edit to be cleared")
		}
	})

	t.Run("EditOutput error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"error": "Output not found", "code": "NOT_FOUND", "status": 404})
		}))
		defer server.Close()

		_, err := NewAPIClient(server.URL, "u", nil).EditOutput(ctx, "missing", nil)
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Output not found") {
			t.Errorf("expected API error with message, got %v", err)
		}
	})

	t.Run("Transport error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		if _, err := NewAPIClient("http://example.com", "", client).Get(ctx, "/"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Read error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FReader{},
			Header:     http.Header{},
		}, nil)}
		if _, err := NewAPIClient("http://example.com", "", client).Get(ctx, "/"); err == nil {
			t.Error("expected read error")
		}
	})
}
