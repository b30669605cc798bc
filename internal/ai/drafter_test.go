package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeCompletion builds a chat-completions response whose message content
// is the given string.
func fakeCompletion(content string) apiResponse {
	return apiResponse{
		ID:    "chatcmpl-1",
		Model: "llama-3.3-70b-versatile",
		Choices: []apiChoice{
			{Message: apiMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

func TestGenerateDraft(t *testing.T) {
	var gotReq apiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(fakeCompletion(`{"subject":"Point projet","body":"Bonjour,\n\nVoici le point."}`))
	}))
	defer srv.Close()

	d := New("test-key", 0)
	d.baseURL = srv.URL

	draft, err := d.GenerateDraft(context.Background(), "point rapide sur le projet", false, "")
	if err != nil {
		t.Fatalf("GenerateDraft() error = %v", err)
	}
	if draft.Subject != "Point projet" {
		t.Errorf("Subject = %q", draft.Subject)
	}
	if !strings.Contains(draft.Body, "Voici le point") {
		t.Errorf("Body = %q", draft.Body)
	}

	if gotReq.Model != defaultModel {
		t.Errorf("empty model id should fall back to %q, got %q", defaultModel, gotReq.Model)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Error("request should force json_object response format")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("unexpected message shape: %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "PLAIN TEXT") {
		t.Error("plain-text mode should instruct the model to avoid HTML")
	}
}

func TestGenerateDraftWebFormatPrompt(t *testing.T) {
	var gotReq apiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(fakeCompletion(`{"subject":"s","body":"<div>b</div>"}`))
	}))
	defer srv.Close()

	d := New("test-key", 0)
	d.baseURL = srv.URL

	if _, err := d.GenerateDraft(context.Background(), "newsletter", true, "gemma2-9b-it"); err != nil {
		t.Fatalf("GenerateDraft() error = %v", err)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "inline CSS") {
		t.Error("web-format mode should ask for HTML with inline CSS")
	}
	if gotReq.Model != "gemma2-9b-it" {
		t.Errorf("model id not forwarded, got %q", gotReq.Model)
	}
}

func TestGenerateDraftMissingKey(t *testing.T) {
	d := New("", 0)

	_, err := d.GenerateDraft(context.Background(), "anything", false, "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if d.Configured() {
		t.Error("Configured() should be false without a key")
	}
}

func TestGenerateDraftFailureModes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "api error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"type":"rate_limit","message":"slow down"}}`))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(apiResponse{ID: "chatcmpl-2"})
			},
		},
		{
			name: "content is not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(fakeCompletion("Sure! Here is your email:"))
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>gateway error</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			d := New("test-key", 0)
			d.baseURL = srv.URL

			_, err := d.GenerateDraft(context.Background(), "prompt", false, "")
			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected *GenerationError, got %v", err)
			}
		})
	}
}
