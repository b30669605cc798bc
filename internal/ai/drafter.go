// Package ai turns free-text prompts into polished email drafts via the
// Groq chat-completions API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultModel     = "llama-3.3-70b-versatile"
	defaultMaxTokens = 1024
	apiURL           = "https://api.groq.com/openai/v1/chat/completions"
)

// ErrNotConfigured is returned when no API credential is available. The
// composer surfaces it as a blocking message; there is no retry.
var ErrNotConfigured = errors.New("ai: GROQ_API_KEY is not configured")

// GenerationError reports a malformed or empty model response. The
// caller keeps its pre-generation draft so the user can revert or retry
// manually.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai: %s: %v", e.Reason, e.Err)
	}
	return "ai: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Draft is a generated subject line and body.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ModelOption is one selectable completion model.
type ModelOption struct {
	ID   string
	Name string
}

// AvailableModels lists the completion models offered in the composer.
func AvailableModels() []ModelOption {
	return []ModelOption{
		{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B (Versatile)"},
		{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B (Instant)"},
		{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B"},
		{ID: "gemma2-9b-it", Name: "Gemma 2 9B"},
	}
}

// Drafter calls the completion API to generate email drafts.
type Drafter struct {
	apiKey    string
	baseURL   string
	maxTokens int
	client    *http.Client
}

// New creates a Drafter with the given API key. An empty key is allowed;
// GenerateDraft then fails with ErrNotConfigured.
func New(apiKey string, maxTokens int) *Drafter {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Drafter{
		apiKey:    apiKey,
		baseURL:   apiURL,
		maxTokens: maxTokens,
		client:    &http.Client{},
	}
}

// Configured reports whether an API credential is present.
func (d *Drafter) Configured() bool {
	return d.apiKey != ""
}

// GenerateDraft converts a raw prompt into a professional email draft.
// When webFormat is true the body is HTML with inline CSS; otherwise it
// is plain text. The call is synchronous and may take seconds; run it
// from a goroutine (the UI wraps it in a tea.Cmd). A failure is terminal
// for this call: there is no retry or backoff.
func (d *Drafter) GenerateDraft(ctx context.Context, prompt string, webFormat bool, modelID string) (Draft, error) {
	if d.apiKey == "" {
		return Draft{}, ErrNotConfigured
	}
	if modelID == "" {
		modelID = defaultModel
	}

	reqBody := apiRequest{
		Model:     modelID,
		MaxTokens: d.maxTokens,
		Messages: []apiMessage{
			{Role: "system", Content: systemPrompt(webFormat)},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &apiResponseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Draft{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, d.baseURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return Draft{}, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return Draft{}, &GenerationError{Reason: "calling completion API", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Draft{}, &GenerationError{Reason: "reading response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return Draft{}, &GenerationError{
				Reason: fmt.Sprintf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message),
			}
		}
		return Draft{}, &GenerationError{
			Reason: fmt.Sprintf("API error (%d)", resp.StatusCode),
		}
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Draft{}, &GenerationError{Reason: "decoding response", Err: err}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return Draft{}, &GenerationError{Reason: "empty response from model"}
	}

	var draft Draft
	if err := json.Unmarshal([]byte(result.Choices[0].Message.Content), &draft); err != nil {
		return Draft{}, &GenerationError{Reason: "model did not return valid JSON", Err: err}
	}

	return draft, nil
}

// systemPrompt builds the instruction for the drafting model.
func systemPrompt(webFormat bool) string {
	var sb strings.Builder

	sb.WriteString("You are an expert professional email writer assistant. ")
	sb.WriteString("Your task is to take a raw user input (which acts as a prompt) ")
	sb.WriteString("and convert it into a polished, professional email.\n\n")

	if webFormat {
		sb.WriteString("Structure the email body using HTML with inline CSS for a ")
		sb.WriteString("modern, newsletter-style appearance (use divs, padding, ")
		sb.WriteString("background colors, readable fonts).\n")
	} else {
		sb.WriteString("Generate PLAIN TEXT with no HTML tags. Use newlines for ")
		sb.WriteString("spacing between paragraphs.\n")
	}

	sb.WriteString("\nYou must also generate a concise and professional Subject ")
	sb.WriteString("line based on the content.\n")
	sb.WriteString(`The output must be a valid JSON object with the keys "subject" and "body". `)
	sb.WriteString("JSON format only.")

	return sb.String()
}

// --- Groq API types ---

type apiRequest struct {
	Model          string             `json:"model"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Messages       []apiMessage       `json:"messages"`
	ResponseFormat *apiResponseFormat `json:"response_format,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponseFormat struct {
	Type string `json:"type"`
}

type apiResponse struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []apiChoice `json:"choices"`
}

type apiChoice struct {
	Message      apiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
