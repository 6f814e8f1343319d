/*
Package provider talks to the language models some tools delegate to.
*/
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

const DefaultGoogleModel = "gemini-2.5-flash"

var ErrNoContent = errors.New("google API returned no content")

/*
GoogleProvider sends single-turn prompts to the Gemini API.
*/
type GoogleProvider struct {
	client *genai.Client
	model  string
}

type GoogleProviderOption func(*googleSettings)

type googleSettings struct {
	model   string
	baseURL string
}

func WithGoogleModel(model string) GoogleProviderOption {
	return func(s *googleSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithGoogleBaseURL points the client at a proxy or a test server.
func WithGoogleBaseURL(baseURL string) GoogleProviderOption {
	return func(s *googleSettings) {
		s.baseURL = baseURL
	}
}

func NewGoogleProvider(
	ctx context.Context, apiKey string, options ...GoogleProviderOption,
) (*GoogleProvider, error) {
	settings := &googleSettings{model: DefaultGoogleModel}
	for _, option := range options {
		option(settings)
	}

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	if settings.baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: settings.baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GoogleProvider{client: client, model: settings.model}, nil
}

/*
Generate sends prompt as one user turn and returns the text parts of the first
candidate, concatenated.
*/
func (prvdr *GoogleProvider) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	log.FromContext(ctx).Debug("generating", "model", prvdr.model, "prompt_bytes", len(prompt))

	resp, err := prvdr.client.Models.GenerateContent(ctx, prvdr.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoContent
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	if text.Len() == 0 {
		return "", ErrNoContent
	}

	return text.String(), nil
}
