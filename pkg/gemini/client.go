// Package gemini wraps the Google Gemini API as the secondary generative
// backend for the assistant pipelines.
package gemini

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	defaultModel    = "gemini-1.5-flash"
	maxOutputTokens = 1000
)

// Client generates text from prompts, optionally grounded on an image.
type Client struct {
	api     generateAPI
	model   string
	limiter *rate.Limiter
}

// generateAPI is the slice of the SDK surface the client uses; tests
// substitute a fake.
type generateAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// sdkAPI adapts *genai.Client to generateAPI.
type sdkAPI struct {
	client *genai.Client
}

func (s *sdkAPI) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return s.client.Models.GenerateContent(ctx, model, contents, cfg)
}

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithRateLimit sets the request rate limit.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
		}
	}
}

// NewClient creates a Gemini-backed generator.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: API key is required")
	}

	sdkClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &Client{
		api:     &sdkAPI{client: sdkClient},
		model:   defaultModel,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Name identifies the backend in logs and metadata.
func (c *Client) Name() string { return "gemini" }

// Generate runs a text-only completion. The system prompt rides along as the
// system instruction.
func (c *Client) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userContent, genai.RoleUser),
	}
	return c.generate(ctx, systemPrompt, contents)
}

// GenerateVision runs a completion over a prompt plus an inline image.
func (c *Client) GenerateVision(ctx context.Context, systemPrompt, userContent string, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	parts := []*genai.Part{
		genai.NewPartFromText(userContent),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	return c.generate(ctx, systemPrompt, contents)
}

func (c *Client) generate(ctx context.Context, systemPrompt string, contents []*genai.Content) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "gemini: rate limit wait")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: maxOutputTokens,
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.api.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate content")
	}

	text := resp.Text()
	if text == "" {
		return "", eris.New("gemini: empty response")
	}
	return text, nil
}
