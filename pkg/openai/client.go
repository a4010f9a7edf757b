// Package openai wraps the OpenAI chat-completions API as a generative
// backend for the assistant pipelines. It is the primary backend: all
// arbitration tie-breaks favor its output.
package openai

import (
	"context"
	"encoding/base64"

	"github.com/rotisserie/eris"
	sdk "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultVisionModel = "gpt-4o"

	textMaxTokens   = 500
	visionMaxTokens = 1000
	temperature     = 0.1
)

// Client generates text from prompts, optionally grounded on an image.
type Client struct {
	api         completionAPI
	model       string
	visionModel string
	limiter     *rate.Limiter
}

// completionAPI is the slice of the SDK surface the client uses; tests
// substitute a fake.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req sdk.ChatCompletionRequest) (sdk.ChatCompletionResponse, error)
}

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default text model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithVisionModel overrides the default vision model.
func WithVisionModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.visionModel = model
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

// NewClient creates an OpenAI-backed generator.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		api:         sdk.NewClient(apiKey),
		model:       defaultModel,
		visionModel: defaultVisionModel,
		limiter:     rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name identifies the backend in logs and metadata.
func (c *Client) Name() string { return "openai" }

// Generate runs a text-only completion.
func (c *Client) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "openai: rate limit wait")
	}

	resp, err := c.api.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
		Model: c.model,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: sdk.ChatMessageRoleUser, Content: userContent},
		},
		MaxTokens:   textMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: chat completion")
	}
	return firstChoice(resp)
}

// GenerateVision runs a completion over a prompt plus an image, passed inline
// as a base64 data URL.
func (c *Client) GenerateVision(ctx context.Context, systemPrompt, userContent string, image []byte, mimeType string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "openai: rate limit wait")
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := c.api.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: sdk.ChatMessageRoleUser,
				MultiContent: []sdk.ChatMessagePart{
					{Type: sdk.ChatMessagePartTypeText, Text: userContent},
					{Type: sdk.ChatMessagePartTypeImageURL, ImageURL: &sdk.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens:   visionMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: vision completion")
	}
	return firstChoice(resp)
}

func firstChoice(resp sdk.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", eris.New("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
