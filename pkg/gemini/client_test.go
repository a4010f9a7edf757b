package gemini

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

type fakeAPI struct {
	lastModel    string
	lastContents []*genai.Content
	lastCfg      *genai.GenerateContentConfig
	resp         *genai.GenerateContentResponse
	err          error
}

func (f *fakeAPI) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	f.lastContents = contents
	f.lastCfg = cfg
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func newTestClient(api generateAPI) *Client {
	return &Client{
		api:     api,
		model:   defaultModel,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestGenerate(t *testing.T) {
	api := &fakeAPI{resp: textResponse(`{"intent": "general"}`)}
	c := newTestClient(api)

	out, err := c.Generate(context.Background(), "classify this", "Good morning!")

	require.NoError(t, err)
	assert.Equal(t, `{"intent": "general"}`, out)
	assert.Equal(t, defaultModel, api.lastModel)
	require.NotNil(t, api.lastCfg.SystemInstruction)
}

func TestGenerate_APIError(t *testing.T) {
	c := newTestClient(&fakeAPI{err: eris.New("quota exceeded")})

	_, err := c.Generate(context.Background(), "sys", "user")
	assert.Error(t, err)
}

func TestGenerate_EmptyResponse(t *testing.T) {
	c := newTestClient(&fakeAPI{resp: &genai.GenerateContentResponse{}})

	_, err := c.Generate(context.Background(), "sys", "user")
	assert.Error(t, err)
}

func TestGenerateVision_InlinesImage(t *testing.T) {
	api := &fakeAPI{resp: textResponse(`{"items": []}`)}
	c := newTestClient(api)

	_, err := c.GenerateVision(context.Background(), "extract", "analyze this", []byte{0xFF, 0xD8}, "image/jpeg")

	require.NoError(t, err)
	require.Len(t, api.lastContents, 1)
	parts := api.lastContents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	c := newTestClient(&fakeAPI{})
	WithModel("gemini-1.5-pro")(c)
	assert.Equal(t, "gemini-1.5-pro", c.model)
	assert.Equal(t, "gemini", c.Name())
}
