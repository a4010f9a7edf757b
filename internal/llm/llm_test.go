package llm

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator returns canned text or a canned error.
type fakeGenerator struct {
	name string
	text string
	err  error
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	return f.text, f.err
}

func (f *fakeGenerator) GenerateVision(ctx context.Context, system, user string, image []byte, mime string) (string, error) {
	return f.text, f.err
}

func TestClassify_BothSucceed(t *testing.T) {
	pair := Pair{
		Primary:   &fakeGenerator{name: "openai", text: `{"intent": "general"}`},
		Secondary: &fakeGenerator{name: "gemini", text: "```json\n{\"intent\": \"sales_log\"}\n```"},
	}

	primary, secondary := pair.Classify(context.Background(), "sys", "hello")

	require.NotNil(t, primary.Record)
	require.NotNil(t, secondary.Record)
	assert.Equal(t, "openai", primary.Backend)
	assert.Equal(t, "gemini", secondary.Backend)
	assert.Equal(t, "general", primary.Record.String("intent"))
	assert.Equal(t, "sales_log", secondary.Record.String("intent"))
}

func TestClassify_ErrorCollapsesToAbsent(t *testing.T) {
	pair := Pair{
		Primary:   &fakeGenerator{name: "openai", err: eris.New("quota exceeded")},
		Secondary: &fakeGenerator{name: "gemini", text: `{"intent": "general"}`},
	}

	primary, secondary := pair.Classify(context.Background(), "sys", "hello")

	assert.Nil(t, primary.Record)
	assert.NotNil(t, secondary.Record)
}

func TestClassify_UnparseableCollapsesToAbsent(t *testing.T) {
	pair := Pair{
		Primary:   &fakeGenerator{name: "openai", text: "I'm sorry, I can't do that."},
		Secondary: &fakeGenerator{name: "gemini", text: "not json{{{"},
	}

	primary, secondary := pair.Classify(context.Background(), "sys", "hello")

	assert.Nil(t, primary.Record)
	assert.Nil(t, secondary.Record)
}

func TestClassify_NilBackend(t *testing.T) {
	pair := Pair{Primary: &fakeGenerator{name: "openai", text: `{}`}}

	primary, secondary := pair.Classify(context.Background(), "sys", "hello")

	assert.NotNil(t, primary.Record)
	assert.Nil(t, secondary.Record)
	assert.False(t, pair.Available())
}
