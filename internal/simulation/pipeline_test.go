package simulation

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarbrain/assistant/internal/llm"
	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/store"
)

type fakeGenerator struct {
	name string
	out  string
	err  error
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	return f.out, f.err
}

func (f *fakeGenerator) GenerateVision(ctx context.Context, system, user string, image []byte, mime string) (string, error) {
	return f.out, f.err
}

type fakeStore struct {
	store.Store

	saved   []*model.Simulation
	saveErr error
}

func (f *fakeStore) SaveSimulation(ctx context.Context, sim *model.Simulation) (*model.Simulation, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	out := *sim
	out.ID = "sim-1"
	f.saved = append(f.saved, &out)
	return &out, nil
}

func TestRun_Offline(t *testing.T) {
	p := NewPipeline(llm.Pair{}, nil, nil)

	out := p.Run(context.Background(), "u1", "What if I increase rice price by 5%?")

	results, ok := out["simulation_results"].(model.Record)
	require.True(t, ok)
	assert.Equal(t, "increase_price", results.String("scenario"))
	assert.Equal(t, "rice", results.String("item"))
	assert.Equal(t, "+5%", results.String("change"))
	assert.Equal(t, 10.5, results.Float("new_price"))
	assert.Equal(t, "98.0%", results.String("sales_impact"))
	assert.NotEmpty(t, out.String("timestamp"))
}

func TestRun_OfflineGenericScenario(t *testing.T) {
	p := NewPipeline(llm.Pair{}, nil, nil)

	out := p.Run(context.Background(), "u1", "What about rice prices?")

	results := out["simulation_results"].(model.Record)
	assert.Equal(t, "price_change", results.String("scenario"))
}

func TestRun_BackendsAgree(t *testing.T) {
	parsed := `{"scenario": "increase_price", "item": "rice", "change": "+5%"}`
	pair := llm.Pair{
		Primary:   &fakeGenerator{name: "openai", out: parsed},
		Secondary: &fakeGenerator{name: "gemini", out: parsed},
	}
	st := &fakeStore{}
	p := NewPipeline(pair, nil, st)

	out := p.Run(context.Background(), "u1", "What if I increase rice price by 5%?")

	params := out["parsed_parameters"].(model.Record)
	assert.Equal(t, "agree", params.String("parsing_source"))

	results := out["simulation_results"].(model.Record)
	assert.Equal(t, 52.5, results.Float("new_price"))

	assert.Equal(t, "sim-1", out.String("simulation_id"))
	require.Len(t, st.saved, 1)
	assert.Equal(t, "u1", st.saved[0].UserID)
}

func TestRun_BothBackendsFail_UsesFallbackOnQueryText(t *testing.T) {
	pair := llm.Pair{
		Primary:   &fakeGenerator{name: "openai", err: eris.New("quota")},
		Secondary: &fakeGenerator{name: "gemini", out: "not json at all"},
	}
	p := NewPipeline(pair, nil, nil)

	out := p.Run(context.Background(), "u1", "increase rice price by 5%")

	params := out["parsed_parameters"].(model.Record)
	assert.Equal(t, "fallback", params.String("parsing_source"))
	assert.Equal(t, "increase_price", params.String("scenario"))
}

func TestRun_SaveFailureAnnotatesResult(t *testing.T) {
	parsed := `{"scenario": "bulk_order", "item": "sugar", "change": "12 shops"}`
	pair := llm.Pair{
		Primary:   &fakeGenerator{name: "openai", out: parsed},
		Secondary: &fakeGenerator{name: "gemini", out: parsed},
	}
	p := NewPipeline(pair, nil, &fakeStore{saveErr: eris.New("disk full")})

	out := p.Run(context.Background(), "u1", "bulk order with 12 shops")

	assert.Contains(t, out.String("db_save_error"), "disk full")
	results := out["simulation_results"].(model.Record)
	assert.Equal(t, "bulk_order", results.String("scenario"))
}

func TestParseQuery_Fallback(t *testing.T) {
	cases := []struct {
		query    string
		scenario string
	}{
		{"increase rice price by 5%", "increase_price"},
		{"decrease the price of sugar", "decrease_price"},
		{"buy in bulk with neighbors", "bulk_order"},
		{"order together with other shops", "bulk_order"},
		{"how is the weather", "unknown"},
	}
	for _, tc := range cases {
		out := ParseQuery(tc.query)
		assert.Equal(t, tc.scenario, out.String("scenario"), "query=%q", tc.query)
		assert.Equal(t, "unknown", out.String("item"))
		assert.Equal(t, "0", out.String("change"))
	}
}
