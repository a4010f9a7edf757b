package stats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/store"
)

func TestSimulations(t *testing.T) {
	sims := []model.Simulation{
		{Result: model.Record{"simulation_results": model.Record{}}},
		{Result: model.Record{"error": "simulation failed: bad input"}},
		{Result: model.Record{}},
	}

	s := Simulations(sims)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, 66.7, s.SuccessRate)
}

func TestExtractions(t *testing.T) {
	txs := []model.Transaction{
		{Parsed: model.Record{"items": []any{map[string]any{"name": "rice"}}}},
		{Parsed: model.Record{"items": []any{}}},
	}

	s := Extractions(txs)

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Successful)
	assert.Equal(t, 50.0, s.SuccessRate)
}

func TestSummary_Empty(t *testing.T) {
	s := Simulations(nil)
	assert.Equal(t, 0, s.Total)
	assert.Equal(t, 0.0, s.SuccessRate)
}

func TestCollect(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	_, err = st.SaveSimulation(ctx, &model.Simulation{
		UserID: "u1", Query: "q", Result: model.Record{"timestamp": "now"},
	})
	require.NoError(t, err)
	_, err = st.SaveTransaction(ctx, &model.Transaction{
		UserID: "u1", RawInput: "r.png", Source: "image",
		Parsed: model.Record{"items": []any{map[string]any{"name": "oil"}}},
	})
	require.NoError(t, err)

	report, err := Collect(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Simulations.Total)
	assert.Equal(t, 100.0, report.Simulations.SuccessRate)
	assert.Equal(t, 1, report.Extractions.Successful)
}
