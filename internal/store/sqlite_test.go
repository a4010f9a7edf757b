package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazaarbrain/assistant/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Transactions ---

func TestSQLite_Transaction_SaveAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	saved, err := st.SaveTransaction(ctx, &model.Transaction{
		UserID:   "u1",
		RawInput: "/tmp/receipt.jpg",
		Parsed:   model.Record{"items": []any{map[string]any{"name": "rice"}}, "total": 52.5},
		Source:   "receipt_ocr",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	txs, err := st.ListTransactions(ctx, TransactionFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, saved.ID, txs[0].ID)
	assert.Equal(t, 52.5, txs[0].Parsed.Float("total"))
	assert.Len(t, txs[0].Parsed.List("items"), 1)
}

func TestSQLite_Transaction_FilterBySource(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.SaveTransaction(ctx, &model.Transaction{UserID: "u1", RawInput: "a", Source: "receipt_ocr"})
	require.NoError(t, err)
	_, err = st.SaveTransaction(ctx, &model.Transaction{UserID: "u1", RawInput: "b", Source: "manual"})
	require.NoError(t, err)

	txs, err := st.ListTransactions(ctx, TransactionFilter{Source: "manual"})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "b", txs[0].RawInput)
}

func TestSQLite_Transaction_ListEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)

	txs, err := st.ListTransactions(context.Background(), TransactionFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// --- Simulations ---

func TestSQLite_Simulation_SaveAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	saved, err := st.SaveSimulation(ctx, &model.Simulation{
		UserID:     "u2",
		Query:      "what if I increase rice price by 5%",
		Parameters: model.Record{"scenario": "increase_price", "product": "rice"},
		Result:     model.Record{"new_price": 52.5},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	sims, err := st.ListSimulations(ctx, SimulationFilter{UserID: "u2"})
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Equal(t, "increase_price", sims[0].Parameters.String("scenario"))
	assert.Equal(t, 52.5, sims[0].Result.Float("new_price"))
}

func TestSQLite_Simulation_NilRecords(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.SaveSimulation(ctx, &model.Simulation{UserID: "u3", Query: "q"})
	require.NoError(t, err)

	sims, err := st.ListSimulations(ctx, SimulationFilter{UserID: "u3"})
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Nil(t, sims[0].Parameters)
}

// --- Collective orders ---

func TestSQLite_CollectiveOrders_Aggregate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, o := range []model.CollectiveOrder{
		{UserID: "u1", ProductID: "rice", Quantity: 60, PricePerUnit: 10},
		{UserID: "u2", ProductID: "rice", Quantity: 50, PricePerUnit: 10},
		{UserID: "u1", ProductID: "rice", Quantity: 40, PricePerUnit: 10},
		{UserID: "u3", ProductID: "sugar", Quantity: 25, PricePerUnit: 8},
	} {
		_, err := st.SaveCollectiveOrder(ctx, &o)
		require.NoError(t, err)
	}

	agg, err := st.AggregateCollectiveOrders(ctx, "rice")
	require.NoError(t, err)
	assert.Equal(t, 150, agg.TotalQuantity)
	assert.Equal(t, 2, agg.Participants)

	orders, err := st.ListCollectiveOrders(ctx, "rice")
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestSQLite_CollectiveOrders_AggregateEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)

	agg, err := st.AggregateCollectiveOrders(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.TotalQuantity)
	assert.Equal(t, 0, agg.Participants)
}

func TestSQLite_Ping(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}
