// Package stats derives success-rate counters from persisted results.
package stats

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/store"
)

const sampleLimit = 1000

// Summary holds the derived counters for one result class.
type Summary struct {
	Total       int     `json:"total"`
	Successful  int     `json:"successful"`
	SuccessRate float64 `json:"success_rate"`
}

// Report aggregates both pipelines' counters.
type Report struct {
	Simulations Summary `json:"simulations"`
	Extractions Summary `json:"extractions"`
}

// Simulations counts runs whose result carries no error field.
func Simulations(sims []model.Simulation) Summary {
	s := Summary{Total: len(sims)}
	for _, sim := range sims {
		if sim.Result.String("error") == "" {
			s.Successful++
		}
	}
	s.SuccessRate = rate(s.Successful, s.Total)
	return s
}

// Extractions counts transactions whose parsed record has at least one item.
func Extractions(txs []model.Transaction) Summary {
	s := Summary{Total: len(txs)}
	for _, tx := range txs {
		if len(tx.Parsed.List("items")) > 0 {
			s.Successful++
		}
	}
	s.SuccessRate = rate(s.Successful, s.Total)
	return s
}

// Collect derives a full report from the store.
func Collect(ctx context.Context, st store.Store) (*Report, error) {
	sims, err := st.ListSimulations(ctx, store.SimulationFilter{Limit: sampleLimit})
	if err != nil {
		return nil, eris.Wrap(err, "stats: list simulations")
	}
	txs, err := st.ListTransactions(ctx, store.TransactionFilter{Limit: sampleLimit})
	if err != nil {
		return nil, eris.Wrap(err, "stats: list transactions")
	}

	return &Report{
		Simulations: Simulations(sims),
		Extractions: Extractions(txs),
	}, nil
}

func rate(successful, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(successful)/float64(total)*100*10) / 10
}
