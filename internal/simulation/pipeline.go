// Package simulation answers "what-if" business queries: two parsing backends
// interpret the query, arbitration picks one reading, and a deterministic
// calculator projects the outcome against the product catalog.
package simulation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bazaarbrain/assistant/internal/arbiter"
	"github.com/bazaarbrain/assistant/internal/llm"
	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/store"
)

const parsePrompt = `You are a business query parser for small shopkeepers.
Parse the query into a JSON object with these fields:
  scenario: one of "increase_price", "decrease_price", "bulk_order", "unknown"
  item: the product name mentioned, or "unknown"
  change: the change magnitude as a string, e.g. "+5%" or "15"
  current_value: the current value if stated, else null
  units: the unit of the change, e.g. "%"
Return only the JSON object, no prose.`

// Pipeline runs the full simulation flow. Construct once and share; it holds
// no per-request state.
type Pipeline struct {
	backends llm.Pair
	catalog  Catalog
	store    store.Store
}

// NewPipeline wires the simulation flow. The store may be nil; persistence is
// best-effort and its absence never fails a run.
func NewPipeline(backends llm.Pair, catalog Catalog, st store.Store) *Pipeline {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Pipeline{backends: backends, catalog: catalog, store: st}
}

// Run executes one simulation query end to end. It never returns an error:
// every failure mode degrades to an explicit field on the result record.
func (p *Pipeline) Run(ctx context.Context, userID, query string) model.Record {
	if !p.backends.Available() {
		return p.runOffline(ctx, userID, query)
	}

	primary, secondary := p.backends.Classify(ctx, parsePrompt, query)
	parsed := arbiter.Parse(primary.Record, secondary.Record, func() model.Record {
		return ParseQuery(query)
	})

	result := model.Record{
		"query":              query,
		"parsed_parameters":  parsed,
		"simulation_results": Calculate(parsed, p.catalog),
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}

	p.persist(ctx, userID, query, parsed, result)
	return result
}

// runOffline produces a fixed deterministic result when either backend is
// missing, so the system stays demoable without live credentials. Only the
// scenario label depends on the query text.
func (p *Pipeline) runOffline(ctx context.Context, userID, query string) model.Record {
	scenario := "price_change"
	if strings.Contains(strings.ToLower(query), "increase") {
		scenario = "increase_price"
	}

	simulated := model.Record{
		"scenario":              scenario,
		"item":                  "rice",
		"change":                "+5%",
		"current_price":         10.0,
		"new_price":             10.5,
		"current_weekly_profit": 200.0,
		"new_weekly_profit":     210.0,
		"profit_change":         10.0,
		"sales_impact":          "98.0%",
		"assumptions":           "Offline deterministic path",
		"recommendation":        "Monitor elasticity",
	}
	parsed := model.Record{
		"scenario": simulated["scenario"],
		"item":     simulated["item"],
		"change":   simulated["change"],
	}
	result := model.Record{
		"query":              query,
		"parsed_parameters":  parsed,
		"simulation_results": simulated,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}

	zap.L().Info("simulation ran offline", zap.String("scenario", scenario))
	p.persist(ctx, userID, query, parsed, result)
	return result
}

// persist saves the run best-effort. A failed save annotates the result and
// is logged; it never aborts the response.
func (p *Pipeline) persist(ctx context.Context, userID, query string, parsed, result model.Record) {
	if p.store == nil || userID == "" {
		return
	}

	saved, err := p.store.SaveSimulation(ctx, &model.Simulation{
		UserID:     userID,
		Query:      query,
		Parameters: parsed,
		Result:     result.Clone(),
	})
	if err != nil {
		zap.L().Error("simulation save failed", zap.Error(err))
		result["db_save_error"] = err.Error()
		return
	}
	result["simulation_id"] = saved.ID
}
