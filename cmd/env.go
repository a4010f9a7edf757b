package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bazaarbrain/assistant/internal/capture"
	"github.com/bazaarbrain/assistant/internal/collective"
	"github.com/bazaarbrain/assistant/internal/intake"
	"github.com/bazaarbrain/assistant/internal/llm"
	"github.com/bazaarbrain/assistant/internal/simulation"
	"github.com/bazaarbrain/assistant/internal/store"
	"github.com/bazaarbrain/assistant/pkg/gemini"
	"github.com/bazaarbrain/assistant/pkg/openai"
)

// env holds the wired application components shared by every command.
type env struct {
	Store      *store.SQLiteStore
	Pair       llm.Pair
	Router     *intake.Router
	Simulation *simulation.Pipeline
	Capture    *capture.Pipeline
	Ledger     *collective.Ledger
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := store.NewSQLite(cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	pair := buildPair(ctx)

	catalog := simulation.DefaultCatalog()
	if cfg.Catalog.Path != "" {
		catalog, err = simulation.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	sim := simulation.NewPipeline(pair, catalog, st)
	capturePipe := capture.NewPipeline(pair, st)

	return &env{
		Store:      st,
		Pair:       pair,
		Router:     intake.NewRouter(pair, sim, capturePipe),
		Simulation: sim,
		Capture:    capturePipe,
		Ledger:     collective.NewLedger(st),
	}, nil
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// buildPair constructs the two generative backends from config. A missing key
// leaves that side nil; pipelines with an offline path check availability
// before spending a request.
func buildPair(ctx context.Context) llm.Pair {
	var pair llm.Pair

	if cfg.OpenAI.Key != "" {
		pair.Primary = openai.NewClient(cfg.OpenAI.Key,
			openai.WithModel(cfg.OpenAI.Model),
			openai.WithVisionModel(cfg.OpenAI.VisionModel),
			openai.WithRateLimit(cfg.OpenAI.RatePerSec, cfg.OpenAI.RateBurst),
		)
	} else {
		zap.L().Warn("openai key not configured, primary backend unavailable")
	}

	if cfg.Gemini.Key != "" {
		client, err := gemini.NewClient(ctx, cfg.Gemini.Key,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithRateLimit(cfg.Gemini.RatePerSec, cfg.Gemini.RateBurst),
		)
		if err != nil {
			zap.L().Warn("gemini client init failed, secondary backend unavailable", zap.Error(err))
		} else {
			pair.Secondary = client
		}
	} else {
		zap.L().Warn("gemini key not configured, secondary backend unavailable")
	}

	return pair
}
