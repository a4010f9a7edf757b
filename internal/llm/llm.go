// Package llm defines the capability interface for generative text backends
// and the dual-invocation helper the arbitration pipelines are built on.
// Concrete implementations live in pkg/openai and pkg/gemini and are
// constructed once at process start.
package llm

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bazaarbrain/assistant/internal/llmjson"
	"github.com/bazaarbrain/assistant/internal/model"
)

// Generator produces raw text from a prompt, optionally grounded on an image.
// Implementations may fail or return text that is not valid JSON; callers
// collapse both cases to "absent".
type Generator interface {
	// Name identifies the backend in logs and metadata keys.
	Name() string
	// Generate runs a text-only completion.
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
	// GenerateVision runs a completion over a prompt plus an image.
	GenerateVision(ctx context.Context, systemPrompt, userContent string, image []byte, mimeType string) (string, error)
}

// Pair holds the two backends every arbitrated task consults. Primary
// identity matters: all tie-break and labeling rules favor it.
type Pair struct {
	Primary   Generator
	Secondary Generator
}

// Available reports whether both backends were constructed. Pipelines with an
// offline path check this before spending a request.
func (p Pair) Available() bool {
	return p.Primary != nil && p.Secondary != nil
}

// Outcome is one backend's recovered record. A nil Record means the call
// failed, returned nothing usable, or its text failed JSON recovery.
type Outcome struct {
	Backend string
	Record  model.Record
}

// Classify invokes both backends concurrently with the same prompt and runs
// JSON recovery on each raw output. A backend error is logged and recorded as
// an absent outcome, never propagated; arbitration treats absence as a valid
// domain value.
func (p Pair) Classify(ctx context.Context, systemPrompt, userContent string) (primary, secondary Outcome) {
	return p.invoke(ctx, func(ctx context.Context, g Generator) (string, error) {
		return g.Generate(ctx, systemPrompt, userContent)
	})
}

// ClassifyVision is Classify over a prompt plus image.
func (p Pair) ClassifyVision(ctx context.Context, systemPrompt, userContent string, image []byte, mimeType string) (primary, secondary Outcome) {
	return p.invoke(ctx, func(ctx context.Context, g Generator) (string, error) {
		return g.GenerateVision(ctx, systemPrompt, userContent, image, mimeType)
	})
}

func (p Pair) invoke(ctx context.Context, call func(context.Context, Generator) (string, error)) (primary, secondary Outcome) {
	run := func(g Generator) Outcome {
		if g == nil {
			return Outcome{Backend: "unavailable"}
		}
		out := Outcome{Backend: g.Name()}
		raw, err := call(ctx, g)
		if err != nil {
			zap.L().Warn("backend call failed",
				zap.String("backend", g.Name()),
				zap.Error(err),
			)
			return out
		}
		out.Record = llmjson.Recover(raw)
		if out.Record == nil {
			zap.L().Warn("backend returned unrecoverable text",
				zap.String("backend", g.Name()),
				zap.Int("raw_len", len(raw)),
			)
		}
		return out
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		primary = run(p.Primary)
		return nil
	})
	eg.Go(func() error {
		secondary = run(p.Secondary)
		return nil
	})
	_ = eg.Wait()
	return primary, secondary
}
