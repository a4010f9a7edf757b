// Package intake classifies free-text or image input from shopkeepers and
// dispatches it to the matching downstream handler. Classification runs
// through both generative backends and arbitration; a keyword fallback
// guarantees a route even when both backends are down.
package intake

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/bazaarbrain/assistant/internal/arbiter"
	"github.com/bazaarbrain/assistant/internal/llm"
	"github.com/bazaarbrain/assistant/internal/model"
)

const classifyPrompt = `You are an intent classifier for a small-business assistant.
Classify the shopkeeper's input into a JSON object with these fields:
  intent: one of "image_processing", "simulation_query", "sales_log", "financial_query", "inventory_query", "general"
  confidence: one of "high", "medium", "low"
  reasoning: one short sentence
  requires_agent: one of "simulation", "reality_capture", "sales", "financial", "inventory", "none"
Return only the JSON object, no prose.`

// Simulator runs a what-if query end to end.
type Simulator interface {
	Run(ctx context.Context, userID, query string) model.Record
}

// Extractor processes a receipt image end to end.
type Extractor interface {
	Process(ctx context.Context, userID, imagePath string) (model.Record, error)
}

// Router dispatches one request to one handler. Stateless across calls.
type Router struct {
	backends  llm.Pair
	simulator Simulator
	extractor Extractor
}

// NewRouter wires the dispatch flow.
func NewRouter(backends llm.Pair, sim Simulator, ext Extractor) *Router {
	return &Router{backends: backends, simulator: sim, extractor: ext}
}

// Route classifies the input and dispatches it. It never returns an error:
// handler faults are caught at this boundary and surfaced as a failed record,
// and the result always carries at least status and input_type.
func (r *Router) Route(ctx context.Context, userID, input string) model.Record {
	if isImagePath(input) {
		return r.routeImage(ctx, userID, input)
	}
	return r.routeText(ctx, userID, input)
}

// isImagePath reports whether the input names a readable, decodable image
// file. Best-effort heuristic, not a MIME-type contract.
func isImagePath(input string) bool {
	info, err := os.Stat(input)
	if err != nil || info.IsDir() {
		return false
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return false
	}
	_, _, err = image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

func (r *Router) routeImage(ctx context.Context, userID, imagePath string) model.Record {
	out := model.Record{
		"input_type": string(model.InputImage),
		"intent":     string(model.IntentImageProcessing),
		"routed_to":  "reality_capture",
	}

	result, err := r.dispatchExtraction(ctx, userID, imagePath)
	if err != nil {
		zap.L().Error("image processing failed", zap.String("image_path", imagePath), zap.Error(err))
		out["error"] = err.Error()
		out["status"] = model.StatusFailed
		return out
	}
	out["result"] = result
	out["status"] = model.StatusSuccess
	return out
}

func (r *Router) routeText(ctx context.Context, userID, input string) model.Record {
	primary, secondary := r.backends.Classify(ctx, classifyPrompt, input)
	classification := arbiter.Classification(primary.Record, secondary.Record, func() model.Record {
		return ClassifyIntent(input)
	})

	intent := classification.String("intent")
	if intent == "" {
		intent = string(model.IntentGeneral)
	}
	routedTo := model.Agent(classification.String("requires_agent"))

	zap.L().Info("intent classified",
		zap.String("intent", intent),
		zap.String("routed_to", string(routedTo)),
		zap.String("source", classification.String(arbiter.ClassificationSourceKey)),
	)

	out := model.Record{
		"input_type":     string(model.InputText),
		"intent":         intent,
		"classification": classification,
	}

	switch routedTo {
	case model.AgentSimulation:
		out["routed_to"] = "simulation"
		result, err := r.dispatchSimulation(ctx, userID, input)
		if err != nil {
			zap.L().Error("simulation failed", zap.Error(err))
			out["error"] = err.Error()
			out["status"] = model.StatusFailed
			return out
		}
		out["result"] = result
		out["status"] = model.StatusSuccess

	case model.AgentRealityCapture:
		out["routed_to"] = "reality_capture"
		out["message"] = "Please provide an image for processing"
		out["status"] = model.StatusRequiresImage

	case model.AgentSales, model.AgentFinancial, model.AgentInventory:
		out["routed_to"] = string(routedTo)
		out["message"] = fmt.Sprintf("%s agent not yet implemented", titleCase(string(routedTo)))
		out["status"] = model.StatusNotImplemented

	default:
		out["routed_to"] = "general"
		out["message"] = "General business query received"
		out["status"] = model.StatusSuccess
	}
	return out
}

// dispatchSimulation guards the handler boundary: a panicking pipeline is
// converted to an error instead of unwinding through the router's caller.
func (r *Router) dispatchSimulation(ctx context.Context, userID, query string) (result model.Record, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("simulation handler fault: %v", rec)
		}
	}()
	return r.simulator.Run(ctx, userID, query), nil
}

func (r *Router) dispatchExtraction(ctx context.Context, userID, imagePath string) (result model.Record, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extraction handler fault: %v", rec)
		}
	}()
	return r.extractor.Process(ctx, userID, imagePath)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
