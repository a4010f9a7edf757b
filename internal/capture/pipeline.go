// Package capture extracts structured line items from receipt and bill
// images: two vision backends read the same preprocessed image, and
// arbitration merges their readings into one record with provenance.
package capture

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bazaarbrain/assistant/internal/arbiter"
	"github.com/bazaarbrain/assistant/internal/llm"
	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/store"
)

const extractionPrompt = `You are a receipt and bill data extractor for small shopkeepers.
Extract the business data from the image into a JSON object with these fields:
  items: a list of objects, each with "name", "quantity", and "price"
  total: the receipt total as a number
  date: the receipt date if visible, else null
  vendor: the vendor name if visible, else null
Return only the JSON object, no prose.`

const extractionUserText = "Please analyze this image and extract the business data."

// Pipeline runs the full receipt extraction flow. Construct once and share;
// it holds no per-request state.
type Pipeline struct {
	backends llm.Pair
	store    store.Store
}

// NewPipeline wires the extraction flow. The store may be nil; persistence is
// best-effort and its absence never fails a run.
func NewPipeline(backends llm.Pair, st store.Store) *Pipeline {
	return &Pipeline{backends: backends, store: st}
}

// Process extracts structured data from the image at imagePath. The only hard
// failure is an unreadable file; backend failures, preprocessing failures, and
// persistence failures all degrade to explicit fields on the result record.
func (p *Pipeline) Process(ctx context.Context, userID, imagePath string) (model.Record, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, eris.Wrapf(err, "capture: read image %s", imagePath)
	}

	img, mimeType := preprocess(raw)

	primary, secondary := p.backends.ClassifyVision(ctx, extractionPrompt, extractionUserText, img, mimeType)
	result := arbiter.Receipt(primary.Record, secondary.Record)

	result["image_path"] = imagePath
	result["processing_timestamp"] = fileTimestamp(imagePath)
	result["openai_success"] = primary.Record != nil
	result["gemini_success"] = secondary.Record != nil

	p.persist(ctx, userID, imagePath, result)

	zap.L().Info("receipt processed",
		zap.String("image_path", imagePath),
		zap.String("source", result.String(arbiter.ReceiptSourceKey)),
	)
	return result, nil
}

// fileTimestamp derives the processing timestamp from the file's modification
// time, falling back to now for files that vanished mid-request.
func fileTimestamp(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return info.ModTime().UTC().Format(time.RFC3339)
}

func (p *Pipeline) persist(ctx context.Context, userID, imagePath string, result model.Record) {
	if p.store == nil || userID == "" {
		return
	}

	saved, err := p.store.SaveTransaction(ctx, &model.Transaction{
		UserID:   userID,
		RawInput: imagePath,
		Parsed:   result.Clone(),
		Source:   "image",
	})
	if err != nil {
		zap.L().Error("transaction save failed", zap.Error(err))
		result["db_save_error"] = err.Error()
		return
	}
	result["transaction_id"] = saved.ID
}
