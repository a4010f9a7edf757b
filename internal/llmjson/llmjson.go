// Package llmjson recovers structured records from raw generative-model
// output. Models asked for "ONLY valid JSON" still wrap their answer in a
// markdown code fence often enough that stripping the fence is worth doing
// before the strict parse. Anything beyond that, such as prose preambles or
// truncated braces, is treated as a failed response rather than repaired.
package llmjson

import (
	"encoding/json"
	"strings"

	"github.com/bazaarbrain/assistant/internal/model"
)

// Recover strips a leading ```json fence and trailing ``` marker if present,
// then attempts a strict JSON parse. It returns nil when the remaining text
// is not a well-formed JSON object; callers treat nil as "backend absent".
func Recover(raw string) model.Record {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return nil
	}

	var rec model.Record
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return nil
	}
	return rec
}
