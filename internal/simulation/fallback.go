package simulation

import (
	"fmt"
	"strings"

	"github.com/bazaarbrain/assistant/internal/model"
)

// ParseQuery is the deterministic floor used when both parsing backends are
// absent. It never fails and always includes placeholder item/change fields
// so the calculator needs no nil-checks.
func ParseQuery(query string) model.Record {
	q := strings.ToLower(query)

	var scenario model.Scenario
	switch {
	case strings.Contains(q, "increase") && strings.Contains(q, "price"):
		scenario = model.ScenarioIncreasePrice
	case strings.Contains(q, "decrease") && strings.Contains(q, "price"):
		scenario = model.ScenarioDecreasePrice
	case strings.Contains(q, "bulk") || strings.Contains(q, "together"):
		scenario = model.ScenarioBulkOrder
	default:
		scenario = model.ScenarioUnknown
	}

	return model.Record{
		"scenario":        string(scenario),
		"item":            "unknown",
		"change":          "0",
		"current_value":   nil,
		"units":           "%",
		"assumptions":     "Fallback parsing used",
		"simulation_type": fmt.Sprintf("Basic %s simulation", scenario),
	}
}
