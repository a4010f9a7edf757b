package intake

import (
	"strings"

	"github.com/bazaarbrain/assistant/internal/model"
)

// intentPriority maps trigger keywords to intents, checked in order. The
// sets are not mutually exclusive ("if" also matches "what if"), so the
// order below is load-bearing.
var intentPriority = []struct {
	keywords []string
	intent   model.Intent
	agent    model.Agent
}{
	{[]string{"image", "photo", "receipt", "bill"}, model.IntentImageProcessing, model.AgentRealityCapture},
	{[]string{"what if", "simulate", "if"}, model.IntentSimulationQuery, model.AgentSimulation},
	{[]string{"sales", "transaction", "log"}, model.IntentSalesLog, model.AgentSales},
	{[]string{"profit", "expense", "money", "financial"}, model.IntentFinancialQuery, model.AgentFinancial},
	{[]string{"stock", "inventory", "product"}, model.IntentInventoryQuery, model.AgentInventory},
}

// ClassifyIntent is the deterministic floor used when both classification
// backends are absent. It never fails; confidence is always low.
func ClassifyIntent(text string) model.Record {
	q := strings.ToLower(text)

	intent := model.IntentGeneral
	agent := model.AgentNone
	for _, entry := range intentPriority {
		if containsAny(q, entry.keywords) {
			intent = entry.intent
			agent = entry.agent
			break
		}
	}

	return model.Record{
		"intent":         string(intent),
		"confidence":     "low",
		"reasoning":      "Fallback classification used",
		"requires_agent": string(agent),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
