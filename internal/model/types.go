// Package model defines the shared data types for the assistant pipelines:
// the schema-less Record currency, intent and scenario enumerations, and the
// persisted row shapes.
package model

import "time"

// Intent is a classified input category.
type Intent string

const (
	IntentImageProcessing Intent = "image_processing"
	IntentSimulationQuery Intent = "simulation_query"
	IntentSalesLog        Intent = "sales_log"
	IntentFinancialQuery  Intent = "financial_query"
	IntentInventoryQuery  Intent = "inventory_query"
	IntentGeneral         Intent = "general"
)

// Agent names a downstream handler selected by classification.
type Agent string

const (
	AgentSimulation     Agent = "simulation"
	AgentRealityCapture Agent = "reality_capture"
	AgentSales          Agent = "sales"
	AgentFinancial      Agent = "financial"
	AgentInventory      Agent = "inventory"
	AgentNone           Agent = "none"
)

// Scenario is a supported simulation type.
type Scenario string

const (
	ScenarioIncreasePrice Scenario = "increase_price"
	ScenarioDecreasePrice Scenario = "decrease_price"
	ScenarioBulkOrder     Scenario = "bulk_order"
	ScenarioUnknown       Scenario = "unknown"
)

// InputType distinguishes router input modalities.
type InputType string

const (
	InputText  InputType = "text"
	InputImage InputType = "image"
)

// Routing result status values.
const (
	StatusSuccess        = "success"
	StatusFailed         = "failed"
	StatusRequiresImage  = "requires_image"
	StatusNotImplemented = "not_implemented"
)

// Transaction is a persisted OCR extraction result.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RawInput  string    `json:"raw_input"`
	Parsed    Record    `json:"parsed"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Simulation is a persisted what-if analysis result.
type Simulation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Query      string    `json:"query"`
	Parameters Record    `json:"parameters"`
	Result     Record    `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
}

// CollectiveOrder is one participant's contribution to a pooled purchase.
type CollectiveOrder struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProductID    string    `json:"product_id"`
	Quantity     int       `json:"quantity"`
	PricePerUnit float64   `json:"price_per_unit"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollectiveAggregate is the pooled view of orders for one product.
type CollectiveAggregate struct {
	ProductID     string `json:"product_id"`
	TotalQuantity int    `json:"total_quantity"`
	Participants  int    `json:"participants"`
}
