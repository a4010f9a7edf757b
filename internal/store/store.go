// Package store persists transactions, simulations, and collective orders.
package store

import (
	"context"

	"github.com/bazaarbrain/assistant/internal/model"
)

// TransactionFilter specifies criteria for listing transactions.
type TransactionFilter struct {
	UserID string `json:"user_id,omitempty"`
	Source string `json:"source,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// SimulationFilter specifies criteria for listing simulations.
type SimulationFilter struct {
	UserID string `json:"user_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the assistant.
type Store interface {
	// Transactions
	SaveTransaction(ctx context.Context, tx *model.Transaction) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)

	// Simulations
	SaveSimulation(ctx context.Context, sim *model.Simulation) (*model.Simulation, error)
	ListSimulations(ctx context.Context, filter SimulationFilter) ([]model.Simulation, error)

	// Collective orders
	SaveCollectiveOrder(ctx context.Context, order *model.CollectiveOrder) (*model.CollectiveOrder, error)
	ListCollectiveOrders(ctx context.Context, productID string) ([]model.CollectiveOrder, error)
	AggregateCollectiveOrders(ctx context.Context, productID string) (*model.CollectiveAggregate, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
