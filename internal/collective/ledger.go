// Package collective pools purchase orders from multiple shopkeepers so they
// can reach supplier discount tiers together. Orders persist through the
// store when one is configured; an in-memory aggregate keeps the feature
// working when persistence is down.
package collective

import (
	"context"
	"math"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bazaarbrain/assistant/internal/model"
	"github.com/bazaarbrain/assistant/internal/store"
)

const basePrice = 10.0

// Pricing is the discount estimate for a pooled quantity.
type Pricing struct {
	PricePerUnit     float64 `json:"price_per_unit"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// OrderSummary is the pooled view returned after placing or listing orders.
type OrderSummary struct {
	ProductID        string  `json:"product_id"`
	TotalQuantity    int     `json:"total_quantity"`
	Participants     int     `json:"participants"`
	PricePerUnit     float64 `json:"price_per_unit"`
	EstimatedSavings float64 `json:"estimated_savings"`
}

// EstimatePricing applies the demo discount curve: flat base price with
// discounts unlocked at quantity tiers.
func EstimatePricing(totalQty int) Pricing {
	var discount float64
	switch {
	case totalQty >= 1000:
		discount = 0.20
	case totalQty >= 500:
		discount = 0.12
	case totalQty >= 200:
		discount = 0.08
	case totalQty >= 100:
		discount = 0.05
	}
	return Pricing{
		PricePerUnit:     math.Round(basePrice*(1-discount)*100) / 100,
		EstimatedSavings: math.Round(discount*100*10) / 10,
	}
}

// memoryAggregate tracks one product's pooled orders when the store is
// unavailable.
type memoryAggregate struct {
	totalQuantity int
	participants  map[string]struct{}
}

// Ledger accepts and aggregates collective orders. Explicit state object
// passed into callers at construction; safe for concurrent use.
type Ledger struct {
	store store.Store

	mu     sync.Mutex
	memory map[string]*memoryAggregate
}

// NewLedger creates a ledger. The store may be nil; the ledger then runs
// purely in memory.
func NewLedger(st store.Store) *Ledger {
	return &Ledger{store: st, memory: make(map[string]*memoryAggregate)}
}

// Place records one participant's order and returns the updated pooled view
// for the product. A store failure degrades to the in-memory aggregate
// instead of rejecting the order.
func (l *Ledger) Place(ctx context.Context, userID, productID string, quantity int) (*OrderSummary, error) {
	if quantity <= 0 {
		return nil, eris.New("collective: quantity must be positive")
	}
	if productID == "" {
		return nil, eris.New("collective: product_id is required")
	}

	if l.store != nil {
		summary, err := l.placeStored(ctx, userID, productID, quantity)
		if err == nil {
			return summary, nil
		}
		zap.L().Warn("collective order store failed, using in-memory aggregate", zap.Error(err))
	}

	return l.placeInMemory(userID, productID, quantity), nil
}

func (l *Ledger) placeStored(ctx context.Context, userID, productID string, quantity int) (*OrderSummary, error) {
	if _, err := l.store.SaveCollectiveOrder(ctx, &model.CollectiveOrder{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}); err != nil {
		return nil, err
	}

	agg, err := l.store.AggregateCollectiveOrders(ctx, productID)
	if err != nil {
		return nil, err
	}
	return summarize(productID, agg.TotalQuantity, agg.Participants), nil
}

func (l *Ledger) placeInMemory(userID, productID string, quantity int) *OrderSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.memory[productID]
	if !ok {
		entry = &memoryAggregate{participants: make(map[string]struct{})}
		l.memory[productID] = entry
	}
	entry.totalQuantity += quantity
	entry.participants[userID] = struct{}{}

	return summarize(productID, entry.totalQuantity, len(entry.participants))
}

// Summaries returns the pooled view for every product with at least one
// order, preferring stored aggregates and falling back to memory.
func (l *Ledger) Summaries(ctx context.Context) ([]OrderSummary, error) {
	if l.store != nil {
		summaries, err := l.storedSummaries(ctx)
		if err != nil {
			zap.L().Warn("collective summaries store failed, using in-memory aggregate", zap.Error(err))
		} else if len(summaries) > 0 {
			return summaries, nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	summaries := make([]OrderSummary, 0, len(l.memory))
	for pid, entry := range l.memory {
		summaries = append(summaries, *summarize(pid, entry.totalQuantity, len(entry.participants)))
	}
	return summaries, nil
}

func (l *Ledger) storedSummaries(ctx context.Context) ([]OrderSummary, error) {
	orders, err := l.store.ListCollectiveOrders(ctx, "")
	if err != nil {
		return nil, err
	}

	type agg struct {
		qty   int
		users map[string]struct{}
	}
	byProduct := make(map[string]*agg)
	for _, o := range orders {
		entry, ok := byProduct[o.ProductID]
		if !ok {
			entry = &agg{users: make(map[string]struct{})}
			byProduct[o.ProductID] = entry
		}
		entry.qty += o.Quantity
		entry.users[o.UserID] = struct{}{}
	}

	summaries := make([]OrderSummary, 0, len(byProduct))
	for pid, entry := range byProduct {
		summaries = append(summaries, *summarize(pid, entry.qty, len(entry.users)))
	}
	return summaries, nil
}

func summarize(productID string, totalQty, participants int) *OrderSummary {
	pricing := EstimatePricing(totalQty)
	return &OrderSummary{
		ProductID:        productID,
		TotalQuantity:    totalQty,
		Participants:     participants,
		PricePerUnit:     pricing.PricePerUnit,
		EstimatedSavings: pricing.EstimatedSavings,
	}
}
