package domain

import "context"

// PricingStore is the remote store handle. Every lookup and mutation is scoped
// by supplier so a guessed id can never reach another supplier's table.
type PricingStore interface {
	ListBySupplier(ctx context.Context, supplierID string) ([]*PricingTable, error)
	// GetByID returns ErrPricingTableNotFound when the pair matches nothing.
	GetByID(ctx context.Context, supplierID, id string) (*PricingTable, error)
	// Create assigns ID and timestamps on the passed table.
	Create(ctx context.Context, table *PricingTable) error
	// Update applies a partial update and returns the stored result.
	Update(ctx context.Context, supplierID, id string, patch PricingTablePatch) (*PricingTable, error)
	Delete(ctx context.Context, supplierID, id string) error
}
