package domain

import "time"

// Feature is one line of a pricing table's feature checklist.
type Feature struct {
	Name     string `json:"name"`
	Included bool   `json:"included"`
}

// PricingTable is a priced service offered by a supplier.
type PricingTable struct {
	ID          string    `json:"id"`
	SupplierID  string    `json:"supplier_id"`
	ServiceName string    `json:"service_name"`
	PriceAmount float64   `json:"price_amount"`
	PriceUnit   string    `json:"price_unit"`
	Features    []Feature `json:"features"`
	Duration    string    `json:"duration,omitempty"`
	Includes    string    `json:"includes,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy so cached values are never shared with callers.
func (p *PricingTable) Clone() *PricingTable {
	if p == nil {
		return nil
	}
	c := *p
	if p.Features != nil {
		c.Features = make([]Feature, len(p.Features))
		copy(c.Features, p.Features)
	}
	return &c
}

// IncludedFeatures returns the names of the features marked as included.
func (p *PricingTable) IncludedFeatures() []string {
	names := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		if f.Included {
			names = append(names, f.Name)
		}
	}
	return names
}

// CreatePricingTableInput carries the fields a supplier provides for a new table.
// ID and timestamps are assigned by the store.
type CreatePricingTableInput struct {
	ServiceName string    `json:"service_name"`
	PriceAmount float64   `json:"price_amount"`
	PriceUnit   string    `json:"price_unit"`
	Features    []Feature `json:"features"`
	Duration    string    `json:"duration,omitempty"`
	Includes    string    `json:"includes,omitempty"`
	Description string    `json:"description,omitempty"`
}

// PricingTablePatch is a partial update; nil fields are left untouched.
type PricingTablePatch struct {
	ServiceName *string    `json:"service_name,omitempty"`
	PriceAmount *float64   `json:"price_amount,omitempty"`
	PriceUnit   *string    `json:"price_unit,omitempty"`
	Features    *[]Feature `json:"features,omitempty"`
	Duration    *string    `json:"duration,omitempty"`
	Includes    *string    `json:"includes,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p PricingTablePatch) IsEmpty() bool {
	return p.ServiceName == nil && p.PriceAmount == nil && p.PriceUnit == nil &&
		p.Features == nil && p.Duration == nil && p.Includes == nil && p.Description == nil
}
