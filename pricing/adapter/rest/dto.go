package rest

import "github.com/AzielCF/az-pricing/pricing/domain"

// FeatureDTO is one feature line in requests.
type FeatureDTO struct {
	Name     string `json:"name"`
	Included bool   `json:"included"`
}

// CreatePricingTableRequest is the body for creating a pricing table.
// SupplierID is optional; when sent it must match the path.
type CreatePricingTableRequest struct {
	SupplierID  string       `json:"supplier_id,omitempty"`
	ServiceName string       `json:"service_name"`
	PriceAmount float64      `json:"price_amount"`
	PriceUnit   string       `json:"price_unit"`
	Features    []FeatureDTO `json:"features"`
	Duration    string       `json:"duration"`
	Includes    string       `json:"includes"`
	Description string       `json:"description"`
}

// UpdatePricingTableRequest is the body for a partial update; omitted fields are kept
type UpdatePricingTableRequest struct {
	ServiceName *string       `json:"service_name"`
	PriceAmount *float64      `json:"price_amount"`
	PriceUnit   *string       `json:"price_unit"`
	Features    *[]FeatureDTO `json:"features"`
	Duration    *string       `json:"duration"`
	Includes    *string       `json:"includes"`
	Description *string       `json:"description"`
}

func toFeatures(in []FeatureDTO) []domain.Feature {
	out := make([]domain.Feature, len(in))
	for i, f := range in {
		out[i] = domain.Feature{Name: f.Name, Included: f.Included}
	}
	return out
}

func (r CreatePricingTableRequest) toInput() domain.CreatePricingTableInput {
	return domain.CreatePricingTableInput{
		ServiceName: r.ServiceName,
		PriceAmount: r.PriceAmount,
		PriceUnit:   r.PriceUnit,
		Features:    toFeatures(r.Features),
		Duration:    r.Duration,
		Includes:    r.Includes,
		Description: r.Description,
	}
}

func (r UpdatePricingTableRequest) toPatch() domain.PricingTablePatch {
	patch := domain.PricingTablePatch{
		ServiceName: r.ServiceName,
		PriceAmount: r.PriceAmount,
		PriceUnit:   r.PriceUnit,
		Duration:    r.Duration,
		Includes:    r.Includes,
		Description: r.Description,
	}
	if r.Features != nil {
		features := toFeatures(*r.Features)
		patch.Features = &features
	}
	return patch
}
