package validations

import (
	"context"
	"testing"

	pkgError "github.com/AzielCF/az-pricing/pkg/error"
	"github.com/AzielCF/az-pricing/pricing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() domain.CreatePricingTableInput {
	return domain.CreatePricingTableInput{
		ServiceName: "Classroom desks",
		PriceAmount: 1200,
		PriceUnit:   "per unit",
		Features:    []domain.Feature{{Name: "Installation", Included: true}},
	}
}

func TestValidateCreatePricingTable(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, ValidateCreatePricingTable(ctx, "supplier-1", validInput()))

	free := validInput()
	free.PriceAmount = 0
	assert.NoError(t, ValidateCreatePricingTable(ctx, "supplier-1", free), "zero price is allowed")

	cases := map[string]func(in *domain.CreatePricingTableInput) string{
		"missing name":   func(in *domain.CreatePricingTableInput) string { in.ServiceName = ""; return "supplier-1" },
		"negative price": func(in *domain.CreatePricingTableInput) string { in.PriceAmount = -1; return "supplier-1" },
		"missing unit":   func(in *domain.CreatePricingTableInput) string { in.PriceUnit = ""; return "supplier-1" },
		"blank feature": func(in *domain.CreatePricingTableInput) string {
			in.Features = []domain.Feature{{Name: ""}}
			return "supplier-1"
		},
		"missing supplier": func(in *domain.CreatePricingTableInput) string { return "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			supplier := mutate(&in)
			err := ValidateCreatePricingTable(ctx, supplier, in)
			require.Error(t, err)
			var vErr pkgError.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestValidateUpdatePricingTable(t *testing.T) {
	ctx := context.Background()
	price := 99.5
	blank := ""
	features := []domain.Feature{{Name: ""}}

	assert.NoError(t, ValidateUpdatePricingTable(ctx, "s1", "t1", domain.PricingTablePatch{PriceAmount: &price}))

	assert.Error(t, ValidateUpdatePricingTable(ctx, "s1", "t1", domain.PricingTablePatch{}), "empty patch")
	assert.Error(t, ValidateUpdatePricingTable(ctx, "s1", "", domain.PricingTablePatch{PriceAmount: &price}), "missing id")
	assert.Error(t, ValidateUpdatePricingTable(ctx, "s1", "t1", domain.PricingTablePatch{ServiceName: &blank}), "blank name")
	assert.Error(t, ValidateUpdatePricingTable(ctx, "s1", "t1", domain.PricingTablePatch{Features: &features}), "blank feature")
}

func TestValidateSupplierScope(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ValidateSupplierScope(ctx, "s1", "t1"))

	err := ValidateSupplierScope(ctx, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supplier_id")
	assert.Contains(t, err.Error(), "id")
}

func TestValidateSupplierScope_RejectsKeySeparator(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateSupplierScope(ctx, "acme", "c6002892-5f1e-4c4b-9a59-0d1f3b1c2a77"))
	assert.Error(t, ValidateSupplierScope(ctx, "acme", "corp_c6002892"), "underscore in id")
	assert.Error(t, ValidateSupplierScope(ctx, "acme_corp", "t1"), "underscore in supplier")
	assert.Error(t, ValidateSupplierScope(ctx, "acme", "../t1"))
	assert.Error(t, ValidateSupplierID(ctx, "acme_corp"))
	assert.NoError(t, ValidateSupplierID(ctx, "tenant:eu-1.acme"))
}
