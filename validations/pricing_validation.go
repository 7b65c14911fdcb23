package validations

import (
	"context"
	"errors"
	"regexp"

	pkgError "github.com/AzielCF/az-pricing/pkg/error"
	"github.com/AzielCF/az-pricing/pricing/domain"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxFeatures = 100

// Cache keys join supplier and table ids with '_', so ids may not contain it.
var idRule = validation.Match(regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.:-]{0,127}$`)).
	Error("must be 1-128 letters, digits, '.', ':' or '-'")

var featureRule = validation.By(func(value interface{}) error {
	f, ok := value.(domain.Feature)
	if !ok {
		return errors.New("must be a feature")
	}
	return validation.Validate(f.Name, validation.Required, validation.Length(1, 200))
})

func ValidateSupplierScope(ctx context.Context, supplierID, id string) error {
	err := validation.Errors{
		"supplier_id": validation.ValidateWithContext(ctx, supplierID, validation.Required, idRule),
		"id":          validation.ValidateWithContext(ctx, id, validation.Required, idRule),
	}.Filter()
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateSupplierID(ctx context.Context, supplierID string) error {
	if err := validation.ValidateWithContext(ctx, supplierID, validation.Required, idRule); err != nil {
		return pkgError.ValidationError("supplier_id: " + err.Error())
	}
	return nil
}

func ValidateCreatePricingTable(ctx context.Context, supplierID string, request domain.CreatePricingTableInput) error {
	if err := ValidateSupplierID(ctx, supplierID); err != nil {
		return err
	}

	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ServiceName, validation.Required, validation.Length(1, 200)),
		validation.Field(&request.PriceAmount, validation.Min(0.0)),
		validation.Field(&request.PriceUnit, validation.Required, validation.Length(1, 50)),
		validation.Field(&request.Features, validation.Length(0, maxFeatures), validation.Each(featureRule)),
		validation.Field(&request.Duration, validation.Length(0, 100)),
		validation.Field(&request.Includes, validation.Length(0, 500)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateUpdatePricingTable(ctx context.Context, supplierID, id string, request domain.PricingTablePatch) error {
	if err := ValidateSupplierScope(ctx, supplierID, id); err != nil {
		return err
	}
	if request.IsEmpty() {
		return pkgError.ValidationError("update must change at least one field")
	}

	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ServiceName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&request.PriceAmount, validation.Min(0.0)),
		validation.Field(&request.PriceUnit, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&request.Duration, validation.Length(0, 100)),
		validation.Field(&request.Includes, validation.Length(0, 500)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	if request.Features != nil {
		if err := validation.Validate(*request.Features, validation.Length(0, maxFeatures), validation.Each(featureRule)); err != nil {
			return pkgError.ValidationError("features: " + err.Error())
		}
	}
	return nil
}
