package product

import (
	"reflect"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// record mirrors Product with validation tags. Decimal fields are validated
// through their float value.
type record struct {
	ID                 string          `validate:"required"`
	Name               string          `validate:"required"`
	Width              decimal.Decimal `validate:"gt=0"`
	Height             decimal.Decimal `validate:"gt=0"`
	PricePerSqft       decimal.Decimal `validate:"gte=0"`
	PricePerBox        decimal.Decimal `validate:"gte=0"`
	CoveragePerBoxSqft decimal.Decimal `validate:"gt=0"`
	Colors             []colorRecord   `validate:"required,min=1,unique=Name,dive"`
}

type colorRecord struct {
	Name string `validate:"required"`
	Hex  string `validate:"omitempty,hexcolor"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks the catalog invariants of a product: positive dimensions and
// coverage, non-negative prices, and at least one uniquely named color.
func Validate(p Product) error {
	r := record{
		ID:                 p.ID,
		Name:               p.Name,
		Width:              p.Size.Width,
		Height:             p.Size.Height,
		PricePerSqft:       p.PricePerSqft,
		PricePerBox:        p.PricePerBox,
		CoveragePerBoxSqft: p.CoveragePerBoxSqft,
		Colors:             make([]colorRecord, len(p.Colors)),
	}
	for i, c := range p.Colors {
		r.Colors[i] = colorRecord{Name: c.Name, Hex: c.Hex}
	}
	if err := validate.Struct(r); err != nil {
		return errors.Wrapf(err, "product %q", p.ID)
	}
	return nil
}

// ValidateAll validates every product and rejects duplicate identifiers.
func ValidateAll(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := Validate(p); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return errors.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
