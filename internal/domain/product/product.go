package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a tile sold by the box.
type Product struct {
	ID        string
	Name      string
	Slug      string
	SizeLabel string
	Size      Size
	Finish    string
	Material  string
	Rating    decimal.Decimal

	// PricePerSqft and PricePerBox are quoted independently by the catalog
	// and are not required to agree with each other.
	PricePerSqft       decimal.Decimal
	PricePerBox        decimal.Decimal
	CoveragePerBoxSqft decimal.Decimal

	GroutOptions []string
	Colors       []Color
}

// Size is the physical size of a single tile in inches.
type Size struct {
	Width  decimal.Decimal
	Height decimal.Decimal
}

// AreaSqIn returns the face area of a single tile in square inches.
func (s Size) AreaSqIn() decimal.Decimal {
	return s.Width.Mul(s.Height)
}

// Color is a color variant of a product.
type Color struct {
	Name string
	Hex  string
}

// DefaultColor returns the first listed color, which is what a shopper gets
// when no color has been picked.
func (p Product) DefaultColor() (Color, bool) {
	if len(p.Colors) == 0 {
		return Color{}, false
	}
	return p.Colors[0], true
}

// ColorByName returns the color variant with the given name.
func (p Product) ColorByName(name string) (Color, bool) {
	for _, c := range p.Colors {
		if c.Name == name {
			return c, true
		}
	}
	return Color{}, false
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
