// Package catalog provides a read-only, in-memory product catalog that keeps
// the order in which products were published.
package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"github.com/xenking/tile-storefront/db"
	"github.com/xenking/tile-storefront/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog is an immutable product.Repository. Returned products are copies,
// so callers cannot alter the catalog through them.
type Catalog struct {
	products []product.Product
	byID     map[string]int
}

// New validates products and builds a catalog from them.
func New(products []product.Product) (*Catalog, error) {
	if err := product.ValidateAll(products); err != nil {
		return nil, errors.Wrap(err, "validate catalog")
	}

	c := &Catalog{
		products: make([]product.Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.products[i] = clone(p)
		c.byID[p.ID] = i
	}
	return c, nil
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	products, err := Parse(db.Tiles)
	if err != nil {
		return nil, errors.Wrap(err, "parse embedded catalog")
	}
	return New(products)
}

// Snapshot copies every product of repo into a new in-memory catalog. It is
// used to pin the catalog for the lifetime of the process.
func Snapshot(ctx context.Context, repo product.Repository) (*Catalog, error) {
	products, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return New(products)
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// List returns all products in catalog order.
func (c *Catalog) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, len(c.products))
	for i, p := range c.products {
		out[i] = clone(p)
	}
	return out, nil
}

// GetByID returns a single product by its identifier.
func (c *Catalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := clone(c.products[i])
	return &p, nil
}

func clone(p product.Product) product.Product {
	p.Colors = slices.Clone(p.Colors)
	p.GroutOptions = slices.Clone(p.GroutOptions)
	return p
}
