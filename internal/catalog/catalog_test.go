package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/tile-storefront/internal/domain/product"
)

type mockProductRepo struct {
	products []product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, _ string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Equal(t, 4, c.Len())

	products, err := c.List(context.Background())
	require.NoError(t, err)

	gotIDs := make([]string, len(products))
	for i, p := range products {
		gotIDs[i] = p.ID
	}
	assert.Equal(t, []string{
		"tile-aurora-matte-12x24",
		"tile-cascade-glossy-3x12",
		"tile-terra-honed-24x24",
		"tile-grid-tech-6x6",
	}, gotIDs)

	aurora := products[0]
	assert.Equal(t, "Aurora Matte", aurora.Name)
	assert.Equal(t, "12x24 in", aurora.SizeLabel)
	assert.True(t, decimal.NewFromInt(12).Equal(aurora.Size.Width))
	assert.True(t, decimal.NewFromInt(24).Equal(aurora.Size.Height))
	assert.True(t, decimal.RequireFromString("4.25").Equal(aurora.PricePerSqft))
	assert.True(t, decimal.RequireFromString("54.99").Equal(aurora.PricePerBox))
	assert.True(t, decimal.RequireFromString("13.2").Equal(aurora.CoveragePerBoxSqft))
	assert.Equal(t, []string{"Cool Gray", "Charcoal", "Alabaster"}, aurora.GroutOptions)
	require.Len(t, aurora.Colors, 3)
	assert.Equal(t, product.Color{Name: "White", Hex: "#f8fafc"}, aurora.Colors[0])
}

func TestParse_IgnoresUnknownFields(t *testing.T) {
	products, err := Parse([]byte(`[{"id":"x","name":"X","extra":{"nested":[1,2]},"pricePerBox":1e1}]`))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "x", products[0].ID)
	assert.True(t, decimal.NewFromInt(10).Equal(products[0].PricePerBox))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not an array", doc: `{"id":"x"}`},
		{name: "string price", doc: `[{"id":"x","pricePerBox":"cheap"}]`},
		{name: "truncated", doc: `[{"id":"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestNew_RejectsInvalidProducts(t *testing.T) {
	products, err := Parse([]byte(`[{"id":"x","name":"X","sizeInInches":{"w":0,"h":12},"coveragePerBoxSqft":10,"colors":[{"name":"A"}]}]`))
	require.NoError(t, err)

	_, err = New(products)
	require.Error(t, err)
}

func TestCatalog_Lookups(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	ctx := context.Background()

	p, err := c.GetByID(ctx, "tile-terra-honed-24x24")
	require.NoError(t, err)
	assert.Equal(t, "Terra Honed", p.Name)

	_, err = c.GetByID(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	ctx := context.Background()

	p, err := c.GetByID(ctx, "tile-aurora-matte-12x24")
	require.NoError(t, err)
	p.Colors[0].Name = "Mutated"
	p.Name = "Mutated"

	again, err := c.GetByID(ctx, "tile-aurora-matte-12x24")
	require.NoError(t, err)
	assert.Equal(t, "White", again.Colors[0].Name)
	assert.Equal(t, "Aurora Matte", again.Name)
}

func TestSnapshot(t *testing.T) {
	src, err := Default()
	require.NoError(t, err)
	products, err := src.List(context.Background())
	require.NoError(t, err)

	c, err := Snapshot(context.Background(), &mockProductRepo{products: products})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	_, err = Snapshot(context.Background(), &mockProductRepo{listErr: errors.New("db down")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
}
