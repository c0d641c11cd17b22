package cart

import (
	"math"
	"net/url"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/tile-storefront/internal/domain/product"
)

// NoColor is the key segment used for products without any color. Real color
// names are query-escaped in keys and can never produce a bare "*".
const NoColor = "*"

// DefaultColorLabel is shown on line items of products without any color.
const DefaultColorLabel = "Default"

// Key identifies a line item: one product in one color.
type Key string

// KeyFor derives the line item key for a product and color name. An empty
// color name yields the NoColor sentinel.
func KeyFor(productID, colorName string) Key {
	color := NoColor
	if colorName != "" {
		color = url.QueryEscape(colorName)
	}
	return Key(url.QueryEscape(productID) + ":" + color)
}

// Variant is the shopper's choice of color. The zero value selects the
// product's first color.
type Variant struct {
	Color *product.Color
}

// WithColor returns a variant selecting c.
func WithColor(c product.Color) Variant {
	return Variant{Color: &c}
}

// colorName resolves the effective color name of a selection: the variant's
// color, then the product's first color, then empty.
func (v Variant) colorName(p product.Product) string {
	if v.Color != nil && v.Color.Name != "" {
		return v.Color.Name
	}
	if c, ok := p.DefaultColor(); ok {
		return c.Name
	}
	return ""
}

// Meta holds descriptive product data shown next to a line item.
type Meta struct {
	Finish string
	Size   string
}

// LineItem is one aggregated cart entry. Price and area are a snapshot taken
// when the line was first added.
type LineItem struct {
	Key          Key
	ProductID    string
	Name         string
	Color        string
	PricePerSqft decimal.Decimal
	// Sqft is the area covered by one unit (box).
	Sqft     decimal.Decimal
	Quantity int
	Meta     Meta
}

// Total returns price per sqft * sqft per unit * quantity.
func (li LineItem) Total() decimal.Decimal {
	return li.PricePerSqft.Mul(li.Sqft).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is an ordered, immutable collection of line items with at most one
// item per key. Every mutation returns a new Cart and leaves the receiver
// untouched, so a Cart value can be shared with readers freely.
//
// The zero value is an empty cart.
type Cart struct {
	items []LineItem
	index map[Key]int
}

// New returns an empty cart.
func New() Cart {
	return Cart{}
}

// Add merges a selection into the cart. If a line with the same key exists its
// quantity grows by quantity and nothing else changes; otherwise a new line
// built from the product's current data is appended. Quantities below one are
// treated as one, and a merged quantity saturates at math.MaxInt.
func (c Cart) Add(p product.Product, v Variant, quantity int) Cart {
	quantity = max(quantity, 1)
	colorName := v.colorName(p)
	key := KeyFor(p.ID, colorName)

	if i, ok := c.index[key]; ok {
		items := slices.Clone(c.items)
		items[i].Quantity = addQuantity(items[i].Quantity, quantity)
		return Cart{items: items, index: c.index}
	}

	label := colorName
	if label == "" {
		label = DefaultColorLabel
	}
	item := LineItem{
		Key:          key,
		ProductID:    p.ID,
		Name:         p.Name,
		Color:        label,
		PricePerSqft: p.PricePerSqft,
		Sqft:         p.CoveragePerBoxSqft,
		Quantity:     quantity,
		Meta: Meta{
			Finish: p.Finish,
			Size:   p.SizeLabel,
		},
	}

	items := make([]LineItem, len(c.items), len(c.items)+1)
	copy(items, c.items)
	items = append(items, item)
	return newCart(items)
}

// UpdateQuantity sets the quantity of the line with the given key, clamped to a
// minimum of one. Unknown keys leave the cart unchanged.
func (c Cart) UpdateQuantity(key Key, quantity int) Cart {
	i, ok := c.index[key]
	if !ok {
		return c
	}
	items := slices.Clone(c.items)
	items[i].Quantity = max(quantity, 1)
	return Cart{items: items, index: c.index}
}

// Increment adds one unit to the line with the given key.
func (c Cart) Increment(key Key) Cart {
	item, ok := c.Get(key)
	if !ok {
		return c
	}
	return c.UpdateQuantity(key, addQuantity(item.Quantity, 1))
}

// Decrement removes one unit from the line with the given key, stopping at one.
func (c Cart) Decrement(key Key) Cart {
	item, ok := c.Get(key)
	if !ok {
		return c
	}
	return c.UpdateQuantity(key, item.Quantity-1)
}

// Remove drops the line with the given key regardless of its quantity.
// Unknown keys leave the cart unchanged.
func (c Cart) Remove(key Key) Cart {
	i, ok := c.index[key]
	if !ok {
		return c
	}
	items := make([]LineItem, 0, len(c.items)-1)
	items = append(items, c.items[:i]...)
	items = append(items, c.items[i+1:]...)
	return newCart(items)
}

// Subtotal sums the totals of all lines. It is computed from the items on
// every call.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.Total())
	}
	return sum
}

// ItemCount returns the number of units across all lines.
func (c Cart) ItemCount() int {
	total := 0
	for _, item := range c.items {
		total = addQuantity(total, item.Quantity)
	}
	return total
}

// Len returns the number of lines.
func (c Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the lines in insertion order.
func (c Cart) Items() []LineItem {
	return slices.Clone(c.items)
}

// Get returns the line with the given key.
func (c Cart) Get(key Key) (LineItem, bool) {
	i, ok := c.index[key]
	if !ok {
		return LineItem{}, false
	}
	return c.items[i], true
}

// addQuantity adds two non-negative quantities, saturating at math.MaxInt.
func addQuantity(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func newCart(items []LineItem) Cart {
	index := make(map[Key]int, len(items))
	for i, item := range items {
		index[item.Key] = i
	}
	return Cart{items: items, index: index}
}
