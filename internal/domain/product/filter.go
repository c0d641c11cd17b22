package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

// All matches every value of a filter dimension.
const All = "All"

// SizeClass buckets tiles by face area.
type SizeClass string

const (
	SizeSmall  SizeClass = "Small"
	SizeMedium SizeClass = "Medium"
	SizeLarge  SizeClass = "Large"
)

var (
	smallMaxSqIn  = decimal.NewFromInt(36)  // up to 6x6
	mediumMaxSqIn = decimal.NewFromInt(288) // up to 12x24
)

// ClassOf returns the size class of the given tile size.
func ClassOf(s Size) SizeClass {
	area := s.AreaSqIn()
	switch {
	case area.LessThanOrEqual(smallMaxSqIn):
		return SizeSmall
	case area.LessThanOrEqual(mediumMaxSqIn):
		return SizeMedium
	default:
		return SizeLarge
	}
}

// Filter narrows the catalog the way the storefront refine bar does. Empty
// fields and All match everything.
type Filter struct {
	Search   string
	Finish   string
	Material string
	Size     string
}

// Match reports whether p passes every dimension of the filter.
func (f Filter) Match(p Product) bool {
	if f.Search != "" {
		haystack := strings.ToLower(p.Name + " " + p.Finish + " " + p.Material)
		if !strings.Contains(haystack, strings.ToLower(f.Search)) {
			return false
		}
	}
	if !matchesOption(f.Finish, p.Finish) || !matchesOption(f.Material, p.Material) {
		return false
	}
	if isAll(f.Size) {
		return true
	}
	switch SizeClass(f.Size) {
	case SizeSmall, SizeMedium, SizeLarge:
		return ClassOf(p.Size) == SizeClass(f.Size)
	default:
		// Unknown size classes do not narrow the result.
		return true
	}
}

// Apply returns the products matching the filter, preserving catalog order.
func (f Filter) Apply(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func isAll(v string) bool {
	return v == "" || v == All
}

func matchesOption(want, got string) bool {
	return isAll(want) || want == got
}
