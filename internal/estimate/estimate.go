// Package estimate converts tile geometry and a room area into purchase
// guidance: tiles per square foot, boxes to buy and what they cost.
//
// Every function is pure and total. Inputs that cannot produce an estimate
// (non-positive dimensions, empty or non-numeric room area) yield zero rather
// than an error.
package estimate

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/tile-storefront/internal/domain/product"
)

var (
	// WasteFactor is the fixed 10% overage applied before rounding up.
	WasteFactor = decimal.RequireFromString("1.10")

	sqInPerSqft = decimal.NewFromInt(144)
	maxUnits    = decimal.NewFromInt(math.MaxInt)
)

// TilesPerSqft returns how many tiles of the given size cover one square foot.
// It returns zero when either dimension is not positive.
func TilesPerSqft(s product.Size) decimal.Decimal {
	if !s.Width.IsPositive() || !s.Height.IsPositive() {
		return decimal.Zero
	}
	return sqInPerSqft.Div(s.AreaSqIn())
}

// UnitsNeeded returns the number of boxes needed to cover roomSqft with the
// standard waste factor.
func UnitsNeeded(roomSqft, coverageSqft decimal.Decimal) int {
	return UnitsNeededWithWaste(roomSqft, coverageSqft, WasteFactor)
}

// UnitsNeededWithWaste returns ceil(roomSqft / coverageSqft * waste). The waste
// factor is applied to the raw quantity before rounding; partial boxes always
// round up. It returns zero when room or coverage is not positive and
// math.MaxInt when the result does not fit in an int.
func UnitsNeededWithWaste(roomSqft, coverageSqft, waste decimal.Decimal) int {
	if !roomSqft.IsPositive() || !coverageSqft.IsPositive() {
		return 0
	}
	// Multiply before dividing so exact inputs stay exact.
	raw := roomSqft.Mul(waste).Div(coverageSqft)
	units := raw.Ceil()
	if units.GreaterThan(maxUnits) {
		return math.MaxInt
	}
	return int(units.IntPart())
}

// EstimatedCost returns units * pricePerUnit, unrounded.
func EstimatedCost(units int, pricePerUnit decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(units)).Mul(pricePerUnit)
}

// ParseRoomArea normalizes a raw room area as typed by a shopper. Anything that
// is not a positive number becomes zero.
func ParseRoomArea(raw string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !v.IsPositive() {
		return decimal.Zero
	}
	return v
}

// Estimate is the calculator panel for one product and room.
type Estimate struct {
	RoomSqft     decimal.Decimal
	TilesPerSqft decimal.Decimal
	Boxes        int
	Cost         decimal.Decimal
}

// ForProduct estimates boxes and cost for covering roomSqft with p. Cost is
// quoted at the product's per-box price.
func ForProduct(p product.Product, roomSqft decimal.Decimal) Estimate {
	if !roomSqft.IsPositive() {
		roomSqft = decimal.Zero
	}
	boxes := UnitsNeeded(roomSqft, p.CoveragePerBoxSqft)
	return Estimate{
		RoomSqft:     roomSqft,
		TilesPerSqft: TilesPerSqft(p.Size),
		Boxes:        boxes,
		Cost:         EstimatedCost(boxes, p.PricePerBox),
	}
}
