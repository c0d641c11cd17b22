package handler

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/tile-storefront/internal/domain/cart"
	"github.com/xenking/tile-storefront/internal/domain/product"
	"github.com/xenking/tile-storefront/internal/estimate"
	"github.com/xenking/tile-storefront/internal/money"
)

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("slug")
	e.Str(p.Slug)
	e.FieldStart("size")
	e.Str(p.SizeLabel)
	e.FieldStart("sizeInInches")
	e.ObjStart()
	e.FieldStart("w")
	encodeDecimal(e, p.Size.Width)
	e.FieldStart("h")
	encodeDecimal(e, p.Size.Height)
	e.ObjEnd()
	e.FieldStart("sizeClass")
	e.Str(string(product.ClassOf(p.Size)))
	e.FieldStart("finish")
	e.Str(p.Finish)
	e.FieldStart("material")
	e.Str(p.Material)
	e.FieldStart("rating")
	encodeDecimal(e, p.Rating)
	e.FieldStart("pricePerSqft")
	encodeDecimal(e, p.PricePerSqft)
	e.FieldStart("pricePerBox")
	encodeDecimal(e, p.PricePerBox)
	e.FieldStart("coveragePerBoxSqft")
	encodeDecimal(e, p.CoveragePerBoxSqft)
	e.FieldStart("groutOptions")
	e.ArrStart()
	for _, g := range p.GroutOptions {
		e.Str(g)
	}
	e.ArrEnd()
	e.FieldStart("colors")
	e.ArrStart()
	for _, c := range p.Colors {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("hex")
		e.Str(c.Hex)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeEstimate(e *jx.Encoder, productID string, est estimate.Estimate) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(productID)
	e.FieldStart("roomSqft")
	encodeDecimal(e, est.RoomSqft)
	e.FieldStart("tilesPerSqft")
	encodeDecimal(e, est.TilesPerSqft.Round(2))
	e.FieldStart("boxes")
	e.Int(est.Boxes)
	e.FieldStart("cost")
	encodeDecimal(e, est.Cost)
	e.FieldStart("costDisplay")
	e.Str(money.Format(est.Cost))
	e.ObjEnd()
}

func encodeCart(e *jx.Encoder, id uuid.UUID, c cart.Cart) {
	e.ObjStart()
	e.FieldStart("sessionId")
	e.Str(id.String())
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range c.Items() {
		encodeLineItem(e, item)
	}
	e.ArrEnd()
	e.FieldStart("itemCount")
	e.Int(c.ItemCount())
	e.FieldStart("subtotal")
	encodeDecimal(e, c.Subtotal())
	e.FieldStart("subtotalDisplay")
	e.Str(money.Format(c.Subtotal()))
	e.FieldStart("currency")
	e.Str(money.Currency.String())
	e.ObjEnd()
}

func encodeLineItem(e *jx.Encoder, item cart.LineItem) {
	e.ObjStart()
	e.FieldStart("key")
	e.Str(string(item.Key))
	e.FieldStart("productId")
	e.Str(item.ProductID)
	e.FieldStart("name")
	e.Str(item.Name)
	e.FieldStart("color")
	e.Str(item.Color)
	e.FieldStart("pricePerSqft")
	encodeDecimal(e, item.PricePerSqft)
	e.FieldStart("sqftPerBox")
	encodeDecimal(e, item.Sqft)
	e.FieldStart("quantity")
	e.Int(item.Quantity)
	e.FieldStart("finish")
	e.Str(item.Meta.Finish)
	e.FieldStart("size")
	e.Str(item.Meta.Size)
	e.FieldStart("total")
	encodeDecimal(e, item.Total())
	e.ObjEnd()
}

// addItemRequest is the body of POST .../cart/items. When RoomSqft is set the
// estimated number of boxes is added instead of Quantity.
type addItemRequest struct {
	ProductID string
	Color     string
	Quantity  int
	RoomSqft  *decimal.Decimal
}

func decodeAddItem(r io.Reader) (addItemRequest, error) {
	req := addItemRequest{Quantity: 1}
	d := jx.Decode(r, 512)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.ProductID, err = d.Str()
		case "color":
			req.Color, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		case "roomSqft":
			req.RoomSqft, err = decodeRoomArea(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return req, badRequest(err, "invalid request body")
	}
	if req.ProductID == "" {
		return req, badRequest(nil, "productId is required")
	}
	return req, nil
}

// decodeRoomArea accepts the area as a number or as raw text from an input
// field. Null means no area was given; unparsable text becomes zero.
func decodeRoomArea(d *jx.Decoder) (*decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil, err
		}
		raw = s
	case jx.Null:
		return nil, d.Null()
	default:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		raw = n.String()
	}
	area := estimate.ParseRoomArea(raw)
	return &area, nil
}

// updateItemRequest is the body of PATCH .../cart/items. Exactly one of
// Quantity and Delta is set; Delta steps the quantity by one.
type updateItemRequest struct {
	Quantity *int
	Delta    int
}

func decodeUpdateItem(r io.Reader) (updateItemRequest, error) {
	var req updateItemRequest
	d := jx.Decode(r, 256)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "quantity":
			q, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "quantity")
			}
			req.Quantity = &q
			return nil
		case "delta":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "delta")
			}
			req.Delta = v
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, badRequest(err, "invalid request body")
	}
	switch {
	case req.Quantity != nil && req.Delta != 0:
		return req, badRequest(nil, "set either quantity or delta")
	case req.Quantity == nil && req.Delta == 0:
		return req, badRequest(nil, "quantity or delta is required")
	case req.Delta < -1 || req.Delta > 1:
		return req, badRequest(nil, "delta must be 1 or -1")
	}
	return req, nil
}
