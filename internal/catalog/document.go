package catalog

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/tile-storefront/internal/domain/product"
)

// Decode reads a catalog document: a JSON array of tile records as published
// by the merchandising team. Unknown fields are ignored.
func Decode(r io.Reader) ([]product.Product, error) {
	return decodeProducts(jx.Decode(r, 4096))
}

// Parse is Decode for an in-memory document.
func Parse(data []byte) ([]product.Product, error) {
	return decodeProducts(jx.DecodeBytes(data))
}

func decodeProducts(d *jx.Decoder) ([]product.Product, error) {
	var products []product.Product
	if err := d.Arr(func(d *jx.Decoder) error {
		p, err := decodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product %d", len(products))
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return products, nil
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "slug":
			p.Slug, err = d.Str()
		case "size":
			p.SizeLabel, err = d.Str()
		case "sizeInInches":
			p.Size, err = decodeSize(d)
		case "finish":
			p.Finish, err = d.Str()
		case "material":
			p.Material, err = d.Str()
		case "rating":
			p.Rating, err = decodeDecimal(d)
		case "pricePerSqft":
			p.PricePerSqft, err = decodeDecimal(d)
		case "pricePerBox":
			p.PricePerBox, err = decodeDecimal(d)
		case "coveragePerBoxSqft":
			p.CoveragePerBoxSqft, err = decodeDecimal(d)
		case "groutOptions":
			err = d.Arr(func(d *jx.Decoder) error {
				v, err := d.Str()
				if err != nil {
					return err
				}
				p.GroutOptions = append(p.GroutOptions, v)
				return nil
			})
		case "colors":
			err = d.Arr(func(d *jx.Decoder) error {
				c, err := decodeColor(d)
				if err != nil {
					return err
				}
				p.Colors = append(p.Colors, c)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	return p, err
}

func decodeSize(d *jx.Decoder) (product.Size, error) {
	var s product.Size
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "w":
			s.Width, err = decodeDecimal(d)
		case "h":
			s.Height, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return s, err
}

func decodeColor(d *jx.Decoder) (product.Color, error) {
	var c product.Color
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "hex":
			c.Hex, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse number %q", n.String())
	}
	return v, nil
}
