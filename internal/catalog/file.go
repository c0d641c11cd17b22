package catalog

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/xenking/tile-storefront/internal/domain/product"
)

// ReadFile decodes a catalog document from path. Files ending in ".gz" are
// gunzipped first.
func ReadFile(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	products, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return products, nil
}

// Load builds a validated catalog from the document at path.
func Load(path string) (*Catalog, error) {
	products, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(products)
}
