package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/tile-storefront/internal/domain/product"
)

const (
	selectTilesSQL = `SELECT t.id, t.name, t.slug, t.size_label, t.width_in, t.height_in,
			t.finish, t.material, t.rating, t.price_per_sqft, t.price_per_box,
			t.coverage_per_box_sqft, t.grout_options,
			ARRAY(SELECT c.name FROM tile_colors c WHERE c.tile_id = t.id ORDER BY c.position),
			ARRAY(SELECT c.hex FROM tile_colors c WHERE c.tile_id = t.id ORDER BY c.position)
		FROM tiles t`

	listTilesSQL   = selectTilesSQL + ` ORDER BY t.position, t.id`
	getTileByIDSQL = selectTilesSQL + ` WHERE t.id = $1`

	deleteColorsSQL = `DELETE FROM tile_colors WHERE tile_id = $1`
	insertColorSQL  = `INSERT INTO tile_colors (tile_id, position, name, hex) VALUES ($1, $2, $3, $4)`

	upsertTileSQL = `INSERT INTO tiles (id, position, name, slug, size_label, width_in, height_in,
			finish, material, rating, price_per_sqft, price_per_box, coverage_per_box_sqft, grout_options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			size_label = EXCLUDED.size_label,
			width_in = EXCLUDED.width_in,
			height_in = EXCLUDED.height_in,
			finish = EXCLUDED.finish,
			material = EXCLUDED.material,
			rating = EXCLUDED.rating,
			price_per_sqft = EXCLUDED.price_per_sqft,
			price_per_box = EXCLUDED.price_per_box,
			coverage_per_box_sqft = EXCLUDED.coverage_per_box_sqft,
			grout_options = EXCLUDED.grout_options`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all tiles in catalog order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listTilesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list tiles")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single tile by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getTileByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get tile %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get tile %q", id)
	}
	return &p, nil
}

// UpsertAll writes products in one transaction. A product's position in the
// slice becomes its catalog position, and its colors replace the stored ones.
func (r *ProductRepository) UpsertAll(ctx context.Context, products []product.Product) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i, p := range products {
			if err := upsertProduct(ctx, tx, i, p); err != nil {
				return errors.Wrapf(err, "upsert tile %q", p.ID)
			}
		}
		return nil
	})
}

func upsertProduct(ctx context.Context, tx pgx.Tx, position int, p product.Product) error {
	grout := p.GroutOptions
	if grout == nil {
		grout = []string{}
	}
	if _, err := tx.Exec(ctx, upsertTileSQL,
		p.ID, position, p.Name, p.Slug, p.SizeLabel, p.Size.Width, p.Size.Height,
		p.Finish, p.Material, p.Rating, p.PricePerSqft, p.PricePerBox, p.CoveragePerBoxSqft, grout,
	); err != nil {
		return errors.Wrap(err, "tile")
	}

	if _, err := tx.Exec(ctx, deleteColorsSQL, p.ID); err != nil {
		return errors.Wrap(err, "clear colors")
	}

	batch := &pgx.Batch{}
	for i, c := range p.Colors {
		batch.Queue(insertColorSQL, p.ID, i, c.Name, c.Hex)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "insert colors")
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p          product.Product
		colorNames []string
		colorHexes []string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.SizeLabel, &p.Size.Width, &p.Size.Height,
		&p.Finish, &p.Material, &p.Rating, &p.PricePerSqft, &p.PricePerBox,
		&p.CoveragePerBoxSqft, &p.GroutOptions,
		&colorNames, &colorHexes,
	)
	if err != nil {
		return p, err
	}
	if len(colorNames) != len(colorHexes) {
		return p, errors.Errorf("tile %q: %d color names but %d hex values", p.ID, len(colorNames), len(colorHexes))
	}
	for i, name := range colorNames {
		p.Colors = append(p.Colors, product.Color{Name: name, Hex: colorHexes[i]})
	}
	return p, nil
}
