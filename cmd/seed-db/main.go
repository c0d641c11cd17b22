// Command seed-db loads a catalog document into the Postgres catalog.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/tile-storefront/db"
	"github.com/xenking/tile-storefront/internal/catalog"
	"github.com/xenking/tile-storefront/internal/domain/product"
	"github.com/xenking/tile-storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		catalogFile string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "catalog JSON document, .json or .json.gz (default: embedded catalog)")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, catalogFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, catalogFile string) error {
	products, err := readCatalog(catalogFile)
	if err != nil {
		return err
	}
	if err := product.ValidateAll(products); err != nil {
		return errors.Wrap(err, "validate catalog")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	lg.Info("Upserting tiles", zap.Int("count", len(products)))
	if err := postgres.NewProductRepository(pool).UpsertAll(ctx, products); err != nil {
		return errors.Wrap(err, "upsert tiles")
	}
	for _, p := range products {
		lg.Debug("Upserted tile", zap.String("id", p.ID), zap.Int("colors", len(p.Colors)))
	}
	return nil
}

func readCatalog(path string) ([]product.Product, error) {
	if path == "" {
		products, err := catalog.Parse(db.Tiles)
		if err != nil {
			return nil, errors.Wrap(err, "parse embedded catalog")
		}
		return products, nil
	}
	return catalog.ReadFile(path)
}
