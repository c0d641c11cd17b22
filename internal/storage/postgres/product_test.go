//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/xenking/tile-storefront/internal/catalog"
	"github.com/xenking/tile-storefront/internal/domain/product"
)

func newTestRepository(t *testing.T) *ProductRepository {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:17.6-alpine3.22",
		tcpostgres.WithDatabase("tiles"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "migrations are idempotent")

	return NewProductRepository(pool)
}

func TestProductRepository_RoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	embedded, err := catalog.Default()
	require.NoError(t, err)
	want, err := embedded.List(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertAll(ctx, want))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID, "catalog order is kept")
		assert.Equal(t, want[i].Colors, got[i].Colors)
		assert.Equal(t, want[i].GroutOptions, got[i].GroutOptions)
		assert.True(t, want[i].PricePerSqft.Equal(got[i].PricePerSqft))
		assert.True(t, want[i].CoveragePerBoxSqft.Equal(got[i].CoveragePerBoxSqft))
		assert.True(t, want[i].Size.Width.Equal(got[i].Size.Width))
	}

	p, err := repo.GetByID(ctx, "tile-terra-honed-24x24")
	require.NoError(t, err)
	assert.Equal(t, "Terra Honed", p.Name)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)

	// The snapshot catalog built from the database validates.
	snap, err := catalog.Snapshot(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, len(want), snap.Len())
}

func TestProductRepository_UpsertReplacesColors(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	embedded, err := catalog.Default()
	require.NoError(t, err)
	p, err := embedded.GetByID(ctx, "tile-aurora-matte-12x24")
	require.NoError(t, err)

	require.NoError(t, repo.UpsertAll(ctx, []product.Product{*p}))

	p.Name = "Aurora Matte II"
	p.Colors = []product.Color{{Name: "Sand", Hex: "#e7e0d6"}}
	require.NoError(t, repo.UpsertAll(ctx, []product.Product{*p}))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aurora Matte II", got.Name)
	assert.Equal(t, []product.Color{{Name: "Sand", Hex: "#e7e0d6"}}, got.Colors)
}
