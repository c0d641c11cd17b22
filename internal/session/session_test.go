package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xenking/tile-storefront/internal/domain/cart"
	"github.com/xenking/tile-storefront/internal/domain/product"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

type fakeClock struct {
	nanos atomic.Int64
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(0, c.nanos.Load())
}

func (c *fakeClock) Advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newProductRepo() *mockProductRepo {
	return &mockProductRepo{byID: map[string]product.Product{
		"aurora": {
			ID:                 "aurora",
			Name:               "Aurora Matte",
			SizeLabel:          "12x24 in",
			Finish:             "Matte",
			PricePerSqft:       d("4.25"),
			PricePerBox:        d("54.99"),
			CoveragePerBoxSqft: d("13.2"),
			Colors:             []product.Color{{Name: "White"}, {Name: "Sand"}},
		},
		"terra": {
			ID:                 "terra",
			Name:               "Terra Honed",
			PricePerSqft:       d("6.90"),
			CoveragePerBoxSqft: d("12.0"),
			Colors:             []product.Color{{Name: "Ivory"}},
		},
	}}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewStore(newProductRepo(), StoreConfig{}).Create()
	require.NoError(t, err)
	return s
}

// --- Tests ---

func TestSession_QuickAdd(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	c, err := s.QuickAdd(ctx, "aurora", "")
	require.NoError(t, err)
	c, err = s.QuickAdd(ctx, "aurora", "White")
	require.NoError(t, err)

	require.Equal(t, 1, c.Len())
	item := c.Items()[0]
	assert.Equal(t, "White", item.Color)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, c, s.Cart())
}

func TestSession_Add(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		color     string
		quantity  int
		wantKey   cart.Key
		wantQty   int
		wantErr   error
	}{
		{name: "explicit color", productID: "aurora", color: "Sand", quantity: 3, wantKey: cart.KeyFor("aurora", "Sand"), wantQty: 3},
		{name: "unknown color falls back to first", productID: "aurora", color: "Magenta", quantity: 1, wantKey: cart.KeyFor("aurora", "White"), wantQty: 1},
		{name: "zero quantity adds one", productID: "terra", quantity: 0, wantKey: cart.KeyFor("terra", "Ivory"), wantQty: 1},
		{name: "unknown product", productID: "ghost", quantity: 1, wantErr: product.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)

			c, err := s.Add(context.Background(), tt.productID, tt.color, tt.quantity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, s.Cart().Len(), "cart must not change on error")
				return
			}
			require.NoError(t, err)

			item, ok := c.Get(tt.wantKey)
			require.True(t, ok)
			assert.Equal(t, tt.wantQty, item.Quantity)
		})
	}
}

func TestSession_AddEstimated(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	_, err := s.QuickAdd(ctx, "aurora", "White")
	require.NoError(t, err)

	c, boxes, err := s.AddEstimated(ctx, "aurora", "White", d("120"))
	require.NoError(t, err)
	assert.Equal(t, 10, boxes)

	item, ok := c.Get(cart.KeyFor("aurora", "White"))
	require.True(t, ok)
	assert.Equal(t, 11, item.Quantity, "estimate is added on top of the existing line")

	_, boxes, err = s.AddEstimated(ctx, "aurora", "White", decimal.Zero)
	require.ErrorIs(t, err, ErrNoEstimate)
	assert.Zero(t, boxes)

	_, _, err = s.AddEstimated(ctx, "ghost", "", d("10"))
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestSession_Mutations(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)
	key := cart.KeyFor("aurora", "White")

	_, err := s.Add(ctx, "aurora", "White", 2)
	require.NoError(t, err)
	_, err = s.QuickAdd(ctx, "terra", "")
	require.NoError(t, err)
	assert.True(t, d("195.0").Equal(s.Cart().Subtotal()))

	before := s.Cart()
	c := s.Increment(key)
	item, _ := c.Get(key)
	assert.Equal(t, 3, item.Quantity)

	held, _ := before.Get(key)
	assert.Equal(t, 2, held.Quantity, "previously read carts are not affected")

	s.Decrement(key)
	s.Decrement(key)
	c = s.Decrement(key)
	item, _ = c.Get(key)
	assert.Equal(t, 1, item.Quantity)

	c = s.UpdateQuantity(key, 0)
	item, _ = c.Get(key)
	assert.Equal(t, 1, item.Quantity)

	c = s.Remove(key)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, s.Remove("missing").Len())
}

func TestSession_RepositoryError(t *testing.T) {
	repo := newProductRepo()
	repo.getErr = errors.New("db down")
	s, err := NewStore(repo, StoreConfig{}).Create()
	require.NoError(t, err)

	_, err = s.QuickAdd(context.Background(), "aurora", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestSession_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				_, err := s.QuickAdd(ctx, "aurora", "Sand")
				assert.NoError(t, err)
				_ = s.Cart().Subtotal()
			}
		}()
	}
	wg.Wait()

	item, ok := s.Cart().Get(cart.KeyFor("aurora", "Sand"))
	require.True(t, ok)
	assert.Equal(t, workers*perWorker, item.Quantity)
}
