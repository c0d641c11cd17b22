// Package session keeps one shopping cart per shopper. The cart itself is an
// immutable value; a session swaps it wholesale on every change, so readers
// always observe a complete cart.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/tile-storefront/internal/domain/cart"
	"github.com/xenking/tile-storefront/internal/domain/product"
	"github.com/xenking/tile-storefront/internal/estimate"
)

// ErrNoEstimate is returned when an estimated add is requested for a room
// area that yields no boxes.
var ErrNoEstimate = errors.New("room area yields no estimate")

// Session owns the cart of a single shopper.
type Session struct {
	id       uuid.UUID
	products product.Repository
	now      func() time.Time

	mu       sync.Mutex // serializes read-modify-swap
	cart     atomic.Pointer[cart.Cart]
	lastSeen atomic.Int64
}

func newSession(id uuid.UUID, products product.Repository, now func() time.Time) *Session {
	s := &Session{
		id:       id,
		products: products,
		now:      now,
	}
	empty := cart.New()
	s.cart.Store(&empty)
	s.touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Cart returns the current cart.
func (s *Session) Cart() cart.Cart {
	return *s.cart.Load()
}

// QuickAdd adds one box of a product in the given color.
func (s *Session) QuickAdd(ctx context.Context, productID, color string) (cart.Cart, error) {
	return s.Add(ctx, productID, color, 1)
}

// Add adds quantity boxes of a product. An empty or unknown color selects the
// product's first color.
func (s *Session) Add(ctx context.Context, productID, color string, quantity int) (cart.Cart, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return cart.Cart{}, errors.Wrapf(err, "get product %q", productID)
	}

	v := resolveVariant(ctx, *p, color)
	next := s.update(func(c cart.Cart) cart.Cart {
		return c.Add(*p, v, quantity)
	})

	zctx.From(ctx).Debug("Added to cart",
		zap.Stringer("session", s.id),
		zap.String("product", productID),
		zap.Int("quantity", max(quantity, 1)),
	)
	return next, nil
}

// AddEstimated adds as many boxes as the estimator requires for roomSqft. The
// boxes are added on top of any existing line for the same product and color.
// It returns the updated cart and the number of boxes added.
func (s *Session) AddEstimated(ctx context.Context, productID, color string, roomSqft decimal.Decimal) (cart.Cart, int, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return cart.Cart{}, 0, errors.Wrapf(err, "get product %q", productID)
	}

	boxes := estimate.UnitsNeeded(roomSqft, p.CoveragePerBoxSqft)
	if boxes == 0 {
		return s.Cart(), 0, ErrNoEstimate
	}

	v := resolveVariant(ctx, *p, color)
	next := s.update(func(c cart.Cart) cart.Cart {
		return c.Add(*p, v, boxes)
	})

	zctx.From(ctx).Debug("Added estimate to cart",
		zap.Stringer("session", s.id),
		zap.String("product", productID),
		zap.Stringer("room_sqft", roomSqft),
		zap.Int("boxes", boxes),
	)
	return next, boxes, nil
}

// UpdateQuantity sets the quantity of a line, clamped to at least one.
func (s *Session) UpdateQuantity(key cart.Key, quantity int) cart.Cart {
	return s.update(func(c cart.Cart) cart.Cart {
		return c.UpdateQuantity(key, quantity)
	})
}

// Increment adds one box to a line.
func (s *Session) Increment(key cart.Key) cart.Cart {
	return s.update(func(c cart.Cart) cart.Cart {
		return c.Increment(key)
	})
}

// Decrement removes one box from a line, keeping at least one.
func (s *Session) Decrement(key cart.Key) cart.Cart {
	return s.update(func(c cart.Cart) cart.Cart {
		return c.Decrement(key)
	})
}

// Remove drops a line from the cart.
func (s *Session) Remove(key cart.Key) cart.Cart {
	return s.update(func(c cart.Cart) cart.Cart {
		return c.Remove(key)
	})
}

func (s *Session) update(fn func(cart.Cart) cart.Cart) cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(*s.cart.Load())
	s.cart.Store(&next)
	s.touch()
	return next
}

func (s *Session) touch() {
	s.lastSeen.Store(s.now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func resolveVariant(ctx context.Context, p product.Product, color string) cart.Variant {
	if color == "" {
		return cart.Variant{}
	}
	c, ok := p.ColorByName(color)
	if !ok {
		zctx.From(ctx).Debug("Unknown color, using default",
			zap.String("product", p.ID),
			zap.String("color", color),
		)
		return cart.Variant{}
	}
	return cart.WithColor(c)
}
