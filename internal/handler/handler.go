// Package handler serves the storefront JSON API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/tile-storefront/internal/domain/product"
	"github.com/xenking/tile-storefront/internal/session"
	"github.com/xenking/tile-storefront/pkg/httpmiddleware"
)

// Handler exposes the catalog and shopper carts over HTTP.
type Handler struct {
	products product.Repository
	sessions *session.Store

	mutations metric.Int64Counter
}

// New constructs a Handler. Cart mutations are counted on a meter from mp.
func New(products product.Repository, sessions *session.Store, mp metric.MeterProvider) (*Handler, error) {
	mutations, err := mp.Meter("github.com/xenking/tile-storefront/internal/handler").Int64Counter(
		"storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cart mutation counter")
	}
	return &Handler{
		products:  products,
		sessions:  sessions,
		mutations: mutations,
	}, nil
}

// Routes returns the /api router. Middlewares in createSession wrap only
// session creation, the one endpoint that allocates server state.
func (h *Handler) Routes(createSession ...httpmiddleware.Middleware) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/{productID}", h.getProduct)
			r.Get("/{productID}/estimate", h.getEstimate)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Method(http.MethodPost, "/", httpmiddleware.Wrap(http.HandlerFunc(h.createSession), createSession...))
			r.Route("/{sessionID}/cart", func(r chi.Router) {
				r.Get("/", h.getCart)
				r.Post("/items", h.addItem)
				r.Patch("/items", h.updateItem)
				r.Delete("/items", h.removeItem)
			})
		})
	})
	return r
}

func (h *Handler) countMutation(r *http.Request, op string) {
	h.mutations.Add(r.Context(), 1, metric.WithAttributes(attribute.String("op", op)))
}
