package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/tile-storefront/internal/domain/product"
	"github.com/xenking/tile-storefront/internal/estimate"
)

// listProducts serves GET /api/products with optional search, finish,
// material and size filters.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := product.Filter{
		Search:   q.Get("search"),
		Finish:   q.Get("finish"),
		Material: q.Get("material"),
		Size:     q.Get("size"),
	}
	products = filter.Apply(products)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			encodeProduct(e, p)
		}
		e.ArrEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p)
	})
}

// getEstimate serves the coverage calculator. A missing or unusable roomSqft
// yields a zero estimate rather than an error.
func (h *Handler) getEstimate(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	est := estimate.ForProduct(*p, estimate.ParseRoomArea(r.URL.Query().Get("roomSqft")))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeEstimate(e, p.ID, est)
	})
}
