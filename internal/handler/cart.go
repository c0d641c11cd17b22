package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/tile-storefront/internal/domain/cart"
	"github.com/xenking/tile-storefront/internal/session"
)

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		respondError(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Session created", zap.Stringer("session", s.ID()))

	w.Header().Set("Location", "/api/sessions/"+s.ID().String()+"/cart")
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeCart(e, s.ID(), s.Cart())
	})
}

func (h *Handler) session(r *http.Request) (*session.Session, error) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, errors.Wrap(session.ErrNotFound, "parse session id")
	}
	return h.sessions.Get(id)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeCart(w, http.StatusOK, s.ID(), s.Cart())
}

// addItem covers both storefront add flows: a quick add of Quantity boxes, or
// an estimated add when roomSqft is present. A room area that yields no boxes
// is rejected.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req, err := decodeAddItem(r.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var (
		c  cart.Cart
		op = "add"
	)
	if req.RoomSqft != nil {
		op = "add_estimated"
		c, _, err = s.AddEstimated(r.Context(), req.ProductID, req.Color, *req.RoomSqft)
	} else {
		c, err = s.Add(r.Context(), req.ProductID, req.Color, req.Quantity)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.countMutation(r, op)
	writeCart(w, http.StatusOK, s.ID(), c)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	s, key, ok := h.sessionAndKey(w, r)
	if !ok {
		return
	}
	req, err := decodeUpdateItem(r.Body)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var c cart.Cart
	switch {
	case req.Quantity != nil:
		c = s.UpdateQuantity(key, *req.Quantity)
		h.countMutation(r, "update_quantity")
	case req.Delta > 0:
		c = s.Increment(key)
		h.countMutation(r, "increment")
	default:
		c = s.Decrement(key)
		h.countMutation(r, "decrement")
	}
	writeCart(w, http.StatusOK, s.ID(), c)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	s, key, ok := h.sessionAndKey(w, r)
	if !ok {
		return
	}
	c := s.Remove(key)
	h.countMutation(r, "remove")
	writeCart(w, http.StatusOK, s.ID(), c)
}

func (h *Handler) sessionAndKey(w http.ResponseWriter, r *http.Request) (*session.Session, cart.Key, bool) {
	s, err := h.session(r)
	if err != nil {
		respondError(w, r, err)
		return nil, "", false
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		respondError(w, r, badRequest(nil, "key query parameter is required"))
		return nil, "", false
	}
	return s, cart.Key(key), true
}

func writeCart(w http.ResponseWriter, status int, id uuid.UUID, c cart.Cart) {
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeCart(e, id, c)
	})
}
