package httpx

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/auth"
	"github.com/ariefcatur/ferremas-api/internal/orders"
	"github.com/ariefcatur/ferremas-api/internal/users"
)

type OrderService interface {
	Create(ctx context.Context, in orders.CreateInput) (*orders.Order, error)
	Get(ctx context.Context, id int64) (*orders.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]orders.Order, error)
	Update(ctx context.Context, id int64, in orders.UpdateInput) (*orders.Order, error)
	Delete(ctx context.Context, id int64) (*orders.Order, error)
}

type OrdersHandler struct {
	Service OrderService
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	if p := principal(r); p != nil && !p.HasRole(users.RoleAdmin) {
		in.UserID = p.UserID
	}
	o, err := h.Service.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "order created", o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.owned(r, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "order", o)
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		fail(w, r, err)
		return
	}
	if !canSeeOrdersOf(principal(r), userID) {
		fail(w, r, fmt.Errorf("orders of user %d: %w", userID, apperr.ErrForbidden))
		return
	}
	out, err := h.Service.ListByUser(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "orders", out)
}

func (h *OrdersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in orders.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	if _, err := h.owned(r, id); err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "order updated", o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	if _, err := h.owned(r, id); err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "order deleted", o)
}

// owned loads the order when the caller is its buyer or an admin.
func (h *OrdersHandler) owned(r *http.Request, id int64) (*orders.Order, error) {
	o, err := h.Service.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if !canSeeOrdersOf(principal(r), o.UserID) {
		return nil, fmt.Errorf("order %d: %w", id, apperr.ErrForbidden)
	}
	return o, nil
}

func canSeeOrdersOf(p *auth.Principal, userID int64) bool {
	if p == nil {
		return false
	}
	return p.HasRole(users.RoleAdmin) || (p.UserID != 0 && p.UserID == userID)
}
