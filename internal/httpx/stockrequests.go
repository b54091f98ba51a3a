package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/ferremas-api/internal/stockrequest"
)

type StockRequestService interface {
	Create(ctx context.Context, in stockrequest.CreateInput) (*stockrequest.StockRequest, error)
	Get(ctx context.Context, id int64) (*stockrequest.StockRequest, error)
	List(ctx context.Context, status *stockrequest.Status) ([]stockrequest.StockRequest, error)
	ListByBranch(ctx context.Context, branchID int64) ([]stockrequest.StockRequest, error)
	Approve(ctx context.Context, id int64, respondedBy *int64) (*stockrequest.StockRequest, error)
	Reject(ctx context.Context, id int64, respondedBy *int64, reason string) (*stockrequest.StockRequest, error)
	MarkShipped(ctx context.Context, id int64) (*stockrequest.StockRequest, error)
	MarkReceived(ctx context.Context, id int64) (*stockrequest.StockRequest, error)
	Delete(ctx context.Context, id int64) (*stockrequest.StockRequest, error)
}

type StockRequestsHandler struct {
	Service StockRequestService
}

func (h *StockRequestsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in stockrequest.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	if in.RequestedBy == nil {
		in.RequestedBy = principal(r).LocalID()
	}
	sr, err := h.Service.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "stock request created", sr)
}

func (h *StockRequestsHandler) list(w http.ResponseWriter, r *http.Request) {
	var status *stockrequest.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := stockrequest.Status(s)
		status = &st
	}
	out, err := h.Service.List(r.Context(), status)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "stock requests", out)
}

func (h *StockRequestsHandler) listByBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := idParam(r, "branchID")
	if err != nil {
		fail(w, r, err)
		return
	}
	out, err := h.Service.ListByBranch(r.Context(), branchID)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "stock requests", out)
}

func (h *StockRequestsHandler) get(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "stock request", h.Service.Get)
}

func (h *StockRequestsHandler) approve(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "stock request approved", func(ctx context.Context, id int64) (*stockrequest.StockRequest, error) {
		return h.Service.Approve(ctx, id, principal(r).LocalID())
	})
}

func (h *StockRequestsHandler) reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	// the reason is optional, so an empty body is fine
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			fail(w, r, err)
			return
		}
	}
	h.byID(w, r, "stock request rejected", func(ctx context.Context, id int64) (*stockrequest.StockRequest, error) {
		return h.Service.Reject(ctx, id, principal(r).LocalID(), body.Reason)
	})
}

func (h *StockRequestsHandler) ship(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "stock request shipped", h.Service.MarkShipped)
}

func (h *StockRequestsHandler) receive(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "stock request received", h.Service.MarkReceived)
}

func (h *StockRequestsHandler) delete(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "stock request deleted", h.Service.Delete)
}

func (h *StockRequestsHandler) byID(w http.ResponseWriter, r *http.Request, msg string,
	fn func(ctx context.Context, id int64) (*stockrequest.StockRequest, error)) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	sr, err := fn(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, msg, sr)
}
