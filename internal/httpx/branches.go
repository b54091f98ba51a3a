package httpx

import (
	"net/http"

	"github.com/ariefcatur/ferremas-api/internal/branches"
)

type BranchesHandler struct {
	Store branches.Store
}

func (h *BranchesHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Store.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "branches", out)
}

func (h *BranchesHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.Store.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "branch", b)
}

func (h *BranchesHandler) create(w http.ResponseWriter, r *http.Request) {
	var in branches.CreateInput
	if err := decodeValid(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.Store.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "branch created", b)
}

func (h *BranchesHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in branches.UpdateInput
	if err := decodeValid(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.Store.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "branch updated", b)
}

func (h *BranchesHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	b, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "branch deleted", b)
}
