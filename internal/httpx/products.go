package httpx

import (
	"net/http"

	"github.com/ariefcatur/ferremas-api/internal/products"
	"github.com/go-chi/chi/v5"
)

type ProductsHandler struct {
	Store products.Store
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("categoria")
	if category == "" {
		category = r.URL.Query().Get("category")
	}
	var (
		out []products.Product
		err error
	)
	if category != "" {
		out, err = h.Store.ListByCategory(r.Context(), category)
	} else {
		out, err = h.Store.List(r.Context())
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "products", out)
}

func (h *ProductsHandler) byCategory(w http.ResponseWriter, r *http.Request) {
	out, err := h.Store.ListByCategory(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "products", out)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.Store.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "product", p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in products.CreateInput
	if err := decodeValid(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.Store.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "product created", p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in products.UpdateInput
	if err := decodeValid(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.Store.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "product updated", p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "product deleted", p)
}
