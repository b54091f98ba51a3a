package httpx

import (
	"net/http"

	"github.com/ariefcatur/ferremas-api/internal/contacts"
)

type ContactsHandler struct {
	Store contacts.Store
}

func (h *ContactsHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Store.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "contacts", out)
}

func (h *ContactsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.Store.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "contact", c)
}

func (h *ContactsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in contacts.CreateInput
	if err := decodeValid(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.Store.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "message received", c)
}

func (h *ContactsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "contact deleted", c)
}
