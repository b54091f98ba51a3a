package httpx

import (
	"net/http"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/users"
)

type UsersHandler struct {
	Store users.Store
}

func (h *UsersHandler) me(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil || p.UserID == 0 {
		fail(w, r, apperr.NotFound("user", "for current token"))
		return
	}
	u, err := h.Store.Get(r.Context(), p.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "user", u)
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "user", u)
}

func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var in users.CreateInput
	if err := decodeValid(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	p := principal(r)
	// only admins hand out staff roles
	if p == nil || !p.HasRole(users.RoleAdmin) {
		in.Role = users.RoleClient
	}
	// a signed-in caller registers its own firebase account
	if in.FirebaseUID == nil && p != nil && p.UID != "" {
		uid := p.UID
		in.FirebaseUID = &uid
	}
	u, err := h.Store.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "user created", u)
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var in users.UpdateInput
	if err := decodeValid(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.Store.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "user updated", u)
}

func (h *UsersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	u, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "user deleted", u)
}
