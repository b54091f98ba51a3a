package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/auth"
	"github.com/ariefcatur/ferremas-api/internal/users"
)

type AccountService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Account, error)
	VerifyToken(ctx context.Context, idToken string) (*auth.Account, error)
	Status() auth.Status
}

type UserGetter interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

type AccountsHandler struct {
	Accounts AccountService
	Users    UserGetter
}

func (h *AccountsHandler) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	acc, err := h.Accounts.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "user registered", acc)
}

func (h *AccountsHandler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken string `json:"id_token"`
		// the storefront sends camelCase
		IDTokenCamel string `json:"idToken"`
	}
	if err := decodeJSON(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	token := body.IDToken
	if token == "" {
		token = body.IDTokenCamel
	}
	acc, err := h.Accounts.VerifyToken(r.Context(), token)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "token verified", acc)
}

func (h *AccountsHandler) me(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p == nil || p.UserID == 0 {
		fail(w, r, apperr.NotFound("user", "for current token"))
		return
	}
	u, err := h.Users.Get(r.Context(), p.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, http.StatusOK, "current user", auth.Account{User: u, UID: p.UID})
}

func (h *AccountsHandler) status(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, "auth status", h.Accounts.Status())
}
