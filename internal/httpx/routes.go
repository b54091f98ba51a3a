package httpx

import (
	"github.com/ariefcatur/ferremas-api/internal/users"
	"github.com/go-chi/chi/v5"
)

// API groups the handlers mounted under /api.
type API struct {
	Auth          Authenticator
	Products      *ProductsHandler
	Branches      *BranchesHandler
	StockRequests *StockRequestsHandler
	Orders        *OrdersHandler
	Contacts      *ContactsHandler
	Users         *UsersHandler
	Accounts      *AccountsHandler
	Checkout      *CheckoutHandler
}

func (a *API) Register(r chi.Router) {
	authed := RequireAuth(a.Auth)
	admin := RequireRole(users.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			h := a.Products
			r.Get("/", h.list)
			r.Get("/category/{name}", h.byCategory)
			r.Get("/{id}", h.get)
			r.With(authed, admin).Post("/", h.create)
			r.With(authed, admin).Put("/{id}", h.update)
			r.With(authed, admin).Delete("/{id}", h.delete)
		})

		r.Route("/branches", func(r chi.Router) {
			h := a.Branches
			r.Get("/", h.list)
			r.Get("/{id}", h.get)
			r.With(authed, admin).Post("/", h.create)
			r.With(authed, admin).Put("/{id}", h.update)
			r.With(authed, admin).Delete("/{id}", h.delete)
		})

		r.Route("/stock-requests", func(r chi.Router) {
			h := a.StockRequests
			r.Use(authed)
			warehouse := RequireRole(users.RoleAdmin, users.RoleWarehouse)
			branch := RequireRole(users.RoleAdmin, users.RoleBranch)

			r.Get("/", h.list)
			r.Get("/branch/{branchID}", h.listByBranch)
			r.Get("/{id}", h.get)
			r.With(branch).Post("/", h.create)
			r.With(warehouse).Put("/{id}/approve", h.approve)
			r.With(warehouse).Put("/{id}/reject", h.reject)
			r.With(warehouse).Put("/{id}/ship", h.ship)
			r.With(branch).Put("/{id}/receive", h.receive)
			r.With(branch).Delete("/{id}", h.delete)
		})

		r.Route("/orders", func(r chi.Router) {
			h := a.Orders
			r.Use(authed)
			r.Post("/", h.create)
			r.Get("/user/{userID}", h.listByUser)
			r.Get("/{id}", h.get)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})

		r.Route("/contacts", func(r chi.Router) {
			h := a.Contacts
			r.Post("/", h.create)
			r.With(authed, admin).Get("/", h.list)
			r.With(authed, admin).Get("/{id}", h.get)
			r.With(authed, admin).Delete("/{id}", h.delete)
		})

		r.Route("/users", func(r chi.Router) {
			h := a.Users
			// sign-up: a token, when sent, links the firebase account
			r.With(Optional(a.Auth)).Post("/", h.create)
			r.With(authed).Get("/me", h.me)
			r.With(authed).Get("/{id}", h.get)
			r.With(authed, admin).Put("/{id}", h.update)
			r.With(authed, admin).Delete("/{id}", h.delete)
		})

		r.Route("/auth", func(r chi.Router) {
			h := a.Accounts
			r.Post("/register", h.register)
			r.Post("/verify-token", h.verifyToken)
			r.With(authed).Get("/me", h.me)
			r.Get("/status", h.status)
		})

		// the gateway posts here without credentials
		r.Route("/webpay", func(r chi.Router) {
			h := a.Checkout
			r.Post("/transactions", h.createTransaction)
			r.Post("/return", h.returnCallback)
			r.Get("/return", h.returnCallback)
		})
	})
}
