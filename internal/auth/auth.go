// Package auth resolves the caller of a request from a Firebase ID token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/config"
	"github.com/ariefcatur/ferremas-api/internal/users"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// TokenVerifier is satisfied by *fbauth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type UserLookup interface {
	GetByFirebaseUID(ctx context.Context, uid string) (*users.User, error)
}

// Principal is the authenticated caller. UserID is zero when the token's uid has no local user.
type Principal struct {
	UserID int64
	UID    string
	Email  string
	Role   string
	Name   string
}

func (p *Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// LocalID returns the user id to record as actor, or nil when the caller has no local user.
func (p *Principal) LocalID() *int64 {
	if p == nil || p.UserID == 0 {
		return nil
	}
	id := p.UserID
	return &id
}

type Authenticator struct {
	Verifier TokenVerifier
	Users    UserLookup
	// DevToken is honored only when Dev is set.
	DevToken string
	Dev      bool
}

// NewFirebaseVerifier builds the Firebase auth client. Without a credentials file the
// application default credentials are used.
func NewFirebaseVerifier(ctx context.Context, cfg config.FirebaseConfig) (*fbauth.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return client, nil
}

// Authenticate checks the Authorization header value and resolves the principal.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Principal, error) {
	token, ok := bearer(header)
	if !ok {
		return nil, fmt.Errorf("missing bearer token: %w", apperr.ErrUnauthorized)
	}

	if a.Dev && a.DevToken != "" && token == a.DevToken {
		log.Debug().Msg("using development auth token")
		return &Principal{UserID: 1, Email: "test@ferremas.com", Role: users.RoleAdmin, Name: "Test User"}, nil
	}
	if a.Verifier == nil {
		return nil, fmt.Errorf("token verification disabled: %w", apperr.ErrUnauthorized)
	}

	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	t, err := a.Verifier.VerifyIDToken(vctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("id token rejected")
		return nil, fmt.Errorf("invalid id token: %w", apperr.ErrUnauthorized)
	}

	p := &Principal{
		UID:   t.UID,
		Email: claim(t, "email"),
		Role:  claim(t, "role"),
		Name:  claim(t, "name"),
	}
	if p.Role == "" {
		p.Role = users.RoleClient
	}
	if p.Name == "" {
		p.Name = p.Email
	}
	if a.Users == nil {
		return p, nil
	}

	u, err := a.Users.GetByFirebaseUID(ctx, t.UID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return p, nil
	case err != nil:
		return nil, err
	case !u.Active:
		return nil, fmt.Errorf("user %d is disabled: %w", u.ID, apperr.ErrForbidden)
	}
	p.UserID = u.ID
	p.Role = u.Role
	p.Email = u.Email
	return p, nil
}

func bearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

func claim(t *fbauth.Token, name string) string {
	s, _ := t.Claims[name].(string)
	return s
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok
}
