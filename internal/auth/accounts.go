package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/users"
	"github.com/ariefcatur/ferremas-api/internal/validation"
	"github.com/rs/zerolog/log"
)

// AccountAdmin is the part of *fbauth.Client used to manage sign-in accounts.
type AccountAdmin interface {
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
}

type Directory interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*users.User, error)
	Create(ctx context.Context, in users.CreateInput) (*users.User, error)
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// Account is a local user together with its Firebase identity.
type Account struct {
	User          *users.User `json:"user"`
	UID           string      `json:"uid"`
	EmailVerified bool        `json:"email_verified"`
}

// Status describes the identity provider setup without exposing credentials.
type Status struct {
	Configured bool   `json:"configured"`
	ProjectID  string `json:"project_id,omitempty"`
	DevToken   bool   `json:"dev_token"`
}

// Accounts registers users and links Firebase identities to local users.
// Admin and Verifier are nil when Firebase could not be initialised.
type Accounts struct {
	Admin     AccountAdmin
	Verifier  TokenVerifier
	Users     Directory
	ProjectID string
	DevToken  bool
}

// Register creates the Firebase account and the local client user. A duplicate email is
// ErrConflict whether it is found locally or by Firebase.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	_, err := a.Users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("email %s already registered: %w", in.Email, apperr.ErrConflict)
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	if a.Admin == nil {
		return nil, errors.New("account registration unavailable: firebase is not configured")
	}

	name := strings.TrimSpace(in.FirstName + " " + in.LastName)
	rec, err := a.Admin.CreateUser(ctx, (&fbauth.UserToCreate{}).
		Email(in.Email).
		Password(in.Password).
		DisplayName(name))
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, fmt.Errorf("email %s already has a firebase account: %w", in.Email, apperr.ErrConflict)
		}
		return nil, fmt.Errorf("create firebase account: %w", err)
	}

	uid := rec.UID
	u, err := a.Users.Create(ctx, users.CreateInput{
		FirebaseUID: &uid,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Role:        users.RoleClient,
	})
	if err != nil {
		// roll back the sign-in account
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if derr := a.Admin.DeleteUser(dctx, uid); derr != nil {
			log.Error().Err(derr).Str("uid", uid).Msg("removing firebase account after failed registration")
		}
		return nil, err
	}
	log.Info().Int64("user_id", u.ID).Str("uid", uid).Msg("user registered")
	return &Account{User: u, UID: uid, EmailVerified: rec.EmailVerified}, nil
}

// VerifyToken checks an ID token and returns the matching local user, creating a client
// user the first time a Firebase identity is seen.
func (a *Accounts) VerifyToken(ctx context.Context, idToken string) (*Account, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, apperr.Invalid("id_token", "token not provided")
	}
	if a.Verifier == nil {
		return nil, fmt.Errorf("token verification disabled: %w", apperr.ErrUnauthorized)
	}

	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	t, err := a.Verifier.VerifyIDToken(vctx, idToken)
	if err != nil {
		log.Debug().Err(err).Msg("id token rejected")
		return nil, fmt.Errorf("invalid or expired id token: %w", apperr.ErrUnauthorized)
	}
	verified, _ := t.Claims["email_verified"].(bool)

	u, err := a.Users.GetByFirebaseUID(ctx, t.UID)
	if errors.Is(err, apperr.ErrNotFound) {
		u, err = a.Users.Create(ctx, newUserFromToken(t))
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, fmt.Errorf("user %d is disabled: %w", u.ID, apperr.ErrForbidden)
	}
	return &Account{User: u, UID: t.UID, EmailVerified: verified}, nil
}

func (a *Accounts) Status() Status {
	return Status{Configured: a.Verifier != nil, ProjectID: a.ProjectID, DevToken: a.DevToken}
}

func newUserFromToken(t *fbauth.Token) users.CreateInput {
	uid := t.UID
	email := claim(t, "email")
	first := claim(t, "name")
	if first == "" {
		first, _, _ = strings.Cut(email, "@")
	}
	if first == "" {
		first = uid
	}
	return users.CreateInput{FirebaseUID: &uid, Email: email, FirstName: first, Role: users.RoleClient}
}
