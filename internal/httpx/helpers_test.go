package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
	"github.com/ariefcatur/ferremas-api/internal/auth"
	"github.com/ariefcatur/ferremas-api/internal/users"
	"github.com/stretchr/testify/require"
)

// tokenAuth maps bearer tokens straight to principals.
type tokenAuth map[string]*auth.Principal

func (a tokenAuth) Authenticate(_ context.Context, header string) (*auth.Principal, error) {
	p, ok := a[strings.TrimPrefix(header, "Bearer ")]
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	return p, nil
}

var testAuth = tokenAuth{
	"admin":     {UserID: 1, Role: users.RoleAdmin},
	"warehouse": {UserID: 2, Role: users.RoleWarehouse},
	"branch":    {UserID: 3, Role: users.RoleBranch},
	"client":    {UserID: 4, Role: users.RoleClient},
}

func newTestServer(t *testing.T, api *API) *httptest.Server {
	t.Helper()
	if api.Auth == nil {
		api.Auth = testAuth
	}
	r := NewRouter(RouterConfig{CORSOrigins: []string{"*"}})
	api.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type testEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}
