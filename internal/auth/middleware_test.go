package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

func authedRequest(t *testing.T, issuer *TokenIssuer, user User) *http.Request {
	t.Helper()
	token, _, err := issuer.Issue(user)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthenticateStoresActor(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	guard := NewMiddleware(issuer)

	var seen shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	guard.Authenticate(next).ServeHTTP(rec, authedRequest(t, issuer, User{ID: 3, Username: "clerk", Role: RoleStaff}))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(3), seen.ID)
	require.Equal(t, RoleStaff, seen.Role)
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	guard := NewMiddleware(NewTokenIssuer("test-secret", time.Hour))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	guard.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	guard := NewMiddleware(NewTokenIssuer("test-secret", time.Hour))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	guard.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleMatrix(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	guard := NewMiddleware(issuer)

	cases := []struct {
		name    string
		role    string
		allowed []string
		status  int
	}{
		{"staff allowed", RoleStaff, []string{RoleStaff}, http.StatusOK},
		{"viewer blocked from staff routes", RoleViewer, []string{RoleStaff}, http.StatusForbidden},
		{"admin always allowed", RoleAdmin, []string{RoleStaff}, http.StatusOK},
		{"staff blocked from admin routes", RoleStaff, nil, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := guard.Authenticate(
				guard.RequireRole(tc.allowed...)(
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
				),
			)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest(t, issuer, User{ID: 1, Username: "u", Role: tc.role}))
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireRoleWithoutAuthentication(t *testing.T) {
	guard := NewMiddleware(NewTokenIssuer("test-secret", time.Hour))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	guard.RequireRole(RoleStaff)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	})).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
