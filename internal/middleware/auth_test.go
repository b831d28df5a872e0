// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

type verifierFunc func(ctx context.Context, token string) (*AccessTokenClaims, error)

func (f verifierFunc) VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error) {
	return f(ctx, token)
}

func staticVerifier(role visibility.Role) verifierFunc {
	return func(_ context.Context, token string) (*AccessTokenClaims, error) {
		if token != "good" {
			return nil, core.ErrTokenExpired
		}
		return &AccessTokenClaims{UserID: 42, Role: string(role)}, nil
	}
}

func TestAuthenticatorSetsActor(t *testing.T) {
	var got visibility.Actor
	h := Authenticator(staticVerifier(visibility.RoleManager))(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = GetActor(r.Context())
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, visibility.Actor{ID: 42, Role: visibility.RoleManager}, got)
}

func TestAuthenticatorRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing", "", core.CodeUnauthorized},
		{"wrong scheme", "Basic good", core.CodeUnauthorized},
		{"expired", "Bearer stale", core.CodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticator(staticVerifier(visibility.RoleAdmin))(
				http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
					t.Fatal("handler must not run")
				}),
			)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireRole(visibility.RoleAdmin, visibility.RoleManager)(ok)

	serve := func(ctx context.Context) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
		return rec.Code
	}

	withRole := func(role visibility.Role) context.Context {
		return WithClaims(context.Background(), &AccessTokenClaims{UserID: 1, Role: string(role)})
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))
	assert.Equal(t, http.StatusForbidden, serve(withRole(visibility.RoleSalesRep)))
	assert.Equal(t, http.StatusNoContent, serve(withRole(visibility.RoleManager)))
}

func TestKeyByUserAndEndpointCollapsesIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/leads/123/assign", nil)
	req = req.WithContext(WithClaims(req.Context(), &AccessTokenClaims{UserID: 9, Role: "admin"}))

	assert.Equal(t, "ratelimit:user:9:endpoint:/v1/leads/{id}/assign", KeyByUserAndEndpoint(req))
}
