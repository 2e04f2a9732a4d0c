package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokenToCaller map[string]identity.Caller
	err           error
}

func (r *testResolver) ResolveToken(_ context.Context, token string) (identity.Caller, error) {
	if r.err != nil {
		return identity.Caller{}, r.err
	}
	caller, ok := r.tokenToCaller[token]
	if !ok {
		return identity.Caller{}, identity.ErrUnauthorized
	}
	return caller, nil
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokenToCaller: map[string]identity.Caller{
		"token": {UserID: "u1", GroupIDs: []string{"g1"}},
	}}

	var got identity.Caller
	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, []string{"g1"}, got.GroupIDs)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	handler := AuthMiddleware(&testResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"", "Bearer ", "Bearer wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthMiddleware_ResolverFailure(t *testing.T) {
	resolver := &testResolver{err: errors.New("database is locked")}
	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFixedCallerMiddleware(t *testing.T) {
	var got identity.Caller
	var ok bool
	handler := FixedCallerMiddleware(identity.Caller{UserID: "admin"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = CallerFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	require.Equal(t, "admin", got.UserID)
}
