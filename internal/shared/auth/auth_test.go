package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func okHandler(got *Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware_ValidToken(t *testing.T) {
	tok := sign(t, jwt.MapClaims{
		"sub":          "uid-1",
		"email":        "dueno@agencia.com",
		"role":         "authenticated",
		"app_metadata": map[string]any{"role": "admin"},
		"exp":          time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256, []byte(secret))

	var got Principal
	h := NewVerifier(secret).Middleware(okHandler(&got))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.UID != "uid-1" || got.Email != "dueno@agencia.com" || got.Role != "admin" {
		t.Fatalf("principal = %+v", got)
	}
}

func TestMiddleware_Rejects(t *testing.T) {
	v := NewVerifier(secret)
	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage", "Bearer abc.def.ghi"},
		{"wrong secret", "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "exp": exp}, jwt.SigningMethodHS256, []byte("other"))},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()}, jwt.SigningMethodHS256, []byte(secret))},
		{"no exp", "Bearer " + sign(t, jwt.MapClaims{"sub": "u"}, jwt.SigningMethodHS256, []byte(secret))},
		{"no sub", "Bearer " + sign(t, jwt.MapClaims{"exp": exp}, jwt.SigningMethodHS256, []byte(secret))},
		{"hs512", "Bearer " + sign(t, jwt.MapClaims{"sub": "u", "exp": exp}, jwt.SigningMethodHS512, []byte(secret))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Principal
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			v.Middleware(okHandler(&got)).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	var got Principal
	h := RequireRole(RoleAdmin)(okHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UID: "u", Role: "authenticated"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UID: "u", Role: RoleAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin status = %d", rec.Code)
	}
}
