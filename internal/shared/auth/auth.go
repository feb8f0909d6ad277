package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

// Principal é o usuário autenticado pelo provedor de identidade.
type Principal struct {
	UID   string
	Email string
	Role  string
}

type ctxKey struct{}

// WithPrincipal coloca o principal no contexto.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext devolve o principal colocado pelo Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Verifier valida tokens HS256 emitidos pelo provedor de identidade.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier { return &Verifier{secret: []byte(secret)} }

// Verify confere assinatura e expiração e extrai sub, email e role.
// O role vem de app_metadata.role quando presente, senão do claim "role".
func (v *Verifier) Verify(tokenStr string) (Principal, error) {
	if len(v.secret) == 0 {
		return Principal{}, errors.New("jwt secret not configured")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, err
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, errors.New("token without subject")
	}
	p := Principal{UID: sub}
	p.Email, _ = claims["email"].(string)
	if meta, ok := claims["app_metadata"].(map[string]any); ok {
		p.Role, _ = meta["role"].(string)
	}
	if p.Role == "" {
		p.Role, _ = claims["role"].(string)
	}
	return p, nil
}

// Middleware exige "Authorization: Bearer <jwt>" válido.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			deny(w, http.StatusUnauthorized, "unauthorized", "Falta el token de acceso")
			return
		}
		p, err := v.Verify(strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				deny(w, http.StatusUnauthorized, "token_expired", "La sesión expiró, volvé a iniciar sesión")
				return
			}
			deny(w, http.StatusUnauthorized, "unauthorized", "Token inválido")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole bloqueia quem não tem o role informado. Deve vir depois do Middleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok || p.Role != role {
				deny(w, http.StatusForbidden, "forbidden", "Acceso denegado")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
