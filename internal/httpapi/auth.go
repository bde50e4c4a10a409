package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are issued by the external auth service. Subject is the user id.
type Claims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

type Identity struct {
	UserID string
	Email  string
	Admin  bool
}

type identityKey struct{}

var (
	errMissingToken = apperr.Auth("missing bearer token")
	errInvalidToken = apperr.Auth("invalid token")
	errNotAdmin     = apperr.Forbidden("admin only")
)

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// Authenticate verifies an HS256 bearer token and stores the caller's
// identity on the request context.
func Authenticate(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeError(w, r, log, errMissingToken)
				return
			}

			var claims Claims
			token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, keyFunc,
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeError(w, r, log, errInvalidToken)
				return
			}
			if _, err := uuid.Parse(claims.Subject); err != nil {
				writeError(w, r, log, errInvalidToken)
				return
			}

			ctx := withIdentity(r.Context(), Identity{
				UserID: claims.Subject,
				Email:  claims.Email,
				Admin:  claims.Admin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !identityFrom(r.Context()).Admin {
				writeError(w, r, log, errNotAdmin)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
