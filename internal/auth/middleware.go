package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"portfolio-api/internal/httputil"
)

type contextKey string

const identityKey contextKey = "admin_identity"

// Identity is the authenticated admin attached to the request context.
type Identity struct {
	AdminID string
	Email   string
}

// Middleware rejects requests without a valid bearer token with 401 and
// stores the token's Identity in the context otherwise.
func Middleware(tokens *TokenManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(r.Context(), "no bearer token", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				logger.WarnContext(r.Context(), "invalid token", "path", r.URL.Path, "error", err)
				httputil.RespondWithError(w, http.StatusUnauthorized, "Token is not valid")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{AdminID: claims.Subject, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
