package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ggshop/internal/domain/auth"
)

type identityKey struct{}

// IdentityFromContext returns the caller resolved by Authenticate, or the
// visitor identity.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if id, ok := ctx.Value(identityKey{}).(auth.Identity); ok {
		return id
	}
	return auth.Visitor()
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Authenticate resolves the bearer token of every request into an identity.
// A missing or invalid token yields the visitor identity; routes that need
// more reject the request in the domain layer.
func Authenticate(v *auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.Visitor()
			if token, ok := bearerToken(r); ok {
				verified, err := v.Verify(token)
				if err != nil {
					zctx.From(r.Context()).Debug("Invalid bearer token", zap.Error(err))
				} else {
					id = verified
				}
			}
			ctx := WithIdentity(r.Context(), id)
			if id.IsAuthenticated() {
				ctx = zctx.With(ctx, zap.Int64("user_id", id.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
