package middleware

import (
	"context"
	"errors"
	"net/http"

	"stashbox/internal/common"
	"stashbox/internal/common/security"
	"stashbox/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const UserCtxKey contextKey = "currentUser"

// IdentityResolver turns a raw bearer token into the User it was issued to.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*model.User, error)
}

type Authenticator struct {
	resolver IdentityResolver
}

func NewAuthenticator(resolver IdentityResolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// RequireUser guards a route group: it extracts the bearer token from the
// Authorization header, resolves the caller, and stores the User in the
// request context. All failures are 401; only expiry gets its own message,
// since that leaks nothing.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := jwtauth.TokenFromHeader(r)
		if tokenString == "" {
			common.RespondWithChallenge(w, http.StatusUnauthorized, "Authorization token required")
			return
		}

		user, err := a.resolver.ResolveIdentity(r.Context(), tokenString)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				common.RespondWithChallenge(w, http.StatusUnauthorized, "Token expired")
			} else {
				common.RespondWithChallenge(w, http.StatusUnauthorized, "Could not validate credentials")
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to get the authenticated user from context
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok
}
