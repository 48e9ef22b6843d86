package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/trailhead/tours/internal/domain"
	"github.com/trailhead/tours/internal/http/response"
	"github.com/trailhead/tours/internal/repo/postgres"
	"github.com/trailhead/tours/internal/service"
	"github.com/trailhead/tours/pkg/auth"
)

type ctxKey string

const ctxUser ctxKey = "current_user"

// Authenticator resolves bearer tokens to live user accounts. A token
// is rejected when the account is gone or deactivated, and when the
// password was changed after the token was issued.
type Authenticator struct {
	secret      string
	users       postgres.UserRepository
	credentials *service.CredentialManager
}

func NewAuthenticator(secret string, users postgres.UserRepository, credentials *service.CredentialManager) *Authenticator {
	return &Authenticator{
		secret:      secret,
		users:       users,
		credentials: credentials,
	}
}

func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			response.Unauthorized(w, "you are not logged in")
			return
		}

		claims, err := auth.Parse(strings.TrimPrefix(authz, "Bearer "), a.secret)
		if err != nil {
			response.Unauthorized(w, "invalid authorization token")
			return
		}

		user, err := a.users.FindByID(r.Context(), claims.Sub)
		if err != nil {
			response.InternalError(w, "failed to resolve user")
			return
		}
		if user == nil {
			response.Unauthorized(w, "the user belonging to this token no longer exists")
			return
		}

		if claims.IssuedAt != nil && a.credentials.ChangedAfter(user.PasswordChangedAt, claims.IssuedAt.Unix()) {
			response.Unauthorized(w, "password was changed recently, please log in again")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole wraps RequireAuth-protected routes with a role check.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				response.Unauthorized(w, "you are not logged in")
				return
			}
			if !allowed[user.Role] {
				response.Forbidden(w, "you do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated user, or nil outside
// RequireAuth.
func CurrentUser(r *http.Request) *domain.User {
	v := r.Context().Value(ctxUser)
	if v == nil {
		return nil
	}
	return v.(*domain.User)
}
