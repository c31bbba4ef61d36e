package middleware

import (
	"context"
	"net/http"
	"strings"

	"intervue/internal/common"
	"intervue/internal/common/security"
	"intervue/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const actorCtxKey contextKey = "actor"

// Authenticator requires a valid token and stores the acting identity in the
// request context.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		userRole, err := security.GetUserRoleFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), actorCtxKey, model.Actor{ID: userID, Role: userRole})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticator stores the acting identity when a valid token is
// present and otherwise lets the request through anonymously. Used on read
// routes where the visibility gate distinguishes owners from the public.
func OptionalAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		userRole, _ := security.GetUserRoleFromClaims(claims)

		ctx := context.WithValue(r.Context(), actorCtxKey, model.Actor{ID: userID, Role: userRole})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorFromContext(r.Context())
		if !ok || actor.Role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetActorFromContext returns the authenticated identity, if any.
func GetActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey).(model.Actor)
	return actor, ok
}

// MaybeActor returns a pointer form for read paths where anonymous is valid.
func MaybeActor(ctx context.Context) *model.Actor {
	if actor, ok := GetActorFromContext(ctx); ok {
		return &actor
	}
	return nil
}
