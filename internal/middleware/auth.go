package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/adityaaa08012006/decivue-sub004/internal/apierrors"
	"github.com/adityaaa08012006/decivue-sub004/internal/collaborators"
)

// Auth resolves the caller's Authorization header into a collaborators.Actor
// using the supplied Identity, rejecting the request with 401 on failure.
// Resolution is delegated entirely to identity: API keys, bearer tokens, or
// whatever scheme the deployment's collaborators.Identity implementation
// understands.
func Auth(identity collaborators.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(AuthorizationHeader)
			if header == "" {
				writeAuthError(w, r, apierrors.Forbidden("missing Authorization header"))
				return
			}

			token := header
			if parts := strings.SplitN(header, " ", 2); len(parts) == 2 {
				token = parts[1]
			}

			actor, err := identity.Resolve(r.Context(), token)
			if err != nil {
				writeAuthError(w, r, apierrors.Forbidden("invalid credentials"))
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the actor resolved by Auth, if any.
func ActorFromContext(ctx context.Context) (collaborators.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(collaborators.Actor)
	return actor, ok
}

// RequireRole rejects requests whose resolved actor is not at least role in
// the lead > member governance hierarchy (spec §2's two-tier team roles).
func RequireRole(role collaborators.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				writeAuthError(w, r, apierrors.Forbidden("authentication required"))
				return
			}
			if role == collaborators.RoleLead && actor.Role != collaborators.RoleLead {
				writeAuthError(w, r, apierrors.Forbidden("this operation requires the lead role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	apierrors.WriteError(w, apiErr.WithRequestID(GetRequestID(r.Context())))
}
