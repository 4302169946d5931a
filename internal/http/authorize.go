package http

import (
	"log/slog"
	"net/http"
)

// PolicyChecker decides whether a role may perform action on resource.
type PolicyChecker interface {
	Allowed(role, resource, action string) (bool, error)
}

// RequirePermission rejects principals whose role the policy does not allow.
// It must run after RequireToken.
func RequirePermission(policy PolicyChecker, resource, action string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
				return
			}
			allowed, err := policy.Allowed(principal.Role, resource, action)
			if err != nil {
				responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
				return
			}
			if !allowed {
				responder.loggerFor(r.Context()).InfoContext(r.Context(), "permission denied",
					"resource", resource, "action", action)
				responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
					ErrorCode: "AUTH_FORBIDDEN",
					Message:   errForbidden.Error(),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
