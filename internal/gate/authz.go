package gate

import (
	"net/http"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

// Authorize requires an attached identity whose role is in roles. With no
// roles any authenticated identity passes.
func Authorize(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, r, nil, auth.ErrAuthenticationRequired)
				return
			}
			if len(roles) > 0 && !id.Role.In(roles) {
				WriteError(w, r, nil, auth.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfOrRole lets through the subject named by the path parameter
// param, or any identity holding one of roles.
func RequireSelfOrRole(param string, roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, r, nil, auth.ErrAuthenticationRequired)
				return
			}
			if id.SubjectID != r.PathValue(param) && !id.Role.In(roles) {
				WriteError(w, r, nil, auth.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one runs outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
