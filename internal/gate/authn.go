package gate

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/obs"
)

type Verifier interface {
	VerifyAccess(token string) (auth.Identity, error)
}

// BearerToken extracts <token> from "Authorization: Bearer <token>". The
// scheme is case-insensitive; anything else counts as no credential.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Authenticate rejects requests without a valid access token and attaches
// the identity to the request context otherwise.
func Authenticate(v Verifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				rejected(w, r, log, auth.ErrMissingCredential)
				return
			}
			id, err := v.VerifyAccess(token)
			if err != nil {
				rejected(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Optional attaches an identity when a valid token is present and never
// rejects.
func Optional(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := BearerToken(r.Header.Get("Authorization")); ok {
				if id, err := v.VerifyAccess(token); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejected(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if log != nil {
		obs.WithTrace(r.Context(), log).Info("authentication rejected",
			zap.String("path", r.URL.Path),
			zap.String("reason", auth.KindOf(err).String()),
		)
	}
	WriteError(w, r, nil, err)
}
