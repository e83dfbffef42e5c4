package gate

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

const (
	SignatureHeader     = "X-Webhook-Signature"
	DefaultMaxBodyBytes = 1 << 20
)

type SignatureVerifier interface {
	Verify(payload []byte, header string) error
}

// Webhook authenticates a callback by the HMAC of its exact body bytes. The
// body is restored for the next handler. No identity is attached.
func Webhook(v SignatureVerifier, log *zap.Logger, maxBody int64) func(http.Handler) http.Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					WriteError(w, r, log, auth.Validation("payload exceeds %d bytes", maxBody))
					return
				}
				WriteError(w, r, log, auth.Validation("unreadable payload"))
				return
			}
			if err := v.Verify(body, r.Header.Get(SignatureHeader)); err != nil {
				if log != nil && auth.KindOf(err).Expected() {
					log.Warn("webhook rejected",
						zap.String("path", r.URL.Path),
						zap.String("reason", auth.KindOf(err).String()),
					)
				}
				WriteError(w, r, log, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			next.ServeHTTP(w, r)
		})
	}
}
