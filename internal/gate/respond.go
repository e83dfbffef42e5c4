package gate

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

// StatusOf maps an error kind to its HTTP status.
func StatusOf(k auth.Kind) int {
	switch k {
	case auth.KindValidation:
		return http.StatusBadRequest
	case auth.KindConflict:
		return http.StatusConflict
	case auth.KindPermissionDenied:
		return http.StatusForbidden
	case auth.KindInvalidCredentials,
		auth.KindAccountDisabled,
		auth.KindInvalidRefreshToken,
		auth.KindRefreshTokenExpired,
		auth.KindMissingCredential,
		auth.KindInvalidCredential,
		auth.KindExpiredCredential,
		auth.KindAuthenticationRequired,
		auth.KindSignatureRequired,
		auth.KindSignatureMismatch:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// WriteError renders err for an external caller. Unexpected kinds are logged
// with their cause and rendered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := auth.KindOf(err)
	if log != nil {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("reason", kind.String()),
		}
		if kind.Expected() {
			log.Debug("request rejected", fields...)
		} else {
			log.Error("request failed", append(fields, zap.Error(err))...)
		}
	}
	WriteJSON(w, StatusOf(kind), errorBody{Error: auth.PublicMessage(err), Reason: kind.String()})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
