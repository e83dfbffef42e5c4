package auth

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the credential engine. Transport layers map
// kinds to status codes; nothing below the boundary knows about HTTP.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredentials
	KindAccountDisabled
	KindInvalidRefreshToken
	KindRefreshTokenExpired
	KindMissingCredential
	KindInvalidCredential
	KindExpiredCredential
	KindAuthenticationRequired
	KindPermissionDenied
	KindSignatureRequired
	KindSignatureMismatch
	KindConfiguration
	KindStorage
)

var kindNames = map[Kind]string{
	KindUnknown:                "internal_error",
	KindValidation:             "validation_error",
	KindConflict:               "conflict",
	KindInvalidCredentials:     "invalid_credentials",
	KindAccountDisabled:        "account_disabled",
	KindInvalidRefreshToken:    "invalid_refresh_token",
	KindRefreshTokenExpired:    "refresh_token_expired",
	KindMissingCredential:      "missing_token",
	KindInvalidCredential:      "invalid_token",
	KindExpiredCredential:      "token_expired",
	KindAuthenticationRequired: "authentication_required",
	KindPermissionDenied:       "insufficient_permissions",
	KindSignatureRequired:      "signature_required",
	KindSignatureMismatch:      "invalid_signature",
	KindConfiguration:          "configuration_error",
	KindStorage:                "internal_error",
}

// String returns the machine-readable reason code.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Expected reports whether errors of this kind are a normal outcome of
// client input rather than a server-side defect.
func (k Kind) Expected() bool {
	switch k {
	case KindUnknown, KindConfiguration, KindStorage:
		return false
	}
	return true
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidRefreshToken)
// holds regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmailTaken             = &Error{Kind: KindConflict, Msg: "user with this email already exists"}
	ErrInvalidCredentials     = &Error{Kind: KindInvalidCredentials, Msg: "invalid email or password"}
	ErrAccountDisabled        = &Error{Kind: KindAccountDisabled, Msg: "account deactivated"}
	ErrInvalidRefreshToken    = &Error{Kind: KindInvalidRefreshToken, Msg: "invalid refresh token"}
	ErrRefreshTokenExpired    = &Error{Kind: KindRefreshTokenExpired, Msg: "refresh token expired"}
	ErrMissingCredential      = &Error{Kind: KindMissingCredential, Msg: "access denied, no token provided"}
	ErrInvalidCredential      = &Error{Kind: KindInvalidCredential, Msg: "invalid token"}
	ErrExpiredCredential      = &Error{Kind: KindExpiredCredential, Msg: "token expired"}
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired, Msg: "authentication required"}
	ErrPermissionDenied       = &Error{Kind: KindPermissionDenied, Msg: "insufficient permissions"}
	ErrSignatureRequired      = &Error{Kind: KindSignatureRequired, Msg: "webhook signature required"}
	ErrSignatureMismatch      = &Error{Kind: KindSignatureMismatch, Msg: "invalid webhook signature"}
)

// ErrRecordNotFound is returned by revocation stores when no record matches.
var ErrRecordNotFound = errors.New("refresh record not found")

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Configuration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

// Storage wraps a persistence failure. The cause stays reachable through
// errors.Unwrap for logging but never ends up in Msg.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: op + " failed", Err: err}
}

// KindOf extracts the kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PublicMessage is the text safe to show to an external caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind.Expected() {
		return e.Msg
	}
	return "internal server error"
}
