package gate

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/NordCoder/Credgate/internal/domain/auth"
)

// UnaryAuthInterceptor applies the bearer rules of Authenticate to gRPC
// calls. Methods listed in public skip authentication.
func UnaryAuthInterceptor(v Verifier, public map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if public[info.FullMethod] {
			return next(ctx, req)
		}

		token, ok := bearer(ctx)
		if !ok {
			return nil, StatusError(auth.ErrMissingCredential)
		}
		id, err := v.VerifyAccess(token)
		if err != nil {
			return nil, StatusError(err)
		}
		return next(WithIdentity(ctx, id), req)
	}
}

// StatusError converts an engine error into a gRPC status. The reason code
// travels as the status message.
func StatusError(err error) error {
	var e *auth.Error
	if !errors.As(err, &e) {
		return status.Error(codes.Internal, "internal error")
	}
	var c codes.Code
	switch StatusOf(e.Kind) {
	case http.StatusBadRequest:
		c = codes.InvalidArgument
	case http.StatusUnauthorized:
		c = codes.Unauthenticated
	case http.StatusForbidden:
		c = codes.PermissionDenied
	case http.StatusConflict:
		c = codes.AlreadyExists
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(c, e.Kind.String())
}

func bearer(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return "", false
	}
	return BearerToken(vals[0])
}
