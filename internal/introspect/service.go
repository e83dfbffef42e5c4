package introspect

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/gate"
	"github.com/NordCoder/Credgate/internal/obs"
)

const (
	ServiceName  = "credgate.v1.Introspection"
	VerifyMethod = "/" + ServiceName + "/Verify"
)

// IntrospectionServer verifies access tokens on behalf of peers that do not
// hold the access secret.
type IntrospectionServer interface {
	Verify(ctx context.Context, token *wrapperspb.StringValue) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntrospectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Verify", Handler: verifyHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func Register(s grpc.ServiceRegistrar, srv IntrospectionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func verifyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntrospectionServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IntrospectionServer).Verify(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type Server struct {
	v   gate.Verifier
	log *zap.Logger
}

func NewServer(v gate.Verifier, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{v: v, log: log}
}

// Verify answers with the token's claims, or Unauthenticated carrying the
// reason code (missing_token, token_expired, invalid_token).
func (s *Server) Verify(ctx context.Context, token *wrapperspb.StringValue) (*structpb.Struct, error) {
	raw := token.GetValue()
	if raw == "" {
		return nil, gate.StatusError(domainauth.ErrMissingCredential)
	}
	id, err := s.v.VerifyAccess(raw)
	if err != nil {
		obs.WithTrace(ctx, s.log).Debug("introspection rejected", zap.Error(err))
		return nil, gate.StatusError(err)
	}
	return structpb.NewStruct(map[string]any{
		"sub":   id.SubjectID,
		"email": id.Email,
		"role":  string(id.Role),
	})
}

// Client calls the introspection service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a traced plaintext connection to target. Close the returned
// connection when done.
func Dial(target string, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append(append(obs.GRPCClientOpts(),
		grpc.WithTransportCredentials(insecure.NewCredentials())), opts...)
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(cc), cc, nil
}

func (c *Client) Verify(ctx context.Context, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerifyMethod, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
