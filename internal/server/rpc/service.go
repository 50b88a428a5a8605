package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Empty is the request or response of methods that carry no fields.
type Empty struct{}

// FullMethod returns the gRPC full method name "/service/method".
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// Method describes one unary RPC of a service.
type Method struct {
	Name string
	desc func(service string) grpc.MethodDesc
}

// Unary adapts fn into a unary method. Requests are decoded into a fresh *Req.
func Unary[Req, Resp any](name string, fn func(context.Context, *Req) (*Resp, error)) Method {
	return Method{
		Name: name,
		desc: func(service string) grpc.MethodDesc {
			return grpc.MethodDesc{
				MethodName: name,
				Handler: func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := new(Req)
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return fn(ctx, in)
					}
					info := &grpc.UnaryServerInfo{FullMethod: FullMethod(service, name)}
					return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
						return fn(ctx, req.(*Req))
					})
				},
			}
		},
	}
}

// Register adds the service made of methods to s.
func Register(s grpc.ServiceRegistrar, service string, methods ...Method) {
	desc := &grpc.ServiceDesc{
		ServiceName: service,
		HandlerType: (*any)(nil),
		Metadata:    service,
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, m.desc(service))
	}
	s.RegisterService(desc, struct{}{})
}

// Invoke calls a JSON-encoded unary method on cc.
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, fullMethod string, in, out any, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	return cc.Invoke(ctx, fullMethod, in, out, opts...)
}
