package interceptors

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor that writes one structured log line per RPC
// with method, status code, duration, client IP and the principal when authenticated.
// skipMethods is the set of full method names to not log (e.g. Health Check).
func LoggingUnary(log logrus.FieldLogger, clock clockwork.Clock, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := clock.Now()
		resp, err := handler(ctx, req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		fields := logrus.Fields{
			"method":      info.FullMethod,
			"code":        status.Code(err).String(),
			"duration_ms": clock.Since(start).Milliseconds(),
			"client_ip":   ClientIP(ctx),
		}
		if principalID, ok := GetPrincipalID(ctx); ok {
			fields["principal_id"] = principalID
		}
		log.WithFields(fields).Info("grpc request")
		return resp, err
	}
}
