package interceptors

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"identity-platform/backend/internal/apperr"
)

// ToStatus maps a use case failure to a gRPC status error. Errors that already carry a status are
// returned unchanged; infrastructure errors become Internal without leaking their message.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(codeFor(ae), ae.Message)
}

func codeFor(ae *apperr.Error) codes.Code {
	switch {
	case ae.Kind == apperr.KindValidation:
		return codes.InvalidArgument
	case ae.Kind == apperr.KindExternal:
		return codes.Unavailable
	case errors.Is(ae, apperr.ErrResourceNotFound):
		return codes.NotFound
	case errors.Is(ae, apperr.ErrNotAllowed):
		return codes.PermissionDenied
	case errors.Is(ae, apperr.ErrSessionExpired), errors.Is(ae, apperr.ErrWrongCredentials):
		return codes.Unauthenticated
	case errors.Is(ae, apperr.ErrSystemAdminAlreadyExists), errors.Is(ae, apperr.ErrEmailAlreadyRegistered):
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

// ErrorsUnary returns a unary server interceptor that converts handler errors with ToStatus.
// Internal errors are logged with the method name.
func ErrorsUnary(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		st := ToStatus(err)
		if status.Code(st) == codes.Internal {
			log.WithError(err).WithField("method", info.FullMethod).Error("rpc failed")
		}
		return resp, st
	}
}
