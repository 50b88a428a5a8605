package interceptors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"identity-platform/backend/internal/apperr"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation", apperr.ErrInvalidEmail, codes.InvalidArgument},
		{"wrapped validation", apperr.Wrap(apperr.ErrInvalidPaginationParams, "page=-1", nil), codes.InvalidArgument},
		{"not found", apperr.ErrResourceNotFound, codes.NotFound},
		{"not allowed", apperr.NotAllowed("missing permission list_users"), codes.PermissionDenied},
		{"session expired", apperr.ErrSessionExpired, codes.Unauthenticated},
		{"wrong credentials", apperr.ErrWrongCredentials, codes.Unauthenticated},
		{"system admin exists", apperr.ErrSystemAdminAlreadyExists, codes.AlreadyExists},
		{"email registered", apperr.ErrEmailAlreadyRegistered, codes.AlreadyExists},
		{"send email", apperr.SendEmail(errors.New("ses down")), codes.Unavailable},
		{"infrastructure", errors.New("connection refused"), codes.Internal},
		{"fmt wrapped apperr", fmt.Errorf("login: %w", apperr.ErrWrongCredentials), codes.Unauthenticated},
		{"existing status", status.Error(codes.Aborted, "aborted"), codes.Aborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(ToStatus(tt.err)); got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
		})
	}
	if ToStatus(nil) != nil {
		t.Error("ToStatus(nil) should be nil")
	}
}

func TestToStatus_InternalHidesMessage(t *testing.T) {
	st, _ := status.FromError(ToStatus(errors.New("pq: password authentication failed")))
	if st.Message() != "internal error" {
		t.Errorf("message = %q, want %q", st.Message(), "internal error")
	}
}

func TestErrorsUnary_LogsInternal(t *testing.T) {
	log, hook := test.NewNullLogger()
	interceptor := ErrorsUnary(log)
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Method"}

	_, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
	if len(hook.Entries) != 1 || hook.LastEntry().Level != logrus.ErrorLevel {
		t.Fatalf("expected one error log entry, got %d", len(hook.Entries))
	}

	hook.Reset()
	_, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, apperr.ErrResourceNotFound
	})
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
	if len(hook.Entries) != 0 {
		t.Errorf("domain errors must not be logged, got %d entries", len(hook.Entries))
	}
}
