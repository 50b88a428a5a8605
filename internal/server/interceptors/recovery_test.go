package interceptors

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

func TestRecoveryUnary(t *testing.T) {
	log, hook := test.NewNullLogger()
	interceptor := RecoveryUnary(log)
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Boom"}

	_, err := interceptor(context.Background(), "request", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		var list []int
		return list[3], nil
	})
	wantCode(t, err, codes.Internal)

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel || entry.Data["method"] != "/test.Service/Boom" {
		t.Errorf("log entry = %+v", entry)
	}

	resp, err := interceptor(context.Background(), "request", info, okHandler)
	if err != nil || resp != "success" {
		t.Errorf("passthrough = %v, %v", resp, err)
	}
}
