// Package server assembles the gRPC server: interceptor chain, method permissions and service registration.
package server

import (
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"identity-platform/backend/internal/audit"
	emailhandler "identity-platform/backend/internal/email/handler"
	identityhandler "identity-platform/backend/internal/identity/handler"
	permission "identity-platform/backend/internal/permission/domain"
	"identity-platform/backend/internal/platform/rbac"
	rolehandler "identity-platform/backend/internal/role/handler"
	"identity-platform/backend/internal/security"
	"identity-platform/backend/internal/server/interceptors"
	"identity-platform/backend/internal/server/rpc"
	sessionhandler "identity-platform/backend/internal/session/handler"
	userhandler "identity-platform/backend/internal/user/handler"
)

// SessionUseCases is what the server needs from the session service: the RPC surface and
// token validation for the auth interceptor.
type SessionUseCases interface {
	sessionhandler.UseCases
	interceptors.SessionValidator
}

// Deps holds the use cases and infrastructure the server is built from. Audit, Health and DevMailbox are optional.
type Deps struct {
	Auth     identityhandler.AuthUseCases
	Users    userhandler.UseCases
	Sessions SessionUseCases
	Roles    rolehandler.UseCases

	// RoleGetter and Authorizer back the permission interceptor.
	RoleGetter rbac.RoleGetter
	Authorizer rbac.Authorizer
	Tokens     security.Decrypter

	Audit      audit.AuditLogger
	Health     *grpchealth.Server
	// DevMailbox enables the dev-only DevService. Leave nil outside development.
	DevMailbox emailhandler.Mailbox
	Clock      clockwork.Clock
	Log        logrus.FieldLogger
}

var (
	healthCheck = "/" + healthpb.Health_ServiceDesc.ServiceName + "/Check"
	healthWatch = "/" + healthpb.Health_ServiceDesc.ServiceName + "/Watch"
)

// PublicMethods is the set of full methods callable without a Bearer token.
func PublicMethods() map[string]bool {
	return map[string]bool{
		rpc.FullMethod(identityhandler.ServiceName, "Login"):                true,
		rpc.FullMethod(identityhandler.ServiceName, "RequestPasswordReset"): true,
		rpc.FullMethod(identityhandler.ServiceName, "ResetPassword"):        true,
		rpc.FullMethod(userhandler.ServiceName, "RegisterUser"):             true,
		rpc.FullMethod(emailhandler.ServiceName, "GetLatestEmail"):          true,
		healthCheck: true,
		healthWatch: true,
	}
}

// MethodPermissions maps each guarded full method to the permissions the caller's role must grant.
// Authenticated methods absent from the map (Logout, GetMe, UpdateProfile) only need a valid session.
func MethodPermissions() map[string][]permission.Name {
	p := permission.MustParseName
	return map[string][]permission.Name{
		rpc.FullMethod(userhandler.ServiceName, "ListUsers"):         {p(permission.UsersList)},
		rpc.FullMethod(userhandler.ServiceName, "GetUser"):           {p(permission.UsersRead)},
		rpc.FullMethod(sessionhandler.ServiceName, "ListSessions"):   {p(permission.SessionsList)},
		rpc.FullMethod(sessionhandler.ServiceName, "RevokeSession"):  {p(permission.SessionsRevoke)},
		rpc.FullMethod(rolehandler.ServiceName, "AssignRole"):        {p(permission.RolesAssign)},
		rpc.FullMethod(rolehandler.ServiceName, "UpdatePermissions"): {p(permission.RolesUpdate)},
	}
}

// auditSkip lists methods whose use cases write their own audit entries, plus health checks.
func auditSkip() map[string]bool {
	return map[string]bool{
		rpc.FullMethod(identityhandler.ServiceName, "Login"):                true,
		rpc.FullMethod(identityhandler.ServiceName, "Logout"):               true,
		rpc.FullMethod(identityhandler.ServiceName, "RequestPasswordReset"): true,
		rpc.FullMethod(identityhandler.ServiceName, "ResetPassword"):        true,
		rpc.FullMethod(userhandler.ServiceName, "RegisterUser"):             true,
		rpc.FullMethod(rolehandler.ServiceName, "AssignRole"):               true,
		healthCheck: true,
		healthWatch: true,
	}
}

// NewServer builds a gRPC server with the interceptor chain
// logging -> recovery -> auth -> permissions -> audit -> errors and registers every service.
func NewServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.Authorizer == nil {
		deps.Authorizer = rbac.SubsetAuthorizer{}
	}
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	quiet := map[string]bool{healthCheck: true, healthWatch: true}

	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(deps.Log, deps.Clock, quiet),
			interceptors.RecoveryUnary(deps.Log),
			interceptors.AuthUnary(deps.Tokens, deps.Sessions, PublicMethods()),
			rbac.PermissionsUnary(deps.RoleGetter, deps.Authorizer, MethodPermissions()),
			interceptors.AuditUnary(deps.Audit, auditSkip()),
			interceptors.ErrorsUnary(deps.Log),
		),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers every service with s. The standard health service is registered
// when deps.Health is set and DevService when deps.DevMailbox is set.
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	identityhandler.NewAuthServer(deps.Auth).Register(s)
	userhandler.NewServer(deps.Users).Register(s)
	sessionhandler.NewServer(deps.Sessions).Register(s)
	rolehandler.NewServer(deps.Roles).Register(s)
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
	if deps.DevMailbox != nil {
		emailhandler.NewServer(deps.DevMailbox).Register(s)
	}
}
