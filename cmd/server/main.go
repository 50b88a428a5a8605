// server runs the identity gRPC API.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	grpchealth "google.golang.org/grpc/health"

	"identity-platform/backend/internal/audit"
	auditrepo "identity-platform/backend/internal/audit/repository"
	"identity-platform/backend/internal/config"
	"identity-platform/backend/internal/db"
	"identity-platform/backend/internal/email"
	emailhandler "identity-platform/backend/internal/email/handler"
	"identity-platform/backend/internal/events"
	"identity-platform/backend/internal/health"
	identityhandler "identity-platform/backend/internal/identity/handler"
	identityrepo "identity-platform/backend/internal/identity/repository"
	identityservice "identity-platform/backend/internal/identity/service"
	"identity-platform/backend/internal/platform/logging"
	"identity-platform/backend/internal/platform/rbac"
	"identity-platform/backend/internal/policy/engine"
	rolehandler "identity-platform/backend/internal/role/handler"
	rolerepo "identity-platform/backend/internal/role/repository"
	roleservice "identity-platform/backend/internal/role/service"
	"identity-platform/backend/internal/security"
	"identity-platform/backend/internal/server"
	"identity-platform/backend/internal/server/interceptors"
	sessionhandler "identity-platform/backend/internal/session/handler"
	sessionrepo "identity-platform/backend/internal/session/repository"
	sessionservice "identity-platform/backend/internal/session/service"
	"identity-platform/backend/internal/telemetry/otel"
	userhandler "identity-platform/backend/internal/user/handler"
	userrepo "identity-platform/backend/internal/user/repository"
	userservice "identity-platform/backend/internal/user/service"
)

const healthInterval = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	clock := clockwork.NewRealClock()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "identity-platform", cfg.OTLPInsecure, log)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	var sessions sessionrepo.Repository
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		sessions = sessionrepo.NewRedisRepository(rdb, sessionrepo.DefaultRetention)
	default:
		sessions = sessionrepo.NewPostgresRepository(database)
	}

	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return err
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), clock)

	var publisher events.Publisher
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, cfg.SessionEventsTopic)
		defer kp.Close()
		publisher = kp
	} else {
		publisher = otel.NewEventPublisher(providers.LoggerProvider)
	}

	sender, err := email.NewSender(ctx, cfg.EmailOutbox, email.SESConfig{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		From:            cfg.EmailFrom,
	}, clock, log)
	if err != nil {
		return err
	}

	auths := identityrepo.NewPostgresRepository(database)
	users := userrepo.NewPostgresRepository(database)
	roles := rolerepo.NewPostgresRepository(database)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(database), interceptors.ClientIP, clock, log)
	hasher := security.NewHasher(cfg.BcryptCost)

	sessionSvc := sessionservice.NewSessionService(sessions, tokens, clock, publisher, log)
	authSvc := identityservice.NewAuthService(identityservice.Deps{
		Auths:       auths,
		Users:       users,
		Sessions:    sessionSvc,
		Hasher:      hasher,
		ResetTokens: tokens.WithTTL(cfg.PasswordResetTTL()),
		Sender:      sender,
		Audit:       auditLogger,
		Clock:       clock,
		Log:         log,
		AppBaseURL:  cfg.AppBaseURL,
	})
	tx := db.NewTransactor(database)
	userSvc := userservice.NewUserService(users, auths, roles, tx, hasher, sender, auditLogger, clock, log)
	roleSvc := roleservice.NewRoleService(roles, auths, tx, auditLogger, clock, log)

	var authorizer rbac.Authorizer = rbac.SubsetAuthorizer{}
	var policy health.PolicyChecker
	if cfg.AuthzEngine == config.AuthzOPA {
		opa, err := engine.NewOPAAuthorizer(ctx)
		if err != nil {
			return err
		}
		authorizer, policy = opa, opa
	}

	healthSrv := grpchealth.NewServer()
	checker := health.NewChecker(database, policy, healthSrv, clock, log)
	go checker.Run(ctx, healthInterval,
		identityhandler.ServiceName, userhandler.ServiceName, sessionhandler.ServiceName, rolehandler.ServiceName)

	var devMailbox emailhandler.Mailbox
	if outbox, ok := sender.(*email.Outbox); ok && !cfg.IsProduction() {
		devMailbox = outbox
	}

	srv := server.NewServer(server.Deps{
		Auth:       authSvc,
		Users:      userSvc,
		Sessions:   sessionSvc,
		Roles:      roleSvc,
		RoleGetter: roles,
		Authorizer: authorizer,
		Tokens:     tokens,
		Audit:      auditLogger,
		Health:     healthSrv,
		DevMailbox: devMailbox,
		Clock:      clock,
		Log:        log,
	})

	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		serveErr <- srv.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down gRPC server")
	healthSrv.Shutdown()
	srv.GracefulStop()
	clock.Sleep(events.ShutdownDrainDuration)
	log.Info("gRPC server stopped")
	return nil
}
