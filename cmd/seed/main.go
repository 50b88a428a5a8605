// seed creates the built-in roles with their default permissions and, when an admin email is given,
// the single system admin. Safe to re-run: existing roles are topped up and an existing system admin
// is left in place.
//
//	go run ./cmd/seed -admin-email root@example.com -admin-name "Root" (password from SEED_ADMIN_PASSWORD)
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	adminrepo "identity-platform/backend/internal/admin/repository"
	adminservice "identity-platform/backend/internal/admin/service"
	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/audit"
	auditrepo "identity-platform/backend/internal/audit/repository"
	"identity-platform/backend/internal/config"
	"identity-platform/backend/internal/db"
	identityrepo "identity-platform/backend/internal/identity/repository"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/logging"
	rolerepo "identity-platform/backend/internal/role/repository"
	roleservice "identity-platform/backend/internal/role/service"
	"identity-platform/backend/internal/security"
)

func main() {
	adminEmail := flag.String("admin-email", "", "Email of the system admin to create; empty skips admin creation")
	adminName := flag.String("admin-name", "System Admin", "Display name of the system admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	defer conn.Close()

	clock := clockwork.NewRealClock()
	roles := rolerepo.NewPostgresRepository(conn)
	auths := identityrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), nil, clock, log)
	tx := db.NewTransactor(conn)

	if err := roleservice.NewRoleService(roles, auths, tx, auditLogger, clock, log).EnsureDefaults(ctx); err != nil {
		log.WithError(err).Fatal("seed roles")
	}
	log.Info("seed: built-in roles ready")

	if *adminEmail == "" {
		return
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	admins := adminservice.NewAdminService(adminrepo.NewPostgresRepository(conn), auths, roles, tx,
		security.NewHasher(cfg.BcryptCost), auditLogger, clock, log)

	admin, err := either.Unwrap(admins.CreateSystemAdmin(ctx, *adminName, *adminEmail, password))
	switch {
	case errors.Is(err, apperr.ErrSystemAdminAlreadyExists):
		log.Info("seed: system admin already exists, skipping")
	case err != nil:
		log.WithError(err).Fatal("seed system admin")
	default:
		log.WithField("admin_id", admin.ID().String()).Info("seed: system admin created")
	}
}
