// Package service implements system administrator bootstrap.
package service

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/admin/domain"
	"identity-platform/backend/internal/admin/repository"
	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/audit"
	auditdomain "identity-platform/backend/internal/audit/domain"
	"identity-platform/backend/internal/db"
	identitydomain "identity-platform/backend/internal/identity/domain"
	identityrepo "identity-platform/backend/internal/identity/repository"
	"identity-platform/backend/internal/platform/either"
	roledomain "identity-platform/backend/internal/role/domain"
	rolerepo "identity-platform/backend/internal/role/repository"
	"identity-platform/backend/internal/security"
	userdomain "identity-platform/backend/internal/user/domain"
)

// AdminService creates the platform's system administrator.
type AdminService struct {
	admins repository.Repository
	auths  identityrepo.Repository
	roles  rolerepo.Repository
	tx     db.Transactor
	hasher security.HashGenerator
	audit  audit.AuditLogger
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

func NewAdminService(admins repository.Repository, auths identityrepo.Repository, roles rolerepo.Repository, tx db.Transactor, hasher security.HashGenerator, auditLogger audit.AuditLogger, clock clockwork.Clock, log logrus.FieldLogger) *AdminService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &AdminService{admins: admins, auths: auths, roles: roles, tx: tx, hasher: hasher, audit: auditLogger, clock: clock, log: log}
}

// CreateSystemAdmin creates the system admin and its credentials with the system_admin role in one
// unit of work. Only one system admin may ever exist.
func (s *AdminService) CreateSystemAdmin(ctx context.Context, rawName, rawEmail, password string) either.Either[error, *domain.SystemAdmin] {
	name, err := userdomain.ParseName(rawName)
	if err != nil {
		return either.Left[error, *domain.SystemAdmin](err)
	}
	addr, err := userdomain.ParseEmail(rawEmail)
	if err != nil {
		return either.Left[error, *domain.SystemAdmin](err)
	}
	if err := identitydomain.ValidatePassword(password); err != nil {
		return either.Left[error, *domain.SystemAdmin](err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return either.Left[error, *domain.SystemAdmin](err)
	}
	now := s.clock.Now().UTC()
	admin := domain.New(domain.Props{Name: name, Email: addr}, now)

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.admins.Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return apperr.ErrSystemAdminAlreadyExists
		}
		taken, err := s.auths.FindByEmail(ctx, addr.String())
		if err != nil {
			return err
		}
		if taken != nil {
			return apperr.ErrEmailAlreadyRegistered
		}
		if err := s.admins.Create(ctx, admin); err != nil {
			return err
		}
		auth := identitydomain.New(admin.ID(), identitydomain.Props{
			Email:        addr,
			PasswordHash: hash,
			Role:         roledomain.MustParseName(roledomain.SystemAdmin),
		}, now)
		if err := s.auths.Save(ctx, auth); err != nil {
			return err
		}
		return s.roles.AddMember(ctx, roledomain.SystemAdmin, admin.ID())
	})
	if err != nil {
		return either.Left[error, *domain.SystemAdmin](err)
	}

	s.log.WithField("admin_id", admin.ID().String()).Info("system admin created")
	s.audit.LogEvent(ctx, admin.ID().String(), auditdomain.ActionSystemAdminCreated, "user", addr.String())
	return either.Right[error](admin)
}
