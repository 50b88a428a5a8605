// Package service implements user registration and profile management.
package service

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/audit"
	auditdomain "identity-platform/backend/internal/audit/domain"
	"identity-platform/backend/internal/db"
	"identity-platform/backend/internal/email"
	emaildomain "identity-platform/backend/internal/email/domain"
	identitydomain "identity-platform/backend/internal/identity/domain"
	identityrepo "identity-platform/backend/internal/identity/repository"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/pagination"
	roledomain "identity-platform/backend/internal/role/domain"
	rolerepo "identity-platform/backend/internal/role/repository"
	"identity-platform/backend/internal/security"
	"identity-platform/backend/internal/user/domain"
	"identity-platform/backend/internal/user/repository"
)

// RegisterInput is the raw input of RegisterUser.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Locale   string
}

// ProfileUpdate lists the profile fields to change; nil fields are left untouched.
type ProfileUpdate struct {
	Name   *string
	Locale *string
}

// UserService implements the user use cases.
type UserService struct {
	users  repository.Repository
	auths  identityrepo.Repository
	roles  rolerepo.Repository
	tx     db.Transactor
	hasher security.HashGenerator
	sender email.Sender
	audit  audit.AuditLogger
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

// NewUserService returns a UserService. auditLogger may be nil.
func NewUserService(users repository.Repository, auths identityrepo.Repository, roles rolerepo.Repository, tx db.Transactor, hasher security.HashGenerator, sender email.Sender, auditLogger audit.AuditLogger, clock clockwork.Clock, log logrus.FieldLogger) *UserService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &UserService{users: users, auths: auths, roles: roles, tx: tx, hasher: hasher, sender: sender, audit: auditLogger, clock: clock, log: log}
}

// RegisterUser creates a user with member credentials in one unit of work and sends a welcome
// email. A failed welcome email is logged; the registration itself stands.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) either.Either[error, *domain.User] {
	name, err := domain.ParseName(in.Name)
	if err != nil {
		return either.Left[error, *domain.User](err)
	}
	addr, err := domain.ParseEmail(in.Email)
	if err != nil {
		return either.Left[error, *domain.User](err)
	}
	locale, err := domain.ParseLocale(in.Locale)
	if err != nil {
		return either.Left[error, *domain.User](err)
	}
	if err := identitydomain.ValidatePassword(in.Password); err != nil {
		return either.Left[error, *domain.User](err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return either.Left[error, *domain.User](err)
	}
	now := s.clock.Now().UTC()
	user, err := domain.New(domain.Props{Name: name, Email: addr, Locale: locale}, now)
	if err != nil {
		return either.Left[error, *domain.User](err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.auths.FindByEmail(ctx, addr.String())
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.ErrEmailAlreadyRegistered
		}
		if u, err := s.users.GetByEmail(ctx, addr.String()); err != nil {
			return err
		} else if u != nil {
			return apperr.ErrEmailAlreadyRegistered
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		auth := identitydomain.New(user.ID(), identitydomain.Props{
			Email:        addr,
			PasswordHash: hash,
			Role:         roledomain.MustParseName(roledomain.Member),
		}, now)
		if err := s.auths.Save(ctx, auth); err != nil {
			return err
		}
		return s.roles.AddMember(ctx, roledomain.Member, user.ID())
	})
	if err != nil {
		return either.Left[error, *domain.User](err)
	}

	s.audit.LogEvent(ctx, user.ID().String(), auditdomain.ActionUserRegistered, "user", "")
	s.sendWelcome(ctx, user)
	return either.Right[error](user)
}

func (s *UserService) sendWelcome(ctx context.Context, user *domain.User) {
	msg, err := emaildomain.Compose(emaildomain.KindWelcome, user.Email, user.Locale, emaildomain.Data{Name: user.Name.String()})
	if err != nil {
		s.log.WithError(err).Warn("compose welcome email")
		return
	}
	if sent := s.sender.Send(ctx, msg); sent.IsLeft() {
		s.log.WithError(sent.LeftValue()).WithField("user_id", user.ID().String()).Warn("send welcome email")
	}
}

// GetUser returns the user with id.
func (s *UserService) GetUser(ctx context.Context, id string) either.Either[error, *domain.User] {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return either.Left[error, *domain.User](err)
	}
	if user == nil {
		return either.Left[error, *domain.User](apperr.ResourceNotFound("user"))
	}
	return either.Right[error](user)
}

// UpdateProfile renames the user and/or changes their locale.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) either.Either[error, *domain.User] {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return either.Left[error, *domain.User](err)
	}
	if user == nil {
		return either.Left[error, *domain.User](apperr.ResourceNotFound("user"))
	}
	now := s.clock.Now().UTC()
	if upd.Name != nil {
		name, err := domain.ParseName(*upd.Name)
		if err != nil {
			return either.Left[error, *domain.User](err)
		}
		if err := user.Rename(name, now); err != nil {
			return either.Left[error, *domain.User](err)
		}
	}
	if upd.Locale != nil {
		locale, err := domain.ParseLocale(*upd.Locale)
		if err != nil {
			return either.Left[error, *domain.User](err)
		}
		if err := user.ChangeLocale(locale, now); err != nil {
			return either.Left[error, *domain.User](err)
		}
	}
	if err := s.users.Update(ctx, user); err != nil {
		return either.Left[error, *domain.User](err)
	}
	return either.Right[error](user)
}

// ListUsers returns one page of users, oldest first.
func (s *UserService) ListUsers(ctx context.Context, page, perPage int) either.Either[error, []*domain.User] {
	params, err := pagination.New(page, perPage)
	if err != nil {
		return either.Left[error, []*domain.User](err)
	}
	users, err := s.users.List(ctx, params)
	if err != nil {
		return either.Left[error, []*domain.User](err)
	}
	return either.Right[error](users)
}
