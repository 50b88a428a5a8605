package service

import (
	"context"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/audit"
	auditdomain "identity-platform/backend/internal/audit/domain"
	"identity-platform/backend/internal/email"
	emaildomain "identity-platform/backend/internal/email/domain"
	identitydomain "identity-platform/backend/internal/identity/domain"
	identityrepo "identity-platform/backend/internal/identity/repository"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/security"
	sessionservice "identity-platform/backend/internal/session/service"
	userdomain "identity-platform/backend/internal/user/domain"
)

// PurposePasswordReset is the purpose claim of password reset tokens.
const PurposePasswordReset = "password_reset"

// passwordFingerprintClaim binds a reset token to the password hash it was issued against,
// so a token stops working once the password changes.
const passwordFingerprintClaim = "pwf"

// ResetPasswordPath is appended to the app base URL to build reset links.
const ResetPasswordPath = "/reset-password"

// LoginResult is the outcome of a successful Login.
type LoginResult struct {
	RecipientID entity.ID
	SessionID   entity.ID
	AccessToken string
	ExpiresAt   time.Time
}

// Sessions is the part of the session service used for login and logout.
type Sessions interface {
	IssueSession(ctx context.Context, recipientID entity.ID, payload security.Payload) either.Either[error, sessionservice.IssuedSession]
	LogoutUser(ctx context.Context, recipientID entity.ID, rawToken string) either.Either[error, struct{}]
}

// PasswordHasher verifies and produces password hashes.
type PasswordHasher interface {
	security.HashComparer
	security.HashGenerator
}

// ResetTokens signs and verifies short-lived password reset tokens.
type ResetTokens interface {
	security.Encrypter
	security.Decrypter
}

// UserRepo is the minimal user repository needed to address emails.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Deps holds the collaborators of AuthService. Audit, Clock and Log may be nil.
type Deps struct {
	Auths       identityrepo.Repository
	Users       UserRepo
	Sessions    Sessions
	Hasher      PasswordHasher
	ResetTokens ResetTokens
	Sender      email.Sender
	Audit       audit.AuditLogger
	Clock       clockwork.Clock
	Log         logrus.FieldLogger
	// AppBaseURL is the public app URL reset links point to.
	AppBaseURL string
}

// AuthService implements password login, logout and the password reset workflow.
type AuthService struct {
	auths       identityrepo.Repository
	users       UserRepo
	sessions    Sessions
	hasher      PasswordHasher
	resetTokens ResetTokens
	sender      email.Sender
	audit       audit.AuditLogger
	clock       clockwork.Clock
	log         logrus.FieldLogger
	resetURL    string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(d Deps) *AuthService {
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return &AuthService{
		auths:       d.Auths,
		users:       d.Users,
		sessions:    d.Sessions,
		hasher:      d.Hasher,
		resetTokens: d.ResetTokens,
		sender:      d.Sender,
		audit:       d.Audit,
		clock:       d.Clock,
		log:         d.Log,
		resetURL:    strings.TrimRight(d.AppBaseURL, "/") + ResetPasswordPath,
	}
}

// Login authenticates email/password and issues a session whose token carries the principal's role
// and email. Unknown emails and wrong passwords are indistinguishable; inactive principals are not allowed.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) either.Either[error, LoginResult] {
	addr, err := userdomain.ParseEmail(rawEmail)
	if err != nil {
		s.audit.LogEvent(ctx, "", auditdomain.ActionLoginFailure, "session", "invalid email")
		return either.Left[error, LoginResult](apperr.ErrWrongCredentials)
	}
	auth, err := s.auths.FindByEmail(ctx, addr.String())
	if err != nil {
		return either.Left[error, LoginResult](err)
	}
	if auth == nil {
		s.audit.LogEvent(ctx, "", auditdomain.ActionLoginFailure, "session", addr.String())
		return either.Left[error, LoginResult](apperr.ErrWrongCredentials)
	}
	ok, err := s.hasher.Compare(password, auth.PasswordHash)
	if err != nil {
		return either.Left[error, LoginResult](err)
	}
	if !ok {
		s.audit.LogEvent(ctx, auth.ID().String(), auditdomain.ActionLoginFailure, "session", "wrong password")
		return either.Left[error, LoginResult](apperr.ErrWrongCredentials)
	}
	if !auth.IsActive {
		s.audit.LogEvent(ctx, auth.ID().String(), auditdomain.ActionLoginFailure, "session", "inactive")
		return either.Left[error, LoginResult](apperr.NotAllowed("account is inactive"))
	}

	issued := s.sessions.IssueSession(ctx, auth.ID(), security.Payload{
		security.RoleClaim:  auth.Role.String(),
		security.EmailClaim: auth.Email.String(),
	})
	if issued.IsLeft() {
		return either.Left[error, LoginResult](issued.LeftValue())
	}
	sess := issued.RightValue()
	s.audit.LogEvent(ctx, auth.ID().String(), auditdomain.ActionLoginSuccess, "session", sess.SessionID.String())
	return either.Right[error](LoginResult{
		RecipientID: auth.ID(),
		SessionID:   sess.SessionID,
		AccessToken: sess.AccessToken.String(),
		ExpiresAt:   sess.ExpiresAt,
	})
}

// Logout revokes the caller's current session.
func (s *AuthService) Logout(ctx context.Context, recipientID entity.ID, accessToken string) either.Either[error, struct{}] {
	result := s.sessions.LogoutUser(ctx, recipientID, accessToken)
	if result.IsRight() {
		s.audit.LogEvent(ctx, recipientID.String(), auditdomain.ActionLogout, "session", "")
	}
	return result
}

// RequestPasswordReset emails a reset link to the principal registered under rawEmail. Unknown
// addresses succeed without sending anything.
func (s *AuthService) RequestPasswordReset(ctx context.Context, rawEmail string) either.Either[error, struct{}] {
	addr, err := userdomain.ParseEmail(rawEmail)
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	auth, err := s.auths.FindByEmail(ctx, addr.String())
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	if auth == nil || !auth.IsActive {
		s.log.WithField("email", addr.String()).Debug("password reset requested for unknown or inactive account")
		return either.Right[error](struct{}{})
	}

	tok, err := s.resetTokens.Encrypt(security.Payload{
		security.SubjectClaim:    auth.ID().String(),
		security.PurposeClaim:    PurposePasswordReset,
		passwordFingerprintClaim: security.HashToken(auth.PasswordHash),
	})
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	link, err := emaildomain.WithToken(s.resetURL, tok.AccessToken)
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	name, locale, err := s.addressee(ctx, auth)
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	msg, err := emaildomain.Compose(emaildomain.KindPasswordReset, auth.Email, locale, emaildomain.Data{Name: name, Link: &link})
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	if sent := s.sender.Send(ctx, msg); sent.IsLeft() {
		return sent
	}
	s.audit.LogEvent(ctx, auth.ID().String(), auditdomain.ActionPasswordResetRequested, "user_auth", "")
	return either.Right[error](struct{}{})
}

// ResetPassword sets a new password using a token from RequestPasswordReset. Tokens are single use:
// once the password changes, earlier tokens no longer match.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) either.Either[error, struct{}] {
	payload, err := s.resetTokens.Decrypt(token)
	if err != nil || payload.String(security.PurposeClaim) != PurposePasswordReset {
		return either.Left[error, struct{}](apperr.NotAllowed("invalid or expired reset token"))
	}
	auth, err := s.auths.FindByID(ctx, payload.String(security.SubjectClaim))
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	if auth == nil {
		return either.Left[error, struct{}](apperr.ResourceNotFound("user auth"))
	}
	if !security.TokenHashEqual(auth.PasswordHash, payload.String(passwordFingerprintClaim)) {
		return either.Left[error, struct{}](apperr.NotAllowed("reset token already used"))
	}
	if err := identitydomain.ValidatePassword(newPassword); err != nil {
		return either.Left[error, struct{}](err)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	auth.ChangePassword(hash, s.clock.Now().UTC())
	if err := s.auths.Save(ctx, auth); err != nil {
		return either.Left[error, struct{}](err)
	}
	s.audit.LogEvent(ctx, auth.ID().String(), auditdomain.ActionPasswordReset, "user_auth", "")
	return either.Right[error](struct{}{})
}

// addressee returns the display name and locale for emails to auth. Principals without a user
// profile (system admins) are addressed by email in the default locale.
func (s *AuthService) addressee(ctx context.Context, auth *identitydomain.UserAuth) (string, userdomain.Locale, error) {
	if s.users != nil {
		u, err := s.users.GetByID(ctx, auth.ID().String())
		if err != nil {
			return "", userdomain.Locale{}, err
		}
		if u != nil {
			return u.Name.String(), u.Locale, nil
		}
	}
	return auth.Email.String(), userdomain.DefaultLocale, nil
}
