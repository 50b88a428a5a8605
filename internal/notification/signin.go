// Package notification turns session events into user-facing emails.
package notification

import (
	"context"

	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/email"
	emaildomain "identity-platform/backend/internal/email/domain"
	"identity-platform/backend/internal/events"
	identitydomain "identity-platform/backend/internal/identity/domain"
	userdomain "identity-platform/backend/internal/user/domain"
)

// UserGetter looks up a user profile; (nil, nil) when absent.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// AuthGetter looks up principal credentials; (nil, nil) when absent.
type AuthGetter interface {
	FindByID(ctx context.Context, id string) (*identitydomain.UserAuth, error)
}

// SignInNotifier emails a principal whenever a new session is issued for them.
type SignInNotifier struct {
	users  UserGetter
	auths  AuthGetter
	sender email.Sender
	log    logrus.FieldLogger
}

func NewSignInNotifier(users UserGetter, auths AuthGetter, sender email.Sender, log logrus.FieldLogger) *SignInNotifier {
	return &SignInNotifier{users: users, auths: auths, sender: sender, log: log}
}

// Handle sends a new sign-in email for session.issued events and ignores every other type.
// Principals without a user profile are addressed by their login email in the default locale;
// unknown recipients are skipped.
func (n *SignInNotifier) Handle(ctx context.Context, e events.Event) error {
	if e.Type != events.SessionIssued {
		return nil
	}
	to, name, locale, ok, err := n.recipient(ctx, e.RecipientID)
	if err != nil {
		return err
	}
	if !ok {
		n.log.WithField("recipient_id", e.RecipientID).Warn("sign-in notification for unknown recipient")
		return nil
	}
	msg, err := emaildomain.Compose(emaildomain.KindNewSignIn, to, locale, emaildomain.Data{Name: name})
	if err != nil {
		return err
	}
	if sent := n.sender.Send(ctx, msg); sent.IsLeft() {
		return sent.LeftValue()
	}
	n.log.WithFields(logrus.Fields{"recipient_id": e.RecipientID, "session_id": e.SessionID}).Debug("sign-in notification sent")
	return nil
}

func (n *SignInNotifier) recipient(ctx context.Context, id string) (userdomain.EmailAddress, string, userdomain.Locale, bool, error) {
	u, err := n.users.GetByID(ctx, id)
	if err != nil {
		return userdomain.EmailAddress{}, "", userdomain.Locale{}, false, err
	}
	if u != nil {
		return u.Email, u.Name.String(), u.Locale, true, nil
	}
	a, err := n.auths.FindByID(ctx, id)
	if err != nil || a == nil {
		return userdomain.EmailAddress{}, "", userdomain.Locale{}, false, err
	}
	return a.Email, a.Email.String(), userdomain.DefaultLocale, true, nil
}
