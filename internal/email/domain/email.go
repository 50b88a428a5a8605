// Package domain holds the outgoing email model and its localized message table.
package domain

import (
	"fmt"
	"strings"

	userdomain "identity-platform/backend/internal/user/domain"
)

// Kind identifies which message an Email carries.
type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "password_reset"
	KindNewSignIn     Kind = "new_sign_in"
)

// Email is a fully rendered message ready for a Sender.
type Email struct {
	To      userdomain.EmailAddress
	Locale  userdomain.Locale
	Kind    Kind
	Subject string
	Body    string
	Link    *ActionLink
}

// Data fills the placeholders of a message.
type Data struct {
	Name string
	Link *ActionLink
}

type message struct {
	subject string
	body    string
}

// messages is keyed by kind, then locale tag. Placeholders: {name}, {link}.
var messages = map[Kind]map[string]message{
	KindWelcome: {
		"en-US": {"Welcome aboard", "Hi {name},\n\nYour account is ready. Sign in any time to get started."},
		"pt-BR": {"Boas-vindas", "Olá {name},\n\nSua conta está pronta. Entre quando quiser para começar."},
		"es-ES": {"Te damos la bienvenida", "Hola {name},\n\nTu cuenta está lista. Inicia sesión cuando quieras para empezar."},
	},
	KindPasswordReset: {
		"en-US": {"Reset your password", "Hi {name},\n\nUse the link below to choose a new password:\n{link}\n\nIf you did not ask for this, ignore this email."},
		"pt-BR": {"Redefina sua senha", "Olá {name},\n\nUse o link abaixo para escolher uma nova senha:\n{link}\n\nSe você não pediu isso, ignore este email."},
		"es-ES": {"Restablece tu contraseña", "Hola {name},\n\nUsa el enlace de abajo para elegir una nueva contraseña:\n{link}\n\nSi no lo solicitaste, ignora este correo."},
	},
	KindNewSignIn: {
		"en-US": {"New sign-in to your account", "Hi {name},\n\nWe noticed a new sign-in to your account. If this was not you, reset your password."},
		"pt-BR": {"Novo acesso à sua conta", "Olá {name},\n\nDetectamos um novo acesso à sua conta. Se não foi você, redefina sua senha."},
		"es-ES": {"Nuevo inicio de sesión en tu cuenta", "Hola {name},\n\nDetectamos un nuevo inicio de sesión en tu cuenta. Si no fuiste tú, restablece tu contraseña."},
	},
}

// Compose renders the message of kind in locale for to. Unknown locales fall back to the default locale.
func Compose(kind Kind, to userdomain.EmailAddress, locale userdomain.Locale, data Data) (Email, error) {
	byLocale, ok := messages[kind]
	if !ok {
		return Email{}, fmt.Errorf("email: unknown kind %q", kind)
	}
	msg, ok := byLocale[locale.String()]
	if !ok {
		locale = userdomain.DefaultLocale
		msg = byLocale[locale.String()]
	}
	link := ""
	if data.Link != nil {
		link = data.Link.String()
	}
	r := strings.NewReplacer("{name}", data.Name, "{link}", link)
	return Email{
		To:      to,
		Locale:  locale,
		Kind:    kind,
		Subject: msg.subject,
		Body:    r.Replace(msg.body),
		Link:    data.Link,
	}, nil
}
