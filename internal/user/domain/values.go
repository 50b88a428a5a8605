package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"identity-platform/backend/internal/apperr"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EmailAddress is a trimmed, lowercased email address.
type EmailAddress struct {
	value string
}

// ParseEmail normalizes s and validates it against the accepted email grammar.
func ParseEmail(s string) (EmailAddress, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || !emailRE.MatchString(s) {
		return EmailAddress{}, apperr.Wrap(apperr.ErrInvalidEmail, fmt.Sprintf("invalid email address %q", s), nil)
	}
	return EmailAddress{value: s}, nil
}

func (e EmailAddress) String() string                { return e.value }
func (e EmailAddress) Equal(other EmailAddress) bool { return e.value == other.value }

const maxNameLength = 100

// Name is a display name of 1 to 100 characters.
type Name struct {
	value string
}

func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	if n := utf8.RuneCountInString(s); n == 0 || n > maxNameLength {
		return Name{}, apperr.Wrap(apperr.ErrInvalidName,
			fmt.Sprintf("name must be 1..%d characters, got %d", maxNameLength, n), nil)
	}
	return Name{value: s}, nil
}

func (n Name) String() string        { return n.value }
func (n Name) Equal(other Name) bool { return n.value == other.value }

// Locale selects the language of user-facing messages.
type Locale struct {
	value string
}

var (
	LocaleEnUS = Locale{value: "en-US"}
	LocalePtBR = Locale{value: "pt-BR"}
	LocaleEsES = Locale{value: "es-ES"}

	DefaultLocale = LocaleEnUS
)

var supportedLocales = []Locale{LocaleEnUS, LocalePtBR, LocaleEsES}

// ParseLocale accepts one of the supported locale tags; an empty string selects DefaultLocale.
func ParseLocale(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLocale, nil
	}
	for _, l := range supportedLocales {
		if l.value == s {
			return l, nil
		}
	}
	return Locale{}, apperr.Wrap(apperr.ErrInvalidLocale, fmt.Sprintf("unsupported locale %q", s), nil)
}

func (l Locale) String() string          { return l.value }
func (l Locale) Equal(other Locale) bool { return l.value == other.value }
