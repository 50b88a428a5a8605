package domain

import (
	"fmt"
	"net/url"

	"identity-platform/backend/internal/apperr"
)

// ActionLink is an absolute http(s) URL embedded in an email, e.g. a password reset link.
type ActionLink struct {
	value string
}

// ParseActionLink validates s as an absolute URL with an http or https scheme and a host.
func ParseActionLink(s string) (ActionLink, error) {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ActionLink{}, apperr.Wrap(apperr.ErrInvalidActionLink, fmt.Sprintf("invalid action link %q", s), err)
	}
	return ActionLink{value: u.String()}, nil
}

// WithToken returns base with a token query parameter set.
func WithToken(base, token string) (ActionLink, error) {
	link, err := ParseActionLink(base)
	if err != nil {
		return ActionLink{}, err
	}
	u, _ := url.Parse(link.value)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return ActionLink{value: u.String()}, nil
}

func (l ActionLink) String() string              { return l.value }
func (l ActionLink) Equal(other ActionLink) bool { return l.value == other.value }
