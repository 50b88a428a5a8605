package domain

import (
	"errors"
	"strings"
	"testing"

	"identity-platform/backend/internal/apperr"
	userdomain "identity-platform/backend/internal/user/domain"
)

func TestParseActionLink(t *testing.T) {
	testCases := []struct {
		in      string
		wantErr bool
	}{
		{"https://app.example.com/reset-password", false},
		{"http://localhost:3000/x?y=1", false},
		{"/reset-password", true},
		{"ftp://example.com/file", true},
		{"https://", true},
		{"not a url", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			_, err := ParseActionLink(tc.in)
			if tc.wantErr && !errors.Is(err, apperr.ErrInvalidActionLink) {
				t.Fatalf("want ErrInvalidActionLink, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ParseActionLink: %v", err)
			}
		})
	}
}

func TestWithToken(t *testing.T) {
	link, err := WithToken("https://app.example.com/reset-password?lang=pt", "a b&c")
	if err != nil {
		t.Fatalf("WithToken: %v", err)
	}
	want := "https://app.example.com/reset-password?lang=pt&token=a+b%26c"
	if link.String() != want {
		t.Errorf("link = %q, want %q", link.String(), want)
	}
}

func TestCompose(t *testing.T) {
	to, _ := userdomain.ParseEmail("ana@example.com")
	link, _ := ParseActionLink("https://app.example.com/reset-password?token=t1")

	e, err := Compose(KindPasswordReset, to, userdomain.LocalePtBR, Data{Name: "Ana", Link: &link})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if e.Subject != "Redefina sua senha" {
		t.Errorf("Subject = %q", e.Subject)
	}
	if !strings.Contains(e.Body, "Olá Ana") || !strings.Contains(e.Body, link.String()) {
		t.Errorf("Body = %q", e.Body)
	}
	if _, err := Compose(Kind("unknown"), to, userdomain.LocaleEnUS, Data{}); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestMessages_CompleteForEveryLocale(t *testing.T) {
	for kind, byLocale := range messages {
		for _, l := range []userdomain.Locale{userdomain.LocaleEnUS, userdomain.LocalePtBR, userdomain.LocaleEsES} {
			if m, ok := byLocale[l.String()]; !ok || m.subject == "" || m.body == "" {
				t.Errorf("%s: missing %s message", kind, l)
			}
		}
	}
}
