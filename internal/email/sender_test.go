package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/email/domain"
	"identity-platform/backend/internal/platform/logging"
	userdomain "identity-platform/backend/internal/user/domain"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func welcome(t *testing.T, addr string) domain.Email {
	t.Helper()
	to, err := userdomain.ParseEmail(addr)
	require.NoError(t, err)
	e, err := domain.Compose(domain.KindWelcome, to, userdomain.LocaleEnUS, domain.Data{Name: "Ana"})
	require.NoError(t, err)
	return e
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	s := newSESSender(api, "no-reply@example.com", logging.Discard())

	res := s.Send(context.Background(), welcome(t, "ana@example.com"))
	require.True(t, res.IsRight())
	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "no-reply@example.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"ana@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Welcome aboard", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, "welcome", aws.ToString(in.EmailTags[0].Value))
}

func TestSESSender_FailureIsSendEmailError(t *testing.T) {
	cause := errors.New("throttled")
	s := newSESSender(&fakeSES{err: cause}, "no-reply@example.com", logging.Discard())

	res := s.Send(context.Background(), welcome(t, "ana@example.com"))
	require.True(t, res.IsLeft())
	assert.ErrorIs(t, res.LeftValue(), apperr.ErrSendEmail)
	assert.ErrorIs(t, res.LeftValue(), cause)
}

func TestOutbox_ExpiresMessages(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	o := NewOutbox(time.Minute, clock)
	ctx := context.Background()

	require.True(t, o.Send(ctx, welcome(t, "ana@example.com")).IsRight())
	clock.Advance(30 * time.Second)
	require.True(t, o.Send(ctx, welcome(t, "ana@example.com")).IsRight())

	assert.Len(t, o.Messages("ana@example.com"), 2)
	assert.Empty(t, o.Messages("bob@example.com"))

	clock.Advance(45 * time.Second)
	assert.Len(t, o.Messages("ana@example.com"), 1)

	clock.Advance(time.Minute)
	_, ok := o.Latest("ana@example.com")
	assert.False(t, ok)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(context.Background(), true, SESConfig{}, clockwork.NewFakeClock(), logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &Outbox{}, s)

	_, err = NewSender(context.Background(), false, SESConfig{}, clockwork.NewFakeClock(), logging.Discard())
	assert.Error(t, err, "SES needs a sender address")
}
