package email

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/email/domain"
	"identity-platform/backend/internal/platform/either"
)

// sesAPI is the subset of *sesv2.Client used by SESSender.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures the AWS SES v2 client. Empty keys fall back to the default AWS credential chain.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	From            string
}

// SESSender sends emails via AWS SES using the SDK v2.
type SESSender struct {
	client sesAPI
	from   string
	log    logrus.FieldLogger
}

// NewSESSender loads AWS configuration and returns a sender using it.
func NewSESSender(ctx context.Context, cfg SESConfig, log logrus.FieldLogger) (*SESSender, error) {
	if cfg.From == "" {
		return nil, errors.New("email: sender address is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return newSESSender(sesv2.NewFromConfig(awsCfg), cfg.From, log), nil
}

func newSESSender(client sesAPI, from string, log logrus.FieldLogger) *SESSender {
	return &SESSender{client: client, from: from, log: log}
}

// Send delivers e as a plain-text message tagged with its kind.
func (s *SESSender) Send(ctx context.Context, e domain.Email) either.Either[error, struct{}] {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{e.To.String()}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(e.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("kind"), Value: aws.String(string(e.Kind))},
		},
	}
	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.log.WithError(err).WithField("kind", e.Kind).Warn("email: ses send failed")
		return either.Left[error, struct{}](apperr.SendEmail(err))
	}
	s.log.WithFields(logrus.Fields{"kind": e.Kind, "message_id": aws.ToString(out.MessageId)}).Debug("email: sent")
	return either.Right[error](struct{}{})
}
