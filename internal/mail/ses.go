package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/config"
	"github.com/iliyamo/facility-reservation/internal/model"
)

// SESAPI is the part of the SESv2 client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers notifications through Amazon SES instead of an SMTP
// relay.
type SESSender struct {
	client        SESAPI
	from          string
	publicBaseURL string
}

// NewSESSender loads an AWS config for cfg.Region.  Static credentials are
// used when both keys are set; otherwise the default provider chain
// applies.
func NewSESSender(ctx context.Context, cfg config.SESConfig, from, publicBaseURL string) (*SESSender, error) {
	if cfg.Region == "" {
		return nil, errors.New("mail: SES region is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: load aws config: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg), from, publicBaseURL), nil
}

func NewSESSenderWithClient(client SESAPI, from, publicBaseURL string) *SESSender {
	return &SESSender{client: client, from: from, publicBaseURL: publicBaseURL}
}

// Send renders n and submits it to SES as an HTML message.
func (s *SESSender) Send(ctx context.Context, n model.Notification) error {
	if n.Email == "" {
		return ErrNoRecipient
	}
	subject, body, err := Render(n, s.publicBaseURL)
	if err != nil {
		return err
	}
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{n.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("mail: ses send: %w", err)
	}
	log.Ctx(ctx).Info().
		Str("to", n.Email).
		Str("kind", string(n.Kind)).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("mail: sent via ses")
	return nil
}
