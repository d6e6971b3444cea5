// Package ses implements a Provider that sends emails via AWS SES v2.
package ses

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/mailkit/internal/email"
	mimebuild "github.com/shineum/mailkit/internal/mime"
)

// baseRetryDelay is the initial delay for exponential backoff.
const baseRetryDelay = 1 * time.Second

// ProviderConfig holds the configuration for creating a Provider.
type ProviderConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Sender          string
	MaxRetries      int
}

// Provider sends emails via the AWS SES v2 API.
type Provider struct {
	sender     string
	maxRetries int
	client     SendEmailAPI
	builder    *mimebuild.Builder
	log        *slog.Logger

	retryDelay time.Duration
}

// SendEmailAPI is the interface for the SES v2 SendEmail operation.
// Used for testing with mock implementations.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// New creates a new Provider with the given configuration.
func New(ctx context.Context, cfg ProviderConfig, log *slog.Logger) (*Provider, error) {
	var opts []func(*awsconfig.LoadOptions) error

	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewWithClient(cfg, sesv2.NewFromConfig(awsCfg), log), nil
}

// NewWithClient creates a Provider with a custom client, used for testing.
func NewWithClient(cfg ProviderConfig, client SendEmailAPI, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{
		sender:     cfg.Sender,
		maxRetries: cfg.MaxRetries,
		client:     client,
		builder:    mimebuild.NewBuilder(log),
		log:        log,
		retryDelay: baseRetryDelay,
	}
}

// Send delivers an email message via AWS SES v2. For emails with
// attachments it builds a raw MIME document; simple emails use the SES
// simple email format. Transient API failures are retried with backoff.
func (p *Provider) Send(ctx context.Context, msg *email.Message) *email.Result {
	if len(msg.To) == 0 {
		return &email.Result{Success: false, Error: "no recipient email addresses provided"}
	}

	to, err := email.ValidateAll(msg.To)
	if err != nil {
		return &email.Result{Success: false, Error: err.Error()}
	}
	cc, err := email.ValidateAll(msg.Cc)
	if err != nil {
		return &email.Result{Success: false, Error: err.Error()}
	}
	bcc, err := email.ValidateAll(msg.Bcc)
	if err != nil {
		return &email.Result{Success: false, Error: err.Error()}
	}

	from := msg.From
	if from == "" {
		from = p.sender
	}

	input, err := p.buildInput(from, msg, to, cc, bcc)
	if err != nil {
		p.log.Error("failed to build SES request", "error", err)
		return &email.Result{Success: false, Error: err.Error()}
	}

	recipients := make([]string, 0, len(to)+len(cc)+len(bcc))
	recipients = append(recipients, to...)
	recipients = append(recipients, cc...)
	recipients = append(recipients, bcc...)

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.log.Debug("retrying SES API request",
				"attempt", attempt,
				"max_retries", p.maxRetries,
			)
			if err := sleepWithContext(ctx, p.backoffDelay(attempt)); err != nil {
				return &email.Result{
					Success: false,
					Error:   fmt.Sprintf("context cancelled during retry wait: %v", err),
				}
			}
		}

		out, err := p.client.SendEmail(ctx, input)
		if err == nil {
			p.log.Info("email sent via SES", "recipients", len(recipients))
			result := &email.Result{Success: true, Recipients: recipients}
			if out.MessageId != nil {
				result.MessageID = *out.MessageId
			}
			return result
		}

		lastErr = err
		p.log.Warn("SES API error", "attempt", attempt, "error", err)
	}

	return &email.Result{
		Success: false,
		Error:   fmt.Sprintf("SES API request failed after %d retries: %v", p.maxRetries, lastErr),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ses"
}

func (p *Provider) buildInput(from string, msg *email.Message, to, cc, bcc []string) (*sesv2.SendEmailInput, error) {
	dest := &types.Destination{
		ToAddresses:  to,
		CcAddresses:  cc,
		BccAddresses: bcc,
	}

	if len(msg.Attachments) > 0 {
		raw, err := p.builder.Build(from, msg)
		if err != nil {
			return nil, fmt.Errorf("failed to build raw message: %w", err)
		}
		return &sesv2.SendEmailInput{
			FromEmailAddress: aws.String(from),
			Destination:      dest,
			Content: &types.EmailContent{
				Raw: &types.RawMessage{
					Data: raw,
				},
			},
		}, nil
	}

	body := &types.Body{}
	content := &types.Content{
		Data:    aws.String(msg.Body),
		Charset: aws.String("UTF-8"),
	}
	if msg.HTML {
		body.Html = content
	} else {
		body.Text = content
	}

	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      dest,
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: body,
			},
		},
	}, nil
}

// backoffDelay returns the exponential backoff delay for the given attempt.
func (p *Provider) backoffDelay(attempt int) time.Duration {
	delay := p.retryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleepWithContext waits for the specified duration or until the context is
// cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
