// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/mailkit/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider handles the actual sending of composed messages to the
// target service (SMTP server, AWS SES, stdout for dry runs).
type Provider interface {
	// Send delivers an email message through this provider. Failures are
	// reported through the Result, never raised to the caller.
	Send(ctx context.Context, msg *email.Message) *email.Result

	// Name returns the human-readable name of this provider.
	Name() string
}
