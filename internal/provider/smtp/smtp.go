// Package smtp adapts the SMTP send pipeline to the Provider interface.
package smtp

import (
	"context"
	"log/slog"

	"github.com/shineum/mailkit/internal/config"
	"github.com/shineum/mailkit/internal/email"
	"github.com/shineum/mailkit/internal/mailer"
)

// Provider delivers messages through the configured SMTP server.
type Provider struct {
	mailer *mailer.Mailer
}

// New creates an SMTP Provider for the given configuration.
func New(cfg *config.Config, log *slog.Logger) *Provider {
	return &Provider{mailer: mailer.New(cfg, log)}
}

// Send runs the full pipeline: validation, assembly, connect, transmit,
// close.
func (p *Provider) Send(ctx context.Context, msg *email.Message) *email.Result {
	return p.mailer.Send(ctx, msg)
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

// Mailer exposes the underlying mailer for connection health checks.
func (p *Provider) Mailer() *mailer.Mailer {
	return p.mailer
}
