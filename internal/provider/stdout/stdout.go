// Package stdout implements a Provider that prints messages to standard
// output instead of delivering them. It backs the CLI's dry-run mode.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/mailkit/internal/email"
)

// Provider prints email messages to stdout in a human-readable format.
type Provider struct {
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given
// writer. This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the message in a readable format. Recipient validation still
// applies, so a dry run catches the same address errors a real send would.
func (p *Provider) Send(_ context.Context, msg *email.Message) *email.Result {
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

	var b strings.Builder

	b.WriteString("========================================\n")
	if msg.From != "" {
		b.WriteString(fmt.Sprintf("From: %s\n", msg.From))
	}
	b.WriteString(fmt.Sprintf("To: %s\n", email.FormatAddressList(to)))
	if len(cc) > 0 {
		b.WriteString(fmt.Sprintf("Cc: %s\n", email.FormatAddressList(cc)))
	}
	if len(bcc) > 0 {
		b.WriteString(fmt.Sprintf("Bcc: %s\n", email.FormatAddressList(bcc)))
	}
	b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	b.WriteString("Body:\n")
	b.WriteString(msg.Body + "\n")

	if len(msg.Attachments) > 0 {
		names := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			name := att.Filename
			if name == "" {
				name = att.Path
			}
			names = append(names, name)
		}
		b.WriteString(fmt.Sprintf("Attachments: %s\n", strings.Join(names, ", ")))
	}

	b.WriteString("========================================\n")

	fmt.Fprint(p.writer, b.String())

	recipients := make([]string, 0, len(to)+len(cc)+len(bcc))
	recipients = append(recipients, to...)
	recipients = append(recipients, cc...)
	recipients = append(recipients, bcc...)

	return &email.Result{Success: true, Recipients: recipients}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}
