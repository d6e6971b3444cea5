package mime

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/shineum/mailkit/internal/email"
)

// Builder assembles complete multipart MIME documents from messages.
// Attachment failures are logged and skipped; they never abort assembly.
type Builder struct {
	log *slog.Logger
}

// NewBuilder creates a Builder that logs through the given logger.
// A nil logger falls back to slog.Default().
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// Build produces the raw document for msg with from as the visible sender.
// Bcc addresses are never written into any header; they travel only in the
// SMTP envelope.
func (b *Builder) Build(from string, msg *email.Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", email.FormatAddressList(msg.To))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", email.FormatAddressList(msg.Cc))
	}
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	for key, value := range msg.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := make(textproto.MIMEHeader)
	if msg.HTML {
		bodyHeader.Set("Content-Type", "text/html; charset=UTF-8")
	} else {
		bodyHeader.Set("Content-Type", "text/plain; charset=UTF-8")
	}
	part, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	part.Write([]byte(msg.Body))

	for _, att := range msg.Attachments {
		built, err := BuildAttachment(att)
		if err != nil {
			b.log.Warn("skipping attachment",
				"path", att.Path,
				"error", err,
			)
			continue
		}

		attPart, err := writer.CreatePart(built.Header)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		attPart.Write([]byte(built.Body))
	}

	writer.Close()
	return buf.Bytes(), nil
}
