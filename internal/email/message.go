// Package email defines the core data model for outgoing mail and the
// address/filename validation rules shared across the pipeline.
package email

// Attachment describes a file to be attached to a message. The file itself
// is read from disk at assembly time, not when the Attachment is created.
type Attachment struct {
	// Path is the location of the file on disk.
	Path string
	// Filename overrides the display name; defaults to the base name of Path.
	Filename string
	// ContentType overrides MIME type sniffing; defaults to extension-based
	// detection with application/octet-stream as the fallback.
	ContentType string
	// ContentID marks the attachment for inline embedding (cid: references).
	ContentID string
	// Inline selects an inline Content-Disposition instead of attachment.
	Inline bool
}

// Message represents a complete outgoing email. Every optional field has a
// useful zero value, so callers only set what they need.
type Message struct {
	// To holds the primary recipients. At least one is required for a send.
	To []string
	// Subject is the message subject line.
	Subject string
	// Body is the message body, plain text unless HTML is set.
	Body string
	// HTML marks the body as text/html instead of text/plain.
	HTML bool
	// From overrides the configured account address as the visible sender.
	From string
	// Cc holds carbon-copy recipients, written into the Cc header.
	Cc []string
	// Bcc holds blind recipients. They receive the message through the
	// envelope but are never written into any header.
	Bcc []string
	// ReplyTo sets the Reply-To header when non-empty.
	ReplyTo string
	// Headers holds extra header name/value pairs copied verbatim.
	Headers map[string]string
	// Attachments lists files to attach. Unreadable entries are skipped.
	Attachments []Attachment
	// TemplateData carries the context for template-driven sends.
	TemplateData map[string]any
}

// Result reports the outcome of one send attempt.
type Result struct {
	// Success is true when the message was handed off to the server.
	Success bool
	// MessageID is the provider-assigned id, when the backend reports one.
	MessageID string
	// Error describes the failure when Success is false.
	Error string
	// Recipients lists every address the message was actually sent to,
	// including bcc addresses.
	Recipients []string
}
