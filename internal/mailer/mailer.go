// Package mailer implements the SMTP send pipeline: recipient validation,
// document assembly, connection handling, and delivery. A send never raises
// an error to the caller; every outcome is reported through a Result.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"sync"
	"time"

	"github.com/shineum/mailkit/internal/config"
	"github.com/shineum/mailkit/internal/email"
	mimebuild "github.com/shineum/mailkit/internal/mime"
)

// baseRetryDelay is the initial delay for exponential backoff between
// transport attempts.
const baseRetryDelay = 1 * time.Second

// Mailer owns at most one SMTP connection at a time. Sends are serialized;
// each send acquires its own connection and releases it before returning.
type Mailer struct {
	cfg     *config.Config
	log     *slog.Logger
	builder *mimebuild.Builder
	dial    dialFunc

	// retryDelay is the backoff base, overridable in tests.
	retryDelay time.Duration

	mu   sync.Mutex
	conn transport
}

// New creates a Mailer for the given configuration. A nil logger falls back
// to slog.Default().
func New(cfg *config.Config, log *slog.Logger) *Mailer {
	return newWithDialer(cfg, log, dialTransport)
}

// newWithDialer allows tests to substitute the dial function.
func newWithDialer(cfg *config.Config, log *slog.Logger, dial dialFunc) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &Mailer{
		cfg:        cfg,
		log:        log,
		builder:    mimebuild.NewBuilder(log),
		dial:       dial,
		retryDelay: baseRetryDelay,
	}
}

// Connect opens a connection to the configured server, upgrades it to TLS
// when the security mode calls for it, and authenticates. It returns false
// after logging on any failure; the connection handle stays nil.
func (m *Mailer) Connect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked()
}

func (m *Mailer) connectLocked() bool {
	// A fresh dial must not leak a previously opened connection.
	m.closeLocked()

	conn, err := m.dial(m.cfg)
	if err != nil {
		m.log.Error("failed to connect to SMTP server", "error", err)
		return false
	}

	if !m.cfg.UseSSL && m.cfg.UseTLS {
		if err := conn.StartTLS(&tls.Config{ServerName: m.cfg.Server}); err != nil {
			m.log.Error("failed to upgrade connection with STARTTLS", "error", err)
			conn.Close()
			return false
		}
	}

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Server)
	if err := conn.Auth(auth); err != nil {
		m.log.Error("failed to authenticate with SMTP server", "error", err)
		conn.Close()
		return false
	}

	m.conn = conn
	m.log.Info("connected to SMTP server", "server", m.cfg.Server, "port", m.cfg.Port)
	return true
}

// Close issues a graceful shutdown when a connection is open. Errors from
// the QUIT sequence are logged and swallowed; the handle is always cleared.
func (m *Mailer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Mailer) closeLocked() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Quit(); err != nil {
		m.log.Warn("error closing SMTP connection", "error", err)
	}
	m.conn = nil
}

// Connected reports whether a connection is currently open.
func (m *Mailer) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Send delivers msg and reports the outcome. Recipient validation happens
// before any network activity; transient transport failures are retried
// with exponential backoff up to the configured limit. The connection is
// closed on every exit path, and any panic in the pipeline is converted
// into a failure Result.
func (m *Mailer) Send(ctx context.Context, msg *email.Message) (result *email.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() {
		m.closeLocked()
		if r := recover(); r != nil {
			m.log.Error("panic during send", "panic", r)
			result = failure(fmt.Sprintf("internal error: %v", r))
		}
	}()

	if len(msg.To) == 0 {
		return failure("no recipient email addresses provided")
	}

	to, err := email.ValidateAll(msg.To)
	if err != nil {
		return failure(err.Error())
	}
	cc, err := email.ValidateAll(msg.Cc)
	if err != nil {
		return failure(err.Error())
	}
	bcc, err := email.ValidateAll(msg.Bcc)
	if err != nil {
		return failure(err.Error())
	}

	from := msg.From
	if from == "" {
		from = m.cfg.User
	}

	raw, err := m.builder.Build(from, msg)
	if err != nil {
		m.log.Error("failed to assemble message", "error", err)
		return failure(err.Error())
	}

	recipients := make([]string, 0, len(to)+len(cc)+len(bcc))
	recipients = append(recipients, to...)
	recipients = append(recipients, cc...)
	recipients = append(recipients, bcc...)

	var lastErr error
	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			m.log.Debug("retrying send",
				"attempt", attempt,
				"max_retries", m.cfg.MaxRetries,
			)
			if err := sleepWithContext(ctx, m.backoffDelay(attempt)); err != nil {
				return failure(fmt.Sprintf("context cancelled during retry wait: %v", err))
			}
		}

		if err := m.transmit(recipients, raw); err != nil {
			lastErr = err
			m.log.Warn("transport error", "attempt", attempt, "error", err)
			continue
		}

		m.log.Info("email sent successfully", "recipients", len(recipients))
		return &email.Result{Success: true, Recipients: recipients}
	}

	return failure(lastErr.Error())
}

// transmit performs one connect/send/close cycle. The envelope sender is
// always the configured account; a From override changes only the header.
func (m *Mailer) transmit(recipients []string, raw []byte) error {
	if !m.connectLocked() {
		return errors.New("failed to connect to SMTP server")
	}
	defer m.closeLocked()

	if err := m.conn.Mail(m.cfg.User); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range recipients {
		if err := m.conn.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := m.conn.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("failed to transmit message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize message: %w", err)
	}
	return nil
}

// SendAsync runs the synchronous send path in its own goroutine and exposes
// the outcome through a channel carrying exactly one Result.
func (m *Mailer) SendAsync(ctx context.Context, msg *email.Message) <-chan *email.Result {
	ch := make(chan *email.Result, 1)
	go func() {
		ch <- m.Send(ctx, msg)
		close(ch)
	}()
	return ch
}

// SendSimple sends a message without attachments or extra headers.
func (m *Mailer) SendSimple(ctx context.Context, to []string, subject, body string, html bool) *email.Result {
	return m.Send(ctx, &email.Message{
		To:      to,
		Subject: subject,
		Body:    body,
		HTML:    html,
	})
}

// SendQuick sends one message without keeping a Mailer around.
func SendQuick(ctx context.Context, cfg *config.Config, log *slog.Logger, to []string, subject, body string, html bool) *email.Result {
	return New(cfg, log).SendSimple(ctx, to, subject, body, html)
}

func failure(msg string) *email.Result {
	return &email.Result{Success: false, Error: msg}
}

// backoffDelay returns the exponential backoff delay for the given attempt.
func (m *Mailer) backoffDelay(attempt int) time.Duration {
	delay := m.retryDelay
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
