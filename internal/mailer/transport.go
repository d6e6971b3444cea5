package mailer

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"

	"github.com/shineum/mailkit/internal/config"
)

// transport is the subset of the SMTP client used by the mailer. It exists
// so tests can substitute a fake connection for *smtp.Client.
type transport interface {
	StartTLS(cfg *tls.Config) error
	Auth(auth smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// dialFunc opens a transport to the configured server. Injectable for tests.
type dialFunc func(cfg *config.Config) (transport, error)

// dialTransport opens the socket for the configured security mode: implicit
// TLS when UseSSL is set, plaintext otherwise. The STARTTLS upgrade for
// UseTLS happens later in Connect, after the greeting.
func dialTransport(cfg *config.Config) (transport, error) {
	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))

	if cfg.UseSSL {
		conn, err := tls.DialWithDialer(
			&net.Dialer{Timeout: cfg.TimeoutDuration()},
			"tcp", addr,
			&tls.Config{ServerName: cfg.Server},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s with TLS: %w", addr, err)
		}
		client, err := smtp.NewClient(conn, cfg.Server)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
		return client, nil
	}

	conn, err := net.DialTimeout("tcp", addr, cfg.TimeoutDuration())
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, cfg.Server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}
