package ses

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shineum/mailkit/internal/email"
)

// mockClient records SendEmail calls and returns scripted responses.
type mockClient struct {
	calls  int
	inputs []*sesv2.SendEmailInput
	err    error
}

func (m *mockClient) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.calls++
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-message-id")}, nil
}

func newTestProvider(client *mockClient, maxRetries int) *Provider {
	p := NewWithClient(ProviderConfig{
		Sender:     "noreply@example.com",
		MaxRetries: maxRetries,
	}, client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.retryDelay = time.Millisecond
	return p
}

func TestSend_SimpleEmail(t *testing.T) {
	client := &mockClient{}
	p := newTestProvider(client, 0)

	result := p.Send(context.Background(), &email.Message{
		To:      []string{"to@example.com"},
		Cc:      []string{"cc@example.com"},
		Subject: "Hello",
		Body:    "body text",
	})

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.MessageID != "ses-message-id" {
		t.Errorf("MessageID: got %q, want ses-message-id", result.MessageID)
	}
	if len(result.Recipients) != 2 {
		t.Errorf("recipients: got %v, want to+cc", result.Recipients)
	}

	if client.calls != 1 {
		t.Fatalf("SendEmail calls: got %d, want 1", client.calls)
	}
	input := client.inputs[0]
	if input.Content.Simple == nil {
		t.Fatal("expected simple content for email without attachments")
	}
	if got := aws.ToString(input.Content.Simple.Subject.Data); got != "Hello" {
		t.Errorf("subject: got %q, want Hello", got)
	}
	if input.Content.Simple.Body.Text == nil {
		t.Error("expected text body")
	}
}

func TestSend_HTMLBody(t *testing.T) {
	client := &mockClient{}
	p := newTestProvider(client, 0)

	result := p.Send(context.Background(), &email.Message{
		To:      []string{"to@example.com"},
		Subject: "Hello",
		Body:    "<h1>Hi</h1>",
		HTML:    true,
	})

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if client.inputs[0].Content.Simple.Body.Html == nil {
		t.Error("expected html body")
	}
}

func TestSend_RawMessageForAttachments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	client := &mockClient{}
	p := newTestProvider(client, 0)

	result := p.Send(context.Background(), &email.Message{
		To:          []string{"to@example.com"},
		Bcc:         []string{"hidden@example.com"},
		Subject:     "Hello",
		Body:        "body",
		Attachments: []email.Attachment{{Path: path}},
	})

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}

	input := client.inputs[0]
	if input.Content.Raw == nil {
		t.Fatal("expected raw content for email with attachments")
	}
	if strings.Contains(string(input.Content.Raw.Data), "hidden@example.com") {
		t.Error("bcc address leaked into raw document")
	}

	found := false
	for _, addr := range input.Destination.BccAddresses {
		if addr == "hidden@example.com" {
			found = true
		}
	}
	if !found {
		t.Error("bcc address missing from destination")
	}
}

func TestSend_NoRecipients(t *testing.T) {
	client := &mockClient{}
	p := newTestProvider(client, 0)

	result := p.Send(context.Background(), &email.Message{Subject: "x", Body: "y"})

	if result.Success {
		t.Error("expected failure for message without recipients")
	}
	if client.calls != 0 {
		t.Errorf("SendEmail calls: got %d, want 0", client.calls)
	}
}

func TestSend_InvalidAddress(t *testing.T) {
	client := &mockClient{}
	p := newTestProvider(client, 0)

	result := p.Send(context.Background(), &email.Message{
		To:      []string{"bad-address"},
		Subject: "x",
		Body:    "y",
	})

	if result.Success {
		t.Error("expected failure for invalid address")
	}
	if !strings.Contains(result.Error, "bad-address") {
		t.Errorf("error should name the address: %q", result.Error)
	}
	if client.calls != 0 {
		t.Errorf("SendEmail calls: got %d, want 0", client.calls)
	}
}

func TestSend_RetriesAPIFailures(t *testing.T) {
	client := &mockClient{err: errors.New("throttled")}
	p := newTestProvider(client, 2)

	result := p.Send(context.Background(), &email.Message{
		To:      []string{"to@example.com"},
		Subject: "x",
		Body:    "y",
	})

	if result.Success {
		t.Error("expected failure after exhausting retries")
	}
	if client.calls != 3 {
		t.Errorf("SendEmail calls: got %d, want 3 (1 attempt + 2 retries)", client.calls)
	}
}

func TestSend_DefaultSenderWhenNoOverride(t *testing.T) {
	client := &mockClient{}
	p := newTestProvider(client, 0)

	p.Send(context.Background(), &email.Message{
		To:      []string{"to@example.com"},
		Subject: "x",
		Body:    "y",
	})

	if got := aws.ToString(client.inputs[0].FromEmailAddress); got != "noreply@example.com" {
		t.Errorf("FromEmailAddress: got %q, want configured sender", got)
	}
}

func TestName(t *testing.T) {
	if got := newTestProvider(&mockClient{}, 0).Name(); got != "ses" {
		t.Errorf("Name: got %q, want ses", got)
	}
}
