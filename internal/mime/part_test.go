package mime

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shineum/mailkit/internal/email"
)

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestBuildAttachment_MissingFile(t *testing.T) {
	_, err := BuildAttachment(email.Attachment{Path: "/nonexistent/file.txt"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
}

func TestBuildAttachment_DefaultFilename(t *testing.T) {
	path := writeTempFile(t, "report.pdf", []byte("pdf content"))

	part, err := BuildAttachment(email.Attachment{Path: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	disposition := part.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "report.pdf") {
		t.Errorf("Content-Disposition: got %q, want filename report.pdf", disposition)
	}
	if !strings.HasPrefix(disposition, "attachment") {
		t.Errorf("Content-Disposition: got %q, want attachment disposition", disposition)
	}
}

func TestBuildAttachment_ContentTypeSniffing(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"image.png", "image/png"},
		{"doc.pdf", "application/pdf"},
		{"data.unknown-ext", "application/octet-stream"},
	}

	for _, tt := range tests {
		path := writeTempFile(t, tt.name, []byte("content"))

		part, err := BuildAttachment(email.Attachment{Path: path})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got := part.Header.Get("Content-Type"); got != tt.want {
			t.Errorf("%s: Content-Type: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuildAttachment_ExplicitOverrides(t *testing.T) {
	path := writeTempFile(t, "raw.bin", []byte("content"))

	part, err := BuildAttachment(email.Attachment{
		Path:        path,
		Filename:    "custom-name.dat",
		ContentType: "application/x-custom",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := part.Header.Get("Content-Type"); got != "application/x-custom" {
		t.Errorf("Content-Type: got %q, want application/x-custom", got)
	}
	if disposition := part.Header.Get("Content-Disposition"); !strings.Contains(disposition, "custom-name.dat") {
		t.Errorf("Content-Disposition: got %q, want custom-name.dat", disposition)
	}
}

func TestBuildAttachment_Inline(t *testing.T) {
	path := writeTempFile(t, "logo.png", []byte("png bytes"))

	part, err := BuildAttachment(email.Attachment{
		Path:      path,
		ContentID: "logo",
		Inline:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := part.Header.Get("Content-ID"); got != "<logo>" {
		t.Errorf("Content-ID: got %q, want <logo>", got)
	}
	if got := part.Header.Get("Content-Disposition"); got != "inline" {
		t.Errorf("Content-Disposition: got %q, want inline", got)
	}
}

func TestBuildAttachment_Base64Payload(t *testing.T) {
	content := []byte("hello attachment")
	path := writeTempFile(t, "note.txt", content)

	part, err := BuildAttachment(email.Attachment{Path: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(part.Body, "\r\n", ""))
	if err != nil {
		t.Fatalf("body is not valid base64: %v", err)
	}
	if string(decoded) != string(content) {
		t.Errorf("decoded body: got %q, want %q", decoded, content)
	}
	if got := part.Header.Get("Content-Transfer-Encoding"); got != "base64" {
		t.Errorf("Content-Transfer-Encoding: got %q, want base64", got)
	}
}

func TestBuildAttachment_SanitizesFilename(t *testing.T) {
	path := writeTempFile(t, "plain.txt", []byte("content"))

	part, err := BuildAttachment(email.Attachment{
		Path:     path,
		Filename: "bad<name>.txt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	disposition := part.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "bad_name_.txt") {
		t.Errorf("Content-Disposition: got %q, want sanitized bad_name_.txt", disposition)
	}
}

func TestEncodeBase64WithLineBreaks(t *testing.T) {
	// 100 bytes encodes to 136 base64 characters, which must wrap at 76.
	data := make([]byte, 100)

	encoded := encodeBase64WithLineBreaks(data)

	lines := strings.Split(encoded, "\r\n")
	if len(lines) != 2 {
		t.Fatalf("line count: got %d, want 2", len(lines))
	}
	if len(lines[0]) != 76 {
		t.Errorf("first line length: got %d, want 76", len(lines[0]))
	}
}
