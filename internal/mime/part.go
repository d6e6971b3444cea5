// Package mime builds MIME parts and complete multipart documents for
// outgoing email.
package mime

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/shineum/mailkit/internal/email"
)

// ErrFileNotFound is returned when an attachment path does not exist.
var ErrFileNotFound = errors.New("file not found")

// defaultContentType is used when extension sniffing is inconclusive.
const defaultContentType = "application/octet-stream"

// Part is one section of a multipart document: its headers and an
// already-encoded body.
type Part struct {
	Header textproto.MIMEHeader
	Body   string
}

// BuildAttachment reads the file behind att into memory and wraps it as a
// base64-encoded MIME part. The filename defaults to the base name of the
// path and the content type to extension sniffing. The whole file is loaded
// into memory; there is no size limit.
func BuildAttachment(att email.Attachment) (*Part, error) {
	if _, err := os.Stat(att.Path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, att.Path)
	}

	filename := att.Filename
	if filename == "" {
		filename = filepath.Base(att.Path)
	}
	filename = email.SanitizeFilename(filename)

	contentType := att.ContentType
	if contentType == "" {
		contentType = detectContentType(filename)
	}

	content, err := os.ReadFile(att.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "base64")

	if att.Inline && att.ContentID != "" {
		header.Set("Content-ID", fmt.Sprintf("<%s>", att.ContentID))
		header.Set("Content-Disposition", "inline")
	} else {
		header.Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%s", mime.QEncoding.Encode("UTF-8", filename)))
	}

	return &Part{
		Header: header,
		Body:   encodeBase64WithLineBreaks(content),
	}, nil
}

// detectContentType sniffs a MIME type from the filename extension,
// falling back to application/octet-stream.
func detectContentType(filename string) string {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		return defaultContentType
	}
	return contentType
}

// encodeBase64WithLineBreaks encodes bytes to base64 with 76-character
// line breaks per RFC 2045.
func encodeBase64WithLineBreaks(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var lines []string
	for i := 0; i < len(encoded); i += 76 {
		end := i + 76
		if end > len(encoded) {
			end = len(encoded)
		}
		lines = append(lines, encoded[i:end])
	}
	return strings.Join(lines, "\r\n")
}
