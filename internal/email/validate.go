package email

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// addressPattern matches local-part@domain.tld where the final label is at
// least two letters. This is a syntactic check only; no DNS or mailbox
// verification happens anywhere in the pipeline.
var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// unsafeFilenameChars are replaced with underscores before a filename is
// written into an attachment header.
var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// maxFilenameLength is the longest sanitized filename we will emit.
const maxFilenameLength = 255

// ValidationError reports the first invalid address found in a recipient
// list. Validation is fail-fast: the remaining addresses are not inspected.
type ValidationError struct {
	Address string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid email address: %s", e.Address)
}

// IsValidAddress reports whether addr looks like a deliverable email address.
func IsValidAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}

// ValidateAll checks every address in addrs and returns them unchanged.
// It fails with a *ValidationError naming the first invalid address.
func ValidateAll(addrs []string) ([]string, error) {
	valid := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if !IsValidAddress(addr) {
			return nil, &ValidationError{Address: addr}
		}
		valid = append(valid, addr)
	}
	return valid, nil
}

// SanitizeFilename replaces characters that are unsafe in attachment
// filenames with underscores and truncates the result to 255 bytes,
// keeping the extension intact. An extension that alone exceeds the limit
// is truncated along with everything else.
func SanitizeFilename(name string) string {
	sanitized := unsafeFilenameChars.ReplaceAllString(name, "_")

	if len(sanitized) > maxFilenameLength {
		ext := filepath.Ext(sanitized)
		if len(ext) >= maxFilenameLength {
			return truncateToRuneBoundary(sanitized, maxFilenameLength)
		}
		stem := strings.TrimSuffix(sanitized, ext)
		sanitized = truncateToRuneBoundary(stem, maxFilenameLength-len(ext)) + ext
	}

	return sanitized
}

// truncateToRuneBoundary cuts s to at most limit bytes without splitting a
// UTF-8 rune.
func truncateToRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// FormatAddressList joins addresses for use in a message header.
func FormatAddressList(addrs []string) string {
	return strings.Join(addrs, ", ")
}
