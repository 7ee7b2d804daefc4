package content

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tvbox-mirror/feed-mirror/internal/feed"
)

// errorContextRadius is the number of bytes shown on each side of a JSON syntax error
const errorContextRadius = 30

var (
	base64Candidate = regexp.MustCompile(`[A-Za-z0-9+/]+={0,2}`)

	// payloadSignatures are substrings every real feed contains
	payloadSignatures = []string{"searchable", "sites"}
)

// FindPayload scans data for Base64 runs and returns the first decoded text that
// looks like a feed. Runs are tried longest first; ties keep their original order.
// A run that is not valid Base64, or does not decode to UTF-8, is skipped.
//
// This is a best-effort classifier: the second return value is false when no
// run qualifies.
func FindPayload(data []byte) (string, bool) {
	candidates := base64Candidate.FindAll(data, -1)
	slices.SortStableFunc(candidates, func(a, b []byte) int {
		return cmp.Compare(len(b), len(a))
	})

	for _, candidate := range candidates {
		decoded, err := base64.StdEncoding.DecodeString(string(candidate))
		if err != nil || !utf8.Valid(decoded) {
			continue
		}
		text := string(decoded)
		if hasPayloadSignature(text) {
			return text, true
		}
	}

	return "", false
}

// DecodeImage extracts the feed document hidden in a disguised image
func DecodeImage(data []byte) (*feed.Document, error) {
	payload, ok := FindPayload(data)
	if !ok {
		return nil, fmt.Errorf("%w: no Base64 payload found in image", ErrDecode)
	}
	slog.Debug("Base64 payload decoded", "payloadBytes", len(payload))

	cleaned := StripComments(payload)
	doc, err := feed.Parse([]byte(cleaned))
	if err != nil {
		near := errorContext(cleaned, err)
		slog.Warn("Decoded payload is not valid JSON", "error", err, "near", near)
		return nil, fmt.Errorf("%w: decoded payload is not valid JSON near %q: %w", ErrDecode, near, err)
	}

	return doc, nil
}

func hasPayloadSignature(text string) bool {
	for _, sig := range payloadSignatures {
		if strings.Contains(text, sig) {
			return true
		}
	}
	return false
}

// errorContext returns the text surrounding a JSON syntax error, or "" when
// err carries no position
func errorContext(text string, err error) string {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return ""
	}

	pos := int(syntaxErr.Offset)
	start := max(pos-errorContextRadius, 0)
	end := min(pos+errorContextRadius, len(text))
	if start >= end {
		return ""
	}

	// The window may cut through a multi-byte rune
	return strings.ToValidUTF8(text[start:end], "")
}
