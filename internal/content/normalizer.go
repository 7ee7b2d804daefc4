package content

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/tvbox-mirror/feed-mirror/internal/feed"
)

var (
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	jpegSig   = []byte{0xFF, 0xD8}
	bitmapSig = []byte("BM")
)

// Normalize converts a raw response body into a feed document.
// contentType is the declared Content-Type header and may be empty.
func Normalize(body []byte, contentType string) (*feed.Document, error) {
	body = bytes.TrimPrefix(body, utf8BOM)

	if IsImage(body, contentType) {
		slog.Info("Detected image disguise, extracting embedded payload", "contentType", contentType)
		return DecodeImage(body)
	}

	doc, utf8Err := parseText(decodeUTF8(body))
	if utf8Err == nil {
		return doc, nil
	}
	slog.Debug("UTF-8 parse failed, retrying as GBK", "error", utf8Err)

	text, err := decodeGBK(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode as GBK: %w", ErrParse, err)
	}
	doc, err = parseText(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return doc, nil
}

// IsImage reports whether a response is a disguised image payload
func IsImage(body []byte, contentType string) bool {
	return strings.Contains(contentType, "image") ||
		bytes.HasPrefix(body, jpegSig) ||
		bytes.HasPrefix(body, bitmapSig)
}

func parseText(text string) (*feed.Document, error) {
	return feed.Parse([]byte(StripComments(text)))
}

// decodeUTF8 replaces invalid sequences with U+FFFD
func decodeUTF8(body []byte) string {
	return strings.ToValidUTF8(string(body), "\uFFFD")
}

// decodeGBK replaces invalid sequences with U+FFFD
func decodeGBK(body []byte) (string, error) {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
