package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// SpiderKey is the member holding the plugin jar URL
	SpiderKey = "spider"

	// SitesKey is the member holding the site catalog
	SitesKey = "sites"

	indent = "    "
)

// ErrNotObject is returned when the parsed JSON value is not an object
var ErrNotObject = errors.New("feed document must be a JSON object")

// Document is a parsed feed document
type Document struct {
	raw []byte
}

// Site is one catalog entry of a feed document
type Site struct {
	raw string
}

// Parse validates data as a JSON object and wraps it as a Document
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if err := validateJSON(trimmed); err != nil {
		return nil, err
	}
	if !gjson.ParseBytes(trimmed).IsObject() {
		return nil, ErrNotObject
	}

	raw := make([]byte, len(trimmed))
	copy(raw, trimmed)
	return &Document{raw: raw}, nil
}

// validateJSON reports the syntax error of data, keeping the offset available
// to callers through *json.SyntaxError
func validateJSON(data []byte) error {
	if json.Valid(data) {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return fmt.Errorf("invalid JSON")
}

// Raw returns the document bytes
func (d *Document) Raw() []byte {
	return d.raw
}

// Spider returns the spider URL if the document has a non-empty string spider member
func (d *Document) Spider() (string, bool) {
	r := gjson.GetBytes(d.raw, SpiderKey)
	if r.Type != gjson.String || r.Str == "" {
		return "", false
	}
	return r.Str, true
}

// SetSpider rewrites the spider member
func (d *Document) SetSpider(url string) error {
	value, err := encodeString(url)
	if err != nil {
		return err
	}
	raw, err := sjson.SetRawBytes(d.raw, SpiderKey, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", SpiderKey, err)
	}
	d.raw = raw
	return nil
}

// HasSites reports whether the document has a sites array
func (d *Document) HasSites() bool {
	return gjson.GetBytes(d.raw, SitesKey).IsArray()
}

// Sites returns the site entries in document order
func (d *Document) Sites() []Site {
	r := gjson.GetBytes(d.raw, SitesKey)
	if !r.IsArray() {
		return nil
	}
	elements := r.Array()
	sites := make([]Site, 0, len(elements))
	for _, el := range elements {
		sites = append(sites, Site{raw: el.Raw})
	}
	return sites
}

// SetSites replaces the sites member with the given entries
func (d *Document) SetSites(sites []Site) error {
	parts := make([]string, 0, len(sites))
	for _, s := range sites {
		parts = append(parts, s.raw)
	}
	value := "[" + strings.Join(parts, ",") + "]"

	raw, err := sjson.SetRawBytes(d.raw, SitesKey, []byte(value))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", SitesKey, err)
	}
	d.raw = raw
	return nil
}

// MarshalIndent renders the document with four-space indentation.
// Escaped printable characters, including non-ASCII ones such as "\u4e2d", are
// written literally. Quotes, backslashes and control characters stay escaped.
func (d *Document) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.raw, "", indent); err != nil {
		return nil, fmt.Errorf("failed to format feed document: %w", err)
	}
	return unescapePrintable(buf.Bytes()), nil
}

// unescapePrintable rewrites \uXXXX escapes of printable characters and "\/"
// as the literal characters. src must be valid JSON.
func unescapePrintable(src []byte) []byte {
	if bytes.IndexByte(src, '\\') < 0 {
		return src
	}

	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '\\' || i+1 >= len(src) {
			out = append(out, c)
			continue
		}

		switch src[i+1] {
		case '/':
			out = append(out, '/')
			i++
			continue
		case 'u':
			if r, n := decodeEscape(src[i:]); n > 0 {
				out = utf8.AppendRune(out, r)
				i += n - 1
				continue
			}
		}
		out = append(out, c, src[i+1])
		i++
	}
	return out
}

// decodeEscape decodes the \uXXXX escape, or surrogate pair, at the start of b.
// n is 0 when the escape has to stay as written.
func decodeEscape(b []byte) (r rune, n int) {
	r, ok := hexEscape(b)
	if !ok {
		return 0, 0
	}

	if utf16.IsSurrogate(r) {
		if len(b) >= 12 {
			if low, ok := hexEscape(b[6:]); ok {
				if dec := utf16.DecodeRune(r, low); dec != utf8.RuneError {
					return dec, 12
				}
			}
		}
		// Lone surrogates have no UTF-8 form
		return 0, 0
	}

	if r < 0x20 || r == '"' || r == '\\' {
		return 0, 0
	}
	return r, 6
}

func hexEscape(b []byte) (rune, bool) {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(b[2:6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// NewSite builds a site from its raw JSON object text
func NewSite(raw string) Site {
	return Site{raw: raw}
}

// Name returns the site name, or "" when the entry has no string name
func (s Site) Name() string {
	r := gjson.Get(s.raw, "name")
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

// Raw returns the site JSON text
func (s Site) Raw() string {
	return s.raw
}

// encodeString encodes s as a JSON string without HTML escaping
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode string: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
