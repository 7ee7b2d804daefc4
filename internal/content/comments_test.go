package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripComments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no comments is identity",
			input:    "{\n  \"sites\": []\n}",
			expected: "{\n  \"sites\": []\n}",
		},
		{
			name:     "comment lines removed in order",
			input:    "// header\n{\n// inner\n  \"sites\": []\n}\n//footer",
			expected: "{\n  \"sites\": []\n}",
		},
		{
			name:     "indented comment removed",
			input:    "{\n    \t// \"disabled\": true,\n  \"a\": 1\n}",
			expected: "{\n  \"a\": 1\n}",
		},
		{
			name:     "mid-line double slash kept",
			input:    "{\n  \"url\": \"http://example.com\"\n}",
			expected: "{\n  \"url\": \"http://example.com\"\n}",
		},
		{
			name:     "trailing comment after value kept",
			input:    "\"a\": 1, // note",
			expected: "\"a\": 1, // note",
		},
		{
			name:     "CRLF line endings normalised",
			input:    "{\r\n//x\r\n\"a\": 1\r\n}",
			expected: "{\n\"a\": 1\n}",
		},
		{
			name:     "only comments",
			input:    "// a\n// b",
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, StripComments(tt.input))
		})
	}
}

func TestStripComments_KeepsNonCommentLinesInOrder(t *testing.T) {
	t.Parallel()

	lines := []string{
		"line-0",
		"// drop-1",
		"line-2",
		"  // drop-3",
		"line-4 // keep",
		"http://line-5",
		"//",
		"line-7",
	}

	got := StripComments(strings.Join(lines, "\n"))

	assert.Equal(t, "line-0\nline-2\nline-4 // keep\nhttp://line-5\nline-7", got)
}

func TestSplitLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, splitLines("a\nb\r\nc\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\rb"))
	assert.Nil(t, splitLines(""))
}
