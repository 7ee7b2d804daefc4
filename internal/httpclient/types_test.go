package httpclient_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		url           string
		message       string
		expectedError string
	}{
		{
			name:          "create HTTPError with all fields",
			statusCode:    404,
			url:           "http://example.com",
			message:       "404 Not Found",
			expectedError: "HTTP 404 for URL http://example.com: 404 Not Found",
		},
		{
			name:          "format error message correctly for 500",
			statusCode:    500,
			url:           "http://cdn.example.com/tvbox.json",
			message:       "500 Internal Server Error",
			expectedError: "HTTP 500 for URL http://cdn.example.com/tvbox.json: 500 Internal Server Error",
		},
		{
			name:          "handle empty message",
			statusCode:    404,
			url:           "http://example.com",
			message:       "",
			expectedError: "HTTP 404 for URL http://example.com: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := httpclient.NewHTTPError(tt.statusCode, tt.url, tt.message)

			require.Error(t, err)
			assert.Equal(t, tt.expectedError, err.Error())
		})
	}
}

func TestHTTPError_IsNetworkError(t *testing.T) {
	t.Parallel()

	err := httpclient.NewHTTPError(503, "http://example.com", "Service Unavailable")
	wrapped := fmt.Errorf("fetch failed: %w", err)

	assert.ErrorIs(t, err, httpclient.ErrNetwork)
	assert.ErrorIs(t, wrapped, httpclient.ErrNetwork)
	assert.False(t, errors.Is(err, errors.New("network error")), "only the sentinel should match")
}
