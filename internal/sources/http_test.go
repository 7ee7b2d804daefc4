package sources

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/content"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient/mocks"
)

func TestHTTPSourceHandler_Validate(t *testing.T) {
	t.Parallel()

	handler := NewHTTPSourceHandler(nil)

	require.NoError(t, handler.Validate(&config.SourceConfig{Name: "a", URL: "https://x/tv.json"}))

	err := handler.Validate(&config.SourceConfig{Name: "a", URL: "/srv/tv.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source type")

	assert.Error(t, handler.Validate(nil))
}

func TestHTTPSourceHandler_FetchFeed(t *testing.T) {
	t.Parallel()

	const feedText = "\xEF\xBB\xBF{\n// comment\n\"sites\":[{\"name\":\"A\"},{\"name\":\"B\"}]}"
	payload := base64.StdEncoding.EncodeToString([]byte(`{"sites":[{"name":"hidden"}]}`))
	imageBody := []byte("\xFF\xD8\x00\x01garbage**" + payload + "**trailer")

	tests := []struct {
		name          string
		response      *httpclient.Response
		fetchErr      error
		wantSites     int
		wantRaw       string
		wantErrIs     error
		wantErrSubstr string
	}{
		{
			name:      "plain text feed",
			response:  &httpclient.Response{Body: []byte(feedText), ContentType: "text/plain", StatusCode: 200},
			wantSites: 2,
			wantRaw:   "{\n\"sites\":[{\"name\":\"A\"},{\"name\":\"B\"}]}",
		},
		{
			name:      "image disguised feed",
			response:  &httpclient.Response{Body: imageBody, ContentType: "image/jpeg", StatusCode: 200},
			wantSites: 1,
			wantRaw:   `{"sites":[{"name":"hidden"}]}`,
		},
		{
			name:          "network failure",
			fetchErr:      httpclient.NewHTTPError(500, "http://x/tv.json", "500 Internal Server Error"),
			wantErrIs:     httpclient.ErrNetwork,
			wantErrSubstr: "failed to fetch feed",
		},
		{
			name:          "unparseable body",
			response:      &httpclient.Response{Body: []byte("<html>"), ContentType: "text/html", StatusCode: 200},
			wantErrIs:     content.ErrParse,
			wantErrSubstr: "failed to normalize feed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			client.EXPECT().
				Fetch(gomock.Any(), "http://x/tv.json;md5;abc").
				Return(tt.response, tt.fetchErr)

			handler := NewHTTPSourceHandler(client)
			result, err := handler.FetchFeed(context.Background(), &config.SourceConfig{
				Name: "line",
				URL:  "http://x/tv.json;md5;abc",
			})

			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Contains(t, err.Error(), tt.wantErrSubstr)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRaw, string(result.Document.Raw()))
			assert.Equal(t, tt.wantSites, result.SiteCount)
			assert.Equal(t, tt.response.ContentType, result.ContentType)
			assert.Equal(t, len(tt.response.Body), result.SizeBytes)
			assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256(tt.response.Body)), result.Hash)
		})
	}
}

func TestHTTPSourceHandler_FetchFeed_InvalidSource(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	handler := NewHTTPSourceHandler(mocks.NewMockClient(ctrl))

	_, err := handler.FetchFeed(context.Background(), &config.SourceConfig{Name: "a", URL: "local.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source validation failed")
}
