package mirror_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tvbox-mirror/feed-mirror/internal/feed"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
	httpmocks "github.com/tvbox-mirror/feed-mirror/internal/httpclient/mocks"
	"github.com/tvbox-mirror/feed-mirror/internal/mirror"
	"github.com/tvbox-mirror/feed-mirror/internal/mirror/mocks"
	"github.com/tvbox-mirror/feed-mirror/internal/publisher"
)

func mustParse(t *testing.T, data string) *feed.Document {
	t.Helper()
	doc, err := feed.Parse([]byte(data))
	require.NoError(t, err)
	return doc
}

func TestDefaultAssetMirror_Mirror(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := httpmocks.NewMockClient(ctrl)
	fs := afero.NewMemMapFs()
	store := publisher.NewFileStorageManager(fs, "/out", "https://m/repo")
	ctx := context.Background()

	client.EXPECT().Get(ctx, "http://x/a.jar").Return([]byte("PK-jar-bytes"), nil)

	assetMirror := mirror.NewDefaultAssetMirror(client, store)
	doc := mustParse(t, `{"spider":"http://x/a.jar;md5;0123abcd","sites":[]}`)

	result, err := assetMirror.Mirror(ctx, doc, "line1")
	require.NoError(t, err)
	assert.True(t, result.Mirrored())
	assert.Equal(t, "http://x/a.jar;md5;0123abcd", result.Original)
	assert.Equal(t, "https://m/repo/jar/line1.jar", result.URL)

	spider, ok := doc.Spider()
	require.True(t, ok)
	assert.Equal(t, "https://m/repo/jar/line1.jar", spider)
	assert.Equal(t, `{"spider":"https://m/repo/jar/line1.jar","sites":[]}`, string(doc.Raw()))

	data, err := afero.ReadFile(fs, filepath.Join("/out", "jar", "line1.jar"))
	require.NoError(t, err)
	assert.Equal(t, []byte("PK-jar-bytes"), data)
}

func TestDefaultAssetMirror_Skip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "no spider member", input: `{"sites":[]}`},
		{name: "empty spider", input: `{"spider":""}`},
		{name: "non-string spider", input: `{"spider":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			client := httpmocks.NewMockClient(ctrl)
			store := mocks.NewMockAssetStore(ctrl)

			doc := mustParse(t, tt.input)
			result, err := mirror.NewDefaultAssetMirror(client, store).Mirror(context.Background(), doc, "line1")

			require.NoError(t, err)
			assert.True(t, result.Skipped)
			assert.False(t, result.Mirrored())
			assert.Equal(t, tt.input, string(doc.Raw()))
		})
	}
}

func TestDefaultAssetMirror_DownloadFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := httpmocks.NewMockClient(ctrl)
	store := mocks.NewMockAssetStore(ctrl)
	ctx := context.Background()

	client.EXPECT().Get(ctx, "http://x/a.jar").
		Return(nil, httpclient.NewHTTPError(404, "http://x/a.jar", "Not Found"))

	input := `{"spider":"http://x/a.jar","sites":[{"name":"A"}]}`
	doc := mustParse(t, input)

	result, err := mirror.NewDefaultAssetMirror(client, store).Mirror(ctx, doc, "line1")
	require.NoError(t, err)
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, httpclient.ErrNetwork)
	assert.False(t, result.Mirrored())
	assert.Empty(t, result.URL)
	assert.Equal(t, input, string(doc.Raw()))
}

func TestDefaultAssetMirror_StoreFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := httpmocks.NewMockClient(ctrl)
	store := mocks.NewMockAssetStore(ctrl)
	ctx := context.Background()
	storeErr := errors.New("disk full")

	client.EXPECT().Get(ctx, "http://x/a.jar").Return([]byte("jar"), nil)
	store.EXPECT().StoreAsset(ctx, "line1", []byte("jar")).Return("", storeErr)

	input := `{"spider":"http://x/a.jar"}`
	doc := mustParse(t, input)

	result, err := mirror.NewDefaultAssetMirror(client, store).Mirror(ctx, doc, "line1")
	require.NoError(t, err)
	assert.ErrorIs(t, result.Err, storeErr)
	assert.Equal(t, input, string(doc.Raw()))
}
