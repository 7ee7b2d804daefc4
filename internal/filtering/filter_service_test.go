package filtering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvbox-mirror/feed-mirror/internal/feed"
)

func mustParse(t *testing.T, data string) *feed.Document {
	t.Helper()
	doc, err := feed.Parse([]byte(data))
	require.NoError(t, err)
	return doc
}

func siteNames(doc *feed.Document) []string {
	names := []string{}
	for _, s := range doc.Sites() {
		names = append(names, s.Name())
	}
	return names
}

// recordingNameFilter records every name it is asked about and blocks a fixed set
type recordingNameFilter struct {
	seen    []string
	blocked map[string]bool
}

func (f *recordingNameFilter) ShouldInclude(name string, _ []string) (bool, string) {
	f.seen = append(f.seen, name)
	if f.blocked[name] {
		return false, "blocked"
	}
	return true, "allowed"
}

func TestNewDefaultFilterService(t *testing.T) {
	t.Parallel()

	service := NewDefaultFilterService()
	require.NotNil(t, service)
	impl, ok := service.(*defaultFilterService)
	require.True(t, ok)
	assert.NotNil(t, impl.nameFilter)
}

func TestNewFilterService(t *testing.T) {
	t.Parallel()

	nameFilter := NewDefaultNameFilter()

	service := NewFilterService(nameFilter)
	impl, ok := service.(*defaultFilterService)
	require.True(t, ok)
	assert.Equal(t, nameFilter, impl.nameFilter)
}

func TestDefaultFilterService_ApplyFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		input         string
		blockList     []string
		expectedNames []string
		expectedRaw   string
		removed       int
	}{
		{
			name:          "block list removes matching sites",
			input:         `{"sites":[{"name":"TV4K"},{"name":"Movies"}]}`,
			blockList:     []string{"4K"},
			expectedNames: []string{"Movies"},
			removed:       1,
		},
		{
			name:        "empty block list is identity",
			input:       `{"sites":[{"name":"TV4K","key":"a"},{"name":"Movies"}],"z":1}`,
			blockList:   nil,
			expectedRaw: `{"sites":[{"name":"TV4K","key":"a"},{"name":"Movies"}],"z":1}`,
		},
		{
			name:        "no sites member is identity",
			input:       `{"spider":"http://x/a.jar","lives":[]}`,
			blockList:   []string{"4K"},
			expectedRaw: `{"spider":"http://x/a.jar","lives":[]}`,
		},
		{
			name:        "non-array sites member is untouched",
			input:       `{"sites":"4K"}`,
			blockList:   []string{"4K"},
			expectedRaw: `{"sites":"4K"}`,
		},
		{
			name:          "order of survivors preserved",
			input:         `{"sites":[{"name":"C"},{"name":"x4K"},{"name":"A"},{"name":"B成人"},{"name":"B"}]}`,
			blockList:     []string{"4K", "成人"},
			expectedNames: []string{"C", "A", "B"},
			removed:       2,
		},
		{
			name:          "site without string name treated as empty",
			input:         `{"sites":[{"key":"nameless"},{"name":42},{"name":"Movies"}]}`,
			blockList:     []string{"4K"},
			expectedNames: []string{"", "", "Movies"},
		},
		{
			name:          "all sites removed",
			input:         `{"sites":[{"name":"Foo4K"}]}`,
			blockList:     []string{"4K"},
			expectedNames: []string{},
			expectedRaw:   `{"sites":[]}`,
			removed:       1,
		},
		{
			name:          "unknown site fields preserved",
			input:         `{"sites":[{"name":"Keep","ext":{"a":[1,2]},"type":3},{"name":"Drop4K"}],"wallpaper":"w"}`,
			blockList:     []string{"4K"},
			expectedNames: []string{"Keep"},
			expectedRaw:   `{"sites":[{"name":"Keep","ext":{"a":[1,2]},"type":3}],"wallpaper":"w"}`,
			removed:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service := NewDefaultFilterService()
			doc := mustParse(t, tt.input)

			result, err := service.ApplyFilters(context.Background(), doc, tt.blockList)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.removed, result.Removed)

			if tt.expectedNames != nil {
				assert.Equal(t, tt.expectedNames, siteNames(result.Document))
			}
			if tt.expectedRaw != "" {
				assert.Equal(t, tt.expectedRaw, string(result.Document.Raw()))
			}
		})
	}
}

func TestDefaultFilterService_ApplyFilters_UsesNameFilter(t *testing.T) {
	t.Parallel()

	nameFilter := &recordingNameFilter{blocked: map[string]bool{"B": true}}
	service := NewFilterService(nameFilter)
	doc := mustParse(t, `{"sites":[{"name":"A"},{"name":"B"},{"name":"C"}]}`)

	result, err := service.ApplyFilters(context.Background(), doc, []string{"anything"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, nameFilter.seen)
	assert.Equal(t, []string{"A", "C"}, siteNames(result.Document))
	assert.Equal(t, 1, result.Removed)
}

func TestDefaultFilterService_ApplyFilters_EmptyBlockListSkipsNameFilter(t *testing.T) {
	t.Parallel()

	nameFilter := &recordingNameFilter{}
	service := NewFilterService(nameFilter)
	doc := mustParse(t, `{"sites":[{"name":"A"}]}`)

	_, err := service.ApplyFilters(context.Background(), doc, []string{})
	require.NoError(t, err)

	assert.Empty(t, nameFilter.seen)
}
