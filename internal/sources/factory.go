package sources

import (
	"fmt"

	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
)

// defaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type defaultSourceHandlerFactory struct {
	httpClient httpclient.Client
}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory.
// All http handlers it creates share httpClient.
func NewSourceHandlerFactory(httpClient httpclient.Client) SourceHandlerFactory {
	return &defaultSourceHandlerFactory{httpClient: httpClient}
}

// CreateHandler creates a source handler for the given source type
func (f *defaultSourceHandlerFactory) CreateHandler(sourceType string) (SourceHandler, error) {
	switch sourceType {
	case config.SourceTypeHTTP:
		return NewHTTPSourceHandler(f.httpClient), nil
	case config.SourceTypeFile:
		return NewFileSourceHandler(), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
