package filtering

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvbox-mirror/feed-mirror/internal/feed"
)

// Result is the outcome of filtering one document
type Result struct {
	// Document is the filtered document. It is the input document when nothing was removed.
	Document *feed.Document
	// Removed is the number of sites dropped by the block list
	Removed int
}

// FilterService applies a block list to the sites of a feed document
type FilterService interface {
	// ApplyFilters removes every site whose name matches the block list
	ApplyFilters(ctx context.Context, doc *feed.Document, blockList []string) (*Result, error)
}

// defaultFilterService implements filtering using a NameFilter
type defaultFilterService struct {
	nameFilter NameFilter
}

var _ FilterService = (*defaultFilterService)(nil)

// NewDefaultFilterService creates a new defaultFilterService with the default name filter
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{
		nameFilter: NewDefaultNameFilter(),
	}
}

// NewFilterService creates a new defaultFilterService with a custom name filter
func NewFilterService(nameFilter NameFilter) FilterService {
	return &defaultFilterService{
		nameFilter: nameFilter,
	}
}

// ApplyFilters removes every site whose name matches the block list
//
// The filtering process:
// 1. If the block list is empty or the document has no sites array, return the document unchanged
// 2. Evaluate every site name with the name filter, keeping survivors in order
// 3. If any site was removed, rewrite the sites member with the survivors
func (s *defaultFilterService) ApplyFilters(
	_ context.Context,
	doc *feed.Document,
	blockList []string,
) (*Result, error) {
	if len(blockList) == 0 {
		slog.Debug("No block list specified, returning original document")
		return &Result{Document: doc}, nil
	}
	if !doc.HasSites() {
		slog.Debug("Document has no sites array, nothing to filter")
		return &Result{Document: doc}, nil
	}

	sites := doc.Sites()
	kept := make([]feed.Site, 0, len(sites))
	for _, site := range sites {
		name := site.Name()
		included, reason := s.nameFilter.ShouldInclude(name, blockList)
		if included {
			kept = append(kept, site)
			continue
		}
		slog.Debug("Excluding site",
			"name", name,
			"reason", reason)
	}

	removed := len(sites) - len(kept)
	slog.Info("Site filtering completed",
		"originalSiteCount", len(sites),
		"keptSites", len(kept),
		"removedSites", removed)

	if removed == 0 {
		return &Result{Document: doc}, nil
	}

	if err := doc.SetSites(kept); err != nil {
		return nil, fmt.Errorf("failed to rewrite sites: %w", err)
	}
	return &Result{Document: doc, Removed: removed}, nil
}
