package filtering

import (
	"fmt"
	"strings"
)

// NameFilter handles site name filtering against a block list of substrings
type NameFilter interface {
	// ShouldInclude determines if a site name passes the block list
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(name string, blockList []string) (bool, string)
}

// defaultNameFilter implements case-sensitive substring matching
type defaultNameFilter struct{}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates a new defaultNameFilter
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// ShouldInclude determines if a site name passes the block list
//
// Logic:
// 1. If the block list is empty -> include
// 2. If the name contains any block-listed substring -> exclude, reporting the first match
// 3. Otherwise -> include
//
// An empty string in the block list matches every name.
func (*defaultNameFilter) ShouldInclude(name string, blockList []string) (bool, string) {
	if len(blockList) == 0 {
		return true, "no block list specified"
	}

	for _, blocked := range blockList {
		if strings.Contains(name, blocked) {
			return false, fmt.Sprintf("name contains blocked substring '%s'", blocked)
		}
	}

	return true, fmt.Sprintf("no match in block list %v", blockList)
}
