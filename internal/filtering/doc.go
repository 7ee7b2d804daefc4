// Package filtering removes unwanted site entries from feed documents.
//
// A source configures a block list of substrings. A site is removed when its
// name contains any of them; matching is case-sensitive and plain substring,
// with no glob or regular expression syntax. Sites that survive keep their
// original order and their JSON text is not touched.
//
// # Architecture
//
//   - NameFilter: decides whether a single site name passes the block list
//   - FilterService: applies a NameFilter to every site of a document
//
// # Usage Example
//
//	service := NewDefaultFilterService()
//	result, err := service.ApplyFilters(ctx, doc, []string{"4K", "成人"})
//	if err != nil {
//		return err
//	}
//	slog.Info("Filtered", "removedSites", result.Removed)
//
// A document without a sites array, or an empty block list, is returned
// unchanged with Removed set to zero.
package filtering
