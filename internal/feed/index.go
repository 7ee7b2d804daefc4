package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IndexEntry is the published location of one processed feed
type IndexEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Index lists every feed published by a run, in configured source order
type Index struct {
	URLs []IndexEntry `json:"urls"`
}

// NewIndex folds entries into an Index, skipping nil entries of failed sources
func NewIndex(entries []*IndexEntry) *Index {
	idx := &Index{URLs: make([]IndexEntry, 0, len(entries))}
	for _, e := range entries {
		if e != nil {
			idx.URLs = append(idx.URLs, *e)
		}
	}
	return idx
}

// MarshalIndent renders the index with four-space indentation and literal non-ASCII names
func (idx *Index) MarshalIndent() ([]byte, error) {
	out := *idx
	if out.URLs == nil {
		out.URLs = []IndexEntry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
