// Package feed defines the feed document published for each source and the
// index that lists every published feed.
//
// A Document is kept as the raw JSON object it was parsed from. Only the
// "spider" and "sites" members are ever read or rewritten; every other member,
// including member order and string escapes, is written back byte for byte.
package feed
