// Package content turns raw feed responses into feed documents.
//
// Feed sources are uncontrolled aggregator endpoints. A response may carry a
// UTF-8 byte-order mark, line comments, GBK encoded text, or be disguised as
// an image with the real feed Base64 encoded somewhere in its bytes.
//
// Normalize handles all of these in a fixed order:
//
//  1. Strip a leading UTF-8 byte-order mark.
//  2. If the content type mentions "image", or the bytes start with a JPEG
//     or BMP signature, extract the embedded feed with DecodeImage.
//  3. Otherwise decode as UTF-8, strip comment lines and parse. If parsing
//     fails, decode the same bytes as GBK and try once more.
//
// The GBK attempt is driven by the parse failure, not by encoding detection,
// so inputs accepted as UTF-8 never change meaning.
package content
