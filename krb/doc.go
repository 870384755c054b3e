// Package krb reads and writes the Kryon binary bundle format.
//
// A bundle is the compiled form of a UI document: a fixed 65-byte
// header, a deduplicated string table, and a flat array of element
// records that reference each other by id. All multi-byte integers are
// big-endian on the wire regardless of host byte order.
//
// # Decoding
//
//	b, err := krb.Decode(data)
//	if err != nil {
//	    // bad magic, version mismatch, checksum failure, ...
//	}
//
// Decode validates in a fixed order: magic, major version, declared
// size limits, CRC32 checksum, then per-record type tags. Unknown
// element tags are rejected in strict mode or skipped with a warning in
// permissive mode (DecodeOptions.Strict). DecodeAndValidate adds the
// structural pass: unique ids, resolvable parent/child links, acyclic
// parent chains, in-range string indices.
//
// # Encoding
//
//	b := krb.New()
//	title := b.AddString("title")
//	b.AddElement(krb.Element{ID: 1, Type: krb.ElementContainer})
//	data, err := b.Encode()
//
// The header is always derived from the payload actually written;
// encode fails rather than emit counts that disagree with the data.
// Round-tripping a well-formed bundle through Encode and Decode
// preserves its structure.
//
// # Compression
//
// The payload after the header may be compressed. "none" is always
// supported and zstd is registered by default; other codecs plug in
// via RegisterCodec. A bundle declaring an unregistered codec fails to
// decode with an unsupported error.
package krb
