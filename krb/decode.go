package krb

import (
	"hash/crc32"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb/internal/binary"
)

// DecodeOptions control decode limits and tag policy.
type DecodeOptions struct {
	// Strict rejects unknown element type tags. Permissive mode (the
	// default) skips the element and its descendants with a warning.
	Strict bool

	// SkipChecksum bypasses checksum verification. Intended for tooling
	// that inspects intentionally damaged bundles, never for loading.
	SkipChecksum bool

	MaxElements     uint32
	MaxProperties   uint32
	MaxStringLength uint32
	MaxNestingDepth uint32
}

// DefaultDecodeOptions returns the standard limits.
func DefaultDecodeOptions() *DecodeOptions {
	return &DecodeOptions{
		MaxElements:     DefaultMaxElements,
		MaxProperties:   DefaultMaxProperties,
		MaxStringLength: DefaultMaxStringLength,
		MaxNestingDepth: DefaultMaxNestingDepth,
	}
}

// Decode parses a binary bundle with default options.
func Decode(data []byte) (*Bundle, error) {
	return DecodeWithOptions(data, DefaultDecodeOptions())
}

// DecodeAndValidate parses a binary bundle and runs structural
// validation. This is a convenience combining Decode and Validate.
func DecodeAndValidate(data []byte) (*Bundle, error) {
	b, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeWithOptions parses a binary bundle.
//
// Validation happens in a fixed order: magic, version compatibility,
// declared size limits, checksum, then per-record type tags. A failure
// at any step rejects the whole bundle; decode never partially applies
// corrupt input.
func DecodeWithOptions(data []byte, opts *DecodeOptions) (*Bundle, error) {
	if opts == nil {
		opts = DefaultDecodeOptions()
	}
	if len(data) < HeaderSize {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("data too short for header: %d bytes", len(data)).
			Build()
	}

	header, err := decodeHeader(data[:HeaderSize])
	if err != nil {
		return nil, err
	}

	if header.Magic != Magic {
		return nil, errors.BadMagic(header.Magic, Magic)
	}
	if !compatibleVersion(header.VersionMajor, header.VersionMinor, header.VersionPatch) {
		return nil, errors.VersionMismatch(header.Version(), CurrentVersion().String())
	}
	if header.ElementCount > opts.MaxElements {
		return nil, errors.SizeLimit("element", header.ElementCount, opts.MaxElements)
	}
	if header.PropertyCount > opts.MaxProperties {
		return nil, errors.SizeLimit("property", header.PropertyCount, opts.MaxProperties)
	}

	payload := data[HeaderSize:]
	if !opts.SkipChecksum {
		if computed := crc32.ChecksumIEEE(payload); computed != header.Checksum {
			return nil, errors.Checksum(computed, header.Checksum)
		}
	}

	if header.Compression != CompressionNone {
		codec, err := codecFor(header.Compression)
		if err != nil {
			return nil, err
		}
		payload, err = codec.Decompress(payload, int(header.UncompressedSize))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "decompress payload")
		}
	}

	b := &Bundle{Header: *header}
	r := binary.NewReader(payload)

	if err := decodeStringTable(r, b, opts); err != nil {
		return nil, err
	}
	if err := decodeElements(r, b, opts); err != nil {
		return nil, err
	}

	if r.Remaining() != 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindSizeMismatch).
			Detail("%d trailing bytes after element data", r.Remaining()).
			Build()
	}

	return b, nil
}

func decodeHeader(data []byte) (*Header, error) {
	r := binary.NewReader(data)
	h := &Header{}
	var err error

	if h.Magic, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.VersionMajor, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.VersionMinor, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.VersionPatch, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.Flags, err = r.ReadU16(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.ElementCount, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.PropertyCount, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.StringTableSize, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.DataSize, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if h.Checksum, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("header", err)
	}
	comp, err := r.ReadU8()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	h.Compression = CompressionType(comp)
	if h.UncompressedSize, err = r.ReadU32(); err != nil {
		return nil, r.WrapError("header", err)
	}
	if err = r.Skip(ReservedSize); err != nil {
		return nil, r.WrapError("header", err)
	}
	return h, nil
}

func decodeStringTable(r *binary.Reader, b *Bundle, opts *DecodeOptions) error {
	start := r.Position()

	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("string table", err)
	}
	if count > uint32(opts.MaxElements)+uint32(opts.MaxProperties) {
		return errors.SizeLimit("string", count, opts.MaxElements+opts.MaxProperties)
	}

	b.Strings = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, err := r.ReadString()
		if err != nil {
			return r.WrapError("string table", err)
		}
		if uint32(len(s)) > opts.MaxStringLength {
			return errors.SizeLimit("string length", uint32(len(s)), opts.MaxStringLength)
		}
		b.Strings = append(b.Strings, s)
	}

	consumed := r.Position() - start
	if uint32(consumed) != b.Header.StringTableSize {
		return errors.SizeMismatch(errors.PhaseDecode, "string table bytes", int(b.Header.StringTableSize), consumed)
	}
	return nil
}

func decodeElements(r *binary.Reader, b *Bundle, opts *DecodeOptions) error {
	start := r.Position()
	propertyTotal := 0
	skipped := map[uint32]bool{}

	b.Elements = make([]Element, 0, b.Header.ElementCount)
	for i := uint32(0); i < b.Header.ElementCount; i++ {
		el, props, err := decodeElement(r, b, opts)
		if err != nil {
			return err
		}
		propertyTotal += props

		if !el.Type.Known() {
			if opts.Strict {
				return errors.UnknownTag("element", uint8(el.Type))
			}
			Logger().Warn("skipping element with unknown type tag",
				zap.Uint32("id", el.ID),
				zap.Uint8("tag", uint8(el.Type)))
			skipped[el.ID] = true
			continue
		}
		b.Elements = append(b.Elements, *el)
	}

	consumed := r.Position() - start
	if uint32(consumed) != b.Header.DataSize {
		return errors.SizeMismatch(errors.PhaseDecode, "element data bytes", int(b.Header.DataSize), consumed)
	}
	if propertyTotal != int(b.Header.PropertyCount) {
		return errors.SizeMismatch(errors.PhaseDecode, "properties", int(b.Header.PropertyCount), propertyTotal)
	}

	if len(skipped) > 0 {
		pruneSkipped(b, skipped)
	}
	return nil
}

// pruneSkipped drops the descendants of skipped elements and removes
// dangling child references. An element whose parent chain reaches a
// skipped id cannot be mounted, so the whole subtree goes.
func pruneSkipped(b *Bundle, skipped map[uint32]bool) {
	for changed := true; changed; {
		changed = false
		for i := range b.Elements {
			el := &b.Elements[i]
			if !skipped[el.ID] && el.ParentID != 0 && skipped[el.ParentID] {
				skipped[el.ID] = true
				changed = true
			}
		}
	}

	kept := b.Elements[:0]
	for i := range b.Elements {
		el := b.Elements[i]
		if skipped[el.ID] {
			continue
		}
		children := el.ChildIDs[:0]
		for _, id := range el.ChildIDs {
			if !skipped[id] {
				children = append(children, id)
			}
		}
		el.ChildIDs = children
		kept = append(kept, el)
	}
	b.Elements = kept
	b.Header.ElementCount = uint32(len(b.Elements))
	b.Header.PropertyCount = uint32(b.NumProperties())
}

func decodeElement(r *binary.Reader, b *Bundle, opts *DecodeOptions) (*Element, int, error) {
	el := &Element{}
	var err error

	if el.ID, err = r.ReadU32(); err != nil {
		return nil, 0, r.WrapError("element", err)
	}
	typ, err := r.ReadU8()
	if err != nil {
		return nil, 0, r.WrapError("element", err)
	}
	el.Type = ElementType(typ)
	if el.NameIndex, err = r.ReadU16(); err != nil {
		return nil, 0, r.WrapError("element", err)
	}
	if el.ParentID, err = r.ReadU32(); err != nil {
		return nil, 0, r.WrapError("element", err)
	}
	propCount, err := r.ReadU16()
	if err != nil {
		return nil, 0, r.WrapError("element", err)
	}
	childCount, err := r.ReadU16()
	if err != nil {
		return nil, 0, r.WrapError("element", err)
	}
	if el.Flags, err = r.ReadU32(); err != nil {
		return nil, 0, r.WrapError("element", err)
	}

	if el.ID == 0 {
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("element id 0 is reserved for the root reference").
			Build()
	}

	read := 0
	el.Properties = make([]Property, 0, propCount)
	for i := uint16(0); i < propCount; i++ {
		prop, keep, err := decodeProperty(r, opts)
		if err != nil {
			return nil, 0, err
		}
		read++
		if keep {
			el.Properties = append(el.Properties, *prop)
		}
	}

	el.ChildIDs = make([]uint32, childCount)
	for i := uint16(0); i < childCount; i++ {
		if el.ChildIDs[i], err = r.ReadU32(); err != nil {
			return nil, 0, r.WrapError("element children", err)
		}
	}

	return el, read, nil
}

// decodeProperty reads one property record. The reserved tags (Border,
// Font, Array, Object) carry no value bytes in format 1.x: strict mode
// rejects them, permissive mode drops the record with a warning. Tags
// outside the reserved range are always fatal because the value length
// is undefined and the stream cannot be resynchronized.
func decodeProperty(r *binary.Reader, opts *DecodeOptions) (*Property, bool, error) {
	p := &Property{}
	var err error

	if p.NameIndex, err = r.ReadU16(); err != nil {
		return nil, false, r.WrapError("property", err)
	}
	typ, err := r.ReadU8()
	if err != nil {
		return nil, false, r.WrapError("property", err)
	}
	p.Type = PropertyType(typ)
	if p.Flags, err = r.ReadU32(); err != nil {
		return nil, false, r.WrapError("property", err)
	}

	switch p.Type {
	case PropertyString:
		p.Str, err = r.ReadString()
	case PropertyInteger:
		p.Int, err = r.ReadI64()
	case PropertyFloat:
		p.Float, err = r.ReadF64()
	case PropertyBoolean:
		var v uint8
		v, err = r.ReadU8()
		p.Bool = v != 0
	case PropertyColor:
		p.Color, err = r.ReadU32()
	case PropertySize, PropertyPosition:
		for i := 0; i < 2 && err == nil; i++ {
			p.Vec[i], err = r.ReadF64()
		}
	case PropertyMargin, PropertyPadding:
		for i := 0; i < 4 && err == nil; i++ {
			p.Vec[i], err = r.ReadF64()
		}
	case PropertyReference:
		p.RefID, err = r.ReadU32()
	case PropertyBorder, PropertyFont, PropertyArray, PropertyObject:
		if opts.Strict {
			return nil, false, errors.UnknownTag("property", typ)
		}
		Logger().Warn("skipping property with reserved type tag",
			zap.Uint8("tag", typ),
			zap.Uint16("name_index", p.NameIndex))
		return nil, false, nil
	default:
		return nil, false, errors.UnknownTag("property", typ)
	}
	if err != nil {
		return nil, false, r.WrapError("property value", err)
	}
	return p, true, nil
}
