package krb

import (
	"hash/crc32"

	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb/internal/binary"
)

// EncodeOptions control payload compression.
type EncodeOptions struct {
	Compression CompressionType
}

// Encode serializes the bundle with no compression.
func (b *Bundle) Encode() ([]byte, error) {
	return b.EncodeWithOptions(&EncodeOptions{Compression: CompressionNone})
}

// EncodeWithOptions serializes the bundle to the binary format.
//
// The header is derived from the actual payload: counts, section sizes
// and the checksum always describe what was written. Encoding fails
// rather than emit a header that disagrees with the data.
func (b *Bundle) EncodeWithOptions(opts *EncodeOptions) ([]byte, error) {
	if opts == nil {
		opts = &EncodeOptions{}
	}

	strings := binary.NewWriter()
	strings.WriteU32(uint32(len(b.Strings)))
	for i, s := range b.Strings {
		if len(s) > DefaultMaxStringLength {
			return nil, errors.New(errors.PhaseEncode, errors.KindSizeLimit).
				Path("strings").
				Detail("string %d is %d bytes (max %d)", i, len(s), DefaultMaxStringLength).
				Build()
		}
		strings.WriteString(s)
	}

	data := binary.NewWriter()
	propertyTotal := 0
	for i := range b.Elements {
		n, err := encodeElement(data, &b.Elements[i], len(b.Strings))
		if err != nil {
			return nil, err
		}
		propertyTotal += n
	}

	payload := append(strings.Bytes(), data.Bytes()...)
	uncompressedSize := uint32(len(payload))

	if opts.Compression != CompressionNone {
		codec, err := codecFor(opts.Compression)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEncode, errors.KindUnsupported, err, "compression")
		}
		payload, err = codec.Compress(payload)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "compress payload")
		}
	}

	header := Header{
		Magic:            Magic,
		VersionMajor:     VersionMajor,
		VersionMinor:     VersionMinor,
		VersionPatch:     VersionPatch,
		Flags:            b.Header.Flags,
		ElementCount:     uint32(len(b.Elements)),
		PropertyCount:    uint32(propertyTotal),
		StringTableSize:  uint32(strings.Len()),
		DataSize:         uint32(data.Len()),
		Checksum:         crc32.ChecksumIEEE(payload),
		Compression:      opts.Compression,
		UncompressedSize: uncompressedSize,
	}

	w := binary.NewWriter()
	encodeHeader(w, &header)
	w.WriteBytes(payload)
	return w.Bytes(), nil
}

func encodeHeader(w *binary.Writer, h *Header) {
	w.WriteU32(h.Magic)
	w.WriteU16(h.VersionMajor)
	w.WriteU16(h.VersionMinor)
	w.WriteU16(h.VersionPatch)
	w.WriteU16(h.Flags)
	w.WriteU32(h.ElementCount)
	w.WriteU32(h.PropertyCount)
	w.WriteU32(h.StringTableSize)
	w.WriteU32(h.DataSize)
	w.WriteU32(h.Checksum)
	w.WriteU8(uint8(h.Compression))
	w.WriteU32(h.UncompressedSize)
	w.WriteBytes(make([]byte, ReservedSize))
}

func encodeElement(w *binary.Writer, el *Element, stringCount int) (int, error) {
	if el.ID == 0 {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Detail("element id 0 is reserved").
			Build()
	}
	if len(el.Properties) > 0xFFFF {
		return 0, errors.New(errors.PhaseEncode, errors.KindSizeLimit).
			Detail("element %d has %d properties (max %d)", el.ID, len(el.Properties), 0xFFFF).
			Build()
	}
	if len(el.ChildIDs) > 0xFFFF {
		return 0, errors.New(errors.PhaseEncode, errors.KindSizeLimit).
			Detail("element %d has %d children (max %d)", el.ID, len(el.ChildIDs), 0xFFFF).
			Build()
	}
	if int(el.NameIndex) >= stringCount && el.NameIndex != 0 {
		return 0, errors.OutOfBounds(errors.PhaseEncode, []string{"element", "name"}, int(el.NameIndex), stringCount)
	}

	w.WriteU32(el.ID)
	w.WriteU8(uint8(el.Type))
	w.WriteU16(el.NameIndex)
	w.WriteU32(el.ParentID)
	w.WriteU16(uint16(len(el.Properties)))
	w.WriteU16(uint16(len(el.ChildIDs)))
	w.WriteU32(el.Flags)

	for i := range el.Properties {
		if err := encodeProperty(w, &el.Properties[i], stringCount); err != nil {
			return 0, err
		}
	}
	for _, id := range el.ChildIDs {
		w.WriteU32(id)
	}
	return len(el.Properties), nil
}

func encodeProperty(w *binary.Writer, p *Property, stringCount int) error {
	if int(p.NameIndex) >= stringCount {
		return errors.OutOfBounds(errors.PhaseEncode, []string{"property", "name"}, int(p.NameIndex), stringCount)
	}

	w.WriteU16(p.NameIndex)
	w.WriteU8(uint8(p.Type))
	w.WriteU32(p.Flags)

	switch p.Type {
	case PropertyString:
		if len(p.Str) > DefaultMaxStringLength {
			return errors.New(errors.PhaseEncode, errors.KindSizeLimit).
				Detail("property value is %d bytes (max %d)", len(p.Str), DefaultMaxStringLength).
				Build()
		}
		w.WriteString(p.Str)
	case PropertyInteger:
		w.WriteI64(p.Int)
	case PropertyFloat:
		w.WriteF64(p.Float)
	case PropertyBoolean:
		if p.Bool {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
	case PropertyColor:
		w.WriteU32(p.Color)
	case PropertySize, PropertyPosition:
		w.WriteF64(p.Vec[0])
		w.WriteF64(p.Vec[1])
	case PropertyMargin, PropertyPadding:
		for i := 0; i < 4; i++ {
			w.WriteF64(p.Vec[i])
		}
	case PropertyReference:
		w.WriteU32(p.RefID)
	default:
		return errors.New(errors.PhaseEncode, errors.KindUnknownTag).
			Detail("property tag 0x%02X has no wire encoding", uint8(p.Type)).
			Build()
	}
	return nil
}
