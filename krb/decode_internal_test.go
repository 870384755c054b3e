package krb

import (
	stderrors "errors"
	"hash/crc32"
	"testing"

	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb/internal/binary"
)

// buildFile assembles a complete wire image around a hand-written
// payload, filling in the counts and checksum the way the encoder
// would.
func buildFile(t *testing.T, elementCount, propertyCount, stringTableSize, dataSize uint32, payload []byte) []byte {
	t.Helper()

	w := binary.NewWriter()
	w.WriteU32(Magic)
	w.WriteU16(VersionMajor)
	w.WriteU16(VersionMinor)
	w.WriteU16(VersionPatch)
	w.WriteU16(0) // flags
	w.WriteU32(elementCount)
	w.WriteU32(propertyCount)
	w.WriteU32(stringTableSize)
	w.WriteU32(dataSize)
	w.WriteU32(crc32.ChecksumIEEE(payload))
	w.WriteU8(uint8(CompressionNone))
	w.WriteU32(0) // uncompressed size
	w.WriteBytes(make([]byte, ReservedSize))
	w.WriteBytes(payload)
	return w.Bytes()
}

func reservedTagPayload() (payload []byte, stringTableSize, dataSize uint32) {
	strings := binary.NewWriter()
	strings.WriteU32(1)
	strings.WriteString("style")

	elements := binary.NewWriter()
	elements.WriteU32(1)          // id
	elements.WriteU8(uint8(ElementText))
	elements.WriteU16(0)          // name index
	elements.WriteU32(0)          // parent
	elements.WriteU16(1)          // property count
	elements.WriteU16(0)          // child count
	elements.WriteU32(0)          // flags
	elements.WriteU16(0)          // property name index
	elements.WriteU8(uint8(PropertyBorder))
	elements.WriteU32(0) // property flags; reserved tags carry no value

	w := binary.NewWriter()
	w.WriteBytes(strings.Bytes())
	w.WriteBytes(elements.Bytes())
	return w.Bytes(), uint32(strings.Len()), uint32(elements.Len())
}

func TestReservedPropertyTagPermissive(t *testing.T) {
	payload, strSize, dataSize := reservedTagPayload()
	data := buildFile(t, 1, 1, strSize, dataSize, payload)

	b, err := Decode(data)
	if err != nil {
		t.Fatalf("permissive decode: %v", err)
	}
	if len(b.Elements) != 1 {
		t.Fatalf("elements: got %d, want 1", len(b.Elements))
	}
	if len(b.Elements[0].Properties) != 0 {
		t.Errorf("reserved-tag property should be dropped, got %+v", b.Elements[0].Properties)
	}
}

func TestReservedPropertyTagStrict(t *testing.T) {
	payload, strSize, dataSize := reservedTagPayload()
	data := buildFile(t, 1, 1, strSize, dataSize, payload)

	opts := DefaultDecodeOptions()
	opts.Strict = true

	_, err := DecodeWithOptions(data, opts)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindUnknownTag}) {
		t.Errorf("expected unknown tag error, got %v", err)
	}
}

func TestUnknownPropertyTagAlwaysFatal(t *testing.T) {
	strings := binary.NewWriter()
	strings.WriteU32(0)

	elements := binary.NewWriter()
	elements.WriteU32(1)
	elements.WriteU8(uint8(ElementText))
	elements.WriteU16(0)
	elements.WriteU32(0)
	elements.WriteU16(1)
	elements.WriteU16(0)
	elements.WriteU32(0)
	elements.WriteU16(0)
	elements.WriteU8(0xEE) // no such property tag
	elements.WriteU32(0)

	w := binary.NewWriter()
	w.WriteBytes(strings.Bytes())
	w.WriteBytes(elements.Bytes())
	data := buildFile(t, 1, 1, uint32(strings.Len()), uint32(elements.Len()), w.Bytes())

	for _, strict := range []bool{true, false} {
		opts := DefaultDecodeOptions()
		opts.Strict = strict
		_, err := DecodeWithOptions(data, opts)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindUnknownTag}) {
			t.Errorf("strict=%v: expected unknown tag error, got %v", strict, err)
		}
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	strings := binary.NewWriter()
	strings.WriteU32(0)

	w := binary.NewWriter()
	w.WriteBytes(strings.Bytes())
	w.WriteBytes([]byte{0xDE, 0xAD})
	data := buildFile(t, 0, 0, uint32(strings.Len()), 0, w.Bytes())

	_, err := Decode(data)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindSizeMismatch}) {
		t.Errorf("expected size mismatch for trailing bytes, got %v", err)
	}
}

func TestElementIDZeroRejected(t *testing.T) {
	strings := binary.NewWriter()
	strings.WriteU32(0)

	elements := binary.NewWriter()
	elements.WriteU32(0) // reserved id
	elements.WriteU8(uint8(ElementText))
	elements.WriteU16(0)
	elements.WriteU32(0)
	elements.WriteU16(0)
	elements.WriteU16(0)
	elements.WriteU32(0)

	w := binary.NewWriter()
	w.WriteBytes(strings.Bytes())
	w.WriteBytes(elements.Bytes())
	data := buildFile(t, 1, 0, uint32(strings.Len()), uint32(elements.Len()), w.Bytes())

	if _, err := Decode(data); err == nil {
		t.Error("expected error for element id 0")
	}
}
