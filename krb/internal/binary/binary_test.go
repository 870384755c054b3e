package binary

import (
	"errors"
	"testing"
)

func TestReaderReadU8(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadU8()
		if err != nil {
			t.Fatalf("ReadU8 %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadU8 %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	_, err := r.ReadU8()
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderBigEndian(t *testing.T) {
	r := NewReader([]byte{
		0x12, 0x34, // u16
		0xDE, 0xAD, 0xBE, 0xEF, // u32
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // u64
	})

	u16, err := r.ReadU16()
	if err != nil || u16 != 0x1234 {
		t.Errorf("ReadU16: got 0x%04x, %v; want 0x1234", u16, err)
	}
	u32, err := r.ReadU32()
	if err != nil || u32 != 0xDEADBEEF {
		t.Errorf("ReadU32: got 0x%08x, %v; want 0xDEADBEEF", u32, err)
	}
	u64, err := r.ReadU64()
	if err != nil || u64 != 0x0102030405060708 {
		t.Errorf("ReadU64: got 0x%016x, %v", u64, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("remaining: got %d, want 0", r.Remaining())
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	if _, err := r.ReadU32(); err == nil {
		t.Error("expected error reading u32 from 3 bytes")
	}
	// Position must not advance on a failed read.
	if r.Position() != 0 {
		t.Errorf("position after failed read: got %d, want 0", r.Position())
	}
}

func TestRoundTripValues(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0xAB)
	w.WriteU16(0xCDEF)
	w.WriteU32(0x01020304)
	w.WriteI64(-42)
	w.WriteF64(3.5)
	w.WriteString("hello")

	r := NewReader(w.Bytes())

	if v, _ := r.ReadU8(); v != 0xAB {
		t.Errorf("u8: got 0x%02x", v)
	}
	if v, _ := r.ReadU16(); v != 0xCDEF {
		t.Errorf("u16: got 0x%04x", v)
	}
	if v, _ := r.ReadU32(); v != 0x01020304 {
		t.Errorf("u32: got 0x%08x", v)
	}
	if v, _ := r.ReadI64(); v != -42 {
		t.Errorf("i64: got %d", v)
	}
	if v, _ := r.ReadF64(); v != 3.5 {
		t.Errorf("f64: got %v", v)
	}
	if s, err := r.ReadString(); err != nil || s != "hello" {
		t.Errorf("string: got %q, %v", s, err)
	}
}

func TestReadStringInvalidUTF8(t *testing.T) {
	r := NewReader([]byte{0x00, 0x02, 0xFF, 0xFE})
	if _, err := r.ReadString(); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}

func TestReadStringTruncated(t *testing.T) {
	r := NewReader([]byte{0x00, 0x10, 'a', 'b'})
	if _, err := r.ReadString(); err == nil {
		t.Error("expected error for truncated string")
	}
}

func TestParseError(t *testing.T) {
	r := NewReader(nil)
	err := r.WrapError("header", ErrUnexpectedEOF)

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatal("expected *ParseError")
	}
	if pe.Section != "header" {
		t.Errorf("section: got %q", pe.Section)
	}
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Error("expected unwrap to reach ErrUnexpectedEOF")
	}
}
