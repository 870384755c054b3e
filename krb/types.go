package krb

import (
	"github.com/kryonlabs/kryon-sub009/errors"
)

// Header is the fixed-size bundle header.
type Header struct {
	Magic            uint32
	VersionMajor     uint16
	VersionMinor     uint16
	VersionPatch     uint16
	Flags            uint16
	ElementCount     uint32
	PropertyCount    uint32
	StringTableSize  uint32
	DataSize         uint32
	Checksum         uint32
	Compression      CompressionType
	UncompressedSize uint32
}

// Property is a single wire-level property record. The populated value
// field depends on Type; the remaining fields are zero.
type Property struct {
	NameIndex uint16
	Type      PropertyType
	Flags     uint32

	Str   string
	Int   int64
	Float float64
	Bool  bool
	Color uint32   // RGBA
	Vec   [4]float64 // Size/Position use [0:2], Margin/Padding use all four
	RefID uint32
}

// Element is a flat wire-level element record. Hierarchy is expressed
// through ParentID (0 for root) and ChildIDs; the live tree is built by
// the element package.
type Element struct {
	ID         uint32
	Type       ElementType
	NameIndex  uint16
	ParentID   uint32
	Flags      uint32
	Properties []Property
	ChildIDs   []uint32
}

// Bundle is the decoded binary document: header, deduplicated string
// table and flat element records. It is consumed once to materialize
// an element tree and may be discarded afterwards, or built
// programmatically and encoded for persistence.
type Bundle struct {
	Header   Header
	Strings  []string
	Elements []Element
}

// New creates an empty bundle with the current format version.
func New() *Bundle {
	return &Bundle{
		Header: Header{
			Magic:        Magic,
			VersionMajor: VersionMajor,
			VersionMinor: VersionMinor,
			VersionPatch: VersionPatch,
		},
	}
}

// AddString interns s into the string table and returns its index.
// Identical strings always map to one index.
func (b *Bundle) AddString(s string) uint16 {
	for i, existing := range b.Strings {
		if existing == s {
			return uint16(i)
		}
	}
	b.Strings = append(b.Strings, s)
	return uint16(len(b.Strings) - 1)
}

// String returns the string at index, with bounds checking.
func (b *Bundle) String(index uint16) (string, error) {
	if int(index) >= len(b.Strings) {
		return "", errors.OutOfBounds(errors.PhaseDecode, []string{"strings"}, int(index), len(b.Strings))
	}
	return b.Strings[index], nil
}

// AddElement appends an element record.
func (b *Bundle) AddElement(el Element) {
	b.Elements = append(b.Elements, el)
	b.Header.ElementCount = uint32(len(b.Elements))
}

// ElementByID returns the element with the given id, or nil.
func (b *Bundle) ElementByID(id uint32) *Element {
	for i := range b.Elements {
		if b.Elements[i].ID == id {
			return &b.Elements[i]
		}
	}
	return nil
}

// Roots returns the elements whose ParentID is 0.
func (b *Bundle) Roots() []*Element {
	var roots []*Element
	for i := range b.Elements {
		if b.Elements[i].ParentID == 0 {
			roots = append(roots, &b.Elements[i])
		}
	}
	return roots
}

// NumProperties returns the total property count across all elements.
func (b *Bundle) NumProperties() int {
	n := 0
	for i := range b.Elements {
		n += len(b.Elements[i].Properties)
	}
	return n
}

// Version returns the header version as a dotted string.
func (h Header) Version() string {
	return versionString(h.VersionMajor, h.VersionMinor, h.VersionPatch)
}
