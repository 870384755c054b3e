package krb

// Magic is "KRYN" interpreted as a big-endian uint32.
const Magic uint32 = 0x4B52594E

// Current format version. Major mismatches are fatal on decode;
// minor/patch are forward-compatible.
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
	VersionPatch uint16 = 0
)

// HeaderSize is the fixed byte size of the bundle header on the wire.
const HeaderSize = 69

// ReservedSize is the trailing reserved area of the header.
const ReservedSize = 32

// Default decode limits, guarding against hostile or corrupt input.
const (
	DefaultMaxElements     = 65536
	DefaultMaxProperties   = 32768
	DefaultMaxStringLength = 65535
	DefaultMaxNestingDepth = 256
)

// CompressionType identifies the payload compression codec.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0
	CompressionLZ4  CompressionType = 1
	CompressionZstd CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ElementType is the numeric tag of an element record.
type ElementType uint8

const (
	ElementContainer ElementType = 0x01
	ElementRow       ElementType = 0x02
	ElementColumn    ElementType = 0x03
	ElementGrid      ElementType = 0x04
	ElementStack     ElementType = 0x05
	ElementText      ElementType = 0x10
	ElementImage     ElementType = 0x11
	ElementButton    ElementType = 0x12
	ElementInput     ElementType = 0x13
	ElementTextArea  ElementType = 0x14
	ElementCheckbox  ElementType = 0x15
	ElementRadio     ElementType = 0x16
	ElementSelect    ElementType = 0x17
	ElementSlider    ElementType = 0x18
	ElementProgress  ElementType = 0x19
	ElementList      ElementType = 0x20
	ElementTree      ElementType = 0x21
	ElementTable     ElementType = 0x22
	ElementCard      ElementType = 0x23
	ElementTab       ElementType = 0x24
	ElementModal     ElementType = 0x25
	ElementDrawer    ElementType = 0x26
	ElementDropdown  ElementType = 0x27
	ElementMenu      ElementType = 0x28
	ElementNavbar    ElementType = 0x29
	ElementSidebar   ElementType = 0x2A
	ElementHeader    ElementType = 0x2B
	ElementFooter    ElementType = 0x2C
	ElementSection   ElementType = 0x2D
	ElementArticle   ElementType = 0x2E
	ElementAside     ElementType = 0x2F
	ElementCustom    ElementType = 0xFF
)

var elementTypeNames = map[ElementType]string{
	ElementContainer: "Container",
	ElementRow:       "Row",
	ElementColumn:    "Column",
	ElementGrid:      "Grid",
	ElementStack:     "Stack",
	ElementText:      "Text",
	ElementImage:     "Image",
	ElementButton:    "Button",
	ElementInput:     "Input",
	ElementTextArea:  "TextArea",
	ElementCheckbox:  "Checkbox",
	ElementRadio:     "Radio",
	ElementSelect:    "Select",
	ElementSlider:    "Slider",
	ElementProgress:  "Progress",
	ElementList:      "List",
	ElementTree:      "Tree",
	ElementTable:     "Table",
	ElementCard:      "Card",
	ElementTab:       "Tab",
	ElementModal:     "Modal",
	ElementDrawer:    "Drawer",
	ElementDropdown:  "Dropdown",
	ElementMenu:      "Menu",
	ElementNavbar:    "Navbar",
	ElementSidebar:   "Sidebar",
	ElementHeader:    "Header",
	ElementFooter:    "Footer",
	ElementSection:   "Section",
	ElementArticle:   "Article",
	ElementAside:     "Aside",
	ElementCustom:    "Custom",
}

// Known reports whether t is a recognized element type tag.
func (t ElementType) Known() bool {
	_, ok := elementTypeNames[t]
	return ok
}

func (t ElementType) String() string {
	if name, ok := elementTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// PropertyType is the numeric tag of a property record's value.
type PropertyType uint8

const (
	PropertyString    PropertyType = 0x01
	PropertyInteger   PropertyType = 0x02
	PropertyFloat     PropertyType = 0x03
	PropertyBoolean   PropertyType = 0x04
	PropertyColor     PropertyType = 0x05
	PropertySize      PropertyType = 0x06
	PropertyPosition  PropertyType = 0x07
	PropertyMargin    PropertyType = 0x08
	PropertyPadding   PropertyType = 0x09
	PropertyBorder    PropertyType = 0x0A
	PropertyFont      PropertyType = 0x0B
	PropertyArray     PropertyType = 0x0C
	PropertyObject    PropertyType = 0x0D
	PropertyReference PropertyType = 0x0E
)

// Property record flags.
const (
	// PropFlagBound marks a string property whose value is a state
	// path; the live value comes from the state store at reconcile
	// time instead of the record itself.
	PropFlagBound uint32 = 1 << 0

	// PropFlagFunction marks a string property naming a script
	// function ("pkg.func") to invoke when the event fires.
	PropFlagFunction uint32 = 1 << 1
)

var propertyTypeNames = map[PropertyType]string{
	PropertyString:    "String",
	PropertyInteger:   "Integer",
	PropertyFloat:     "Float",
	PropertyBoolean:   "Boolean",
	PropertyColor:     "Color",
	PropertySize:      "Size",
	PropertyPosition:  "Position",
	PropertyMargin:    "Margin",
	PropertyPadding:   "Padding",
	PropertyReference: "Reference",
}

// Known reports whether t has a defined wire encoding. Border, Font,
// Array and Object tags are reserved in the format but carry no value
// encoding yet, so they are not decodable.
func (t PropertyType) Known() bool {
	_, ok := propertyTypeNames[t]
	return ok
}

func (t PropertyType) String() string {
	if name, ok := propertyTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}
