package element

import (
	"fmt"
	"strconv"
)

// Kind identifies the type of a property value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindColor
	KindVec
	KindElementRef
	KindFunction
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindString:     "string",
	KindInt:        "int",
	KindFloat:      "float",
	KindBool:       "bool",
	KindColor:      "color",
	KindVec:        "vec",
	KindElementRef: "element_ref",
	KindFunction:   "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Value is a typed property value. Values are comparable; two values
// are equal when kind and payload match.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Color uint32
	Vec   [4]float64
	RefID uint32
}

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func IntValue(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func ColorValue(c uint32) Value  { return Value{Kind: KindColor, Color: c} }
func RefValue(id uint32) Value   { return Value{Kind: KindElementRef, RefID: id} }

// FuncValue names a script function such as "app.onClick".
func FuncValue(name string) Value { return Value{Kind: KindFunction, Str: name} }

// Vec2Value builds a two-component vector (size, position).
func Vec2Value(a, b float64) Value {
	return Value{Kind: KindVec, Vec: [4]float64{a, b}}
}

// Vec4Value builds a four-component vector (margin, padding).
func Vec4Value(a, b, c, d float64) Value {
	return Value{Kind: KindVec, Vec: [4]float64{a, b, c, d}}
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindColor:
		return fmt.Sprintf("#%08X", v.Color)
	case KindVec:
		return fmt.Sprintf("(%g, %g, %g, %g)", v.Vec[0], v.Vec[1], v.Vec[2], v.Vec[3])
	case KindElementRef:
		return fmt.Sprintf("element:%d", v.RefID)
	case KindFunction:
		return "fn:" + v.Str
	default:
		return "invalid"
	}
}
