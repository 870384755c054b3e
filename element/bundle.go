package element

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb"
)

// FromBundle materializes a decoded bundle into a mounted tree. The
// bundle is validated first; property records that fail to apply are
// logged and skipped without aborting the load, so one bad property
// never discards a whole document.
func FromBundle(b *krb.Bundle) (*Tree, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	t := NewTree()
	for _, root := range b.Roots() {
		if err := t.buildElement(b, root, Handle{}); err != nil {
			return nil, err
		}
	}
	for _, r := range t.Roots() {
		if err := t.Mount(r); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tree) buildElement(b *krb.Bundle, el *krb.Element, parent Handle) error {
	h, err := t.Create(el.Type, parent)
	if err != nil {
		return err
	}

	n := &t.nodes[h.index]
	n.id = el.ID
	t.byElementID[el.ID] = h.index
	if el.NameIndex != 0 {
		if n.name, err = b.String(el.NameIndex); err != nil {
			return err
		}
	}

	for i := range el.Properties {
		if err := t.applyRecord(b, h, &el.Properties[i]); err != nil {
			Logger().Warn("skipping property record",
				zap.Uint32("element", el.ID),
				zap.Error(err))
		}
	}

	for _, cid := range el.ChildIDs {
		child := b.ElementByID(cid)
		if child == nil {
			return errors.NotFound(errors.PhaseLoad, "child element", strconv.FormatUint(uint64(cid), 10))
		}
		if err := t.buildElement(b, child, h); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) applyRecord(b *krb.Bundle, h Handle, p *krb.Property) error {
	name, err := b.String(p.NameIndex)
	if err != nil {
		return err
	}

	if p.Flags&krb.PropFlagBound != 0 {
		if p.Type != krb.PropertyString {
			return errors.TypeMismatch(errors.PhaseLoad, []string{name},
				p.Type.String(), krb.PropertyString.String())
		}
		return t.BindProperty(h, name, p.Str)
	}

	v, err := recordValue(p)
	if err != nil {
		return err
	}
	return t.SetProperty(h, name, v)
}

func recordValue(p *krb.Property) (Value, error) {
	switch p.Type {
	case krb.PropertyString:
		if p.Flags&krb.PropFlagFunction != 0 {
			return FuncValue(p.Str), nil
		}
		return StringValue(p.Str), nil
	case krb.PropertyInteger:
		return IntValue(p.Int), nil
	case krb.PropertyFloat:
		return FloatValue(p.Float), nil
	case krb.PropertyBoolean:
		return BoolValue(p.Bool), nil
	case krb.PropertyColor:
		return ColorValue(p.Color), nil
	case krb.PropertySize, krb.PropertyPosition:
		return Vec2Value(p.Vec[0], p.Vec[1]), nil
	case krb.PropertyMargin, krb.PropertyPadding:
		return Vec4Value(p.Vec[0], p.Vec[1], p.Vec[2], p.Vec[3]), nil
	case krb.PropertyReference:
		return RefValue(p.RefID), nil
	default:
		return Value{}, errors.UnknownTag("property", uint8(p.Type))
	}
}
