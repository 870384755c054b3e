package krb

import (
	"github.com/kryonlabs/kryon-sub009/errors"
)

// Validate checks the bundle for structural validity: unique element
// ids, resolvable parents and children, acyclic parent chains within
// the nesting depth limit, and in-range string table indices.
func (b *Bundle) Validate() error {
	return b.ValidateWithOptions(DefaultDecodeOptions())
}

// ValidateWithOptions is Validate with configurable limits.
func (b *Bundle) ValidateWithOptions(opts *DecodeOptions) error {
	if opts == nil {
		opts = DefaultDecodeOptions()
	}

	byID := make(map[uint32]*Element, len(b.Elements))
	for i := range b.Elements {
		el := &b.Elements[i]
		if _, dup := byID[el.ID]; dup {
			return errors.New(errors.PhaseValidate, errors.KindInvalidData).
				Detail("duplicate element id %d", el.ID).
				Build()
		}
		byID[el.ID] = el
	}

	if err := b.validateLinks(byID); err != nil {
		return err
	}
	if err := b.validateDepth(byID, opts.MaxNestingDepth); err != nil {
		return err
	}
	return b.validateStringIndices()
}

func (b *Bundle) validateLinks(byID map[uint32]*Element) error {
	for i := range b.Elements {
		el := &b.Elements[i]
		if el.ParentID != 0 {
			parent, ok := byID[el.ParentID]
			if !ok {
				return errors.New(errors.PhaseValidate, errors.KindNotFound).
					Detail("element %d references missing parent %d", el.ID, el.ParentID).
					Build()
			}
			if !containsID(parent.ChildIDs, el.ID) {
				return errors.New(errors.PhaseValidate, errors.KindInvalidData).
					Detail("element %d has parent %d but is not in its child array", el.ID, el.ParentID).
					Build()
			}
		}
		for _, childID := range el.ChildIDs {
			child, ok := byID[childID]
			if !ok {
				return errors.New(errors.PhaseValidate, errors.KindNotFound).
					Detail("element %d references missing child %d", el.ID, childID).
					Build()
			}
			if child.ParentID != el.ID {
				return errors.New(errors.PhaseValidate, errors.KindInvalidData).
					Detail("element %d lists child %d whose parent is %d", el.ID, childID, child.ParentID).
					Build()
			}
		}
	}
	return nil
}

// validateDepth walks each parent chain. A chain longer than maxDepth
// either exceeds the nesting limit or contains a cycle; a chain that
// revisits its starting element is reported as a cycle.
func (b *Bundle) validateDepth(byID map[uint32]*Element, maxDepth uint32) error {
	for i := range b.Elements {
		el := &b.Elements[i]
		depth := uint32(0)
		for cur := el; cur.ParentID != 0; {
			parent, ok := byID[cur.ParentID]
			if !ok {
				break // reported by validateLinks
			}
			if parent.ID == el.ID {
				return errors.CyclicReference(errors.PhaseValidate, el.ID)
			}
			depth++
			if depth > maxDepth {
				return errors.New(errors.PhaseValidate, errors.KindSizeLimit).
					Detail("element %d exceeds nesting depth %d (or its parent chain cycles)", el.ID, maxDepth).
					Build()
			}
			cur = parent
		}
	}
	return nil
}

func (b *Bundle) validateStringIndices() error {
	n := len(b.Strings)
	for i := range b.Elements {
		el := &b.Elements[i]
		if el.NameIndex != 0 && int(el.NameIndex) >= n {
			return errors.OutOfBounds(errors.PhaseValidate, []string{"element", "name"}, int(el.NameIndex), n)
		}
		for j := range el.Properties {
			if int(el.Properties[j].NameIndex) >= n {
				return errors.OutOfBounds(errors.PhaseValidate, []string{"property", "name"}, int(el.Properties[j].NameIndex), n)
			}
		}
	}
	return nil
}

func containsID(ids []uint32, id uint32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
