package krb

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/errors"
)

// ParseColor parses a color literal into packed RGBA. Accepted forms
// are "#RRGGBB" (alpha FF), "#RRGGBBAA" and the keyword "transparent".
//
// The legacy 7-digit form ("#0000000") that older tooling emitted for
// transparency is rejected with a warning rather than silently aliased.
func ParseColor(s string) (uint32, error) {
	if strings.EqualFold(s, "transparent") {
		return 0x00000000, nil
	}
	if !strings.HasPrefix(s, "#") {
		return 0, errors.InvalidInput(errors.PhaseDecode, "color literal must be #RRGGBB, #RRGGBBAA or transparent: "+strconv.Quote(s))
	}

	hex := s[1:]
	switch len(hex) {
	case 6:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "malformed hex color "+strconv.Quote(s))
		}
		return uint32(v)<<8 | 0xFF, nil
	case 8:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "malformed hex color "+strconv.Quote(s))
		}
		return uint32(v), nil
	case 7:
		Logger().Warn("rejecting 7-digit hex color, use #RRGGBBAA or transparent",
			zap.String("literal", s))
		return 0, errors.InvalidInput(errors.PhaseDecode, "7-digit hex color "+strconv.Quote(s)+" (one digit short)")
	default:
		return 0, errors.InvalidInput(errors.PhaseDecode, "hex color must have 6 or 8 digits: "+strconv.Quote(s))
	}
}
