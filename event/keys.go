package event

import (
	"fmt"
	"strings"

	"github.com/kryonlabs/kryon-sub009/errors"
)

// Key is a physical key code. Letter and digit keys use their
// uppercase ASCII value.
type Key uint16

const (
	KeyNone Key = 0

	KeyEnter     Key = 0x101
	KeyEscape    Key = 0x102
	KeySpace     Key = 0x103
	KeyTab       Key = 0x104
	KeyBackspace Key = 0x105
	KeyDelete    Key = 0x106
	KeyUp        Key = 0x107
	KeyDown      Key = 0x108
	KeyLeft      Key = 0x109
	KeyRight     Key = 0x10A
	KeyHome      Key = 0x10B
	KeyEnd       Key = 0x10C
	KeyPageUp    Key = 0x10D
	KeyPageDown  Key = 0x10E

	KeyF1  Key = 0x201
	KeyF2  Key = 0x202
	KeyF3  Key = 0x203
	KeyF4  Key = 0x204
	KeyF5  Key = 0x205
	KeyF6  Key = 0x206
	KeyF7  Key = 0x207
	KeyF8  Key = 0x208
	KeyF9  Key = 0x209
	KeyF10 Key = 0x20A
	KeyF11 Key = 0x20B
	KeyF12 Key = 0x20C
)

var keyNames = map[string]Key{
	"enter":     KeyEnter,
	"escape":    KeyEscape,
	"esc":       KeyEscape,
	"space":     KeySpace,
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"home":      KeyHome,
	"end":       KeyEnd,
	"pageup":    KeyPageUp,
	"pagedown":  KeyPageDown,
	"f1":        KeyF1,
	"f2":        KeyF2,
	"f3":        KeyF3,
	"f4":        KeyF4,
	"f5":        KeyF5,
	"f6":        KeyF6,
	"f7":        KeyF7,
	"f8":        KeyF8,
	"f9":        KeyF9,
	"f10":       KeyF10,
	"f11":       KeyF11,
	"f12":       KeyF12,
}

// Combo is a parsed keyboard shortcut: one key plus an exact modifier
// set.
type Combo struct {
	Key  Key
	Mods Modifiers
}

// ParseCombo parses a shortcut specification such as "Ctrl+Shift+S" or
// "Alt+F4". The last token is the key; everything before it must be a
// modifier. Matching against events is exact-set: "Ctrl+S" does not
// fire while Shift is also held.
func ParseCombo(spec string) (Combo, error) {
	parts := strings.Split(spec, "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Combo{}, errors.InvalidInput(errors.PhaseDispatch,
			fmt.Sprintf("empty key in shortcut %q", spec))
	}

	var c Combo
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control":
			c.Mods |= ModCtrl
		case "shift":
			c.Mods |= ModShift
		case "alt":
			c.Mods |= ModAlt
		case "meta", "cmd", "super":
			c.Mods |= ModMeta
		default:
			return Combo{}, errors.InvalidInput(errors.PhaseDispatch,
				fmt.Sprintf("unknown modifier %q in shortcut %q", mod, spec))
		}
	}

	keyTok := strings.TrimSpace(parts[len(parts)-1])
	if k, ok := keyNames[strings.ToLower(keyTok)]; ok {
		c.Key = k
		return c, nil
	}
	if len(keyTok) == 1 {
		r := keyTok[0]
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			c.Key = Key(r)
			return c, nil
		}
	}
	return Combo{}, errors.InvalidInput(errors.PhaseDispatch,
		fmt.Sprintf("unknown key %q in shortcut %q", keyTok, spec))
}

// Matches reports whether a key event satisfies the combo. The
// modifier comparison is equality, not subset.
func (c Combo) Matches(key Key, mods Modifiers) bool {
	return c.Key == key && c.Mods == mods
}

func (c Combo) String() string {
	key := "?"
	for name, k := range keyNames {
		if k == c.Key && name != "esc" {
			key = strings.ToUpper(name[:1]) + name[1:]
			break
		}
	}
	if c.Key < 0x100 {
		key = string(rune(c.Key))
	}
	if c.Mods == 0 {
		return key
	}
	return c.Mods.String() + "+" + key
}
