package display

// X11 keysym constants for the keys InjectKey callers most commonly need to
// recognize by name. RFB KeyEvent carries the full X11 keysym space; these
// are the subset this package gives symbolic names to.
const (
	KeysymBackspace uint32 = 0xff08
	KeysymTab       uint32 = 0xff09
	KeysymReturn    uint32 = 0xff0d
	KeysymEscape    uint32 = 0xff1b
	KeysymDelete    uint32 = 0xffff
	KeysymSpace     uint32 = 0x0020

	KeysymF1  uint32 = 0xffbe
	KeysymF2  uint32 = 0xffbf
	KeysymF3  uint32 = 0xffc0
	KeysymF4  uint32 = 0xffc1
	KeysymF5  uint32 = 0xffc2
	KeysymF6  uint32 = 0xffc3
	KeysymF7  uint32 = 0xffc4
	KeysymF8  uint32 = 0xffc5
	KeysymF9  uint32 = 0xffc6
	KeysymF10 uint32 = 0xffc7
	KeysymF11 uint32 = 0xffc8
	KeysymF12 uint32 = 0xffc9
)

var knownKeysyms = map[uint32]bool{
	KeysymBackspace: true,
	KeysymTab:       true,
	KeysymReturn:    true,
	KeysymEscape:    true,
	KeysymDelete:    true,
	KeysymSpace:     true,
	KeysymF1:        true,
	KeysymF2:        true,
	KeysymF3:        true,
	KeysymF4:        true,
	KeysymF5:        true,
	KeysymF6:        true,
	KeysymF7:        true,
	KeysymF8:        true,
	KeysymF9:        true,
	KeysymF10:       true,
	KeysymF11:       true,
	KeysymF12:       true,
}

// IsKnownKeysym reports whether sym is one of the named constants above.
// Printable ASCII keysyms (0x20-0x7e map directly to their Latin-1 code
// point per the X11 convention) are always considered known even though
// they have no dedicated constant.
func IsKnownKeysym(sym uint32) bool {
	if sym >= 0x20 && sym <= 0x7e {
		return true
	}
	return knownKeysyms[sym]
}

// Pointer button mask bits, as carried in PointerEventMessage.ButtonMask.
const (
	ButtonLeft      uint8 = 1 << 0
	ButtonMiddle    uint8 = 1 << 1
	ButtonRight     uint8 = 1 << 2
	ButtonWheelUp   uint8 = 1 << 3
	ButtonWheelDown uint8 = 1 << 4
)
