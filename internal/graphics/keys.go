package graphics

import (
	"strings"
)

// Key is a keyboard key independent of the backend
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyTab
	KeyBackspace
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyShift
	KeyControl

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var namedKeys = map[Key]string{
	KeyEscape:     "Escape",
	KeyEnter:      "Enter",
	KeySpace:      "Space",
	KeyTab:        "Tab",
	KeyBackspace:  "Backspace",
	KeyArrowUp:    "ArrowUp",
	KeyArrowDown:  "ArrowDown",
	KeyArrowLeft:  "ArrowLeft",
	KeyArrowRight: "ArrowRight",
	KeyShift:      "Shift",
	KeyControl:    "Control",
}

func (k Key) String() string {
	switch {
	case k >= KeyA && k <= KeyZ:
		return string(rune('A' + int(k-KeyA)))
	case k >= Key0 && k <= Key9:
		return string(rune('0' + int(k-Key0)))
	case k >= KeyF1 && k <= KeyF12:
		return "F" + itoa(int(k-KeyF1)+1)
	}
	if name, ok := namedKeys[k]; ok {
		return name
	}
	return "Unknown"
}

func itoa(n int) string {
	if n >= 10 {
		return string(rune('0'+n/10)) + string(rune('0'+n%10))
	}
	return string(rune('0' + n))
}

var keysByName = func() map[string]Key {
	m := make(map[string]Key)
	for k := KeyEscape; k <= KeyF12; k++ {
		m[strings.ToLower(k.String())] = k
	}
	return m
}()

// ParseKey returns the key called name, ignoring case. Names are those
// produced by Key.String, with "Digit" accepted before a digit.
func ParseKey(name string) (Key, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "digit")
	switch name {
	case "shiftleft", "shiftright":
		name = "shift"
	case "controlleft", "controlright":
		name = "control"
	}
	k, ok := keysByName[name]
	return k, ok
}
