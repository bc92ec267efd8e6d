// Package input implements the two NES standard controllers and their
// serial strobe/shift protocol at $4016/$4017.
package input

import (
	"qnes/internal/logger"
)

// Button is a bit mask for one controller button. The bit position is the
// order in which the shift register reports buttons.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = [8]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

func (b Button) String() string {
	s := ""
	for i, name := range buttonNames {
		if b&(1<<i) != 0 {
			if s != "" {
				s += "+"
			}
			s += name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// Controller is a single pad: the live button state and the shift register
// latched from it by a strobe.
type Controller struct {
	buttons       uint8
	shiftRegister uint8
	strobe        bool
}

// New creates a Controller with nothing pressed.
func New() *Controller {
	return &Controller{}
}

// SetButton presses or releases every button in mask.
func (c *Controller) SetButton(mask Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(mask)
	} else {
		c.buttons &^= uint8(mask)
	}
}

// IsPressed reports whether every button in mask is held.
func (c *Controller) IsPressed(mask Button) bool {
	return c.buttons&uint8(mask) == uint8(mask)
}

// Buttons returns the live button mask.
func (c *Controller) Buttons() Button {
	return Button(c.buttons)
}

// Write handles a strobe write. While bit 0 is high the shift register is
// continuously reloaded; the falling edge latches the buttons for reading.
func (c *Controller) Write(value uint8) {
	c.strobe = value&0x01 != 0
	c.shiftRegister = c.buttons
}

// Read shifts out the next button bit, A first. After eight reads the
// register is empty and reads return 0.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 0x01
	}
	bit := c.shiftRegister & 0x01
	c.shiftRegister >>= 1
	return bit
}

// Peek returns the bit the next Read would, without shifting.
func (c *Controller) Peek() uint8 {
	if c.strobe {
		return c.buttons & 0x01
	}
	return c.shiftRegister & 0x01
}

// Reset releases all buttons and clears the protocol state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// Controllers holds both pads and decodes the controller ports.
type Controllers struct {
	pads [2]*Controller
}

// NewControllers creates both pads.
func NewControllers() *Controllers {
	return &Controllers{pads: [2]*Controller{New(), New()}}
}

// Pad returns controller index (0 or 1), or nil for any other index.
func (cs *Controllers) Pad(index int) *Controller {
	if index < 0 || index >= len(cs.pads) {
		return nil
	}
	return cs.pads[index]
}

// SetButtonPressed updates the live state of one controller. Out of range
// indices are logged and ignored.
func (cs *Controllers) SetButtonPressed(index int, mask Button, pressed bool) {
	pad := cs.Pad(index)
	if pad == nil {
		logger.Logf("INPUT", "button %v on controller %d ignored", mask, index)
		return
	}
	pad.SetButton(mask, pressed)
}

// Reset resets both pads.
func (cs *Controllers) Reset() {
	for _, pad := range cs.pads {
		pad.Reset()
	}
}

// Read reads a controller port. $4017 carries bit 6 of the open bus.
func (cs *Controllers) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return cs.pads[0].Read()
	case 0x4017:
		return cs.pads[1].Read() | 0x40
	default:
		return 0
	}
}

// Peek returns what Read would without shifting either register.
func (cs *Controllers) Peek(address uint16) uint8 {
	switch address {
	case 0x4016:
		return cs.pads[0].Peek()
	case 0x4017:
		return cs.pads[1].Peek() | 0x40
	default:
		return 0
	}
}

// Write handles $4016. Both pads see the strobe line; writes to $4017 go
// to the frame counter on real hardware and are ignored here.
func (cs *Controllers) Write(address uint16, value uint8) {
	if address != 0x4016 {
		return
	}
	for _, pad := range cs.pads {
		pad.Write(value)
	}
}

// State is the serialisable form of both pads.
type State struct {
	Buttons [2]uint8 `json:"buttons"`
	Shift   [2]uint8 `json:"shift"`
	Strobe  [2]bool  `json:"strobe"`
}

// State captures both pads.
func (cs *Controllers) State() State {
	var s State
	for i, pad := range cs.pads {
		s.Buttons[i] = pad.buttons
		s.Shift[i] = pad.shiftRegister
		s.Strobe[i] = pad.strobe
	}
	return s
}

// SetState restores both pads.
func (cs *Controllers) SetState(s State) {
	for i, pad := range cs.pads {
		pad.buttons = s.Buttons[i]
		pad.shiftRegister = s.Shift[i]
		pad.strobe = s.Strobe[i]
	}
}
