package graphics

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"qnes/internal/logger"
)

// The terminal shows every second column and every second row, two rows
// per character cell using the upper half block.
const (
	terminalColumns = FrameWidth / 2
	terminalRows    = FrameHeight / 4

	// terminals report presses only, so a key is released after this
	// many polls without a repeat
	terminalHoldPolls = 8
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow draws frames with 24-bit ANSI colour and reads the
// keyboard from a raw mode terminal
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool

	out     io.Writer
	in      *os.File
	raw     bool
	saved   unix.Termios
	started bool
	buf     []byte

	keys chan []byte
	held map[Key]int
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return errAlreadyInitialized("terminal")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow puts stdin into raw mode and starts reading keys from it
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}

	w := newTerminalWindow(os.Stdout)
	w.title = title
	w.width = width
	w.height = height
	if err := w.attach(os.Stdin); err != nil {
		return nil, err
	}
	return w, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

func newTerminalWindow(out io.Writer) *TerminalWindow {
	return &TerminalWindow{
		width:   terminalColumns,
		height:  terminalRows,
		running: true,
		out:     out,
		keys:    make(chan []byte, 64),
		held:    make(map[Key]int),
	}
}

// attach switches in to raw mode when it is a terminal and starts the
// reader. Input that is not a terminal is read as is.
func (w *TerminalWindow) attach(in *os.File) error {
	w.in = in
	if err := termios.Tcgetattr(in.Fd(), &w.saved); err == nil {
		raw := w.saved
		termios.Cfmakeraw(&raw)
		if err := termios.Tcsetattr(in.Fd(), termios.TCIFLUSH, &raw); err != nil {
			return errors.Wrap(err, "set raw terminal mode")
		}
		w.raw = true
	} else {
		logger.Logf("TERMINAL", "input is not a terminal: %v", err)
	}

	go w.readKeys(in)
	return nil
}

func (w *TerminalWindow) readKeys(in io.Reader) {
	b := make([]byte, 32)
	for {
		n, err := in.Read(b)
		if n > 0 {
			data := make([]byte, n)
			copy(data, b[:n])
			w.keys <- data
		}
		if err != nil {
			return
		}
	}
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns the size in character cells
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents releases keys that stopped repeating and reports the keys
// typed since the last call
func (w *TerminalWindow) PollEvents() []InputEvent {
	var events []InputEvent

	for k, n := range w.held {
		if n <= 1 {
			delete(w.held, k)
			events = append(events, InputEvent{Type: InputEventTypeKey, Key: k, Pressed: false})
			continue
		}
		w.held[k] = n - 1
	}

	for {
		select {
		case data := <-w.keys:
			for _, ev := range decodeKeys(data) {
				if ev.Type == InputEventTypeKey {
					_, down := w.held[ev.Key]
					w.held[ev.Key] = terminalHoldPolls
					if down {
						continue
					}
				}
				events = append(events, ev)
			}
		default:
			return events
		}
	}
}

var csiKeys = map[string]Key{
	"A": KeyArrowUp, "B": KeyArrowDown, "C": KeyArrowRight, "D": KeyArrowLeft,
	"P": KeyF1, "Q": KeyF2, "R": KeyF3, "S": KeyF4,
	"15~": KeyF5, "17~": KeyF6, "18~": KeyF7, "19~": KeyF8,
	"20~": KeyF9, "21~": KeyF10, "23~": KeyF11, "24~": KeyF12,
}

// decodeKeys turns bytes typed on a raw terminal into key presses.
// Ctrl-C becomes a quit event.
func decodeKeys(data []byte) []InputEvent {
	var events []InputEvent
	press := func(k Key, mods ModifierKey) {
		events = append(events, InputEvent{Type: InputEventTypeKey, Key: k, Pressed: true, Modifiers: mods})
	}

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == 0x1B:
			n, k, mods := decodeEscape(data[i+1:])
			if n == 0 {
				press(KeyEscape, ModifierNone)
				continue
			}
			if k != KeyUnknown {
				press(k, mods)
			}
			i += n
		case c == 0x03:
			events = append(events, InputEvent{Type: InputEventTypeQuit})
		case c == '\r' || c == '\n':
			press(KeyEnter, ModifierNone)
		case c == ' ':
			press(KeySpace, ModifierNone)
		case c == '\t':
			press(KeyTab, ModifierNone)
		case c == 0x7F || c == 0x08:
			press(KeyBackspace, ModifierNone)
		case c >= 'a' && c <= 'z':
			press(KeyA+Key(c-'a'), ModifierNone)
		case c >= 'A' && c <= 'Z':
			press(KeyA+Key(c-'A'), ModifierShift)
		case c >= '0' && c <= '9':
			press(Key0+Key(c-'0'), ModifierNone)
		}
	}
	return events
}

// decodeEscape reads the sequence following an ESC byte. It returns the
// number of bytes consumed, zero for a lone ESC.
func decodeEscape(seq []byte) (int, Key, ModifierKey) {
	if len(seq) < 2 || (seq[0] != '[' && seq[0] != 'O') {
		return 0, KeyUnknown, ModifierNone
	}

	// parameters end at the first byte in the final range
	end := 1
	for end < len(seq) && (seq[end] < 0x40 || seq[end] > 0x7E) {
		end++
	}
	if end == len(seq) {
		return len(seq), KeyUnknown, ModifierNone
	}

	body := string(seq[1 : end+1])
	mods := ModifierNone

	// xterm adds ";2" for shift, as in "1;2P" or "15;2~"
	if i := strings.IndexByte(body, ';'); i >= 0 {
		if m, err := strconv.Atoi(body[i+1 : len(body)-1]); err == nil {
			m--
			if m&1 != 0 {
				mods |= ModifierShift
			}
			if m&2 != 0 {
				mods |= ModifierAlt
			}
			if m&4 != 0 {
				mods |= ModifierCtrl
			}
		}
		prefix := body[:i]
		if prefix == "1" {
			prefix = ""
		}
		body = prefix + body[len(body)-1:]
	}
	return end + 1, csiKeys[body], mods
}

// RenderFrame redraws the terminal from an RGB frame
func (w *TerminalWindow) RenderFrame(frame []uint8) error {
	if len(frame) != FrameWidth*FrameHeight*3 {
		return errors.Errorf("frame is %d bytes, expected %d", len(frame), FrameWidth*FrameHeight*3)
	}

	b := w.buf[:0]
	if !w.started {
		b = append(b, "\033[2J\033[?25l"...)
		w.started = true
	}
	b = append(b, "\033[H"...)

	for row := 0; row < terminalRows; row++ {
		var fg, bg int = -1, -1
		for col := 0; col < terminalColumns; col++ {
			x := col * 2
			top := pixelAt(frame, x, row*4)
			bottom := pixelAt(frame, x, row*4+2)
			if top != fg {
				b = appendColour(b, "38", top)
				fg = top
			}
			if bottom != bg {
				b = appendColour(b, "48", bottom)
				bg = bottom
			}
			b = append(b, "▀"...)
		}
		b = append(b, "\033[0m\r\n"...)
	}
	w.buf = b

	_, err := w.out.Write(b)
	return errors.Wrap(err, "write terminal frame")
}

func pixelAt(frame []uint8, x, y int) int {
	i := (y*FrameWidth + x) * 3
	return int(frame[i])<<16 | int(frame[i+1])<<8 | int(frame[i+2])
}

func appendColour(b []byte, layer string, rgb int) []byte {
	b = append(b, "\033["...)
	b = append(b, layer...)
	b = append(b, ";2;"...)
	b = strconv.AppendInt(b, int64(rgb>>16&0xFF), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(rgb>>8&0xFF), 10)
	b = append(b, ';')
	b = strconv.AppendInt(b, int64(rgb&0xFF), 10)
	return append(b, 'm')
}

// Cleanup restores the cursor and the terminal mode
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	if w.started {
		fmt.Fprint(w.out, "\033[0m\033[?25h")
	}
	if w.raw {
		w.raw = false
		if err := termios.Tcsetattr(w.in.Fd(), termios.TCIFLUSH, &w.saved); err != nil {
			return errors.Wrap(err, "restore terminal mode")
		}
	}
	return nil
}
