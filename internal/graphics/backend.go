// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"strings"

	"github.com/pkg/errors"
)

// Frame dimensions of the NES picture.
const (
	FrameWidth  = 256
	FrameHeight = 240
)

// Backend represents a graphics rendering backend
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if the backend never shows a picture
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// PollEvents returns the input events since the last call
	PollEvents() []InputEvent

	// RenderFrame presents a 256x240 RGB frame, 3 bytes per pixel
	RenderFrame(frame []uint8) error

	// Cleanup releases window resources
	Cleanup() error
}

// Looper is a window that owns the main loop. Run calls update once per
// displayed frame until update fails or the window closes.
type Looper interface {
	Window
	Run(update func() error) error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Scale        int
	Fullscreen   bool
	VSync        bool

	// Filter is "nearest" or "linear"
	Filter string

	// OutputDir and DumpFrames select the frames the headless backend
	// writes as PNG files
	OutputDir  string
	DumpFrames []uint64

	Headless bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type      InputEventType
	Key       Key
	Pressed   bool
	Modifiers ModifierKey
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeQuit
)

// ModifierKey represents modifier keys held during a key event
type ModifierKey int

const (
	ModifierNone  ModifierKey = 0
	ModifierShift ModifierKey = 1 << iota
	ModifierCtrl
	ModifierAlt
)

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// ErrUnknownBackend is returned by CreateBackend.
var ErrUnknownBackend = errors.New("unknown graphics backend")

// CreateBackend creates a graphics backend of the given type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch BackendType(strings.ToLower(string(backendType))) {
	case BackendEbitengine, "":
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", backendType)
	}
}

// ErrNotInitialized is returned by CreateWindow before Initialize.
var ErrNotInitialized = errors.New("backend not initialized")

// errAlreadyInitialized builds the error for a second Initialize call.
func errAlreadyInitialized(name string) error {
	return errors.Errorf("%s backend already initialized", name)
}
