package graphics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"qnes/internal/graphics/screenshot"
	"qnes/internal/logger"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow counts presented frames and writes the configured ones
// to disk as PNG files
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount uint64
	outputDir  string
	scale      int
	dump       map[uint64]bool
	written    []string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return errAlreadyInitialized("headless")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}

	w := &HeadlessWindow{
		title:     title,
		width:     width,
		height:    height,
		running:   true,
		outputDir: b.config.OutputDir,
		scale:     b.config.Scale,
		dump:      make(map[uint64]bool),
	}
	if w.outputDir == "" {
		w.outputDir = "."
	}
	for _, n := range b.config.DumpFrames {
		w.dump[n] = true
	}
	return w, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns empty events list (no input in headless mode)
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame counts the frame and saves it when its number was
// requested. Frames are numbered from 1.
func (w *HeadlessWindow) RenderFrame(frame []uint8) error {
	w.frameCount++
	if !w.dump[w.frameCount] {
		return nil
	}

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return errors.Wrap(err, "create frame output directory")
	}
	path := filepath.Join(w.outputDir, fmt.Sprintf("frame_%05d.png", w.frameCount))
	if err := screenshot.Save(path, frame, screenshot.Options{Scale: w.scale}); err != nil {
		return errors.Wrapf(err, "dump frame %d", w.frameCount)
	}
	w.written = append(w.written, path)
	logger.Logf("HEADLESS", "wrote %s", path)
	return nil
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// GetFrameCount returns the number of frames presented
func (w *HeadlessWindow) GetFrameCount() uint64 {
	return w.frameCount
}

// Written returns the paths of the frames saved so far
func (w *HeadlessWindow) Written() []string {
	return w.written
}
