//go:build !headless
// +build !headless

package graphics

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"

	"qnes/internal/logger"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	title   string
	width   int
	height  int
	game    *EbitengineGame
	running bool
	events  []InputEvent
}

// EbitengineGame implements ebiten.Game for the emulator
type EbitengineGame struct {
	window     *EbitengineWindow
	frameImage *ebiten.Image
	pixels     []byte
	linear     bool
	backdrop   color.Color

	windowWidth  int
	windowHeight int

	update  func() error
	lastErr error

	pressed  []ebiten.Key
	released []ebiten.Key
}

// ebitenKeys maps Ebitengine keys to backend independent keys by name.
var ebitenKeys = func() map[ebiten.Key]Key {
	m := make(map[ebiten.Key]Key)
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		if key, ok := ParseKey(k.String()); ok {
			m[k] = key
		}
	}
	return m
}()

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return errAlreadyInitialized("Ebitengine")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}
	if b.config.Headless {
		return nil, errors.New("cannot create window in headless mode")
	}

	game := &EbitengineGame{
		frameImage:   ebiten.NewImage(FrameWidth, FrameHeight),
		pixels:       make([]byte, FrameWidth*FrameHeight*4),
		linear:       b.config.Filter == "linear",
		backdrop:     colornames.Black,
		windowWidth:  width,
		windowHeight: height,
	}
	window := &EbitengineWindow{
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetTPS(60)
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns the events gathered during the last Update
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads an RGB frame to the texture drawn by Draw
func (w *EbitengineWindow) RenderFrame(frame []uint8) error {
	if len(frame) != FrameWidth*FrameHeight*3 {
		return errors.Errorf("frame is %d bytes, expected %d", len(frame), FrameWidth*FrameHeight*3)
	}
	pix := w.game.pixels
	for i, j := 0, 0; i < len(frame); i, j = i+3, j+4 {
		pix[j] = frame[i]
		pix[j+1] = frame[i+1]
		pix[j+2] = frame[i+2]
		pix[j+3] = 0xFF
	}
	w.game.frameImage.WritePixels(pix)
	return nil
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop. update is called once per tick
// after input has been gathered. The loop ends when the window closes,
// Cleanup is called or update fails.
func (w *EbitengineWindow) Run(update func() error) error {
	w.game.update = update
	err := ebiten.RunGame(w.game)
	w.running = false
	if err == nil {
		err = w.game.lastErr
	}
	return err
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if !g.window.running {
		return ebiten.Termination
	}
	g.processInput()

	if g.update != nil {
		if err := g.update(); err != nil {
			logger.Logf("EBITEN", "update failed: %v", err)
			g.lastErr = err
			return ebiten.Termination
		}
	}
	if !g.window.running {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(g.backdrop)

	// fit the frame while keeping its aspect ratio
	scaleX := float64(g.windowWidth) / FrameWidth
	scaleY := float64(g.windowHeight) / FrameHeight
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	offsetX := (float64(g.windowWidth) - FrameWidth*scale) / 2
	offsetY := (float64(g.windowHeight) - FrameHeight*scale) / 2

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	if g.linear {
		op.Filter = ebiten.FilterLinear
	}
	screen.DrawImage(g.frameImage, op)
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// processInput turns this tick's key transitions into events
func (g *EbitengineGame) processInput() {
	var mods ModifierKey
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModifierShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModifierCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModifierAlt
	}

	g.pressed = inpututil.AppendJustPressedKeys(g.pressed[:0])
	g.released = inpututil.AppendJustReleasedKeys(g.released[:0])

	for _, k := range g.pressed {
		if key, ok := ebitenKeys[k]; ok {
			g.window.events = append(g.window.events, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true, Modifiers: mods})
		}
	}
	for _, k := range g.released {
		if key, ok := ebitenKeys[k]; ok {
			g.window.events = append(g.window.events, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: false, Modifiers: mods})
		}
	}
	if ebiten.IsWindowBeingClosed() {
		g.window.events = append(g.window.events, InputEvent{Type: InputEventTypeQuit})
	}
}
