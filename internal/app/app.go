package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"qnes/internal/console"
	"qnes/internal/debug"
	"qnes/internal/graphics"
	"qnes/internal/graphics/screenshot"
	"qnes/internal/logger"
)

// errQuit ends the main loop without an error.
var errQuit = errors.New("quit")

// Application runs a console against a graphics backend
type Application struct {
	config  *Config
	console *console.Console

	// debugger, when breakpoints or tracing are configured
	session *debug.Session
	trace   io.WriteCloser

	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor
	states          *StateManager
	bindings        map[graphics.Key]Binding

	running   bool
	paused    bool
	headless  bool
	startTime time.Time
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates an application from a configuration. The config
// is validated first.
func NewApplication(config *Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "validate", Err: err}
	}
	bindings, err := config.Input.Bindings()
	if err != nil {
		return nil, &ApplicationError{Component: "input", Operation: "bind keys", Err: err}
	}

	app := &Application{
		config:    config,
		console:   console.New(),
		states:    NewStateManager(config.Paths.SaveStates, config.Emulation.SaveStateSlots),
		bindings:  bindings,
		startTime: time.Now(),
		videoProcessor: graphics.NewVideoProcessor(
			config.Video.Brightness,
			config.Video.Contrast,
			config.Video.Saturation,
		),
	}

	if config.Debug.EchoLog {
		logger.SetEcho(os.Stderr)
	}

	if err := app.initializeDebugger(); err != nil {
		return nil, &ApplicationError{Component: "debugger", Operation: "setup", Err: err}
	}
	if err := app.initializeGraphicsBackend(); err != nil {
		app.Cleanup()
		return nil, &ApplicationError{Component: "graphics", Operation: "setup", Err: err}
	}
	return app, nil
}

// initializeDebugger attaches a debug session when breakpoints or a trace
// are configured
func (app *Application) initializeDebugger() error {
	dc := app.config.Debug
	if len(dc.Breakpoints) == 0 && dc.CPUTrace == "" {
		return nil
	}

	app.session = debug.NewSession(dc.HistorySize)
	for _, s := range dc.Breakpoints {
		bp, err := debug.ParseBreakpoint(s)
		if err != nil {
			return err
		}
		app.session.Breakpoints.Add(bp.Addr, bp.Mask)
	}

	switch dc.CPUTrace {
	case "":
	case "-":
		app.session.SetTrace(os.Stdout)
	default:
		f, err := os.Create(dc.CPUTrace)
		if err != nil {
			return errors.Wrap(err, "create trace file")
		}
		app.trace = f
		app.session.SetTrace(f)
	}

	app.session.Attach(app.console)
	logger.Logf("APP", "debugger attached, %d breakpoints", app.session.Breakpoints.Len())
	return nil
}

// initializeGraphicsBackend creates the configured backend and its window.
// A failing Ebitengine backend falls back to headless.
func (app *Application) initializeGraphicsBackend() error {
	backendType := graphics.BackendType(app.config.Video.Backend)
	width, height := app.config.Window.Width, app.config.Window.Height
	graphicsConfig := graphics.Config{
		WindowTitle:  "qnes",
		WindowWidth:  width,
		WindowHeight: height,
		Scale:        app.config.Window.Scale,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		OutputDir:    app.config.Debug.DumpDir,
		DumpFrames:   app.config.Emulation.DumpFrames,
		Headless:     backendType == graphics.BackendHeadless,
	}

	err := app.createWindow(backendType, graphicsConfig)
	if err != nil && backendType == graphics.BackendEbitengine {
		logger.Logf("APP", "Ebitengine backend failed (%v), falling back to headless mode", err)
		backendType = graphics.BackendHeadless
		graphicsConfig.Headless = true
		err = app.createWindow(backendType, graphicsConfig)
	}
	if err != nil {
		return err
	}

	app.headless = app.graphicsBackend.IsHeadless()
	return nil
}

func (app *Application) createWindow(backendType graphics.BackendType, config graphics.Config) error {
	backend, err := graphics.CreateBackend(backendType)
	if err != nil {
		return err
	}
	if err := backend.Initialize(config); err != nil {
		return errors.Wrapf(err, "initialize %s", backend.GetName())
	}
	window, err := backend.CreateWindow(config.WindowTitle, config.WindowWidth, config.WindowHeight)
	if err != nil {
		backend.Cleanup()
		return errors.Wrapf(err, "create %s window", backend.GetName())
	}
	app.graphicsBackend = backend
	app.window = window
	return nil
}

// LoadROM loads a ROM file into the console
func (app *Application) LoadROM(romPath string) error {
	if err := app.console.LoadROM(romPath); err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}
	app.window.SetTitle(fmt.Sprintf("qnes - %s", filepath.Base(romPath)))
	return nil
}

// Run drives the emulator until the window closes, Escape is pressed or,
// for a headless backend, the configured number of frames has run.
func (app *Application) Run() error {
	if app.console.Cartridge() == nil {
		return &ApplicationError{Component: "console", Operation: "run", Err: console.ErrNoCartridge}
	}

	app.running = true
	app.startTime = time.Now()
	logger.Logf("APP", "running with %s backend", app.graphicsBackend.GetName())

	var err error
	if looper, ok := app.window.(graphics.Looper); ok {
		err = looper.Run(app.tick)
	} else {
		err = app.loop()
	}
	app.running = false

	if errors.Is(err, errQuit) {
		err = nil
	}
	logger.Logf("APP", "stopped after %d frames", app.console.GetFrameCount())
	return err
}

// loop is the main loop of backends that do not own one. Only visible
// backends are paced to the frame rate.
func (app *Application) loop() error {
	var tick <-chan time.Time
	if !app.headless {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / app.config.Emulation.FrameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := app.tick(); err != nil {
			return err
		}
		if tick != nil {
			<-tick
		}
	}
}

// tick handles input, emulates one frame and presents it
func (app *Application) tick() error {
	app.processInput()
	if !app.running || app.window.ShouldClose() {
		return errQuit
	}

	if !app.paused {
		if err := app.stepFrame(); err != nil {
			return &ApplicationError{Component: "console", Operation: "step frame", Err: err}
		}
	}

	if err := app.render(); err != nil {
		return &ApplicationError{Component: "graphics", Operation: "render", Err: err}
	}

	if app.headless && app.config.Emulation.HeadlessFrames > 0 &&
		app.console.GetFrameCount() >= uint64(app.config.Emulation.HeadlessFrames) {
		app.Stop()
	}
	if !app.running {
		return errQuit
	}
	return nil
}

func (app *Application) stepFrame() error {
	if app.session == nil {
		return app.console.StepFrame()
	}

	ev, err := app.session.Run(1)
	if err != nil {
		return err
	}
	if ev != nil {
		app.onBreak(ev)
	}
	return nil
}

// onBreak reports a breakpoint. Windowed runs pause; headless runs dump
// the machine and stop.
func (app *Application) onBreak(ev *debug.BreakEvent) {
	logger.Logf("APP", "break: %v", ev)
	for _, e := range app.session.Recent(8) {
		logger.Logf("APP", "  %v", e)
	}

	if !app.headless {
		app.paused = true
		return
	}

	if err := app.DumpState(); err != nil {
		logger.Logf("APP", "dump failed: %v", err)
	}
	app.Stop()
}

// DumpState writes the current frame and a Graphviz view of the machine
// to the dump directory
func (app *Application) DumpState() error {
	if app.session == nil {
		app.session = debug.NewSession(app.config.Debug.HistorySize)
		app.session.Attach(app.console)
	}

	dir := app.config.Debug.DumpDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "create dump directory")
	}

	frame := app.console.GetFrameCount()
	if err := app.session.DumpFrame(filepath.Join(dir, fmt.Sprintf("break_%05d.png", frame)), app.config.Window.Scale); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("break_%05d.dot", frame)))
	if err != nil {
		return errors.Wrap(err, "create state dump")
	}
	defer f.Close()
	return app.session.DumpState(f)
}

// processInput applies the window's events to the controllers and the
// emulator controls
func (app *Application) processInput() {
	for _, event := range app.window.PollEvents() {
		if event.Type == graphics.InputEventTypeQuit {
			app.Stop()
			continue
		}
		if event.Pressed && app.handleSpecialInput(event) {
			continue
		}
		if b, ok := app.bindings[event.Key]; ok {
			app.console.Controllers().SetButtonPressed(b.Pad, b.Button, event.Pressed)
		}
	}
}

// handleSpecialInput handles the emulator control keys:
//
//	Escape        quit
//	F1-F4         save slot 0-3, with Shift load it
//	F5            soft reset
//	F6            pause
//	F7            run one instruction while paused
//	F12           screenshot
func (app *Application) handleSpecialInput(event graphics.InputEvent) bool {
	switch event.Key {
	case graphics.KeyEscape:
		app.Stop()
	case graphics.KeyF1, graphics.KeyF2, graphics.KeyF3, graphics.KeyF4:
		slot := int(event.Key - graphics.KeyF1)
		if event.Modifiers&graphics.ModifierShift != 0 {
			if err := app.LoadState(slot); err != nil {
				logger.Logf("APP", "load state %d: %v", slot, err)
			}
		} else if err := app.SaveState(slot); err != nil {
			logger.Logf("APP", "save state %d: %v", slot, err)
		}
	case graphics.KeyF5:
		app.Reset()
	case graphics.KeyF6:
		app.TogglePause()
	case graphics.KeyF7:
		if app.paused {
			app.stepInstruction()
		}
	case graphics.KeyF12:
		if path, err := app.Screenshot(); err != nil {
			logger.Logf("APP", "screenshot: %v", err)
		} else {
			logger.Logf("APP", "screenshot saved to %s", path)
		}
	default:
		return false
	}
	return true
}

func (app *Application) stepInstruction() {
	if app.session != nil {
		ev, err := app.session.Step()
		if err != nil {
			logger.Logf("APP", "step: %v", err)
		} else if ev != nil {
			logger.Logf("APP", "break: %v", ev)
		}
		for _, e := range app.session.Recent(1) {
			logger.Logf("APP", "%v", e)
		}
		return
	}
	if _, err := app.console.StepInstruction(); err != nil {
		logger.Logf("APP", "step: %v", err)
	}
}

// render presents the current frame
func (app *Application) render() error {
	frame := app.videoProcessor.ProcessFrame(app.console.GetFrameBuffer())
	return app.window.RenderFrame(frame)
}

// Screenshot saves the current frame, captioned with the ROM name and
// frame number, in the screenshot directory
func (app *Application) Screenshot() (string, error) {
	name := romName(app.console)
	frame := app.console.GetFrameCount()
	path := filepath.Join(app.config.Paths.Screenshots, fmt.Sprintf("%s_%05d.png", name, frame))
	if err := os.MkdirAll(app.config.Paths.Screenshots, 0755); err != nil {
		return "", errors.Wrap(err, "create screenshot directory")
	}
	opts := screenshot.Options{
		Scale:   app.config.Window.Scale,
		Caption: fmt.Sprintf("%s  frame %d", name, frame),
	}
	if err := screenshot.Save(path, app.console.GetFrameBuffer(), opts); err != nil {
		return "", err
	}
	return path, nil
}

// Stop stops the application
func (app *Application) Stop() {
	app.running = false
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused = true
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	app.paused = !app.paused
}

// SaveState saves the console to a slot
func (app *Application) SaveState(slot int) error {
	if app.console.Cartridge() == nil {
		return console.ErrNoCartridge
	}
	return app.states.SaveState(app.console, slot)
}

// LoadState restores the console from a slot
func (app *Application) LoadState(slot int) error {
	if app.console.Cartridge() == nil {
		return console.ErrNoCartridge
	}
	return app.states.LoadState(app.console, slot)
}

// Reset presses the console's reset button
func (app *Application) Reset() {
	if err := app.console.SoftReset(); err != nil {
		logger.Logf("APP", "reset: %v", err)
	}
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// GetFrameCount returns the number of frames emulated
func (app *Application) GetFrameCount() uint64 {
	return app.console.GetFrameCount()
}

// GetUptime returns the time since Run started
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.console.ROMPath()
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// Console returns the emulated machine
func (app *Application) Console() *console.Console {
	return app.console
}

// Session returns the debugger, nil when debugging is off
func (app *Application) Session() *debug.Session {
	return app.session
}

// Window returns the backend window
func (app *Application) Window() graphics.Window {
	return app.window
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	var lastErr error

	if app.session != nil {
		app.session.Detach()
	}
	if app.trace != nil {
		if err := app.trace.Close(); err != nil {
			lastErr = err
		}
		app.trace = nil
	}
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			logger.Logf("APP", "window cleanup: %v", err)
		}
	}
	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			logger.Logf("APP", "graphics backend cleanup: %v", err)
		}
	}
	if app.config.Debug.EchoLog {
		logger.SetEcho(nil)
	}
	return lastErr
}
