// Package app wires the console to a graphics backend, keyboard input,
// save states and the debugger.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"qnes/internal/debug"
	"qnes/internal/graphics"
	"qnes/internal/input"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Scale      int  `json:"scale"`
	Fullscreen bool `json:"fullscreen"`
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend    string  `json:"backend"` // "ebitengine", "headless", "terminal"
	VSync      bool    `json:"vsync"`
	Filter     string  `json:"filter"` // "nearest", "linear"
	Brightness float32 `json:"brightness"`
	Contrast   float32 `json:"contrast"`
	Saturation float32 `json:"saturation"`
}

// InputConfig contains the keyboard layout of both controllers
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping names the key bound to each controller button. An empty
// name leaves the button unbound.
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	FrameRate      float64 `json:"frame_rate"`
	SaveStateSlots int     `json:"save_state_slots"`

	// HeadlessFrames is the number of frames a headless run emulates
	HeadlessFrames int `json:"headless_frames"`

	// DumpFrames lists frame numbers the headless backend saves as PNG
	DumpFrames []uint64 `json:"dump_frames"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EchoLog bool `json:"echo_log"`

	// CPUTrace is a file receiving one line per instruction, "-" for
	// stdout, empty for none
	CPUTrace string `json:"cpu_trace"`

	// StatsView is the listen address of the runtime statistics server
	StatsView string `json:"statsview"`

	// Breakpoints use the "ADDR[:rwx]" syntax
	Breakpoints []string `json:"breakpoints"`

	// HistorySize is the number of executed instructions kept
	HistorySize int `json:"history_size"`

	DumpDir string `json:"dump_dir"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  768,
			Height: 720,
			Scale:  3,
		},
		Video: VideoConfig{
			Backend:    string(graphics.BackendEbitengine),
			VSync:      true,
			Filter:     "nearest",
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "K",
				B:      "J",
				Start:  "Enter",
				Select: "Space",
			},
			Player2Keys: KeyMapping{
				Up:     "ArrowUp",
				Down:   "ArrowDown",
				Left:   "ArrowLeft",
				Right:  "ArrowRight",
				A:      "M",
				B:      "N",
				Start:  "Backspace",
				Select: "Tab",
			},
		},
		Emulation: EmulationConfig{
			FrameRate:      60.0,
			SaveStateSlots: 4,
			HeadlessFrames: 120,
		},
		Debug: DebugConfig{
			HistorySize: debug.DefaultHistorySize,
			DumpDir:     "./dumps",
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			SaveStates:  "./states",
			Screenshots: "./screenshots",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created holding the defaults.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	if err := json.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	if err := c.Validate(); err != nil {
		return err
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "write config file")
	}

	c.configPath = path
	return nil
}

// Validate clamps out-of-range values to their defaults and reports
// settings that cannot be used as a *ConfigError.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{Field: "window", Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), Err: errors.New("invalid window dimensions")}
	}
	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	switch graphics.BackendType(strings.ToLower(c.Video.Backend)) {
	case graphics.BackendEbitengine, graphics.BackendHeadless, graphics.BackendTerminal:
	case "":
		c.Video.Backend = string(graphics.BackendEbitengine)
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: graphics.ErrUnknownBackend}
	}
	if c.Video.Filter != "linear" {
		c.Video.Filter = "nearest"
	}
	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}
	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}
	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}

	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60.0
	}
	if c.Emulation.SaveStateSlots <= 0 {
		c.Emulation.SaveStateSlots = 4
	}
	if c.Emulation.HeadlessFrames < 0 {
		c.Emulation.HeadlessFrames = 0
	}
	if c.Debug.HistorySize <= 0 {
		c.Debug.HistorySize = debug.DefaultHistorySize
	}

	for _, bp := range c.Debug.Breakpoints {
		if _, err := debug.ParseBreakpoint(bp); err != nil {
			return &ConfigError{Field: "debug.breakpoints", Value: bp, Err: err}
		}
	}

	if _, err := c.Input.Bindings(); err != nil {
		return err
	}
	return nil
}

// Binding is the controller button a key drives.
type Binding struct {
	Pad    int
	Button input.Button
}

// Bindings resolves both key maps. An unknown key name or a key bound
// twice is a *ConfigError.
func (ic InputConfig) Bindings() (map[graphics.Key]Binding, error) {
	bindings := make(map[graphics.Key]Binding)
	for pad, m := range []KeyMapping{ic.Player1Keys, ic.Player2Keys} {
		for _, b := range []struct {
			name   string
			button input.Button
		}{
			{m.Up, input.ButtonUp},
			{m.Down, input.ButtonDown},
			{m.Left, input.ButtonLeft},
			{m.Right, input.ButtonRight},
			{m.A, input.ButtonA},
			{m.B, input.ButtonB},
			{m.Start, input.ButtonStart},
			{m.Select, input.ButtonSelect},
		} {
			if b.name == "" {
				continue
			}
			field := fmt.Sprintf("input.player%d_keys.%s", pad+1, strings.ToLower(b.button.String()))
			key, ok := graphics.ParseKey(b.name)
			if !ok {
				return nil, &ConfigError{Field: field, Value: b.name, Err: errors.New("unknown key")}
			}
			if _, dup := bindings[key]; dup {
				return nil, &ConfigError{Field: field, Value: b.name, Err: errors.New("key bound twice")}
			}
			bindings[key] = Binding{Pad: pad, Button: b.button}
		}
	}
	return bindings, nil
}

// GetNESResolution returns the native NES resolution
func (c *Config) GetNESResolution() (int, int) {
	return graphics.FrameWidth, graphics.FrameHeight
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	w, h := c.GetNESResolution()
	return w * c.Window.Scale, h * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/qnes.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
