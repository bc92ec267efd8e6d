package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"qnes/internal/console"
	"qnes/internal/logger"
)

// stateVersion changes whenever console.State changes shape.
const stateVersion = 1

// Save state errors.
var (
	ErrInvalidSlot      = errors.New("invalid save slot")
	ErrNoSaveState      = errors.New("no save state in slot")
	ErrChecksumMismatch = errors.New("save state belongs to a different ROM")
	ErrStateVersion     = errors.New("unsupported save state version")
)

// StateManager keeps numbered save state slots per ROM as JSON files.
type StateManager struct {
	saveDirectory string
	maxSlots      int
}

// SaveState is the file format of one slot
type SaveState struct {
	Version     int       `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	ROMName     string    `json:"rom_name"`
	ROMChecksum string    `json:"rom_checksum"`
	SlotNumber  int       `json:"slot_number"`
	FrameCount  uint64    `json:"frame_count"`
	CycleCount  uint64    `json:"cycle_count"`

	Console console.State `json:"console"`
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber int       `json:"slot_number"`
	Used       bool      `json:"used"`
	Timestamp  time.Time `json:"timestamp"`
	FrameCount uint64    `json:"frame_count"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
}

// NewStateManager creates a state manager with maxSlots slots
func NewStateManager(saveDirectory string, maxSlots int) *StateManager {
	if maxSlots <= 0 {
		maxSlots = 4
	}
	return &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      maxSlots,
	}
}

// GetMaxSlots returns the number of save slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// GetSaveDirectory returns the save directory path
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}

func (sm *StateManager) checkSlot(slot int) error {
	if slot < 0 || slot >= sm.maxSlots {
		return errors.Wrapf(ErrInvalidSlot, "%d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	return nil
}

// SlotPath returns the file of a slot for the ROM in c
func (sm *StateManager) SlotPath(c *console.Console, slot int) string {
	name := romName(c)
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%s_slot_%d.json", name, slot))
}

// romName is the ROM file name without extension, or a checksum prefix
// for cartridges that did not come from a file
func romName(c *console.Console) string {
	if path := c.ROMPath(); path != "" {
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if cart := c.Cartridge(); cart != nil {
		return cart.Checksum()[:12]
	}
	return "none"
}

// capture builds a save state from the running console
func capture(c *console.Console, slot int) (*SaveState, error) {
	snapshot, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return &SaveState{
		Version:     stateVersion,
		Timestamp:   time.Now(),
		ROMName:     romName(c),
		ROMChecksum: c.Cartridge().Checksum(),
		SlotNumber:  slot,
		FrameCount:  c.GetFrameCount(),
		CycleCount:  c.Cycles(),
		Console:     snapshot,
	}, nil
}

// SaveState writes the console state to a slot
func (sm *StateManager) SaveState(c *console.Console, slot int) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	state, err := capture(c, slot)
	if err != nil {
		return err
	}
	path := sm.SlotPath(c, slot)
	if err := sm.saveToFile(state, path); err != nil {
		return err
	}
	logger.Logf("STATE", "saved slot %d at frame %d", slot, state.FrameCount)
	return nil
}

// LoadState restores the console from a slot. The slot must have been
// saved from the same ROM image.
func (sm *StateManager) LoadState(c *console.Console, slot int) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	path := sm.SlotPath(c, slot)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.Wrapf(ErrNoSaveState, "slot %d", slot)
	}
	if err := sm.ImportState(c, path); err != nil {
		return err
	}
	logger.Logf("STATE", "loaded slot %d", slot)
	return nil
}

// ExportState writes the console state to an arbitrary file
func (sm *StateManager) ExportState(c *console.Console, filePath string) error {
	state, err := capture(c, -1)
	if err != nil {
		return err
	}
	return sm.saveToFile(state, filePath)
}

// ImportState restores the console from a file written by SaveState or
// ExportState
func (sm *StateManager) ImportState(c *console.Console, filePath string) error {
	state, err := sm.loadFromFile(filePath)
	if err != nil {
		return err
	}
	if err := validateSaveState(c, state); err != nil {
		return err
	}
	return errors.Wrap(c.Restore(state.Console), "restore state")
}

func validateSaveState(c *console.Console, state *SaveState) error {
	if c.Cartridge() == nil {
		return console.ErrNoCartridge
	}
	if state.Version != stateVersion {
		return errors.Wrapf(ErrStateVersion, "version %d", state.Version)
	}
	if state.ROMChecksum != c.Cartridge().Checksum() {
		return errors.Wrapf(ErrChecksumMismatch, "state is for %s", state.ROMName)
	}
	return nil
}

func (sm *StateManager) saveToFile(state *SaveState, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return errors.Wrap(err, "create save directory")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}
	return errors.Wrap(os.WriteFile(filePath, data, 0644), "write state")
}

func (sm *StateManager) loadFromFile(filePath string) (*SaveState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "read state")
	}
	var state SaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, "parse state %s", filePath)
	}
	return &state, nil
}

// GetSlotInfo returns information about all save slots for the ROM in c
func (sm *StateManager) GetSlotInfo(c *console.Console) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := range slots {
		slots[i].SlotNumber = i
		path := sm.SlotPath(c, i)
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		slots[i].Used = true
		slots[i].FilePath = path
		slots[i].FileSize = stat.Size()
		slots[i].Timestamp = stat.ModTime()
		if state, err := sm.loadFromFile(path); err == nil {
			slots[i].Timestamp = state.Timestamp
			slots[i].FrameCount = state.FrameCount
		}
	}
	return slots
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(c *console.Console, slot int) bool {
	if sm.checkSlot(slot) != nil {
		return false
	}
	_, err := os.Stat(sm.SlotPath(c, slot))
	return err == nil
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(c *console.Console, slot int) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	err := os.Remove(sm.SlotPath(c, slot))
	if os.IsNotExist(err) {
		return errors.Wrapf(ErrNoSaveState, "slot %d", slot)
	}
	return errors.Wrap(err, "delete state")
}
