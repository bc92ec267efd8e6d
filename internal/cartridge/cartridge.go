// Package cartridge implements iNES parsing and the mapper boards that sit
// between the console and the cartridge ROM/RAM.
package cartridge

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"

	"qnes/internal/logger"
)

const (
	prgBankSize = 0x4000
	chrBankSize = 0x2000
	prgRAMSize  = 0x2000
)

var (
	// ErrInvalidHeader is returned when the 'N','E','S',0x1A magic is missing
	// or the header is short.
	ErrInvalidHeader = errors.New("missing iNES header")
	// ErrTrainerUnsupported is returned for images carrying a 512-byte trainer.
	ErrTrainerUnsupported = errors.New("trainer blocks are not supported")
	// ErrUnsupportedMapper is returned for mapper numbers outside {0,1,2,3}.
	ErrUnsupportedMapper = errors.New("unsupported mapper")
	// ErrTruncatedROM is returned when the image is shorter than its header
	// declares.
	ErrTruncatedROM = errors.New("truncated ROM image")
	// ErrMapperState is returned by Mapper.Restore for a state taken from a
	// different mapper.
	ErrMapperState = errors.New("mapper state does not match cartridge")
)

// Mirroring is the nametable arrangement a board wires up.
type Mirroring uint8

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorSingleScreenLow
	MirrorSingleScreenHigh
	MirrorFourScreen
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingleScreenLow:
		return "single-screen low"
	case MirrorSingleScreenHigh:
		return "single-screen high"
	case MirrorFourScreen:
		return "four-screen"
	}
	return "unknown"
}

// Description is the decoded iNES header.
type Description struct {
	PRGBanks               uint8 // 16 KB units
	CHRBanks               uint8 // 8 KB units, 0 means CHR RAM
	Mirroring              Mirroring
	HasBattery             bool
	IgnoreMirroringControl bool
	MapperNumber           uint8
}

// Mapper is the capability set every board implements. Each method reports
// whether the board claimed the address so callers can fall through to their
// default behaviour.
type Mapper interface {
	CPURead(address uint16) (uint8, bool)
	CPUWrite(address uint16, value uint8) bool
	PPURead(address uint16) (uint8, bool)
	PPUWrite(address uint16, value uint8) bool

	// Mirroring reports the current nametable arrangement, which MMC1 can
	// change at runtime.
	Mirroring() Mirroring

	State() MapperState
	Restore(state MapperState) error
}

// MapperState is the serialisable part of a board: bank registers plus any
// writable memory.
type MapperState struct {
	Number    uint8   `json:"number"`
	Registers []uint8 `json:"registers"`
	PRGRAM    []uint8 `json:"prg_ram,omitempty"`
	CHRRAM    []uint8 `json:"chr_ram,omitempty"`
}

// iNESHeader is the 16-byte file header.
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8
	CHRROMSize uint8
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	TVSystem1  uint8
	TVSystem2  uint8
	Padding    [5]uint8
}

// Cartridge is a loaded ROM image plus the board that maps it.
type Cartridge struct {
	desc   Description
	prgROM []uint8
	chrROM []uint8
	chrRAM bool
	mapper Mapper
}

// LoadFromFile loads an iNES image from disk.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open ROM")
	}
	defer file.Close()

	cart, err := LoadFromReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filename)
	}
	return cart, nil
}

// LoadFromBytes loads an iNES image held in memory.
func LoadFromBytes(data []byte) (*Cartridge, error) {
	return LoadFromReader(bytes.NewReader(data))
}

// LoadFromReader parses the header, rejects images that cannot be emulated
// and reads PRG-ROM followed by CHR-ROM.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(ErrInvalidHeader, err.Error())
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, ErrInvalidHeader
	}

	if header.Flags6&0x04 != 0 {
		return nil, ErrTrainerUnsupported
	}

	desc := Description{
		PRGBanks:               header.PRGROMSize,
		CHRBanks:               header.CHRROMSize,
		HasBattery:             header.Flags6&0x02 != 0,
		IgnoreMirroringControl: header.Flags6&0x08 != 0,
		MapperNumber:           (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
	}
	switch {
	case desc.IgnoreMirroringControl:
		desc.Mirroring = MirrorFourScreen
	case header.Flags6&0x01 != 0:
		desc.Mirroring = MirrorVertical
	default:
		desc.Mirroring = MirrorHorizontal
	}

	if !supportedMapper(desc.MapperNumber) {
		return nil, errors.Wrapf(ErrUnsupportedMapper, "mapper %d", desc.MapperNumber)
	}

	if desc.PRGBanks == 0 {
		return nil, errors.Wrap(ErrInvalidHeader, "PRG-ROM size is zero")
	}

	cart := &Cartridge{desc: desc}

	cart.prgROM = make([]uint8, int(desc.PRGBanks)*prgBankSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, errors.Wrapf(ErrTruncatedROM, "PRG-ROM: %v", err)
	}

	if desc.CHRBanks > 0 {
		cart.chrROM = make([]uint8, int(desc.CHRBanks)*chrBankSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, errors.Wrapf(ErrTruncatedROM, "CHR-ROM: %v", err)
		}
	} else {
		cart.chrROM = make([]uint8, chrBankSize)
		cart.chrRAM = true
	}

	cart.mapper = newMapper(cart)

	chrKind := "ROM"
	if cart.chrRAM {
		chrKind = "RAM"
	}
	logger.Logf("CART", "mapper %d, %dKB PRG-ROM, %dKB CHR-%s, %s mirroring",
		desc.MapperNumber, 16*int(desc.PRGBanks), len(cart.chrROM)/1024, chrKind, desc.Mirroring)

	return cart, nil
}

func supportedMapper(id uint8) bool {
	switch id {
	case 0, 1, 2, 3:
		return true
	}
	return false
}

// newMapper builds the board for a cartridge. The set of boards is closed;
// supportedMapper has already filtered the id.
func newMapper(cart *Cartridge) Mapper {
	switch cart.desc.MapperNumber {
	case 1:
		return NewMapper001(cart)
	case 2:
		return NewMapper002(cart)
	case 3:
		return NewMapper003(cart)
	default:
		return NewMapper000(cart)
	}
}

// Description returns the decoded header.
func (c *Cartridge) Description() Description {
	return c.desc
}

// Mapper returns the board.
func (c *Cartridge) Mapper() Mapper {
	return c.mapper
}

// HasCHRRAM reports whether pattern memory is writable.
func (c *Cartridge) HasCHRRAM() bool {
	return c.chrRAM
}

// CPURead forwards to the board.
func (c *Cartridge) CPURead(address uint16) (uint8, bool) {
	return c.mapper.CPURead(address)
}

// CPUWrite forwards to the board.
func (c *Cartridge) CPUWrite(address uint16, value uint8) bool {
	return c.mapper.CPUWrite(address, value)
}

// PPURead forwards to the board.
func (c *Cartridge) PPURead(address uint16) (uint8, bool) {
	return c.mapper.PPURead(address)
}

// PPUWrite forwards to the board.
func (c *Cartridge) PPUWrite(address uint16, value uint8) bool {
	return c.mapper.PPUWrite(address, value)
}

// Mirroring returns the board's current nametable arrangement.
func (c *Cartridge) Mirroring() Mirroring {
	return c.mapper.Mirroring()
}

// Checksum identifies the ROM contents as a hex SHA-1 of PRG-ROM followed
// by CHR-ROM. CHR-RAM is not part of it.
func (c *Cartridge) Checksum() string {
	h := sha1.New()
	h.Write(c.prgROM)
	if !c.chrRAM {
		h.Write(c.chrROM)
	}
	return hex.EncodeToString(h.Sum(nil))
}
