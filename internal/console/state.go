package console

import (
	"github.com/pkg/errors"

	"qnes/internal/cartridge"
	"qnes/internal/cpu"
	"qnes/internal/input"
	"qnes/internal/ppu"
)

// State is a complete machine snapshot. It serialises to JSON.
type State struct {
	CPU         cpu.State             `json:"cpu"`
	PPU         ppu.State             `json:"ppu"`
	RAM         []uint8               `json:"ram"`
	Controllers input.State           `json:"controllers"`
	Mapper      cartridge.MapperState `json:"mapper"`
}

// Snapshot captures the machine.
func (c *Console) Snapshot() (State, error) {
	if c.cart == nil {
		return State{}, ErrNoCartridge
	}
	return State{
		CPU:         c.bus.CPU.State(),
		PPU:         c.bus.PPU.State(),
		RAM:         c.bus.RAM(),
		Controllers: c.bus.Controllers.State(),
		Mapper:      c.cart.Mapper().State(),
	}, nil
}

// Restore loads a snapshot taken from a console holding the same
// cartridge. The mapper is restored first so a mismatched state leaves the
// machine untouched.
func (c *Console) Restore(s State) error {
	if c.cart == nil {
		return ErrNoCartridge
	}
	if err := c.cart.Mapper().Restore(s.Mapper); err != nil {
		return errors.Wrap(err, "restore mapper")
	}
	c.bus.CPU.SetState(s.CPU)
	c.bus.PPU.SetState(s.PPU)
	c.bus.LoadRAM(s.RAM)
	c.bus.Controllers.SetState(s.Controllers)
	return nil
}
