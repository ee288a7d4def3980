//go:build !tinygo

package mmio

// Register8 is an 8-bit register cell (plain memory on regular Go).
type Register8 struct {
	Reg uint8
}

// Get returns the register value.
func (r *Register8) Get() uint8 { return r.Reg }

// Set stores value in the register.
func (r *Register8) Set(value uint8) { r.Reg = value }

// SetBits sets the bits in mask (read-modify-write).
func (r *Register8) SetBits(mask uint8) { r.Reg |= mask }

// ClearBits clears the bits in mask (read-modify-write).
func (r *Register8) ClearBits(mask uint8) { r.Reg &^= mask }

// HasBits reports whether any bit of mask is set.
func (r *Register8) HasBits(mask uint8) bool { return r.Reg&mask != 0 }

// ReplaceBits replaces the field of width mask at pos with value.
func (r *Register8) ReplaceBits(value uint8, mask uint8, pos uint8) {
	r.Reg = r.Reg&^(mask<<pos) | value<<pos
}

// Register16 is a 16-bit register cell (plain memory on regular Go).
type Register16 struct {
	Reg uint16
}

// Get returns the register value.
func (r *Register16) Get() uint16 { return r.Reg }

// Set stores value in the register.
func (r *Register16) Set(value uint16) { r.Reg = value }

// SetBits sets the bits in mask (read-modify-write).
func (r *Register16) SetBits(mask uint16) { r.Reg |= mask }

// ClearBits clears the bits in mask (read-modify-write).
func (r *Register16) ClearBits(mask uint16) { r.Reg &^= mask }

// HasBits reports whether any bit of mask is set.
func (r *Register16) HasBits(mask uint16) bool { return r.Reg&mask != 0 }

// ReplaceBits replaces the field of width mask at pos with value.
func (r *Register16) ReplaceBits(value uint16, mask uint16, pos uint8) {
	r.Reg = r.Reg&^(mask<<pos) | value<<pos
}

// Register32 is a 32-bit register cell (plain memory on regular Go).
type Register32 struct {
	Reg uint32
}

// Get returns the register value.
func (r *Register32) Get() uint32 { return r.Reg }

// Set stores value in the register.
func (r *Register32) Set(value uint32) { r.Reg = value }

// SetBits sets the bits in mask (read-modify-write).
func (r *Register32) SetBits(mask uint32) { r.Reg |= mask }

// ClearBits clears the bits in mask (read-modify-write).
func (r *Register32) ClearBits(mask uint32) { r.Reg &^= mask }

// HasBits reports whether any bit of mask is set.
func (r *Register32) HasBits(mask uint32) bool { return r.Reg&mask != 0 }

// ReplaceBits replaces the field of width mask at pos with value.
func (r *Register32) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.Reg = r.Reg&^(mask<<pos) | value<<pos
}
