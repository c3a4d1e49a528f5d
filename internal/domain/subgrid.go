package domain

const fullMask uint16 = 0x1ff

// lines are the eight winning triples as 9-bit masks over positions 0..8.
var lines = [8]uint16{
    // rows
    0x007, 0x038, 0x1c0,
    // cols
    0x049, 0x092, 0x124,
    // diags
    0x111, 0x054,
}

func hasLine(mask uint16) bool {
    for _, ln := range lines {
        if mask&ln == ln {
            return true
        }
    }
    return false
}

// SubGrid is a single 3x3 board kept as one occupancy mask per player.
// The masks never overlap. Reads take a copy; only Play and Unplay mutate.
type SubGrid struct {
    x uint16
    o uint16
}

func (s SubGrid) mask(p Player) uint16 {
    if p == X {
        return s.x
    }
    return s.o
}

// Empty reports whether pos holds no stone.
func (s SubGrid) Empty(pos int) bool {
    bit := uint16(1) << uint(pos)
    return (s.x|s.o)&bit == 0
}

// At returns the player occupying pos, or NoPlayer.
func (s SubGrid) At(pos int) Player {
    bit := uint16(1) << uint(pos)
    switch {
    case s.x&bit != 0:
        return X
    case s.o&bit != 0:
        return O
    default:
        return NoPlayer
    }
}

// Play places p at pos. It fails without touching the board if pos is
// occupied or out of range.
func (s *SubGrid) Play(pos int, p Player) bool {
    if !inRange(pos) || !s.Empty(pos) {
        return false
    }
    bit := uint16(1) << uint(pos)
    switch p {
    case X:
        s.x |= bit
    case O:
        s.o |= bit
    default:
        return false
    }
    return true
}

// Unplay clears pos for both players. Only call it to reverse a Play that
// succeeded.
func (s *SubGrid) Unplay(pos int) {
    bit := uint16(1) << uint(pos)
    s.x &^= bit
    s.o &^= bit
}

// Winner returns the player owning a full triple, or NoPlayer.
func (s SubGrid) Winner() Player {
    switch {
    case hasLine(s.x):
        return X
    case hasLine(s.o):
        return O
    default:
        return NoPlayer
    }
}

func (s SubGrid) IsFull() bool { return s.x|s.o == fullMask }

// IsDecided is true once the board is won or has no empty cell left.
func (s SubGrid) IsDecided() bool {
    return s.IsFull() || s.Winner() != NoPlayer
}
