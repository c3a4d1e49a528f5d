package domain

// Player identifies a side. NoPlayer marks an empty cell or an undecided board.
type Player uint8

const (
    NoPlayer Player = iota
    X
    O
)

// Other returns the opponent of p. NoPlayer has no opponent.
func (p Player) Other() Player {
    switch p {
    case X:
        return O
    case O:
        return X
    default:
        return NoPlayer
    }
}

// Sign is +1 when p is the perspective player and -1 otherwise.
func (p Player) Sign(perspective Player) int {
    if p == perspective {
        return 1
    }
    return -1
}

func (p Player) String() string {
    switch p {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return ""
    }
}

// Move names a subgrid (Outer) and a cell within it (Inner), both 0..8 row-major.
type Move struct {
    Outer int
    Inner int
}

// Priority is the visiting order for both subgrids and cells: center, corners, edges.
var Priority = [9]int{4, 0, 2, 6, 8, 1, 3, 5, 7}

func inRange(i int) bool { return i >= 0 && i < 9 }
