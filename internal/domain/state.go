package domain

// Outcome is the coarse state of a match.
type Outcome uint8

const (
    InProgress Outcome = iota
    Won
    Drawn
)

func (o Outcome) String() string {
    switch o {
    case Won:
        return "won"
    case Drawn:
        return "drawn"
    default:
        return "in progress"
    }
}

// Status is the match outcome; Winner is set only when Outcome is Won.
type Status struct {
    Outcome Outcome
    Winner  Player
}

// record holds what Undo needs to reverse one move.
type record struct {
    prior int
    move  Move
}

// GameState tracks the grid, the side to move and the undo history.
type GameState struct {
    grid    MetaGrid
    turn    Player
    history []record
}

// New returns an empty match with X to move.
func New() *GameState {
    return &GameState{turn: X}
}

// Clone returns an independent copy, history included.
func (g *GameState) Clone() *GameState {
    cp := *g
    cp.history = append([]record(nil), g.history...)
    return &cp
}

// Grid returns a copy of the current grid.
func (g *GameState) Grid() MetaGrid { return g.grid }

// Turn is the player to move.
func (g *GameState) Turn() Player { return g.turn }

// Moves is the number of moves that can be undone.
func (g *GameState) Moves() int { return len(g.history) }

// LastMove returns the most recent move, if any.
func (g *GameState) LastMove() (Move, bool) {
    if len(g.history) == 0 {
        return Move{}, false
    }
    return g.history[len(g.history)-1].move, true
}

// Check explains why the current player may not play at (outer, inner).
func (g *GameState) Check(outer, inner int) error {
    if g.Finished() {
        return ErrGameOver
    }
    return g.grid.Check(g.turn, outer, inner)
}

// Play applies a move for the current player. On failure nothing changes.
func (g *GameState) Play(outer, inner int) bool {
    if g.Finished() {
        return false
    }
    prior := g.grid.OnlyAllowed()
    if !g.grid.Play(g.turn, outer, inner) {
        return false
    }
    g.history = append(g.history, record{prior: prior, move: Move{Outer: outer, Inner: inner}})
    g.turn = g.turn.Other()
    return true
}

// Undo reverses the most recent move. It returns false when there is nothing to undo.
func (g *GameState) Undo() bool {
    n := len(g.history)
    if n == 0 {
        return false
    }
    r := g.history[n-1]
    g.history = g.history[:n-1]
    g.grid.Unplay(r.move.Outer, r.move.Inner, r.prior)
    g.turn = g.turn.Other()
    return true
}

// Winner returns the match winner, or NoPlayer while nobody has won.
func (g *GameState) Winner() Player { return g.grid.Winner() }

func (g *GameState) Finished() bool { return g.grid.Finished() }

// Status reports whether the match is running, won or drawn.
func (g *GameState) Status() Status {
    if w := g.Winner(); w != NoPlayer {
        return Status{Outcome: Won, Winner: w}
    }
    if g.grid.IsFilled() {
        return Status{Outcome: Drawn}
    }
    return Status{Outcome: InProgress}
}
