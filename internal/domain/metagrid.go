package domain

import "errors"

// AnySubgrid is returned by OnlyAllowed when the mover may pick any undecided subgrid.
const AnySubgrid = -1

// Errors describing why a move is rejected.
var (
    ErrOutOfBounds    = errors.New("out of bounds")
    ErrWrongSubgrid   = errors.New("move must be played in the forced subgrid")
    ErrSubgridDecided = errors.New("subgrid already decided")
    ErrOccupied       = errors.New("cell occupied")
    ErrGameOver       = errors.New("game over")
)

// MetaGrid is the 3x3 arrangement of subgrids plus the forced-subgrid rule.
// It is a plain value: assigning it copies the whole board.
type MetaGrid struct {
    subs [9]SubGrid
    // forced holds the forced subgrid index plus one; zero means no constraint.
    forced uint8
}

// SubGrid returns a copy of the subgrid at outer.
func (m *MetaGrid) SubGrid(outer int) SubGrid {
    return m.subs[outer]
}

// OnlyAllowed returns the subgrid the next move is restricted to, or AnySubgrid.
func (m *MetaGrid) OnlyAllowed() int {
    if m.forced == 0 {
        return AnySubgrid
    }
    return int(m.forced) - 1
}

// Allowed reports whether the next move may target subgrid outer.
func (m *MetaGrid) Allowed(outer int) bool {
    if !inRange(outer) || m.subs[outer].IsDecided() {
        return false
    }
    f := m.OnlyAllowed()
    return f == AnySubgrid || f == outer
}

// Check returns nil when p may play at (outer, inner), or the reason it may not.
// It does not consider whether the match as a whole is over.
func (m *MetaGrid) Check(p Player, outer, inner int) error {
    if !inRange(outer) || !inRange(inner) || (p != X && p != O) {
        return ErrOutOfBounds
    }
    if f := m.OnlyAllowed(); f != AnySubgrid && f != outer {
        return ErrWrongSubgrid
    }
    if m.subs[outer].IsDecided() {
        return ErrSubgridDecided
    }
    if !m.subs[outer].Empty(inner) {
        return ErrOccupied
    }
    return nil
}

// Play places p at (outer, inner) and updates the forced subgrid.
// It returns false and leaves the grid untouched if the move is illegal.
func (m *MetaGrid) Play(p Player, outer, inner int) bool {
    if m.Check(p, outer, inner) != nil {
        return false
    }
    if !m.subs[outer].Play(inner, p) {
        return false
    }
    if m.subs[inner].IsDecided() {
        m.forced = 0
    } else {
        m.forced = uint8(inner) + 1
    }
    return true
}

// Unplay reverses a successful Play at (outer, inner). prior must be the
// OnlyAllowed value observed before that Play; it is restored verbatim.
func (m *MetaGrid) Unplay(outer, inner, prior int) {
    m.subs[outer].Unplay(inner)
    if prior == AnySubgrid {
        m.forced = 0
    } else {
        m.forced = uint8(prior) + 1
    }
}

// Winner collapses each subgrid to its winner and applies the triple test.
func (m *MetaGrid) Winner() Player {
    var xs, ow uint16
    for i := range m.subs {
        switch m.subs[i].Winner() {
        case X:
            xs |= 1 << uint(i)
        case O:
            ow |= 1 << uint(i)
        }
    }
    switch {
    case hasLine(xs):
        return X
    case hasLine(ow):
        return O
    default:
        return NoPlayer
    }
}

// IsFilled is true when every subgrid is decided.
func (m *MetaGrid) IsFilled() bool {
    for i := range m.subs {
        if !m.subs[i].IsDecided() {
            return false
        }
    }
    return true
}

// Finished is true once the match has a winner or no subgrid is left to play.
func (m *MetaGrid) Finished() bool {
    return m.Winner() != NoPlayer || m.IsFilled()
}

// LegalMoves lists the legal moves in Priority order, subgrids first then cells.
func (m *MetaGrid) LegalMoves() []Move {
    return m.AppendLegalMoves(make([]Move, 0, 81))
}

// AppendLegalMoves appends the legal moves to dst, letting search reuse buffers.
func (m *MetaGrid) AppendLegalMoves(dst []Move) []Move {
    f := m.OnlyAllowed()
    for _, outer := range Priority {
        if f != AnySubgrid && f != outer {
            continue
        }
        sub := &m.subs[outer]
        if sub.IsDecided() {
            continue
        }
        for _, inner := range Priority {
            if sub.Empty(inner) {
                dst = append(dst, Move{Outer: outer, Inner: inner})
            }
        }
    }
    return dst
}
