package domain

import (
    "errors"
    "fmt"
    "strings"
    "unicode"
)

var ErrBadLayout = errors.New("bad grid layout")

// ParseGrid builds a grid from 81 cells written subgrid by subgrid, each
// subgrid row-major: 'X', 'O' or '.', whitespace ignored. forced is the
// subgrid the next move is restricted to, or AnySubgrid.
func ParseGrid(layout string, forced int) (MetaGrid, error) {
    var m MetaGrid
    n := 0
    for _, r := range layout {
        if unicode.IsSpace(r) {
            continue
        }
        if n >= 81 {
            return MetaGrid{}, fmt.Errorf("%w: more than 81 cells", ErrBadLayout)
        }
        outer, inner := n/9, n%9
        switch r {
        case 'X', 'x':
            m.subs[outer].Play(inner, X)
        case 'O', 'o':
            m.subs[outer].Play(inner, O)
        case '.':
        default:
            return MetaGrid{}, fmt.Errorf("%w: unexpected %q", ErrBadLayout, r)
        }
        n++
    }
    if n != 81 {
        return MetaGrid{}, fmt.Errorf("%w: %d cells, want 81", ErrBadLayout, n)
    }
    if forced != AnySubgrid {
        if !inRange(forced) || m.subs[forced].IsDecided() {
            return MetaGrid{}, fmt.Errorf("%w: subgrid %d cannot be forced", ErrBadLayout, forced)
        }
        m.forced = uint8(forced) + 1
    }
    return m, nil
}

// String renders the grid in the layout ParseGrid reads, one subgrid per line.
func (m *MetaGrid) String() string {
    var b strings.Builder
    for outer := range m.subs {
        for inner := 0; inner < 9; inner++ {
            switch m.subs[outer].At(inner) {
            case X:
                b.WriteByte('X')
            case O:
                b.WriteByte('O')
            default:
                b.WriteByte('.')
            }
            if inner%3 == 2 && inner != 8 {
                b.WriteByte(' ')
            }
        }
        b.WriteByte('\n')
    }
    return b.String()
}
