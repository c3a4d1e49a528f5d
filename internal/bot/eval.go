package bot

import (
    "errors"
    "fmt"
    "math"

    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

// Score is a position value from one player's point of view.
type Score int

// Weights configures the evaluator.
type Weights struct {
    // Positional weights cells inside a subgrid and subgrids inside the grid.
    Positional [9]Score
    // Win is returned for a won match and must dominate any heuristic sum.
    Win Score
}

var ErrInvalidWeights = errors.New("invalid evaluator weights")

// DefaultWeights favours the center, then corners, then edges.
func DefaultWeights() Weights {
    return Weights{
        Positional: [9]Score{
            3, 2, 3,
            2, 4, 2,
            3, 2, 3,
        },
        Win: math.MaxInt16,
    }
}

func (w Weights) total() Score {
    var sum Score
    for _, v := range w.Positional {
        sum += v
    }
    return sum
}

// Validate checks that no heuristic score can reach Win.
func (w Weights) Validate() error {
    for i, v := range w.Positional {
        if v < 0 {
            return fmt.Errorf("%w: positional weight %d is negative", ErrInvalidWeights, i)
        }
    }
    if bound := w.total() * w.total(); bound >= w.Win {
        return fmt.Errorf("%w: heuristic bound %d reaches win weight %d", ErrInvalidWeights, bound, w.Win)
    }
    return nil
}

// Evaluator scores grids statically.
type Evaluator struct {
    w     Weights
    total Score
}

func NewEvaluator(w Weights) *Evaluator {
    return &Evaluator{w: w, total: w.total()}
}

// Weights returns the weights the evaluator was built with.
func (e *Evaluator) Weights() Weights { return e.w }

// Terminal scores a finished grid for perspective. ok is false while the match is open.
func (e *Evaluator) Terminal(g *domain.MetaGrid, perspective domain.Player) (score Score, ok bool) {
    if w := g.Winner(); w != domain.NoPlayer {
        return Score(w.Sign(perspective)) * e.w.Win, true
    }
    if g.IsFilled() {
        return 0, true
    }
    return 0, false
}

// Evaluate scores g for perspective: ±Win for a decided match, 0 for a draw,
// the weighted subgrid sum otherwise.
func (e *Evaluator) Evaluate(g *domain.MetaGrid, perspective domain.Player) Score {
    if s, ok := e.Terminal(g, perspective); ok {
        return s
    }
    var sum Score
    for i, w := range e.w.Positional {
        sum += e.SubGridScore(g.SubGrid(i), perspective) * w
    }
    return sum
}

// SubGridScore values one subgrid: the full weight total when won, 0 when
// drawn, the weighted stone balance otherwise.
func (e *Evaluator) SubGridScore(s domain.SubGrid, perspective domain.Player) Score {
    if w := s.Winner(); w != domain.NoPlayer {
        return Score(w.Sign(perspective)) * e.total
    }
    if s.IsFull() {
        return 0
    }
    var sum Score
    for pos, w := range e.w.Positional {
        if p := s.At(pos); p != domain.NoPlayer {
            sum += Score(p.Sign(perspective)) * w
        }
    }
    return sum
}
