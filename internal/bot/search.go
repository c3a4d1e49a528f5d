package bot

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "sync/atomic"
    "time"

    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"

    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

const (
    DefaultDepth = 6
    // checkEvery is how many nodes a worker visits between budget checks.
    checkEvery = 1024
)

var (
    ErrNoMoves = errors.New("no legal moves")
    errAborted = errors.New("search budget exhausted")
)

// Options bounds a search. Zero Timeout and NodeBudget mean unbounded.
type Options struct {
    Depth      int
    Timeout    time.Duration
    NodeBudget int64
    Workers    int
}

func DefaultOptions() Options {
    return Options{Depth: DefaultDepth, Workers: 1}
}

type ScoredMove struct {
    Move  domain.Move
    Score Score
}

// Stats describes one search. Depth is the deepest fully completed iteration,
// counted in plies searched below each root move.
type Stats struct {
    Nodes     int64
    Depth     int
    Elapsed   time.Duration
    Truncated bool
}

// Suggestion is the outcome of a search from the mover's point of view.
// Moves holds every root move tying the best score; Ranked holds all root
// moves, best first, ties kept in priority order.
type Suggestion struct {
    Moves  []domain.Move
    Score  Score
    Ranked []ScoredMove
    Stats  Stats
}

// Searcher runs depth-limited negamax with alpha-beta pruning.
type Searcher struct {
    eval *Evaluator
    opts Options
    log  *zap.Logger
}

func NewSearcher(eval *Evaluator, opts Options, log *zap.Logger) *Searcher {
    if opts.Depth <= 0 {
        opts.Depth = DefaultDepth
    }
    if opts.Workers <= 0 {
        opts.Workers = 1
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Searcher{eval: eval, opts: opts, log: log}
}

func (s *Searcher) Options() Options { return s.opts }

func (s *Searcher) Evaluator() *Evaluator { return s.eval }

// BestMoves searches grid for mover at the configured depth.
func (s *Searcher) BestMoves(ctx context.Context, grid domain.MetaGrid, mover domain.Player) (Suggestion, error) {
    return s.Search(ctx, grid, mover, s.opts.Depth)
}

// Search deepens iteratively from 1 to depth and returns the deepest
// iteration that finished inside the budget. The first iteration always
// finishes. A non-positive depth selects the configured one.
func (s *Searcher) Search(ctx context.Context, grid domain.MetaGrid, mover domain.Player, depth int) (Suggestion, error) {
    if depth <= 0 {
        depth = s.opts.Depth
    }
    if grid.Finished() {
        return Suggestion{}, ErrNoMoves
    }
    roots := grid.LegalMoves()
    if len(roots) == 0 {
        return Suggestion{}, ErrNoMoves
    }
    if s.opts.Timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
        defer cancel()
    }

    start := time.Now()
    var nodes atomic.Int64
    var ranked []ScoredMove
    var stats Stats
    for d := 1; d <= depth; d++ {
        r, err := s.searchRoots(ctx, grid, mover, roots, d, d > 1, &nodes)
        if errors.Is(err, errAborted) {
            stats.Truncated = true
            break
        }
        if err != nil {
            return Suggestion{}, err
        }
        ranked = r
        stats.Depth = d
        if top := ranked[0].Score; top == s.eval.w.Win || top == -s.eval.w.Win {
            break
        }
    }
    stats.Nodes = nodes.Load()
    stats.Elapsed = time.Since(start)

    sug := Suggestion{Ranked: ranked, Score: ranked[0].Score, Stats: stats}
    for _, sm := range ranked {
        if sm.Score != sug.Score {
            break
        }
        sug.Moves = append(sug.Moves, sm.Move)
    }
    s.log.Debug("search finished",
        zap.Stringer("mover", mover),
        zap.Int("depth", stats.Depth),
        zap.Int64("nodes", stats.Nodes),
        zap.Duration("elapsed", stats.Elapsed),
        zap.Bool("truncated", stats.Truncated),
        zap.Int("score", int(sug.Score)),
        zap.Int("best_moves", len(sug.Moves)),
    )
    return sug, nil
}

// searchRoots plays every root move and scores the reply position with a
// full-window search of depth plies. Each root move is searched on its own
// copy of the grid so workers share nothing but the node counter.
func (s *Searcher) searchRoots(ctx context.Context, grid domain.MetaGrid, mover domain.Player, roots []domain.Move, depth int, bounded bool, nodes *atomic.Int64) ([]ScoredMove, error) {
    win := s.eval.w.Win
    ranked := make([]ScoredMove, len(roots))
    g, gctx := errgroup.WithContext(ctx)
    g.SetLimit(s.opts.Workers)
    for i, m := range roots {
        i, m := i, m
        g.Go(func() error {
            w := newWalker(s.eval, grid, depth, nodes)
            if bounded {
                w.ctx = gctx
                w.budget = s.opts.NodeBudget
            }
            score := -w.try(mover, m, func() Score {
                return w.negamax(mover.Other(), -win, win, depth)
            })
            w.flush()
            if w.aborted {
                return errAborted
            }
            ranked[i] = ScoredMove{Move: m, Score: score}
            return nil
        })
    }
    if err := g.Wait(); err != nil {
        return nil, err
    }
    sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
    return ranked, nil
}

// Negamax scores grid for mover within (alpha, beta), without budgets.
func (s *Searcher) Negamax(grid domain.MetaGrid, mover domain.Player, alpha, beta Score, depth int) Score {
    if depth < 0 {
        depth = 0
    }
    var nodes atomic.Int64
    w := newWalker(s.eval, grid, depth, &nodes)
    return w.negamax(mover, alpha, beta, depth)
}

// walker owns one grid and mutates it in place, reverting every move it plays.
type walker struct {
    eval *Evaluator
    grid domain.MetaGrid
    // moves[d] is the move buffer for nodes with d plies left.
    moves [][]domain.Move

    ctx     context.Context
    budget  int64
    shared  *atomic.Int64
    local   int64
    flushed int64
    aborted bool
}

func newWalker(eval *Evaluator, grid domain.MetaGrid, depth int, shared *atomic.Int64) *walker {
    moves := make([][]domain.Move, depth+1)
    for i := range moves {
        moves[i] = make([]domain.Move, 0, 81)
    }
    return &walker{eval: eval, grid: grid, moves: moves, shared: shared}
}

func (w *walker) flush() {
    w.shared.Add(w.local - w.flushed)
    w.flushed = w.local
}

// enter counts a node and polls the budget every checkEvery nodes.
func (w *walker) enter() bool {
    if w.aborted {
        return false
    }
    if w.local%checkEvery == 0 {
        w.flush()
        if w.ctx != nil && w.ctx.Err() != nil {
            w.aborted = true
        }
        if w.budget > 0 && w.shared.Load() >= w.budget {
            w.aborted = true
        }
    }
    w.local++
    return !w.aborted
}

// try plays m for p, runs fn on the resulting grid and takes m back on every
// return path, including cutoffs and aborts inside fn.
func (w *walker) try(p domain.Player, m domain.Move, fn func() Score) Score {
    prior := w.grid.OnlyAllowed()
    if !w.grid.Play(p, m.Outer, m.Inner) {
        panic(fmt.Sprintf("bot: generated move %v rejected on\n%s", m, &w.grid))
    }
    defer w.grid.Unplay(m.Outer, m.Inner, prior)
    return fn()
}

func (w *walker) negamax(mover domain.Player, alpha, beta Score, depth int) Score {
    if !w.enter() {
        return 0
    }
    if s, ok := w.eval.Terminal(&w.grid, mover); ok {
        return s
    }
    if depth == 0 {
        return w.eval.Evaluate(&w.grid, mover)
    }
    moves := w.grid.AppendLegalMoves(w.moves[depth][:0])
    w.moves[depth] = moves
    if len(moves) == 0 {
        if debugAssertions {
            panic(fmt.Sprintf("bot: open grid without legal moves\n%s", &w.grid))
        }
        return 0
    }
    for _, m := range moves {
        score := -w.try(mover, m, func() Score {
            return w.negamax(mover.Other(), -beta, -alpha, depth-1)
        })
        if w.aborted {
            return 0
        }
        if score > alpha {
            alpha = score
        }
        if score >= beta {
            return beta
        }
    }
    return alpha
}
