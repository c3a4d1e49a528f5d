package app

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "go.uber.org/zap"

    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

// Errors exposed by the service layer.
var (
    ErrNotFound = errors.New("match not found")
    ErrBotTurn  = errors.New("waiting for the bot")
    ErrBadSide  = errors.New("bot side must be X or O")
)

// Mode selects who plays the two sides.
type Mode uint8

const (
    // HotSeat lets both sides be played through the same call surface.
    HotSeat Mode = iota
    // VersusBot has the service answer every human move for BotSide.
    VersusBot
)

func (m Mode) String() string {
    if m == VersusBot {
        return "bot"
    }
    return "hotseat"
}

type Options struct {
    Mode    Mode
    BotSide domain.Player
}

// Match is the in-memory state tracked per match.
type Match struct {
    ID       string
    State    *domain.GameState
    Mode     Mode
    BotSide  domain.Player
    Thinking bool
    Created  time.Time
    Updated  time.Time
    // version increments on every change; stale bot replies compare against it.
    version uint64
}

// snapshot copies m deeply enough to hand out without the lock.
func (m *Match) snapshot() *Match {
    cp := *m
    cp.State = m.State.Clone()
    return &cp
}

// BotToMove reports whether the next move belongs to the bot.
func (m *Match) BotToMove() bool {
    return m.Mode == VersusBot && m.State.Turn() == m.BotSide && !m.State.Finished()
}

type subscriber struct {
    ch        chan []byte
    closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages matches, bot replies and subscribers.
type Service struct {
    mu      sync.Mutex
    matches map[string]*Match
    subs    map[string]map[*subscriber]struct{}
    render  func(Match) []byte
    bot     *bot.Searcher
    log     *zap.Logger
    pending sync.WaitGroup
}

// NewService creates a service with a renderer that encodes nothing.
func NewService(searcher *bot.Searcher, log *zap.Logger) *Service {
    return NewServiceWithRenderer(searcher, log, nil)
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(searcher *bot.Searcher, log *zap.Logger, renderer func(Match) []byte) *Service {
    if renderer == nil {
        renderer = func(Match) []byte { return nil }
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Service{
        matches: make(map[string]*Match),
        subs:    make(map[string]map[*subscriber]struct{}),
        render:  renderer,
        bot:     searcher,
        log:     log,
    }
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(Match) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = func(Match) []byte { return nil }
        return
    }
    s.render = renderer
}

// Searcher exposes the bot used for replies and suggestions.
func (s *Service) Searcher() *bot.Searcher { return s.bot }

// Wait blocks until no bot reply is in flight.
func (s *Service) Wait() { s.pending.Wait() }

// CreateMatch registers a new match. In VersusBot mode with the bot playing X
// the bot opens immediately.
func (s *Service) CreateMatch(opts Options) (*Match, error) {
    if opts.Mode == VersusBot && opts.BotSide != domain.X && opts.BotSide != domain.O {
        return nil, ErrBadSide
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    now := time.Now()
    m := &Match{
        ID:      newMatchID(),
        State:   domain.New(),
        Mode:    opts.Mode,
        BotSide: opts.BotSide,
        Created: now,
        Updated: now,
    }
    s.matches[m.ID] = m
    s.log.Info("match created", zap.String("match", m.ID), zap.Stringer("mode", m.Mode), zap.Stringer("bot", m.BotSide))
    s.scheduleBotLocked(m)
    return m.snapshot(), nil
}

// Get returns a copy of the match if present.
func (s *Service) Get(id string) (*Match, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    m, ok := s.matches[id]
    if !ok {
        return nil, false
    }
    return m.snapshot(), true
}

func (s *Service) lookupLocked(id string) (*Match, error) {
    if !validID(id) {
        return nil, ErrNotFound
    }
    m, ok := s.matches[id]
    if !ok {
        return nil, ErrNotFound
    }
    return m, nil
}

// ApplyMove plays (outer, inner) for the side to move. Illegal moves return
// the domain reason and leave the match unchanged.
func (s *Service) ApplyMove(id string, outer, inner int) (*Match, error) {
    s.mu.Lock()
    m, err := s.lookupLocked(id)
    if err != nil {
        s.mu.Unlock()
        return nil, err
    }
    if m.BotToMove() || m.Thinking {
        s.mu.Unlock()
        return nil, ErrBotTurn
    }
    if err := m.State.Check(outer, inner); err != nil {
        s.mu.Unlock()
        return nil, fmt.Errorf("move (%d,%d): %w", outer, inner, err)
    }
    mover := m.State.Turn()
    m.State.Play(outer, inner)
    s.touchLocked(m)
    s.log.Debug("move applied", zap.String("match", id), zap.Stringer("player", mover), zap.Int("outer", outer), zap.Int("inner", inner))
    s.logOutcomeLocked(m)
    s.scheduleBotLocked(m)
    return s.publishLocked(m), nil
}

// UndoLastMove reverses the most recent move, or does nothing when there is
// none. Against the bot it rewinds to the human's previous turn and drops a
// reply still being computed.
func (s *Service) UndoLastMove(id string) (*Match, error) {
    s.mu.Lock()
    m, err := s.lookupLocked(id)
    if err != nil {
        s.mu.Unlock()
        return nil, err
    }
    undone := m.State.Undo()
    if m.Mode == VersusBot {
        for m.State.Turn() == m.BotSide && m.State.Undo() {
            undone = true
        }
    }
    if !undone && !m.Thinking {
        cp := m.snapshot()
        s.mu.Unlock()
        return cp, nil
    }
    m.Thinking = false
    s.touchLocked(m)
    s.log.Debug("move undone", zap.String("match", id), zap.Int("moves", m.State.Moves()))
    // The bot opened and nothing is left to rewind to: let it open again.
    s.scheduleBotLocked(m)
    return s.publishLocked(m), nil
}

// CurrentTurn returns the player to move.
func (s *Service) CurrentTurn(id string) (domain.Player, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    m, err := s.lookupLocked(id)
    if err != nil {
        return domain.NoPlayer, err
    }
    return m.State.Turn(), nil
}

// MatchStatus reports whether the match is running, won or drawn.
func (s *Service) MatchStatus(id string) (domain.Status, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    m, err := s.lookupLocked(id)
    if err != nil {
        return domain.Status{}, err
    }
    return m.State.Status(), nil
}

// SuggestMoves searches the current position for the side to move without
// touching the match. depth <= 0 uses the configured depth.
func (s *Service) SuggestMoves(ctx context.Context, id string, depth int) (bot.Suggestion, error) {
    s.mu.Lock()
    m, err := s.lookupLocked(id)
    if err != nil {
        s.mu.Unlock()
        return bot.Suggestion{}, err
    }
    grid, turn := m.State.Grid(), m.State.Turn()
    s.mu.Unlock()

    sug, err := s.bot.Search(ctx, grid, turn, depth)
    if err != nil {
        return bot.Suggestion{}, fmt.Errorf("suggest for %s: %w", id, err)
    }
    return sug, nil
}

func (s *Service) touchLocked(m *Match) {
    m.version++
    m.Updated = time.Now()
}

func (s *Service) logOutcomeLocked(m *Match) {
    st := m.State.Status()
    switch st.Outcome {
    case domain.Won:
        s.log.Info("match won", zap.String("match", m.ID), zap.Stringer("winner", st.Winner), zap.Int("moves", m.State.Moves()))
    case domain.Drawn:
        s.log.Info("match drawn", zap.String("match", m.ID), zap.Int("moves", m.State.Moves()))
    }
}

// scheduleBotLocked starts a bot reply when the bot is to move.
func (s *Service) scheduleBotLocked(m *Match) {
    if !m.BotToMove() || m.Thinking {
        return
    }
    m.Thinking = true
    s.pending.Add(1)
    go s.botReply(m.ID, m.State.Grid(), m.BotSide, m.version)
}

// botReply searches outside the lock and applies the first best move unless
// the match changed meanwhile.
func (s *Service) botReply(id string, grid domain.MetaGrid, side domain.Player, version uint64) {
    defer s.pending.Done()
    sug, err := s.bot.BestMoves(context.Background(), grid, side)

    s.mu.Lock()
    m, ok := s.matches[id]
    if !ok || m.version != version {
        s.mu.Unlock()
        s.log.Debug("bot reply discarded", zap.String("match", id))
        return
    }
    m.Thinking = false
    if err != nil {
        s.log.Error("bot search failed", zap.String("match", id), zap.Error(err))
        s.publishLocked(m)
        return
    }
    mv := sug.Moves[0]
    if !m.State.Play(mv.Outer, mv.Inner) {
        s.log.Error("bot move rejected", zap.String("match", id), zap.Int("outer", mv.Outer), zap.Int("inner", mv.Inner))
        s.publishLocked(m)
        return
    }
    s.touchLocked(m)
    s.log.Debug("bot replied",
        zap.String("match", id),
        zap.Int("outer", mv.Outer),
        zap.Int("inner", mv.Inner),
        zap.Int("score", int(sug.Score)),
        zap.Int("depth", sug.Stats.Depth),
        zap.Int64("nodes", sug.Stats.Nodes),
    )
    s.logOutcomeLocked(m)
    s.publishLocked(m)
}

// publishLocked snapshots m, fans the rendered payload out to subscribers
// and releases the lock. Sends never block; slow subscribers are dropped.
func (s *Service) publishLocked(m *Match) *Match {
    defer s.mu.Unlock()
    cp := m.snapshot()
    payload := s.render(*cp)
    dropped := 0
    for sub := range s.subs[m.ID] {
        select {
        case sub.ch <- payload:
        default:
            sub.close()
            delete(s.subs[m.ID], sub)
            dropped++
        }
    }
    if dropped > 0 {
        s.log.Debug("dropped slow subscribers", zap.String("match", m.ID), zap.Int("count", dropped))
    }
    return cp
}

// Subscribe registers a subscriber for a match. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, err := s.lookupLocked(id); err != nil {
        return nil, nil, err
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan []byte, 1)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            defer s.mu.Unlock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub, nil
}
