package tui

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    tea "github.com/charmbracelet/bubbletea"
    "github.com/charmbracelet/lipgloss"

    "github.com/jaminalder/super-tic-tac-toe/internal/app"
    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

var (
    xStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
    oStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
    blockedStyle = lipgloss.NewStyle().Faint(true)
    cursorStyle  = lipgloss.NewStyle().Reverse(true)
    suggestStyle = lipgloss.NewStyle().Background(lipgloss.Color("22"))
    errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type matchUpdatedMsg struct{}

type updatesClosedMsg struct{}

type suggestionMsg struct {
    sug bot.Suggestion
    err error
    at  time.Time
}

// Model is a bubbletea model playing one match through the app service.
type Model struct {
    svc     *app.Service
    id       string
    depth    int
    match    *app.Match
    row      int
    col      int
    suggest  bool
    sug      *bot.Suggestion
    errMsg   string
    updates  <-chan []byte
    unsub    func()
    quitting bool
}

// New creates a match with opts and returns a model bound to it. depth
// bounds suggestions; zero uses the bot's configured depth.
func New(svc *app.Service, opts app.Options, depth int) (Model, error) {
    m, err := svc.CreateMatch(opts)
    if err != nil {
        return Model{}, err
    }
    model := Model{svc: svc, id: m.ID, depth: depth, match: m, row: 4, col: 4}
    if err := model.subscribe(); err != nil {
        return Model{}, err
    }
    // A bot opening may have landed before the subscription.
    model.refresh()
    return model, nil
}

func (m *Model) subscribe() error {
    ctx, cancel := context.WithCancel(context.Background())
    ch, unsub, err := m.svc.Subscribe(ctx, m.id)
    if err != nil {
        cancel()
        return err
    }
    m.updates = ch
    m.unsub = func() {
        unsub()
        cancel()
    }
    return nil
}

// MatchID returns the id of the match being played.
func (m Model) MatchID() string { return m.id }

func waitForUpdate(updates <-chan []byte) tea.Cmd {
    return func() tea.Msg {
        if _, ok := <-updates; !ok {
            return updatesClosedMsg{}
        }
        return matchUpdatedMsg{}
    }
}

func suggestCmd(svc *app.Service, id string, depth int, at time.Time) tea.Cmd {
    return func() tea.Msg {
        sug, err := svc.SuggestMoves(context.Background(), id, depth)
        return suggestionMsg{sug: sug, err: err, at: at}
    }
}

func (m Model) Init() tea.Cmd {
    return waitForUpdate(m.updates)
}

// cursorMove maps the cursor on the 9x9 board to (outer, inner).
func (m Model) cursorMove() domain.Move {
    return domain.Move{
        Outer: (m.row/3)*3 + m.col/3,
        Inner: (m.row%3)*3 + m.col%3,
    }
}

func (m *Model) refresh() {
    if cur, ok := m.svc.Get(m.id); ok {
        m.match = cur
    }
}

// changed refreshes the match and asks for new suggestions when they are shown.
func (m *Model) changed() tea.Cmd {
    m.refresh()
    m.sug = nil
    if !m.suggest || m.match.State.Finished() {
        return nil
    }
    return suggestCmd(m.svc, m.id, m.depth, m.match.Updated)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
    switch msg := msg.(type) {
    case tea.KeyMsg:
        return m.handleKey(msg)
    case matchUpdatedMsg:
        cmd := m.changed()
        return m, tea.Batch(cmd, waitForUpdate(m.updates))
    case updatesClosedMsg:
        if m.quitting {
            return m, nil
        }
        // The service dropped us; release the old subscription before taking a new one.
        if m.unsub != nil {
            m.unsub()
        }
        if err := m.subscribe(); err != nil {
            m.errMsg = err.Error()
            return m, nil
        }
        cmd := m.changed()
        return m, tea.Batch(cmd, waitForUpdate(m.updates))
    case suggestionMsg:
        if !m.suggest || !msg.at.Equal(m.match.Updated) {
            return m, nil
        }
        if msg.err != nil {
            if !errors.Is(msg.err, bot.ErrNoMoves) {
                m.errMsg = msg.err.Error()
            }
            return m, nil
        }
        m.sug = &msg.sug
    }
    return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
    switch msg.String() {
    case "q", "esc", "ctrl+c":
        m.quitting = true
        if m.unsub != nil {
            m.unsub()
        }
        return m, tea.Quit
    case "up", "k":
        if m.row > 0 {
            m.row--
        }
    case "down", "j":
        if m.row < 8 {
            m.row++
        }
    case "left", "h":
        if m.col > 0 {
            m.col--
        }
    case "right", "l":
        if m.col < 8 {
            m.col++
        }
    case "enter", " ":
        mv := m.cursorMove()
        if _, err := m.svc.ApplyMove(m.id, mv.Outer, mv.Inner); err != nil {
            m.errMsg = err.Error()
            return m, nil
        }
        m.errMsg = ""
        cmd := m.changed()
        return m, cmd
    case "z":
        if _, err := m.svc.UndoLastMove(m.id); err != nil {
            m.errMsg = err.Error()
            return m, nil
        }
        m.errMsg = ""
        cmd := m.changed()
        return m, cmd
    case "s":
        m.suggest = !m.suggest
        cmd := m.changed()
        return m, cmd
    }
    return m, nil
}

func (m Model) cell(mv domain.Move, grid *domain.MetaGrid, best map[domain.Move]bool) string {
    sub := grid.SubGrid(mv.Outer)
    mark := "·"
    style := lipgloss.NewStyle()
    switch sub.At(mv.Inner) {
    case domain.X:
        mark, style = "X", xStyle
    case domain.O:
        mark, style = "O", oStyle
    default:
        if !grid.Allowed(mv.Outer) {
            style = blockedStyle
        } else if best[mv] {
            style = suggestStyle
        }
    }
    if mv == m.cursorMove() {
        style = cursorStyle.Inherit(style)
    }
    return style.Render(mark)
}

func (m Model) View() string {
    grid := m.match.State.Grid()
    best := map[domain.Move]bool{}
    if m.sug != nil {
        for _, mv := range m.sug.Moves {
            best[mv] = true
        }
    }

    var b strings.Builder
    for row := 0; row < 9; row++ {
        if row > 0 && row%3 == 0 {
            b.WriteString("------+-------+------\n")
        }
        for col := 0; col < 9; col++ {
            if col > 0 && col%3 == 0 {
                b.WriteString(" |")
            }
            if col > 0 {
                b.WriteString(" ")
            }
            mv := domain.Move{Outer: (row/3)*3 + col/3, Inner: (row%3)*3 + col%3}
            b.WriteString(m.cell(mv, &grid, best))
        }
        b.WriteString("\n")
    }
    b.WriteString("\n" + m.status() + "\n")
    if m.errMsg != "" {
        b.WriteString(errStyle.Render(m.errMsg) + "\n")
    }
    if m.suggest {
        b.WriteString(m.suggestions())
    }
    b.WriteString("\narrows/hjkl move  enter play  z undo  s suggestions  q quit\n")
    return b.String()
}

func (m Model) status() string {
    st := m.match.State.Status()
    switch st.Outcome {
    case domain.Won:
        return fmt.Sprintf("%v wins", st.Winner)
    case domain.Drawn:
        return "Draw"
    }
    if m.match.Thinking || m.match.BotToMove() {
        return "Bot is thinking..."
    }
    return fmt.Sprintf("%v to move", m.match.State.Turn())
}

func (m Model) suggestions() string {
    if m.sug == nil {
        return "suggestions: searching...\n"
    }
    var b strings.Builder
    fmt.Fprintf(&b, "suggestions (depth %d, %d nodes):\n", m.sug.Stats.Depth, m.sug.Stats.Nodes)
    for i, sm := range m.sug.Ranked {
        if i == 5 {
            break
        }
        fmt.Fprintf(&b, "  (%d,%d): %d\n", sm.Move.Outer, sm.Move.Inner, sm.Score)
    }
    return b.String()
}
