package tui

import (
    "strings"
    "testing"

    tea "github.com/charmbracelet/bubbletea"

    "github.com/jaminalder/super-tic-tac-toe/internal/app"
    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

func newTestModel(t *testing.T, opts app.Options) (Model, *app.Service) {
    t.Helper()
    searcher := bot.NewSearcher(bot.NewEvaluator(bot.DefaultWeights()), bot.Options{Depth: 2}, nil)
    svc := app.NewService(searcher, nil)
    m, err := New(svc, opts, 2)
    if err != nil {
        t.Fatalf("New error: %v", err)
    }
    t.Cleanup(func() {
        if m.unsub != nil {
            m.unsub()
        }
    })
    return m, svc
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
    t.Helper()
    next, cmd := m.Update(key)
    nm, ok := next.(Model)
    if !ok {
        t.Fatalf("Update returned %T", next)
    }
    return nm, cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestEnterPlaysAtCursor(t *testing.T) {
    m, svc := newTestModel(t, app.Options{})
    if mv := m.cursorMove(); mv != (domain.Move{Outer: 4, Inner: 4}) {
        t.Fatalf("cursor starts at %+v", mv)
    }
    m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
    if m.errMsg != "" {
        t.Fatalf("unexpected error %q", m.errMsg)
    }
    turn, err := svc.CurrentTurn(m.MatchID())
    if err != nil || turn != domain.O {
        t.Fatalf("expected O to move, got %v (%v)", turn, err)
    }
    if !strings.Contains(m.View(), "O to move") {
        t.Fatalf("view should show O to move:\n%s", m.View())
    }
}

func TestCursorClampsAndMaps(t *testing.T) {
    m, _ := newTestModel(t, app.Options{})
    for i := 0; i < 10; i++ {
        m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
    }
    m, _ = press(t, m, runes("l"))
    if m.row != 0 || m.col != 5 {
        t.Fatalf("cursor at row %d col %d", m.row, m.col)
    }
    if mv := m.cursorMove(); mv != (domain.Move{Outer: 1, Inner: 2}) {
        t.Fatalf("row 0 col 5 should map to (1,2), got %+v", mv)
    }
    for i := 0; i < 10; i++ {
        m, _ = press(t, m, runes("j"))
        m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
    }
    if m.row != 8 || m.col != 8 {
        t.Fatalf("cursor should clamp at 8,8, got %d,%d", m.row, m.col)
    }
}

func TestIllegalMoveShowsError(t *testing.T) {
    m, svc := newTestModel(t, app.Options{})
    m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
    m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
    if m.errMsg == "" {
        t.Fatalf("expected an error for an occupied cell")
    }
    st, _ := svc.Get(m.MatchID())
    if st.State.Moves() != 1 {
        t.Fatalf("illegal move must not change state, moves=%d", st.State.Moves())
    }
    if !strings.Contains(m.View(), m.errMsg) {
        t.Fatalf("view should show the error")
    }
}

func TestUndoKey(t *testing.T) {
    m, svc := newTestModel(t, app.Options{})
    m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
    m, _ = press(t, m, runes("z"))
    st, _ := svc.Get(m.MatchID())
    if st.State.Moves() != 0 || st.State.Turn() != domain.X {
        t.Fatalf("undo should restore the empty board")
    }
    if m.match.State.Moves() != 0 {
        t.Fatalf("model should refresh after undo")
    }
}

func TestSuggestionsToggle(t *testing.T) {
    m, _ := newTestModel(t, app.Options{})
    m, cmd := press(t, m, runes("s"))
    if !m.suggest || cmd == nil {
        t.Fatalf("s should enable suggestions and start a search")
    }
    if !strings.Contains(m.View(), "searching") {
        t.Fatalf("view should show a pending search")
    }
    msg := cmd()
    next, _ := m.Update(msg)
    m = next.(Model)
    if m.sug == nil {
        t.Fatalf("suggestion not stored")
    }
    if !strings.Contains(m.View(), "(4,4): 16") {
        t.Fatalf("expected (4,4) ranked first:\n%s", m.View())
    }

    m, cmd = press(t, m, runes("s"))
    if m.suggest || cmd != nil {
        t.Fatalf("second s should hide suggestions")
    }
    if strings.Contains(m.View(), "suggestions (depth") {
        t.Fatalf("suggestions should be hidden")
    }
}

func TestStaleSuggestionIgnored(t *testing.T) {
    m, _ := newTestModel(t, app.Options{})
    m, cmd := press(t, m, runes("s"))
    stale := cmd()
    m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
    next, _ := m.Update(stale)
    m = next.(Model)
    if m.sug != nil {
        t.Fatalf("suggestion for an older position must be dropped")
    }
}

func TestBotReplyArrivesAsUpdate(t *testing.T) {
    m, svc := newTestModel(t, app.Options{Mode: app.VersusBot, BotSide: domain.O})
    m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
    svc.Wait()

    msg := waitForUpdate(m.updates)()
    next, cmd := m.Update(msg)
    m = next.(Model)
    if cmd == nil {
        t.Fatalf("expected to keep listening for updates")
    }
    if m.match.State.Moves() != 2 {
        t.Fatalf("expected the bot reply to be visible, moves=%d", m.match.State.Moves())
    }
    if m.match.State.Turn() != domain.X {
        t.Fatalf("expected X to move after the bot")
    }
}

func TestResubscribeReleasesDroppedSubscription(t *testing.T) {
    m, svc := newTestModel(t, app.Options{})
    released := 0
    old := m.unsub
    m.unsub = func() {
        released++
        old()
    }
    next, cmd := m.Update(updatesClosedMsg{})
    m = next.(Model)
    if released != 1 {
        t.Fatalf("expected the dropped subscription to be released once, got %d", released)
    }
    if cmd == nil {
        t.Fatalf("expected to listen on the new subscription")
    }
    if _, err := svc.ApplyMove(m.MatchID(), 4, 4); err != nil {
        t.Fatalf("move failed: %v", err)
    }
    if _, ok := waitForUpdate(m.updates)().(matchUpdatedMsg); !ok {
        t.Fatalf("new subscription should receive updates")
    }
}

func TestQuit(t *testing.T) {
    m, _ := newTestModel(t, app.Options{})
    _, cmd := press(t, m, runes("q"))
    if cmd == nil {
        t.Fatalf("q should quit")
    }
    if _, ok := cmd().(tea.QuitMsg); !ok {
        t.Fatalf("expected tea.QuitMsg")
    }
}

func TestViewRendersBoard(t *testing.T) {
    m, _ := newTestModel(t, app.Options{})
    m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
    view := m.View()
    if strings.Count(view, "------+-------+------") != 2 {
        t.Fatalf("expected two block separators:\n%s", view)
    }
    if !strings.Contains(view, "X") {
        t.Fatalf("expected X on the board")
    }
}
