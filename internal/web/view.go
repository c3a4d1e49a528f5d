package web

import (
    "fmt"

    "github.com/jaminalder/super-tic-tac-toe/internal/app"
    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

type cellView struct {
    Outer, Inner int
    Mark         string
    Playable     bool
    Suggested    bool
    Last         bool
}

type subView struct {
    Index  int
    Winner string
    Active bool
    Rows   [3][3]cellView
}

type suggestionView struct {
    Outer, Inner int
    Score        int
    Best         bool
}

type boardView struct {
    ID          string
    Status      string
    Error       string
    Rows        [3][3]subView
    Suggestions []suggestionView
    Depth       int
    Nodes       int64
}

func statusLine(m app.Match) string {
    st := m.State.Status()
    switch st.Outcome {
    case domain.Won:
        return fmt.Sprintf("%v wins", st.Winner)
    case domain.Drawn:
        return "Draw"
    }
    if m.Thinking || m.BotToMove() {
        return "Bot is thinking"
    }
    return fmt.Sprintf("%v to move", m.State.Turn())
}

// newBoardView flattens a match (and optional suggestion) for the templates.
func newBoardView(m app.Match, sug *bot.Suggestion, errMsg string) boardView {
    grid := m.State.Grid()
    last, hasLast := m.State.LastMove()
    open := !m.State.Finished() && !m.Thinking && !m.BotToMove()

    best := map[domain.Move]bool{}
    v := boardView{ID: m.ID, Status: statusLine(m), Error: errMsg}
    if sug != nil {
        for _, mv := range sug.Moves {
            best[mv] = true
        }
        for _, sm := range sug.Ranked {
            v.Suggestions = append(v.Suggestions, suggestionView{
                Outer: sm.Move.Outer,
                Inner: sm.Move.Inner,
                Score: int(sm.Score),
                Best:  best[sm.Move],
            })
        }
        v.Depth, v.Nodes = sug.Stats.Depth, sug.Stats.Nodes
    }

    for outer := 0; outer < 9; outer++ {
        sub := grid.SubGrid(outer)
        allowed := open && grid.Allowed(outer)
        sv := subView{Index: outer, Winner: sub.Winner().String(), Active: allowed}
        for inner := 0; inner < 9; inner++ {
            mv := domain.Move{Outer: outer, Inner: inner}
            sv.Rows[inner/3][inner%3] = cellView{
                Outer:     outer,
                Inner:     inner,
                Mark:      sub.At(inner).String(),
                Playable:  allowed && sub.Empty(inner),
                Suggested: best[mv],
                Last:      hasLast && last == mv,
            }
        }
        v.Rows[outer/3][outer%3] = sv
    }
    return v
}
