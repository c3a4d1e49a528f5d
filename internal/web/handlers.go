package web

import (
    "bytes"
    "errors"
    "fmt"
    "io"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"
    "go.uber.org/zap"

    "github.com/jaminalder/super-tic-tac-toe/internal/app"
    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

type handlers struct {
    svc       *app.Service
    tpl       *templates
    log       *zap.Logger
    heartbeat time.Duration
}

func (h *handlers) renderBoard(m app.Match, sug *bot.Suggestion, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardView(m, sug, errMsg))
}

func (h *handlers) writeBoard(w http.ResponseWriter, m app.Match, sug *bot.Suggestion, errMsg string) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write(h.renderBoard(m, sug, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "base", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    _ = r.ParseForm()
    var opts app.Options
    switch r.Form.Get("mode") {
    case "bot-o":
        opts = app.Options{Mode: app.VersusBot, BotSide: domain.O}
    case "bot-x":
        opts = app.Options{Mode: app.VersusBot, BotSide: domain.X}
    case "", "hotseat":
        opts = app.Options{Mode: app.HotSeat}
    default:
        http.Error(w, "unknown mode", http.StatusBadRequest)
        return
    }
    m, err := h.svc.CreateMatch(opts)
    if err != nil {
        h.log.Error("create match", zap.Error(err))
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/match/"+m.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    m, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.game, "base", newBoardView(*m, nil, "")))
}

// moveError turns a service error into the message shown above the board.
func moveError(err error) string {
    switch {
    case errors.Is(err, app.ErrBotTurn):
        return "Wait for the bot"
    case errors.Is(err, domain.ErrWrongSubgrid):
        return "You must play in the highlighted subgrid"
    case errors.Is(err, domain.ErrSubgridDecided):
        return "That subgrid is already decided"
    case errors.Is(err, domain.ErrOccupied):
        return "Cell is occupied"
    case errors.Is(err, domain.ErrOutOfBounds):
        return "Out of bounds"
    case errors.Is(err, domain.ErrGameOver):
        return "Game is over"
    default:
        return "Invalid move"
    }
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    _ = r.ParseForm()
    outer, errOuter := strconv.Atoi(r.Form.Get("outer"))
    inner, errInner := strconv.Atoi(r.Form.Get("inner"))
    var (
        m   *app.Match
        err error
    )
    if errOuter != nil || errInner != nil {
        err = domain.ErrOutOfBounds
    } else {
        m, err = h.svc.ApplyMove(id, outer, inner)
    }
    if errors.Is(err, app.ErrNotFound) {
        http.NotFound(w, r)
        return
    }
    var errMsg string
    if err != nil {
        errMsg = moveError(err)
        var ok bool
        if m, ok = h.svc.Get(id); !ok {
            http.NotFound(w, r)
            return
        }
    }
    h.writeBoard(w, *m, nil, errMsg)
}

func (h *handlers) undo(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    m, err := h.svc.UndoLastMove(id)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    h.writeBoard(w, *m, nil, "")
}

func (h *handlers) suggest(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    depth := 0
    if v := r.URL.Query().Get("depth"); v != "" {
        d, err := strconv.Atoi(v)
        if err != nil || d < 1 || d > h.svc.Searcher().Options().Depth {
            http.Error(w, "bad depth", http.StatusBadRequest)
            return
        }
        depth = d
    }
    m, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    sug, err := h.svc.SuggestMoves(r.Context(), id, depth)
    if err != nil {
        // a finished match has nothing to suggest; show the board as is
        if !errors.Is(err, bot.ErrNoMoves) {
            h.log.Warn("suggest failed", zap.String("match", id), zap.Error(err))
        }
        h.writeBoard(w, *m, nil, "")
        return
    }
    h.writeBoard(w, *m, &sug, "")
}

// writeEvent emits one SSE event; multi-line payloads become several data lines.
func writeEvent(w io.Writer, event string, payload []byte) {
    _, _ = fmt.Fprintf(w, "event: %s\n", event)
    for _, line := range bytes.Split(payload, []byte("\n")) {
        _, _ = fmt.Fprintf(w, "data: %s\n", line)
    }
    _, _ = io.WriteString(w, "\n")
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    defer unsub()
    ticker := time.NewTicker(h.heartbeat)
    defer ticker.Stop()
    // Initial flush of headers
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case b, ok := <-ch:
            if !ok {
                return
            }
            writeEvent(w, "board", b)
            flusher.Flush()
        }
    }
}
