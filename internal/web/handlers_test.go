package web

import (
    "bytes"
    "io"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"

    "github.com/jaminalder/super-tic-tac-toe/internal/app"
    "github.com/jaminalder/super-tic-tac-toe/internal/bot"
    "github.com/jaminalder/super-tic-tac-toe/internal/domain"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
    t.Helper()
    searcher := bot.NewSearcher(bot.NewEvaluator(bot.DefaultWeights()), bot.Options{Depth: 2}, nil)
    s := app.NewService(searcher, nil)
    h := NewServer(s, nil, 0)
    return s, h
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
    req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestIndexPage(t *testing.T) {
    _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/match\"") {
        t.Fatalf("index should contain create form; got body: %q", body)
    }
}

func TestCreateRedirectsToMatch(t *testing.T) {
    svc, h := newTestServer(t)
    rr := postForm(h, "/match", url.Values{"mode": {"hotseat"}})
    if rr.Code != http.StatusSeeOther {
        t.Fatalf("expected redirect, got %d", rr.Code)
    }
    loc := rr.Result().Header.Get("Location")
    if !strings.HasPrefix(loc, "/match/") {
        t.Fatalf("expected redirect to /match/{id}, got %q", loc)
    }
    m, ok := svc.Get(strings.TrimPrefix(loc, "/match/"))
    if !ok || m.Mode != app.HotSeat {
        t.Fatalf("expected hot-seat match to exist")
    }
}

func TestCreateRejectsUnknownMode(t *testing.T) {
    _, h := newTestServer(t)
    rr := postForm(h, "/match", url.Values{"mode": {"online"}})
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400, got %d", rr.Code)
    }
}

func TestMatchPageHasBoardAndSSE(t *testing.T) {
    svc, h := newTestServer(t)
    m, _ := svc.CreateMatch(app.Options{})
    req := httptest.NewRequest("GET", "/match/"+m.ID, nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/match/"+m.ID+"/events") {
        t.Fatalf("expected SSE wiring in page; got body: %q", body)
    }
    if !strings.Contains(body, "<html>") || !strings.Contains(body, "htmx.org") {
        t.Fatalf("match page should be a full document with htmx loaded")
    }
    if got := strings.Count(body, "name=\"outer\""); got != 81 {
        t.Fatalf("expected 81 playable cells on an empty board, got %d", got)
    }
}

func TestUnknownMatchIs404(t *testing.T) {
    _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/match/unknown", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", rr.Code)
    }
}

func TestPlayEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
    svc, h := newTestServer(t)
    m, _ := svc.CreateMatch(app.Options{})
    rr := postForm(h, "/match/"+m.ID+"/play", url.Values{"outer": {"0"}, "inner": {"4"}})
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "id=\"board\"") {
        t.Fatalf("expected board fragment, got %q", body)
    }
    if got := strings.Count(body, "name=\"outer\""); got != 9 {
        t.Fatalf("expected only the forced subgrid to be playable, got %d cells", got)
    }
    latest, _ := svc.Get(m.ID)
    if latest.State.Moves() != 1 {
        t.Fatalf("expected move applied, moves=%d", latest.State.Moves())
    }
}

func TestPlayEndpointReportsIllegalMove(t *testing.T) {
    svc, h := newTestServer(t)
    m, _ := svc.CreateMatch(app.Options{})
    svc.ApplyMove(m.ID, 0, 4)
    rr := postForm(h, "/match/"+m.ID+"/play", url.Values{"outer": {"1"}, "inner": {"1"}})
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    if !strings.Contains(rr.Body.String(), "highlighted subgrid") {
        t.Fatalf("expected forced subgrid message, got %q", rr.Body.String())
    }
    rr = postForm(h, "/match/"+m.ID+"/play", url.Values{"outer": {"x"}})
    if !strings.Contains(rr.Body.String(), "Out of bounds") {
        t.Fatalf("expected out of bounds message, got %q", rr.Body.String())
    }
}

func TestUndoEndpoint(t *testing.T) {
    svc, h := newTestServer(t)
    m, _ := svc.CreateMatch(app.Options{})
    svc.ApplyMove(m.ID, 4, 4)
    rr := postForm(h, "/match/"+m.ID+"/undo", nil)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    latest, _ := svc.Get(m.ID)
    if latest.State.Moves() != 0 || latest.State.Turn() != domain.X {
        t.Fatalf("expected undo to clear the move")
    }
}

func TestSuggestEndpointListsMoves(t *testing.T) {
    svc, h := newTestServer(t)
    m, _ := svc.CreateMatch(app.Options{})
    req := httptest.NewRequest("GET", "/match/"+m.ID+"/suggest?depth=2", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "<li class=\"best\">(4,4)") {
        t.Fatalf("expected (4,4) as best suggestion, got %q", body)
    }
    req = httptest.NewRequest("GET", "/match/"+m.ID+"/suggest?depth=99", nil)
    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400 for excessive depth, got %d", rr.Code)
    }
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
    _, h := newTestServer(t)
    rrCreate := postForm(h, "/match", nil)
    loc := rrCreate.Result().Header.Get("Location")
    if loc == "" {
        t.Fatalf("missing redirect location")
    }
    req := httptest.NewRequest("GET", loc+"/events", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    ct := rr.Result().Header.Get("Content-Type")
    if !strings.HasPrefix(ct, "text/event-stream") {
        io.Copy(io.Discard, rr.Result().Body)
        t.Fatalf("expected text/event-stream, got %q", ct)
    }
}

func TestWriteEventSplitsLines(t *testing.T) {
    var buf bytes.Buffer
    writeEvent(&buf, "board", []byte("<div>\n</div>"))
    want := "event: board\ndata: <div>\ndata: </div>\n\n"
    if buf.String() != want {
        t.Fatalf("unexpected event encoding %q", buf.String())
    }
}
